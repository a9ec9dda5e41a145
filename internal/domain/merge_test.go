package domain_test

import (
	"testing"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
)

func TestMergeAddress_NonEmptyWins(t *testing.T) {
	addr := domain.Address{Street: "Rua Antiga", Number: "10", City: "Campinas"}
	fetched := domain.AddressResult{Street: "Avenida Nova", City: "São Paulo", PostalCode: "01310-100"}

	got := domain.MergeAddress(addr, fetched)

	if got.Street != "Avenida Nova" {
		t.Errorf("street = %q", got.Street)
	}
	if got.Number != "10" {
		t.Errorf("empty incoming number should keep existing, got %q", got.Number)
	}
	if got.City != "São Paulo" {
		t.Errorf("city = %q", got.City)
	}
	if got.PostalCode != "01310100" {
		t.Errorf("postal code should be stored digits only, got %q", got.PostalCode)
	}
}

func TestMergeRegistryRecord(t *testing.T) {
	c := domain.Client{
		TradeName: "Apelido Existente",
		Phone:     "(11) 91234-5678",
	}
	rec := domain.RegistryRecord{
		LegalName:       "Empresa Exemplo Ltda",
		TradeName:       "",
		TaxID:           "12.345.678/0001-99",
		Email:           "contato@exemplo.com.br",
		ShareCapital:    150000,
		PrimaryActivity: "4120-4/00 Construção de edifícios",
		Address:         domain.AddressResult{City: "São Paulo", State: "SP"},
	}

	got := domain.MergeRegistryRecord(c, rec)

	if got.LegalName != rec.LegalName {
		t.Errorf("legal name = %q", got.LegalName)
	}
	if got.TradeName != "Apelido Existente" {
		t.Errorf("empty incoming trade name should keep existing, got %q", got.TradeName)
	}
	if got.Phone != "(11) 91234-5678" {
		t.Errorf("phone should survive, got %q", got.Phone)
	}
	if got.ShareCapital != 150000 {
		t.Errorf("share capital = %v", got.ShareCapital)
	}
	if got.OfficeAddress.City != "São Paulo" || got.OfficeAddress.State != "SP" {
		t.Errorf("office address = %+v", got.OfficeAddress)
	}
}

func TestMergeRegistryRecord_ZeroCapitalKeepsExisting(t *testing.T) {
	c := domain.Client{ShareCapital: 50000}
	got := domain.MergeRegistryRecord(c, domain.RegistryRecord{})
	if got.ShareCapital != 50000 {
		t.Errorf("zero incoming capital should keep existing, got %v", got.ShareCapital)
	}
}
