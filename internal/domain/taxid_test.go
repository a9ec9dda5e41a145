package domain_test

import (
	"testing"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
)

func TestNormalizeTaxID(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"12.345.678/0001-99", "12345678000199"},
		{"12345678000199", "12345678000199"},
		{" 12.345.678/0001-99 ", "12345678000199"},
		{"abc", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := domain.NormalizeTaxID(c.in); got != c.want {
			t.Errorf("NormalizeTaxID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatTaxID_FullCNPJ(t *testing.T) {
	got := domain.FormatTaxID("12345678000199")
	want := "12.345.678/0001-99"
	if got != want {
		t.Errorf("FormatTaxID = %q, want %q", got, want)
	}

	// Already formatted input comes out the same.
	if again := domain.FormatTaxID(got); again != want {
		t.Errorf("FormatTaxID(formatted) = %q, want %q", again, want)
	}
}

func TestFormatTaxID_PartialInputUnchanged(t *testing.T) {
	for _, in := range []string{"123", "12.345.678", "123.456.789-09", ""} {
		if got := domain.FormatTaxID(in); got != in {
			t.Errorf("FormatTaxID(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestValidTaxIDDigits(t *testing.T) {
	if !domain.ValidTaxIDDigits("12345678000199") {
		t.Error("expected 14 distinct digits to be valid")
	}
	if domain.ValidTaxIDDigits("123") {
		t.Error("expected short input to be invalid")
	}
	if domain.ValidTaxIDDigits("00000000000000") {
		t.Error("expected repeated digit to be invalid")
	}
}

func TestFormatPhone(t *testing.T) {
	if got := domain.FormatPhone("11987654321"); got != "(11) 98765-4321" {
		t.Errorf("FormatPhone = %q", got)
	}
	if got := domain.FormatPhone("5511987654321"); got != "+55 (11) 98765-4321" {
		t.Errorf("FormatPhone(+55) = %q", got)
	}
	if got := domain.FormatPhone("123"); got != "123" {
		t.Errorf("FormatPhone(short) = %q, want unchanged", got)
	}
}
