package domain

import "time"

// ClientType classifies a client by business segment.
type ClientType string

const (
	TypeBuilder        ClientType = "Construtora"
	TypeRetail         ClientType = "Varejo / Home Center"
	TypeInfrastructure ClientType = "Infraestrutura"
	TypeIndividual     ClientType = "Pessoa Física"
)

// Valid reports whether t is one of the known client types.
func (t ClientType) Valid() bool {
	switch t {
	case TypeBuilder, TypeRetail, TypeInfrastructure, TypeIndividual:
		return true
	}
	return false
}

// ClientStatus is the lifecycle status of a client relationship.
type ClientStatus string

const (
	StatusNew         ClientStatus = "Novo"
	StatusActive      ClientStatus = "Ativo"
	StatusInactive    ClientStatus = "Inativo"
	StatusPotential   ClientStatus = "Potencial"
	StatusProspecting ClientStatus = "Prospecção"
	StatusLost        ClientStatus = "Perdido"
	StatusDelinquent  ClientStatus = "Inadimplente"
)

// Valid reports whether s is one of the known statuses.
func (s ClientStatus) Valid() bool {
	switch s {
	case StatusNew, StatusActive, StatusInactive, StatusPotential,
		StatusProspecting, StatusLost, StatusDelinquent:
		return true
	}
	return false
}

// Address is a Brazilian postal address.
type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"` // CEP, digits only
}

// Contact is a person reachable at a client or at one of its sites.
type Contact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp"`
	Email    string `json:"email"`
}

// Mix is a concrete-mix recipe plus commercial figures.
// Strength (FCK), slump and water/cement ratio are free text — sales
// people copy them straight from technical sheets.
type Mix struct {
	ID            string  `json:"id"`
	Strength      string  `json:"strength"`
	AggregateType string  `json:"aggregate_type"`
	Slump         string  `json:"slump"`
	WaterCement   string  `json:"water_cement"`
	Module        string  `json:"module"`
	Notes         string  `json:"notes"`
	UnitPrice     float64 `json:"unit_price_m3"`
	VolumeM3      float64 `json:"volume_m3"`
}

// Site ("obra") is a construction project belonging to a client.
type Site struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Address  Address   `json:"address"`
	Notes    string    `json:"notes"`
	Mixes    []Mix     `json:"mixes"`
	Contacts []Contact `json:"contacts"`
}

// TotalVolume sums the volume of every mix on the site.
func (s Site) TotalVolume() float64 {
	var total float64
	for _, m := range s.Mixes {
		total += m.VolumeM3
	}
	return total
}

// Client is a tracked company or individual.
type Client struct {
	ID            string       `json:"id"`
	TradeName     string       `json:"trade_name"` // nome fantasia
	LegalName     string       `json:"legal_name"` // razão social
	Type          ClientType   `json:"type"`
	TaxID         string       `json:"tax_id"` // CNPJ or CPF, stored display-formatted
	Phone         string       `json:"phone"`
	WhatsApp      string       `json:"whatsapp"`
	Email         string       `json:"email"`
	Status        ClientStatus `json:"status"`
	OfficeAddress Address      `json:"office_address"`
	Sites         []Site       `json:"sites"`
	Contacts      []Contact    `json:"contacts"`

	PaymentTerms      string  `json:"payment_terms,omitempty"`
	PrimaryWorkType   string  `json:"primary_work_type,omitempty"`
	Notes             string  `json:"notes,omitempty"`
	ShareCapital      float64 `json:"share_capital,omitempty"`
	PrimaryActivity   string  `json:"primary_activity,omitempty"`
	StateRegistration string  `json:"state_registration,omitempty"`
	Website           string  `json:"website,omitempty"`
	Facebook          string  `json:"facebook,omitempty"`
	Instagram         string  `json:"instagram,omitempty"`
	LinkedIn          string  `json:"linkedin,omitempty"`
	YouTube           string  `json:"youtube,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TotalVolume sums the volume of every mix across every site of the client.
// Absent lists contribute zero.
func (c Client) TotalVolume() float64 {
	var total float64
	for _, s := range c.Sites {
		total += s.TotalVolume()
	}
	return total
}
