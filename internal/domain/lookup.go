package domain

// ============================================================
// External lookup collaborators — typed response contracts
// ============================================================

// AddressResult is what the CEP lookup and the reverse geocoder hand back.
type AddressResult struct {
	Street     string `json:"street"`
	Number     string `json:"number,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// CompanyPartner is one entry in a company's ownership roster (QSA).
type CompanyPartner struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// CompanyActivity is a CNAE activity code plus its description.
type CompanyActivity struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// RegistryRecord is the slice of a tax-registry lookup that gets merged
// into a client's primary fields.
type RegistryRecord struct {
	LegalName       string        `json:"legal_name"`
	TradeName       string        `json:"trade_name"`
	TaxID           string        `json:"tax_id"`
	Phone           string        `json:"phone"`
	Email           string        `json:"email"`
	ShareCapital    float64       `json:"share_capital"`
	PrimaryActivity string        `json:"primary_activity"`
	Address         AddressResult `json:"address"`
}

// RegistryDetails carries the ancillary registry metadata shown to the
// user read-only; it is never written into a client record.
type RegistryDetails struct {
	CadastralStatus     string            `json:"cadastral_status"`
	CadastralStatusDate string            `json:"cadastral_status_date,omitempty"`
	FoundedAt           string            `json:"founded_at"`
	LegalNature         string            `json:"legal_nature,omitempty"`
	StateRegistration   string            `json:"state_registration"`
	Partners            []CompanyPartner  `json:"partners"`
	PrimaryActivity     CompanyActivity   `json:"primary_activity"`
	SecondaryActivities []CompanyActivity `json:"secondary_activities"`
}

// RegistryLookup bundles the mergeable record with its display-only details.
type RegistryLookup struct {
	Record  RegistryRecord  `json:"record"`
	Details RegistryDetails `json:"details"`
}

// CompanyCandidate is one result of a free-text company search, offered to
// the user for selection before any merge happens.
type CompanyCandidate struct {
	LegalName       string `json:"legal_name"`
	TaxID           string `json:"tax_id"`
	City            string `json:"city"`
	State           string `json:"state"`
	PrimaryActivity string `json:"primary_activity,omitempty"`
	Street          string `json:"street,omitempty"`
	Number          string `json:"number,omitempty"`
	District        string `json:"district,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
}
