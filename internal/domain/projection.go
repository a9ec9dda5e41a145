package domain

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode selects the one active ordering of the projected client list.
type SortMode string

const (
	SortCreatedDesc SortMode = "created_desc" // default
	SortCreatedAsc  SortMode = "created_asc"
	SortNameAsc     SortMode = "name_asc"
	SortNameDesc    SortMode = "name_desc"
	SortVolumeDesc  SortMode = "volume_desc"
)

// ProjectionCriteria drives the filter → search → sort pipeline. All filter
// fields are optional and combined with AND; Query is the free-text search.
type ProjectionCriteria struct {
	Type   ClientType
	Status ClientStatus
	City   string
	Query  string
	Sort   SortMode
}

// pt-BR collation so names with accents sort the way users read them.
var nameCollator = collate.New(language.BrazilianPortuguese)

// Project applies criteria to clients and returns a new ordered slice. The
// input slice is never reordered or mutated; ties under volume sort keep
// their prior relative order.
func Project(clients []Client, crit ProjectionCriteria) []Client {
	query := strings.ToLower(strings.TrimSpace(crit.Query))
	queryDigits := NormalizeTaxID(crit.Query)
	city := strings.ToLower(strings.TrimSpace(crit.City))

	out := make([]Client, 0, len(clients))
	for _, c := range clients {
		if crit.Type != "" && c.Type != crit.Type {
			continue
		}
		if crit.Status != "" && c.Status != crit.Status {
			continue
		}
		if city != "" && !matchesCity(c, city) {
			continue
		}
		if query != "" && !matchesQuery(c, query, queryDigits) {
			continue
		}
		out = append(out, c)
	}

	switch crit.Sort {
	case SortCreatedAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	case SortNameAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return nameCollator.CompareString(out[i].TradeName, out[j].TradeName) < 0
		})
	case SortNameDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return nameCollator.CompareString(out[j].TradeName, out[i].TradeName) < 0
		})
	case SortVolumeDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].TotalVolume() > out[j].TotalVolume()
		})
	default: // SortCreatedDesc
		sort.SliceStable(out, func(i, j int) bool {
			return out[j].CreatedAt.Before(out[i].CreatedAt)
		})
	}

	return out
}

// matchesCity checks the office city and every site city for a
// case-insensitive substring match.
func matchesCity(c Client, city string) bool {
	if strings.Contains(strings.ToLower(c.OfficeAddress.City), city) {
		return true
	}
	for _, s := range c.Sites {
		if strings.Contains(strings.ToLower(s.Address.City), city) {
			return true
		}
	}
	return false
}

// matchesQuery implements the unified search: a digit-infix match against
// the tax ID, or a lowercase substring hit on any searched text field.
func matchesQuery(c Client, query, queryDigits string) bool {
	if queryDigits != "" && strings.Contains(NormalizeTaxID(c.TaxID), queryDigits) {
		return true
	}

	fields := []string{c.TradeName, c.LegalName, c.Phone, c.WhatsApp, c.Email}
	for _, ct := range c.Contacts {
		fields = append(fields, ct.Name, ct.Phone, ct.WhatsApp, ct.Email)
	}
	for _, s := range c.Sites {
		fields = append(fields, s.Name)
		for _, ct := range s.Contacts {
			fields = append(fields, ct.Name, ct.Phone, ct.WhatsApp, ct.Email)
		}
	}

	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
