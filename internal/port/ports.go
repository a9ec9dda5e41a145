// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
)

// ClientStore persists the client collection as a single snapshot: Load
// hands back the whole collection, Save rewrites it wholesale. The later
// write wins unconditionally; there is no per-record reconciliation.
type ClientStore interface {
	Load(ctx context.Context) ([]domain.Client, error)
	Save(ctx context.Context, clients []domain.Client) error
}

// UserStore persists application accounts the same snapshot way.
type UserStore interface {
	LoadUsers(ctx context.Context) ([]domain.User, error)
	SaveUsers(ctx context.Context, users []domain.User) error

	LoadRefreshTokens(ctx context.Context) ([]domain.RefreshToken, error)
	SaveRefreshTokens(ctx context.Context, tokens []domain.RefreshToken) error
}

// LogStore persists the append-only access and share logs.
type LogStore interface {
	AppendAccessEvent(ctx context.Context, ev domain.AccessEvent) error
	LoadAccessLog(ctx context.Context) ([]domain.AccessEvent, error)

	AppendShareEvent(ctx context.Context, ev domain.ShareEvent) error
	LoadShareLog(ctx context.Context) ([]domain.ShareEvent, error)

	// Wholesale replacement, used only by backup restore.
	ReplaceAccessLog(ctx context.Context, log []domain.AccessEvent) error
	ReplaceShareLog(ctx context.Context, log []domain.ShareEvent) error
}

// AddressLookup resolves a CEP to an address.
type AddressLookup interface {
	LookupCEP(ctx context.Context, cep string) (*domain.AddressResult, error)
}

// ReverseGeocoder resolves a coordinate pair to an address.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*domain.AddressResult, error)
}

// CompanyRegistry looks a company up in the tax registry by normalized CNPJ.
type CompanyRegistry interface {
	LookupCNPJ(ctx context.Context, cnpj string) (*domain.RegistryLookup, error)
}

// CompanySearcher finds company candidates from a free-text query.
type CompanySearcher interface {
	SearchCompanies(ctx context.Context, query string) ([]domain.CompanyCandidate, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
