package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/infra/observability"
	"github.com/vbarros/obraprime-crm-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// enrichmentLimit caps how many registry lookups run concurrently while
// filling in search candidates.
const enrichmentLimit = 4

// LookupService fronts the public lookup APIs (CEP, CNPJ, reverse
// geocoding, free-text company search) with caching and metrics.
type LookupService struct {
	addresses port.AddressLookup
	registry  port.CompanyRegistry
	geocoder  port.ReverseGeocoder
	searcher  port.CompanySearcher

	cepCache  port.Cache[*domain.AddressResult]
	cnpjCache port.Cache[*domain.RegistryLookup]

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLookupService creates a new LookupService.
func NewLookupService(
	addresses port.AddressLookup,
	registry port.CompanyRegistry,
	geocoder port.ReverseGeocoder,
	searcher port.CompanySearcher,
	cepCache port.Cache[*domain.AddressResult],
	cnpjCache port.Cache[*domain.RegistryLookup],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *LookupService {
	return &LookupService{
		addresses: addresses,
		registry:  registry,
		geocoder:  geocoder,
		searcher:  searcher,
		cepCache:  cepCache,
		cnpjCache: cnpjCache,
		metrics:   metrics,
		logger:    logger,
	}
}

// LookupCEP resolves a Brazilian postal code to an address.
func (s *LookupService) LookupCEP(ctx context.Context, cep string) (*domain.AddressResult, error) {
	ctx, span := tracer.Start(ctx, "LookupService.LookupCEP")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("lookup_cep", time.Since(start)) }()

	digits := domain.NormalizeTaxID(cep)
	if len(digits) != 8 {
		return nil, &domain.ErrValidation{Field: "cep", Message: "CEP deve conter 8 dígitos"}
	}
	span.SetAttributes(attribute.String("cep", digits))

	if cached, ok := s.cepCache.Get(digits); ok {
		s.metrics.IncrCacheHit("cep")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("cep")

	addr, err := s.addresses.LookupCEP(ctx, digits)
	if err != nil {
		s.metrics.IncrLookupError("viacep")
		return nil, err
	}

	s.cepCache.Set(digits, addr)
	return addr, nil
}

// LookupCNPJ resolves a CNPJ in the national tax registry.
func (s *LookupService) LookupCNPJ(ctx context.Context, cnpj string) (*domain.RegistryLookup, error) {
	ctx, span := tracer.Start(ctx, "LookupService.LookupCNPJ")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("lookup_cnpj", time.Since(start)) }()

	digits := domain.NormalizeTaxID(cnpj)
	if !domain.ValidTaxIDDigits(digits) {
		return nil, &domain.ErrValidation{Field: "cnpj", Message: "CNPJ deve conter 14 dígitos válidos"}
	}
	span.SetAttributes(attribute.String("cnpj", digits))

	if cached, ok := s.cnpjCache.Get(digits); ok {
		s.metrics.IncrCacheHit("cnpj")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("cnpj")

	lookup, err := s.registry.LookupCNPJ(ctx, digits)
	if err != nil {
		s.metrics.IncrLookupError("brasilapi")
		return nil, err
	}

	s.cnpjCache.Set(digits, lookup)
	return lookup, nil
}

// ReverseGeocode resolves a coordinate pair to the nearest address.
func (s *LookupService) ReverseGeocode(ctx context.Context, lat, lon float64) (*domain.AddressResult, error) {
	ctx, span := tracer.Start(ctx, "LookupService.ReverseGeocode")
	defer span.End()
	span.SetAttributes(attribute.Float64("lat", lat), attribute.Float64("lon", lon))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("reverse_geocode", time.Since(start)) }()

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, &domain.ErrValidation{Field: "coordinates", Message: "coordenadas fora do intervalo válido"}
	}

	addr, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		s.metrics.IncrLookupError("nominatim")
		return nil, err
	}
	return addr, nil
}

// SearchCompanies turns a free-text query into registry candidates. When
// the query itself is a full CNPJ the registry is consulted directly and a
// single candidate comes back. Otherwise the search agent proposes
// candidates and each one with a tax ID is enriched from the registry
// concurrently; enrichment is best effort and a failed lookup leaves the
// candidate as the agent returned it.
func (s *LookupService) SearchCompanies(ctx context.Context, query string) ([]domain.CompanyCandidate, error) {
	ctx, span := tracer.Start(ctx, "LookupService.SearchCompanies")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("search_companies", time.Since(start)) }()

	if query == "" {
		return nil, &domain.ErrValidation{Field: "query", Message: "informe um nome ou CNPJ para buscar"}
	}

	if digits := domain.NormalizeTaxID(query); domain.ValidTaxIDDigits(digits) {
		lookup, err := s.LookupCNPJ(ctx, digits)
		if err != nil {
			return nil, err
		}
		return []domain.CompanyCandidate{candidateFromRecord(lookup.Record)}, nil
	}

	candidates, err := s.searcher.SearchCompanies(ctx, query)
	if err != nil {
		s.metrics.IncrLookupError("search-agent")
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichmentLimit)
	for i := range candidates {
		i := i
		digits := domain.NormalizeTaxID(candidates[i].TaxID)
		if !domain.ValidTaxIDDigits(digits) {
			continue
		}
		g.Go(func() error {
			lookup, err := s.LookupCNPJ(gctx, digits)
			if err != nil {
				s.logger.Debug("candidate enrichment skipped",
					zap.String("tax_id", digits), zap.Error(err))
				return nil
			}
			candidates[i] = mergeCandidate(candidates[i], lookup.Record)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich candidates: %w", err)
	}

	return candidates, nil
}

func candidateFromRecord(r domain.RegistryRecord) domain.CompanyCandidate {
	return domain.CompanyCandidate{
		LegalName:       r.LegalName,
		TaxID:           r.TaxID,
		City:            r.Address.City,
		State:           r.Address.State,
		PrimaryActivity: r.PrimaryActivity,
		Street:          r.Address.Street,
		Number:          r.Address.Number,
		District:        r.Address.District,
		PostalCode:      r.Address.PostalCode,
		Phone:           r.Phone,
		Email:           r.Email,
	}
}

// mergeCandidate fills the gaps in an agent candidate with registry data;
// agent-provided fields keep precedence.
func mergeCandidate(c domain.CompanyCandidate, r domain.RegistryRecord) domain.CompanyCandidate {
	full := candidateFromRecord(r)
	if c.LegalName == "" {
		c.LegalName = full.LegalName
	}
	if c.City == "" {
		c.City = full.City
	}
	if c.State == "" {
		c.State = full.State
	}
	if c.PrimaryActivity == "" {
		c.PrimaryActivity = full.PrimaryActivity
	}
	if c.Street == "" {
		c.Street = full.Street
	}
	if c.Number == "" {
		c.Number = full.Number
	}
	if c.District == "" {
		c.District = full.District
	}
	if c.PostalCode == "" {
		c.PostalCode = full.PostalCode
	}
	if c.Phone == "" {
		c.Phone = full.Phone
	}
	if c.Email == "" {
		c.Email = full.Email
	}
	return c
}
