// Package service holds the application services: client management,
// external lookups, authentication and the admin reporting view.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/infra/observability"
	"github.com/vbarros/obraprime-crm-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/clients")

// ClientsService owns the client collection: CRUD with the duplicate
// guard, the projected list view and the nested site/mix/contact
// operations. Every mutation loads the snapshot, works on a copy, and
// rewrites the whole collection; a failed save leaves the stored
// snapshot untouched.
type ClientsService struct {
	store   port.ClientStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewClientsService creates the service with its dependencies injected.
func NewClientsService(store port.ClientStore, metrics *observability.Metrics, logger *zap.Logger) *ClientsService {
	return &ClientsService{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// List returns the projected view of the collection.
func (s *ClientsService) List(ctx context.Context, crit domain.ProjectionCriteria) ([]domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientsService.List")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("clients_list", time.Since(start))
	}()

	clients, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	s.metrics.SetClientsTotal(len(clients))

	return domain.Project(clients, crit), nil
}

// Get returns one client by ID.
func (s *ClientsService) Get(ctx context.Context, clientID string) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientsService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	clients, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}

	c, ok := domain.Find(clients, clientID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "client", ID: clientID}
	}
	return &c, nil
}

// Save validates and persists a client, creating it when its ID is new.
// The duplicate guard runs over normalized tax IDs, excluding the
// candidate itself so edits are allowed; on acceptance the tax ID is
// rewritten to its display form before storage.
func (s *ClientsService) Save(ctx context.Context, candidate domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientsService.Save")
	defer span.End()

	if candidate.TradeName == "" {
		return nil, &domain.ErrValidation{Field: "trade_name", Message: "Nome fantasia é obrigatório"}
	}
	if candidate.Type != "" && !candidate.Type.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "Tipo de cliente inválido"}
	}
	if candidate.Status != "" && !candidate.Status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "Status inválido"}
	}

	clients, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}

	normalized := domain.NormalizeTaxID(candidate.TaxID)
	if normalized != "" {
		for _, existing := range clients {
			if existing.ID != candidate.ID && domain.NormalizeTaxID(existing.TaxID) == normalized {
				return nil, &domain.ErrDuplicateTaxID{TaxID: candidate.TaxID}
			}
		}
	}
	candidate.TaxID = domain.FormatTaxID(candidate.TaxID)

	if candidate.ID == "" {
		candidate.ID = uuid.New().String()
	}
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = time.Now().UTC()
	}
	if candidate.Type == "" {
		candidate.Type = domain.TypeBuilder
	}
	if candidate.Status == "" {
		candidate.Status = domain.StatusNew
	}

	if _, exists := domain.Find(clients, candidate.ID); exists {
		clients = domain.Replace(clients, candidate)
	} else {
		clients = domain.Append(clients, candidate)
	}

	if err := s.saveAll(ctx, clients); err != nil {
		return nil, err
	}

	s.logger.Info("client saved",
		zap.String("client_id", candidate.ID),
		zap.String("trade_name", candidate.TradeName),
	)
	return &candidate, nil
}

// Update rewrites an existing client. Unlike Save, an unknown ID is an
// error rather than a fresh record, so an update against a vanished
// client cannot resurrect it.
func (s *ClientsService) Update(ctx context.Context, candidate domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientsService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", candidate.ID))

	clients, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	if _, ok := domain.Find(clients, candidate.ID); !ok {
		return nil, &domain.ErrNotFound{Resource: "client", ID: candidate.ID}
	}
	return s.Save(ctx, candidate)
}

// Delete removes a client. Deleting an unknown ID is an error so the UI
// can tell the user the record is already gone.
func (s *ClientsService) Delete(ctx context.Context, clientID string) error {
	ctx, span := tracer.Start(ctx, "ClientsService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	clients, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load clients: %w", err)
	}

	if _, ok := domain.Find(clients, clientID); !ok {
		return &domain.ErrNotFound{Resource: "client", ID: clientID}
	}

	if err := s.saveAll(ctx, domain.Remove(clients, clientID)); err != nil {
		return err
	}

	s.logger.Info("client deleted", zap.String("client_id", clientID))
	return nil
}

// ExportRows renders the projected view as a flat table, one row per
// client, for the CSV export.
func (s *ClientsService) ExportRows(ctx context.Context, crit domain.ProjectionCriteria) ([]domain.ExportRow, error) {
	projected, err := s.List(ctx, crit)
	if err != nil {
		return nil, err
	}
	return domain.ExportRows(projected), nil
}

// MergeRegistry overlays a tax-registry record onto a stored client,
// non-empty incoming fields winning, and persists the result. The merge
// can rewrite the client's tax ID, so the uniqueness guard runs again
// here before anything is stored.
func (s *ClientsService) MergeRegistry(ctx context.Context, clientID string, rec domain.RegistryRecord) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientsService.MergeRegistry")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	clients, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}

	c, ok := domain.Find(clients, clientID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "client", ID: clientID}
	}

	merged := domain.MergeRegistryRecord(c, rec)
	if normalized := domain.NormalizeTaxID(merged.TaxID); normalized != "" {
		for _, existing := range clients {
			if existing.ID != clientID && domain.NormalizeTaxID(existing.TaxID) == normalized {
				return nil, &domain.ErrDuplicateTaxID{TaxID: merged.TaxID}
			}
		}
	}
	merged.TaxID = domain.FormatTaxID(merged.TaxID)

	if err := s.saveAll(ctx, domain.Replace(clients, merged)); err != nil {
		return nil, err
	}
	return &merged, nil
}

// MergeOfficeAddress overlays a fetched address onto the office address.
func (s *ClientsService) MergeOfficeAddress(ctx context.Context, clientID string, addr domain.AddressResult) (*domain.Client, error) {
	return s.mutate(ctx, "ClientsService.MergeOfficeAddress", clientID, func(c domain.Client) (domain.Client, error) {
		c.OfficeAddress = domain.MergeAddress(c.OfficeAddress, addr)
		return c, nil
	})
}

// mutate applies fn to one client and persists the collection. fn works
// on a copy; nothing is stored when it fails.
func (s *ClientsService) mutate(ctx context.Context, op, clientID string, fn func(domain.Client) (domain.Client, error)) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	clients, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}

	c, ok := domain.Find(clients, clientID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "client", ID: clientID}
	}

	updated, err := fn(c)
	if err != nil {
		return nil, err
	}

	if err := s.saveAll(ctx, domain.Replace(clients, updated)); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *ClientsService) saveAll(ctx context.Context, clients []domain.Client) error {
	if err := s.store.Save(ctx, clients); err != nil {
		s.metrics.IncrSave("error")
		s.logger.Error("snapshot save failed", zap.Error(err))
		return err
	}
	s.metrics.IncrSave("success")
	s.metrics.SetClientsTotal(len(clients))
	return nil
}
