package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Clients Handlers
// ============================================================

func criteriaFromQuery(r *http.Request) domain.ProjectionCriteria {
	q := r.URL.Query()
	return domain.ProjectionCriteria{
		Type:   domain.ClientType(q.Get("type")),
		Status: domain.ClientStatus(q.Get("status")),
		City:   q.Get("city"),
		Query:  q.Get("q"),
		Sort:   domain.SortMode(q.Get("sort")),
	}
}

func listClientsHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients")
		defer span.End()

		clients, err := svc.List(ctx, criteriaFromQuery(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, clients)
	}
}

func getClientHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients/{clientId}")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		span.SetAttributes(attribute.String("client.id", clientID))

		client, err := svc.Get(ctx, clientID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func createClientHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients")
		defer span.End()

		var client domain.Client
		if err := decodeBody(r, &client); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		client.ID = "" // always a fresh record on create

		saved, err := svc.Save(ctx, client)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

func updateClientHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clients/{clientId}")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		span.SetAttributes(attribute.String("client.id", clientID))

		var client domain.Client
		if err := decodeBody(r, &client); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		client.ID = clientID

		saved, err := svc.Update(ctx, client)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func deleteClientHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clients/{clientId}")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		if err := svc.Delete(ctx, clientID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// exportClientsHandler streams the projected client list as CSV, honoring
// the same filter/search/sort query parameters as the list endpoint.
func exportClientsHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients/export")
		defer span.End()

		rows, err := svc.ExportRows(ctx, criteriaFromQuery(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="clientes-%s.csv"`, time.Now().Format("2006-01-02")))

		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"Nome Fantasia", "CNPJ", "Cidade", "Status", "Volume (m³)"})
		for _, row := range rows {
			_ = cw.Write(row.CSV())
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			logger.Error("csv export write failed", zap.Error(err))
		}
	}
}

// mergeRegistryHandler overlays a registry record on a client.
func mergeRegistryHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients/{clientId}/merge-registry")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")

		var rec domain.RegistryRecord
		if err := decodeBody(r, &rec); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		client, err := svc.MergeRegistry(ctx, clientID, rec)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

// mergeAddressHandler overlays a fetched address on the office address or,
// when site_id is present, on one site's address.
func mergeAddressHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients/{clientId}/merge-address")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		siteID := r.URL.Query().Get("site_id")

		var addr domain.AddressResult
		if err := decodeBody(r, &addr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var (
			client *domain.Client
			err    error
		)
		if siteID != "" {
			client, err = svc.MergeSiteAddress(ctx, clientID, siteID, addr)
		} else {
			client, err = svc.MergeOfficeAddress(ctx, clientID, addr)
		}
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

// ============================================================
// Sites
// ============================================================

func addSiteHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients/{clientId}/sites")
		defer span.End()

		client, err := svc.AddSite(ctx, chi.URLParam(r, "clientId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, client)
	}
}

func updateSiteHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clients/{clientId}/sites/{siteId}")
		defer span.End()

		var site domain.Site
		if err := decodeBody(r, &site); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		site.ID = chi.URLParam(r, "siteId")

		client, err := svc.UpdateSite(ctx, chi.URLParam(r, "clientId"), site)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func removeSiteHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clients/{clientId}/sites/{siteId}")
		defer span.End()

		client, err := svc.RemoveSite(ctx, chi.URLParam(r, "clientId"), chi.URLParam(r, "siteId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

// ============================================================
// Mixes
// ============================================================

func addMixHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients/{clientId}/sites/{siteId}/mixes")
		defer span.End()

		client, err := svc.AddMix(ctx, chi.URLParam(r, "clientId"), chi.URLParam(r, "siteId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, client)
	}
}

func updateMixHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clients/{clientId}/sites/{siteId}/mixes/{mixId}")
		defer span.End()

		var mix domain.Mix
		if err := decodeBody(r, &mix); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		mix.ID = chi.URLParam(r, "mixId")

		client, err := svc.UpdateMix(ctx, chi.URLParam(r, "clientId"), chi.URLParam(r, "siteId"), mix)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func removeMixHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clients/{clientId}/sites/{siteId}/mixes/{mixId}")
		defer span.End()

		client, err := svc.RemoveMix(ctx, chi.URLParam(r, "clientId"), chi.URLParam(r, "siteId"), chi.URLParam(r, "mixId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

// ============================================================
// Contacts (client and site level)
// ============================================================

func addContactHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients/{clientId}/contacts")
		defer span.End()

		client, err := svc.AddContact(ctx, chi.URLParam(r, "clientId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, client)
	}
}

func updateContactHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clients/{clientId}/contacts/{contactId}")
		defer span.End()

		var contact domain.Contact
		if err := decodeBody(r, &contact); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		contact.ID = chi.URLParam(r, "contactId")

		client, err := svc.UpdateContact(ctx, chi.URLParam(r, "clientId"), contact)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func removeContactHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clients/{clientId}/contacts/{contactId}")
		defer span.End()

		client, err := svc.RemoveContact(ctx, chi.URLParam(r, "clientId"), chi.URLParam(r, "contactId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func addSiteContactHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients/{clientId}/sites/{siteId}/contacts")
		defer span.End()

		client, err := svc.AddSiteContact(ctx, chi.URLParam(r, "clientId"), chi.URLParam(r, "siteId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, client)
	}
}

func updateSiteContactHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clients/{clientId}/sites/{siteId}/contacts/{contactId}")
		defer span.End()

		var contact domain.Contact
		if err := decodeBody(r, &contact); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		contact.ID = chi.URLParam(r, "contactId")

		client, err := svc.UpdateSiteContact(ctx, chi.URLParam(r, "clientId"), chi.URLParam(r, "siteId"), contact)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func removeSiteContactHandler(svc *service.ClientsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clients/{clientId}/sites/{siteId}/contacts/{contactId}")
		defer span.End()

		client, err := svc.RemoveSiteContact(ctx, chi.URLParam(r, "clientId"), chi.URLParam(r, "siteId"), chi.URLParam(r, "contactId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}
