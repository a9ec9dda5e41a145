package handler

import (
	"net/http"
	"strconv"

	"github.com/vbarros/obraprime-crm-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Lookup Handlers — CEP, CNPJ, reverse geocode, company search
// ============================================================

func lookupCEPHandler(svc *service.LookupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/lookup/cep/{cep}")
		defer span.End()

		cep := chi.URLParam(r, "cep")
		span.SetAttributes(attribute.String("cep", cep))

		addr, err := svc.LookupCEP(ctx, cep)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, addr)
	}
}

func lookupCNPJHandler(svc *service.LookupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/lookup/cnpj/{cnpj}")
		defer span.End()

		cnpj := chi.URLParam(r, "cnpj")
		span.SetAttributes(attribute.String("cnpj", cnpj))

		lookup, err := svc.LookupCNPJ(ctx, cnpj)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lookup)
	}
}

func reverseGeocodeHandler(svc *service.LookupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/lookup/reverse-geocode")
		defer span.End()

		lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
		if errLat != nil || errLon != nil {
			writeError(w, http.StatusBadRequest, "lat and lon are required numeric parameters")
			return
		}

		addr, err := svc.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, addr)
	}
}

func searchCompaniesHandler(svc *service.LookupService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/lookup/companies")
		defer span.End()

		query := r.URL.Query().Get("q")
		span.SetAttributes(attribute.String("query", query))

		candidates, err := svc.SearchCompanies(ctx, query)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, candidates)
	}
}
