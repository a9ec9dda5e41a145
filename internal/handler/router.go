package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/infra/observability"
	"github.com/vbarros/obraprime-crm-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(
	clientsSvc *service.ClientsService,
	lookupSvc *service.LookupService,
	authSvc *service.AuthService,
	adminSvc *service.AdminService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(clientsSvc))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Autenticação (public)
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(authSvc, logger))
			r.Post("/login", authLoginHandler(authSvc, logger))
			r.Post("/refresh", authRefreshHandler(authSvc, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(authSvc, logger))
				r.Post("/logout", authLogoutHandler(authSvc, logger))
			})
		})

		// =============================================
		// Protected API
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			// Clientes
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", listClientsHandler(clientsSvc, logger))
				r.Post("/", createClientHandler(clientsSvc, logger))
				r.Get("/export", exportClientsHandler(clientsSvc, logger))

				r.Route("/{clientId}", func(r chi.Router) {
					r.Get("/", getClientHandler(clientsSvc, logger))
					r.Put("/", updateClientHandler(clientsSvc, logger))
					r.Delete("/", deleteClientHandler(clientsSvc, logger))
					r.Post("/merge-registry", mergeRegistryHandler(clientsSvc, logger))
					r.Post("/merge-address", mergeAddressHandler(clientsSvc, logger))

					// Obras
					r.Post("/sites", addSiteHandler(clientsSvc, logger))
					r.Put("/sites/{siteId}", updateSiteHandler(clientsSvc, logger))
					r.Delete("/sites/{siteId}", removeSiteHandler(clientsSvc, logger))

					// Traços
					r.Post("/sites/{siteId}/mixes", addMixHandler(clientsSvc, logger))
					r.Put("/sites/{siteId}/mixes/{mixId}", updateMixHandler(clientsSvc, logger))
					r.Delete("/sites/{siteId}/mixes/{mixId}", removeMixHandler(clientsSvc, logger))

					// Contatos da obra
					r.Post("/sites/{siteId}/contacts", addSiteContactHandler(clientsSvc, logger))
					r.Put("/sites/{siteId}/contacts/{contactId}", updateSiteContactHandler(clientsSvc, logger))
					r.Delete("/sites/{siteId}/contacts/{contactId}", removeSiteContactHandler(clientsSvc, logger))

					// Contatos do cliente
					r.Post("/contacts", addContactHandler(clientsSvc, logger))
					r.Put("/contacts/{contactId}", updateContactHandler(clientsSvc, logger))
					r.Delete("/contacts/{contactId}", removeContactHandler(clientsSvc, logger))
				})
			})

			// Consultas externas
			r.Route("/lookup", func(r chi.Router) {
				r.Get("/cep/{cep}", lookupCEPHandler(lookupSvc, logger))
				r.Get("/cnpj/{cnpj}", lookupCNPJHandler(lookupSvc, logger))
				r.Get("/reverse-geocode", reverseGeocodeHandler(lookupSvc, logger))
				r.Get("/companies", searchCompaniesHandler(lookupSvc, logger))
			})

			// Compartilhamento
			r.Post("/share", shareHandler(authSvc, logger))

			// Administração
			r.Route("/admin", func(r chi.Router) {
				r.Use(AdminOnlyMiddleware(logger))
				r.Get("/users", adminUsersHandler(adminSvc, logger))
				r.Get("/users/export", adminUsersCSVHandler(adminSvc, logger))
				r.Put("/users/{userId}/status", adminSetUserStatusHandler(adminSvc, logger))
				r.Get("/access-log", adminAccessLogHandler(adminSvc, logger))
				r.Get("/share-log", adminShareLogHandler(adminSvc, logger))
				r.Get("/stats", adminStatsHandler(adminSvc, logger))
				r.Get("/backup", adminBackupHandler(adminSvc, logger))
				r.Post("/restore", adminRestoreHandler(adminSvc, logger))
			})
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

type serviceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latency_ms"`
	LastChecked string `json:"last_checked"`
}

func healthzHandler(clientsSvc *service.ClientsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []serviceHealth{
			{Name: "crm-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		start := time.Now()
		_, err := clientsSvc.Get(ctx, "health-check")
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		// A not-found probe still proves the snapshot store reads.
		var notFound *domain.ErrNotFound
		if err != nil && !errors.As(err, &notFound) {
			status = "degraded"
		}
		services = append(services, serviceHealth{
			Name: "snapshot-store", Status: status, LatencyMs: latency, LastChecked: now,
		})

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
				break
			}
		}

		code := http.StatusOK
		if overall != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"status":   overall,
			"services": services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
