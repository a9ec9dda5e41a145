package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/handler"
	"github.com/vbarros/obraprime-crm-go/internal/infra/cache"
	"github.com/vbarros/obraprime-crm-go/internal/infra/client"
	"github.com/vbarros/obraprime-crm-go/internal/infra/observability"
	"github.com/vbarros/obraprime-crm-go/internal/infra/resilience"
	"github.com/vbarros/obraprime-crm-go/internal/infra/snapshot"
	"github.com/vbarros/obraprime-crm-go/internal/service"

	"go.uber.org/zap"
)

// TestIntegration_FullFlow spins up mock external services and walks a
// realistic session: register, create a client via CNPJ lookup, fill the
// office address from a CEP lookup, add a site with a mix, and check the
// projected list and admin view.
func TestIntegration_FullFlow(t *testing.T) {
	// --- Mock ViaCEP ---
	viaCEPServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"cep": "01310-100",
			"logradouro": "Avenida Paulista",
			"bairro": "Bela Vista",
			"localidade": "São Paulo",
			"uf": "SP"
		}`)
	}))
	defer viaCEPServer.Close()

	// --- Mock BrasilAPI ---
	brasilAPIServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"razao_social": "Construtora Horizonte Ltda",
			"nome_fantasia": "Horizonte",
			"ddd_telefone_1": "1133334444",
			"email": "contato@horizonte.com.br",
			"capital_social": 500000,
			"cnae_fiscal": 4120400,
			"cnae_fiscal_descricao": "Construção de edifícios",
			"logradouro": "Avenida Paulista",
			"numero": "1000",
			"bairro": "Bela Vista",
			"municipio": "São Paulo",
			"uf": "SP",
			"cep": "01310100",
			"descricao_situacao_cadastral": "ATIVA",
			"qsa": [{"nome_socio": "Ana Lima", "qualificacao_socio": "Sócio-Administrador"}]
		}`)
	}))
	defer brasilAPIServer.Close()

	// --- Build the application ---
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store, err := snapshot.NewFileStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	clientsSvc := service.NewClientsService(store, metrics, logger)
	lookupSvc := service.NewLookupService(
		client.NewViaCEPClient(httpClient, viaCEPServer.URL, cb, cfg),
		client.NewBrasilAPIClient(httpClient, brasilAPIServer.URL, cb, cfg),
		client.NewNominatimClient(httpClient, "http://unused", "test-agent", cb, cfg),
		client.NewSearchAgentClient(httpClient, "http://unused", cb, cfg),
		cache.New[*domain.AddressResult](time.Minute),
		cache.New[*domain.RegistryLookup](time.Minute),
		metrics,
		logger,
	)
	authSvc := service.NewAuthService(store, store, "integration-secret", 15*time.Minute, 24*time.Hour, []string{"admin@example.com"}, logger)
	adminSvc := service.NewAdminService(store, store, store, "admin@example.com", logger)

	router := handler.NewRouter(clientsSvc, lookupSvc, authSvc, adminSvc, metrics, logger)

	do := func(method, path, token string, body any) *httptest.ResponseRecorder {
		t.Helper()
		var data []byte
		if body != nil {
			data, err = json.Marshal(body)
			if err != nil {
				t.Fatal(err)
			}
		}
		req := httptest.NewRequest(method, path, bytes.NewReader(data))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// --- 1. Register an admin account ---
	rec := do(http.MethodPost, "/v1/auth/register", "", domain.RegisterRequest{
		Name:     "Admin",
		Email:    "admin@example.com",
		Password: "senha-forte",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	var login domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatal(err)
	}
	token := login.AccessToken

	// --- 2. Look the company up by CNPJ ---
	rec = do(http.MethodGet, "/v1/lookup/cnpj/12345678000199", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cnpj lookup: %d %s", rec.Code, rec.Body.String())
	}
	var lookup domain.RegistryLookup
	if err := json.NewDecoder(rec.Body).Decode(&lookup); err != nil {
		t.Fatal(err)
	}
	if lookup.Record.LegalName != "Construtora Horizonte Ltda" {
		t.Fatalf("registry record = %+v", lookup.Record)
	}
	if lookup.Details.CadastralStatus != "ATIVA" || len(lookup.Details.Partners) != 1 {
		t.Fatalf("registry details = %+v", lookup.Details)
	}

	// --- 3. Create the client from the lookup ---
	rec = do(http.MethodPost, "/v1/clients", token, domain.Client{
		TradeName: lookup.Record.TradeName,
		LegalName: lookup.Record.LegalName,
		TaxID:     lookup.Record.TaxID,
		Type:      domain.TypeBuilder,
		Status:    domain.StatusActive,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client: %d %s", rec.Code, rec.Body.String())
	}
	var created domain.Client
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	// A second client with the same CNPJ is refused.
	rec = do(http.MethodPost, "/v1/clients", token, domain.Client{
		TradeName: "Clone",
		TaxID:     "12345678000199",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create: %d, want 409", rec.Code)
	}

	// --- 4. Fill the office address from the CEP lookup ---
	rec = do(http.MethodGet, "/v1/lookup/cep/01310-100", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cep lookup: %d %s", rec.Code, rec.Body.String())
	}
	var addr domain.AddressResult
	if err := json.NewDecoder(rec.Body).Decode(&addr); err != nil {
		t.Fatal(err)
	}

	rec = do(http.MethodPost, "/v1/clients/"+created.ID+"/merge-address", token, addr)
	if rec.Code != http.StatusOK {
		t.Fatalf("merge address: %d %s", rec.Code, rec.Body.String())
	}
	var merged domain.Client
	if err := json.NewDecoder(rec.Body).Decode(&merged); err != nil {
		t.Fatal(err)
	}
	if merged.OfficeAddress.City != "São Paulo" || merged.OfficeAddress.PostalCode != "01310100" {
		t.Fatalf("office address = %+v", merged.OfficeAddress)
	}

	// --- 5. Add a site and two mixes ---
	rec = do(http.MethodPost, "/v1/clients/"+created.ID+"/sites", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add site: %d %s", rec.Code, rec.Body.String())
	}
	var withSite domain.Client
	if err := json.NewDecoder(rec.Body).Decode(&withSite); err != nil {
		t.Fatal(err)
	}
	siteID := withSite.Sites[0].ID

	for i, vol := range []float64{10, 5} {
		rec = do(http.MethodPost, "/v1/clients/"+created.ID+"/sites/"+siteID+"/mixes", token, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add mix %d: %d", i, rec.Code)
		}
		var c domain.Client
		if err := json.NewDecoder(rec.Body).Decode(&c); err != nil {
			t.Fatal(err)
		}
		mix := c.Sites[0].Mixes[i]
		mix.VolumeM3 = vol
		rec = do(http.MethodPut, "/v1/clients/"+created.ID+"/sites/"+siteID+"/mixes/"+mix.ID, token, mix)
		if rec.Code != http.StatusOK {
			t.Fatalf("update mix %d: %d %s", i, rec.Code, rec.Body.String())
		}
	}

	rec = do(http.MethodGet, "/v1/clients/"+created.ID, token, nil)
	var final domain.Client
	if err := json.NewDecoder(rec.Body).Decode(&final); err != nil {
		t.Fatal(err)
	}
	if got := final.TotalVolume(); got != 15 {
		t.Fatalf("total volume = %v, want 15", got)
	}

	// --- 6. Projected list by city, sorted by volume ---
	rec = do(http.MethodGet, "/v1/clients?city=paulo&sort=volume_desc", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	var listed []domain.Client
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("listed = %+v", listed)
	}

	// --- 7. CSV export carries the aggregated volume ---
	rec = do(http.MethodGet, "/v1/clients/export", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Horizonte") || !strings.Contains(body, "15") {
		t.Fatalf("csv = %q", body)
	}

	// --- 8. Admin view sees the activity ---
	rec = do(http.MethodGet, "/v1/admin/stats", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin stats: %d %s", rec.Code, rec.Body.String())
	}
	var stats domain.AdminStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalUsers != 1 || stats.TotalClients != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	// --- 9. Backup round-trips through restore ---
	rec = do(http.MethodGet, "/v1/admin/backup", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("backup: %d", rec.Code)
	}
	var backup domain.Backup
	if err := json.NewDecoder(rec.Body).Decode(&backup); err != nil {
		t.Fatal(err)
	}

	rec = do(http.MethodDelete, "/v1/clients/"+created.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}

	rec = do(http.MethodPost, "/v1/admin/restore", token, backup)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(http.MethodGet, "/v1/clients/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("client should be back after restore: %d", rec.Code)
	}
}

// TestIntegration_CEPNotFound checks the ViaCEP "erro" contract surfaces
// as a 404.
func TestIntegration_CEPNotFound(t *testing.T) {
	viaCEPServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"erro": true}`)
	}))
	defer viaCEPServer.Close()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test-cep")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	store := snapshot.NewMemory()
	clientsSvc := service.NewClientsService(store, metrics, logger)
	lookupSvc := service.NewLookupService(
		client.NewViaCEPClient(httpClient, viaCEPServer.URL, cb, cfg),
		client.NewBrasilAPIClient(httpClient, "http://unused", cb, cfg),
		client.NewNominatimClient(httpClient, "http://unused", "test-agent", cb, cfg),
		client.NewSearchAgentClient(httpClient, "http://unused", cb, cfg),
		cache.New[*domain.AddressResult](time.Minute),
		cache.New[*domain.RegistryLookup](time.Minute),
		metrics,
		logger,
	)
	authSvc := service.NewAuthService(store, store, "integration-secret", 15*time.Minute, 24*time.Hour, nil, logger)
	adminSvc := service.NewAdminService(store, store, store, "", logger)

	router := handler.NewRouter(clientsSvc, lookupSvc, authSvc, adminSvc, metrics, logger)

	body, _ := json.Marshal(domain.RegisterRequest{Name: "User", Email: "u@example.com", Password: "senha-forte"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d", rec.Code)
	}
	var login domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/lookup/cep/99999999", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing cep: %d, want 404", rec.Code)
	}
}
