package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/handler"
	"github.com/vbarros/obraprime-crm-go/internal/infra/cache"
	"github.com/vbarros/obraprime-crm-go/internal/infra/observability"
	"github.com/vbarros/obraprime-crm-go/internal/infra/snapshot"
	"github.com/vbarros/obraprime-crm-go/internal/service"

	"go.uber.org/zap"
)

// Lookup collaborators that always fail; router tests never reach the
// external APIs.
type failingAddressLookup struct{}

func (failingAddressLookup) LookupCEP(_ context.Context, cep string) (*domain.AddressResult, error) {
	return nil, &domain.ErrNotFound{Resource: "cep", ID: cep}
}

type failingRegistry struct{}

func (failingRegistry) LookupCNPJ(_ context.Context, cnpj string) (*domain.RegistryLookup, error) {
	return nil, &domain.ErrNotFound{Resource: "cnpj", ID: cnpj}
}

type failingGeocoder struct{}

func (failingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (*domain.AddressResult, error) {
	return nil, &domain.ErrNotFound{Resource: "address", ID: "coordinates"}
}

type failingSearcher struct{}

func (failingSearcher) SearchCompanies(_ context.Context, _ string) ([]domain.CompanyCandidate, error) {
	return []domain.CompanyCandidate{}, nil
}

type routerFixture struct {
	router http.Handler
	store  *snapshot.Memory
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	store := snapshot.NewMemory()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	clientsSvc := service.NewClientsService(store, metrics, logger)
	lookupSvc := service.NewLookupService(
		failingAddressLookup{}, failingRegistry{}, failingGeocoder{}, failingSearcher{},
		cache.New[*domain.AddressResult](time.Minute),
		cache.New[*domain.RegistryLookup](time.Minute),
		metrics, logger,
	)
	authSvc := service.NewAuthService(store, store, "test-secret", 15*time.Minute, 24*time.Hour, []string{"chefe@example.com"}, logger)
	adminSvc := service.NewAdminService(store, store, store, "chefe@example.com", logger)

	return &routerFixture{
		router: handler.NewRouter(clientsSvc, lookupSvc, authSvc, adminSvc, metrics, logger),
		store:  store,
	}
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) registerAndLogin(t *testing.T, name, email string) *domain.LoginResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/v1/auth/register", "", domain.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "senha-forte",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return &resp
}

func TestHealthz(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/v1/clients", "/v1/lookup/cep/01310100", "/v1/admin/users"} {
		rec := f.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %d, want 401", path, rec.Code)
		}
	}

	rec := f.do(t, http.MethodGet, "/v1/clients", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestClientCRUDOverHTTP(t *testing.T) {
	f := newRouterFixture(t)
	login := f.registerAndLogin(t, "João", "joao@example.com")

	rec := f.do(t, http.MethodPost, "/v1/clients", login.AccessToken, domain.Client{
		TradeName: "Acme Concreto",
		TaxID:     "12345678000199",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.Client
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.TaxID != "12.345.678/0001-99" {
		t.Errorf("tax id = %q, want display form", created.TaxID)
	}

	// Duplicate guard surfaces as 409.
	rec = f.do(t, http.MethodPost, "/v1/clients", login.AccessToken, domain.Client{
		TradeName: "Clone",
		TaxID:     "12.345.678/0001-99",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/v1/clients/"+created.ID, login.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, "/v1/clients/"+created.ID, login.AccessToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/v1/clients/"+created.ID, login.AccessToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}

	// A PUT against the deleted ID must not recreate the record.
	rec = f.do(t, http.MethodPut, "/v1/clients/"+created.ID, login.AccessToken, domain.Client{
		TradeName: "Fantasma",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update after delete = %d, want 404", rec.Code)
	}
}

func TestListClients_QueryParameters(t *testing.T) {
	f := newRouterFixture(t)
	login := f.registerAndLogin(t, "João", "joao@example.com")

	for _, c := range []domain.Client{
		{TradeName: "Beta", Status: domain.StatusActive},
		{TradeName: "Alpha", Status: domain.StatusLost},
	} {
		if rec := f.do(t, http.MethodPost, "/v1/clients", login.AccessToken, c); rec.Code != http.StatusCreated {
			t.Fatalf("seed status = %d", rec.Code)
		}
	}

	rec := f.do(t, http.MethodGet, "/v1/clients?status=Ativo&sort=name_asc", login.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var got []domain.Client
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].TradeName != "Beta" {
		t.Errorf("filtered list = %+v", got)
	}
}

func TestExportClientsCSV(t *testing.T) {
	f := newRouterFixture(t)
	login := f.registerAndLogin(t, "João", "joao@example.com")

	if rec := f.do(t, http.MethodPost, "/v1/clients", login.AccessToken, domain.Client{TradeName: "Acme"}); rec.Code != http.StatusCreated {
		t.Fatalf("seed status = %d", rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/v1/clients/export", login.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Acme") {
		t.Errorf("csv body missing client: %q", rec.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	f := newRouterFixture(t)
	user := f.registerAndLogin(t, "João", "joao@example.com")

	rec := f.do(t, http.MethodGet, "/v1/admin/users", user.AccessToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("regular user on admin route: status = %d, want 403", rec.Code)
	}

	admin := f.registerAndLogin(t, "Chefe", "chefe@example.com")
	rec = f.do(t, http.MethodGet, "/v1/admin/users", admin.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("admin on admin route: status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestShareEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	login := f.registerAndLogin(t, "João", "joao@example.com")

	rec := f.do(t, http.MethodPost, "/v1/share", login.AccessToken, map[string]string{"method": "clipboard"})
	if rec.Code != http.StatusCreated {
		t.Errorf("share status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/v1/share", login.AccessToken, map[string]string{"method": "fax"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad method status = %d, want 400", rec.Code)
	}
}
