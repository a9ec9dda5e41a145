// Package client holds the HTTP adapters for the external lookup
// services: ViaCEP, BrasilAPI, Nominatim and the company-search agent.
// Every call goes through retry with backoff and a shared circuit breaker.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// ViaCEPClient resolves CEPs against the ViaCEP API.
type ViaCEPClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewViaCEPClient creates a new ViaCEPClient.
func NewViaCEPClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *ViaCEPClient {
	return &ViaCEPClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// viaCEPResponse maps the ViaCEP payload. A known-but-missing CEP comes
// back as 200 with {"erro": true}.
type viaCEPResponse struct {
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	CEP        string `json:"cep"`
	Erro       bool   `json:"erro"`
}

// LookupCEP fetches the address for an 8-digit CEP with retry, circuit
// breaker and tracing.
func (c *ViaCEPClient) LookupCEP(ctx context.Context, cep string) (*domain.AddressResult, error) {
	ctx, span := tracer.Start(ctx, "ViaCEPClient.LookupCEP")
	defer span.End()
	span.SetAttributes(attribute.String("cep", cep))

	var payload viaCEPResponse

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, cep)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("viacep returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&payload)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		if payload.Erro {
			return nil, &domain.ErrNotFound{Resource: "cep", ID: cep}
		}
		return &domain.AddressResult{
			Street:     payload.Logradouro,
			District:   payload.Bairro,
			City:       payload.Localidade,
			State:      payload.UF,
			PostalCode: domain.NormalizeTaxID(payload.CEP),
		}, nil
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, &domain.ErrExternalService{Service: "viacep", Err: err}
	}

	return result.(*domain.AddressResult), nil
}
