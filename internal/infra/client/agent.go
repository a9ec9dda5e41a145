package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vbarros/obraprime-crm-go/internal/domain"
	"github.com/vbarros/obraprime-crm-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// SearchAgentClient calls the company-search agent service, which turns a
// free-text company name into registry candidates (grounded web search on
// the agent side).
type SearchAgentClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewSearchAgentClient creates a new SearchAgentClient.
func NewSearchAgentClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *SearchAgentClient {
	return &SearchAgentClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

type searchAgentRequest struct {
	Query string `json:"query"`
}

type searchAgentResponse struct {
	Status  string                    `json:"status"`
	Message string                    `json:"message,omitempty"`
	Options []domain.CompanyCandidate `json:"options"`
}

// SearchCompanies asks the agent for company candidates matching query.
// A "not found" answer is an empty (non-nil) slice, not an error.
func (c *SearchAgentClient) SearchCompanies(ctx context.Context, query string) ([]domain.CompanyCandidate, error) {
	ctx, span := tracer.Start(ctx, "SearchAgentClient.SearchCompanies")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	var agentResp searchAgentResponse

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(searchAgentRequest{Query: query})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/companies/search", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("search agent returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&agentResp)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		if agentResp.Status != "success" {
			return []domain.CompanyCandidate{}, nil
		}
		return agentResp.Options, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "search-agent", Err: err}
	}

	candidates := result.([]domain.CompanyCandidate)
	if candidates == nil {
		candidates = []domain.CompanyCandidate{}
	}
	return candidates, nil
}
