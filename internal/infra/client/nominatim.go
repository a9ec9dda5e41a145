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
	"go.opentelemetry.io/otel/attribute"
)

// NominatimClient reverse-geocodes coordinates via the OpenStreetMap
// Nominatim API.
type NominatimClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewNominatimClient creates a new NominatimClient. Nominatim's usage
// policy requires an identifying User-Agent.
func NewNominatimClient(httpClient *http.Client, baseURL, userAgent string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *NominatimClient {
	return &NominatimClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
		cb:         cb,
		cfg:        cfg,
	}
}

// nominatimResponse maps the jsonv2 reverse payload. Nominatim names the
// locality differently depending on the place type, hence the fallbacks.
type nominatimResponse struct {
	Address struct {
		Road          string `json:"road"`
		HouseNumber   string `json:"house_number"`
		Suburb        string `json:"suburb"`
		Quarter       string `json:"quarter"`
		Neighbourhood string `json:"neighbourhood"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		State         string `json:"state"`
		Postcode      string `json:"postcode"`
	} `json:"address"`
}

// ReverseGeocode resolves a coordinate pair to an address.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lon float64) (*domain.AddressResult, error) {
	ctx, span := tracer.Start(ctx, "NominatimClient.ReverseGeocode")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("geo.lat", lat),
		attribute.Float64("geo.lon", lon),
	)

	var payload nominatimResponse

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/reverse?format=jsonv2&lat=%f&lon=%f", c.baseURL, lat, lon)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			req.Header.Set("User-Agent", c.userAgent)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("nominatim returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&payload)
		})
		if innerErr != nil {
			return nil, innerErr
		}

		addr := payload.Address
		out := &domain.AddressResult{
			Street:     addr.Road,
			Number:     addr.HouseNumber,
			District:   firstNonEmpty(addr.Suburb, addr.Quarter, addr.Neighbourhood),
			City:       firstNonEmpty(addr.City, addr.Town, addr.Village),
			State:      addr.State,
			PostalCode: domain.NormalizeTaxID(addr.Postcode),
		}
		if out.City == "" && out.Street == "" {
			return nil, &domain.ErrNotFound{Resource: "address", ID: fmt.Sprintf("%f,%f", lat, lon)}
		}
		return out, nil
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, &domain.ErrExternalService{Service: "nominatim", Err: err}
	}

	return result.(*domain.AddressResult), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
