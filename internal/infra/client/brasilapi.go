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

// BrasilAPIClient looks companies up in the federal tax registry through
// the BrasilAPI CNPJ endpoint.
type BrasilAPIClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewBrasilAPIClient creates a new BrasilAPIClient.
func NewBrasilAPIClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *BrasilAPIClient {
	return &BrasilAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// brasilAPICNPJ maps the BrasilAPI /cnpj/v1 payload to our domain.
type brasilAPICNPJ struct {
	RazaoSocial      string  `json:"razao_social"`
	NomeFantasia     string  `json:"nome_fantasia"`
	DDDTelefone1     string  `json:"ddd_telefone_1"`
	Email            string  `json:"email"`
	CapitalSocial    float64 `json:"capital_social"`
	CNAEFiscal       int64   `json:"cnae_fiscal"`
	CNAEFiscalDesc   string  `json:"cnae_fiscal_descricao"`
	NaturezaJuridica string  `json:"natureza_juridica"`

	Logradouro  string `json:"logradouro"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Municipio   string `json:"municipio"`
	UF          string `json:"uf"`
	CEP         string `json:"cep"`

	SituacaoCadastral     string `json:"descricao_situacao_cadastral"`
	DataSituacaoCadastral string `json:"data_situacao_cadastral"`
	DataInicioAtividade   string `json:"data_inicio_atividade"`

	QSA []struct {
		Nome         string `json:"nome_socio"`
		Qualificacao string `json:"qualificacao_socio"`
	} `json:"qsa"`

	CNAEsSecundarios []struct {
		Codigo    int64  `json:"codigo"`
		Descricao string `json:"descricao"`
	} `json:"cnaes_secundarios"`

	InscricoesEstaduais []struct {
		Inscricao string `json:"inscricao_estadual"`
		UF        string `json:"uf"`
		Ativo     bool   `json:"ativo"`
	} `json:"inscricoes_estaduais"`
}

// LookupCNPJ fetches the registry record for a digits-only CNPJ.
func (c *BrasilAPIClient) LookupCNPJ(ctx context.Context, cnpj string) (*domain.RegistryLookup, error) {
	ctx, span := tracer.Start(ctx, "BrasilAPIClient.LookupCNPJ")
	defer span.End()
	span.SetAttributes(attribute.String("cnpj", cnpj))

	var payload brasilAPICNPJ

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/api/cnpj/v1/%s", c.baseURL, cnpj)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return &domain.ErrNotFound{Resource: "cnpj", ID: cnpj}
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("brasilapi returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&payload)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return payload.toDomain(cnpj), nil
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, &domain.ErrExternalService{Service: "brasilapi", Err: err}
	}

	return result.(*domain.RegistryLookup), nil
}

func (p *brasilAPICNPJ) toDomain(cnpj string) *domain.RegistryLookup {
	tradeName := p.NomeFantasia
	if tradeName == "" {
		tradeName = p.RazaoSocial
	}

	// First active state registration, "Isento" otherwise.
	stateReg := "Isento"
	for _, ie := range p.InscricoesEstaduais {
		if ie.Ativo {
			stateReg = fmt.Sprintf("%s (%s)", ie.Inscricao, ie.UF)
			break
		}
	}

	partners := make([]domain.CompanyPartner, 0, len(p.QSA))
	for _, q := range p.QSA {
		partners = append(partners, domain.CompanyPartner{Name: q.Nome, Role: q.Qualificacao})
	}

	secondary := make([]domain.CompanyActivity, 0, len(p.CNAEsSecundarios))
	for _, a := range p.CNAEsSecundarios {
		secondary = append(secondary, domain.CompanyActivity{
			Code:        fmt.Sprintf("%d", a.Codigo),
			Description: a.Descricao,
		})
	}

	return &domain.RegistryLookup{
		Record: domain.RegistryRecord{
			LegalName:       p.RazaoSocial,
			TradeName:       tradeName,
			TaxID:           domain.FormatTaxID(cnpj),
			Phone:           p.DDDTelefone1,
			Email:           p.Email,
			ShareCapital:    p.CapitalSocial,
			PrimaryActivity: p.CNAEFiscalDesc,
			Address: domain.AddressResult{
				Street:     p.Logradouro,
				Number:     p.Numero,
				District:   p.Bairro,
				City:       p.Municipio,
				State:      p.UF,
				PostalCode: domain.NormalizeTaxID(p.CEP),
			},
		},
		Details: domain.RegistryDetails{
			CadastralStatus:     p.SituacaoCadastral,
			CadastralStatusDate: p.DataSituacaoCadastral,
			FoundedAt:           p.DataInicioAtividade,
			LegalNature:         p.NaturezaJuridica,
			StateRegistration:   stateReg,
			Partners:            partners,
			PrimaryActivity: domain.CompanyActivity{
				Code:        fmt.Sprintf("%d", p.CNAEFiscal),
				Description: p.CNAEFiscalDesc,
			},
			SecondaryActivities: secondary,
		},
	}
}
