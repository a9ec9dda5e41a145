package observability_test

import (
	"testing"

	"github.com/vbarros/obraprime-crm-go/internal/infra/observability"
)

func TestMetrics_IndependentRegistries(t *testing.T) {
	// Two instances must not collide; each owns its registry.
	a := observability.NewMetrics()
	b := observability.NewMetrics()
	if a.Registry == b.Registry {
		t.Fatal("expected separate registries")
	}
	a.IncrSave("success")
	b.IncrSave("success")
}

func TestMetrics_CacheHitRate(t *testing.T) {
	m := observability.NewMetrics()

	if rate := m.CacheHitRate("cep"); rate != 0 {
		t.Errorf("empty rate = %v, want 0", rate)
	}

	m.IncrCacheHit("cep")
	m.IncrCacheHit("cep")
	m.IncrCacheMiss("cep")

	if rate := m.CacheHitRate("cep"); rate < 0.66 || rate > 0.67 {
		t.Errorf("rate = %v, want 2/3", rate)
	}

	// Other caches are tracked independently.
	if rate := m.CacheHitRate("cnpj"); rate != 0 {
		t.Errorf("cnpj rate = %v, want 0", rate)
	}
}
