// Package providers constructs paper source adapters by provider name.
package providers

import (
	"sort"
	"time"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/papersources"
	"github.com/helixir/scholar-gateway/internal/papersources/openalex"
	"github.com/helixir/scholar-gateway/internal/papersources/sciencedirect"
	"github.com/helixir/scholar-gateway/internal/papersources/scopus"
)

// AdapterConfig is the provider-neutral adapter configuration. Zero values
// select each provider's defaults.
type AdapterConfig struct {
	APIKey     string
	BaseURL    string
	RateLimit  float64
	RetryTimes int
	RetryDelay time.Duration
	Timeout    time.Duration

	// Mailto joins the OpenAlex polite pool. Ignored by other providers.
	Mailto string

	// WaitOnRateLimit makes Elsevier providers sleep through 429s. OpenAlex
	// always waits.
	WaitOnRateLimit bool
}

// New builds the adapter for the named provider.
func New(name string, cfg AdapterConfig, deps papersources.Deps) (papersources.Adapter, error) {
	sourceType, err := domain.ParseSourceType(name)
	if err != nil {
		return nil, err
	}

	switch sourceType {
	case domain.SourceTypeOpenAlex:
		return openalex.New(openalex.Config{
			BaseURL:     cfg.BaseURL,
			Mailto:      cfg.Mailto,
			Timeout:     cfg.Timeout,
			RateLimit:   cfg.RateLimit,
			MaxAttempts: cfg.RetryTimes,
			RetryDelay:  cfg.RetryDelay,
		}, deps), nil
	case domain.SourceTypeScopus:
		return scopus.New(scopus.Config{
			BaseURL:         cfg.BaseURL,
			APIKey:          cfg.APIKey,
			Timeout:         cfg.Timeout,
			RateLimit:       cfg.RateLimit,
			MaxAttempts:     cfg.RetryTimes,
			RetryDelay:      cfg.RetryDelay,
			WaitOnRateLimit: cfg.WaitOnRateLimit,
		}, deps), nil
	case domain.SourceTypeScienceDirect:
		return sciencedirect.New(sciencedirect.Config{
			BaseURL:         cfg.BaseURL,
			APIKey:          cfg.APIKey,
			Timeout:         cfg.Timeout,
			RateLimit:       cfg.RateLimit,
			MaxAttempts:     cfg.RetryTimes,
			RetryDelay:      cfg.RetryDelay,
			WaitOnRateLimit: cfg.WaitOnRateLimit,
		}, deps), nil
	default:
		return nil, &domain.UnknownSourceError{Name: name}
	}
}

// NewRegistry builds a registry holding one adapter per configured provider.
// Providers are constructed in name order so failures are reported
// deterministically.
func NewRegistry(configs map[string]AdapterConfig, deps papersources.Deps) (*papersources.Registry, error) {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	registry := papersources.NewRegistry()
	for _, name := range names {
		adapter, err := New(name, configs[name], deps)
		if err != nil {
			return nil, err
		}
		registry.Register(adapter)
	}
	return registry, nil
}
