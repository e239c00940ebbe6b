// Package app assembles the scholar gateway from configuration: provider
// adapters, cache, cleaner, LLM analyzer and the service facade.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/scholar-gateway/internal/cache"
	"github.com/helixir/scholar-gateway/internal/cleaning"
	"github.com/helixir/scholar-gateway/internal/config"
	"github.com/helixir/scholar-gateway/internal/llm"
	"github.com/helixir/scholar-gateway/internal/observability"
	"github.com/helixir/scholar-gateway/internal/papersources"
	"github.com/helixir/scholar-gateway/internal/papersources/providers"
	"github.com/helixir/scholar-gateway/internal/service"
)

// App owns the assembled service and the resources behind it.
type App struct {
	Service *service.Service
	Cache   *cache.Cache
	Metrics *observability.Metrics

	logger zerolog.Logger
}

// New builds the application. metrics may be nil. A configured LLM provider
// that cannot be constructed is logged and analysis stays disabled.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) (*App, error) {
	active, skipped := cfg.Sources.Active()
	for _, name := range skipped {
		logger.Warn().Str("source", name).Msg("source enabled without an API key, skipping")
	}

	registry, err := providers.NewRegistry(AdapterConfigs(active), papersources.Deps{
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("build source registry: %w", err)
	}
	logger.Info().Strs("sources", sourceNames(registry)).Msg("source adapters registered")

	c, err := cache.New(ctx, CacheConfig(cfg.Cache), logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("initialize cache: %w", err)
	}

	var analyzer *llm.Analyzer
	if cfg.LLM.Provider != "" {
		provider, err := llm.NewProvider(LLMConfig(cfg.LLM))
		if err != nil {
			logger.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("LLM provider unavailable, analysis disabled")
		} else {
			analyzer = llm.NewAnalyzer(provider, logger, metrics)
			logger.Info().Str("provider", provider.Name()).Str("model", provider.Model()).Msg("LLM analysis enabled")
		}
	}

	svc, err := service.New(service.Config{
		Registry:       registry,
		DefaultAdapter: cfg.DefaultAdapter,
		Cache:          c,
		Cleaner:        cleaning.NewCleaner(cfg.Cleaning.AuthorThreshold, logger),
		Analyzer:       analyzer,
		BatchWorkers:   cfg.BatchWorkers,
	}, logger)
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	return &App{
		Service: svc,
		Cache:   c,
		Metrics: metrics,
		logger:  logger,
	}, nil
}

// Close releases the cache backend.
func (a *App) Close() error {
	if a == nil || a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}

// AdapterConfigs converts source settings into adapter configurations.
func AdapterConfigs(sources map[string]config.SourceConfig) map[string]providers.AdapterConfig {
	out := make(map[string]providers.AdapterConfig, len(sources))
	for name, src := range sources {
		out[name] = providers.AdapterConfig{
			APIKey:     src.APIKey,
			BaseURL:    src.BaseURL,
			RateLimit:  src.RateLimit,
			RetryTimes: src.RetryTimes,
			RetryDelay: src.RetryDelay,
			Timeout:    src.Timeout,
			Mailto:     src.Mailto,

			WaitOnRateLimit: src.RateLimitWait,
		}
	}
	return out
}

// CacheConfig converts cache settings.
func CacheConfig(c config.CacheConfig) cache.Config {
	return cache.Config{
		Enabled:  c.Enabled,
		Backend:  c.Backend,
		TTL:      c.TTL,
		FilePath: c.FilePath,
		Redis: cache.RedisConfig{
			Host:        c.Redis.Host,
			Port:        c.Redis.Port,
			DB:          c.Redis.DB,
			Password:    c.Redis.Password,
			Namespace:   c.Redis.Namespace,
			DialTimeout: c.Redis.DialTimeout,
		},
		Bolt: cache.BoltConfig{
			Path:        c.Bolt.Path,
			Bucket:      c.Bolt.Bucket,
			OpenTimeout: c.Bolt.OpenTimeout,
		},
	}
}

// LLMConfig converts LLM settings.
func LLMConfig(c config.LLMConfig) llm.Config {
	return llm.Config{
		Provider: c.Provider,
		Options: llm.Options{
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
			Timeout:     c.Timeout,
			MaxRetries:  c.MaxRetries,
		},
		OpenAI:    llm.OpenAIConfig{APIKey: c.OpenAI.APIKey, Model: c.OpenAI.Model, BaseURL: c.OpenAI.BaseURL},
		Anthropic: llm.AnthropicConfig{APIKey: c.Anthropic.APIKey, Model: c.Anthropic.Model, BaseURL: c.Anthropic.BaseURL},
		Zhipu:     llm.OpenAIConfig{APIKey: c.Zhipu.APIKey, Model: c.Zhipu.Model, BaseURL: c.Zhipu.BaseURL},
	}
}

func sourceNames(r *papersources.Registry) []string {
	names := r.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
