package llm

import (
	"fmt"
	"sort"
	"time"
)

// Options are the generation and transport settings shared by all providers.
type Options struct {
	// Temperature is the sampling temperature. Negative selects DefaultTemperature.
	Temperature float64
	// MaxTokens caps the generated tokens. Zero selects DefaultMaxTokens.
	MaxTokens int
	// Timeout is the per-call HTTP timeout. Zero selects DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is the number of retries after a transient failure.
	MaxRetries int
}

func (o Options) withDefaults() Options {
	if o.Temperature < 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	return o
}

// Config holds the parameters needed to create a Provider.
// This is defined in the llm package to avoid importing the config package,
// keeping the llm package free of infrastructure dependencies.
type Config struct {
	// Provider is the LLM provider name ("openai", "anthropic" or "zhipu").
	Provider string
	// Options apply to whichever provider is selected.
	Options Options
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Anthropic contains Anthropic-specific settings.
	Anthropic AnthropicConfig
	// Zhipu contains Zhipu GLM settings.
	Zhipu OpenAIConfig
}

var constructors = map[string]func(Config) (Provider, string){
	"openai": func(c Config) (Provider, string) {
		return NewOpenAIProvider(c.OpenAI, c.Options), c.OpenAI.APIKey
	},
	"anthropic": func(c Config) (Provider, string) {
		return NewAnthropicProvider(c.Anthropic, c.Options), c.Anthropic.APIKey
	},
	"zhipu": func(c Config) (Provider, string) {
		return NewZhipuProvider(c.Zhipu, c.Options), c.Zhipu.APIKey
	},
}

// NewProvider creates the Provider named by cfg.Provider. It fails for
// unknown names and when the selected provider has no API key.
func NewProvider(cfg Config) (Provider, error) {
	build, ok := constructors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %q (supported: %v)", cfg.Provider, SupportedProviders())
	}
	provider, apiKey := build(cfg)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, cfg.Provider)
	}
	return provider, nil
}

// SupportedProviders lists the provider names NewProvider accepts.
func SupportedProviders() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
