// Package config provides configuration management for the scholar gateway.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Source names accepted under the sources section.
const (
	SourceOpenAlex      = "openalex"
	SourceScopus        = "scopus"
	SourceScienceDirect = "sciencedirect"
)

// Cache backends accepted under cache.backend.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendBolt  = "bolt"
)

// Config holds all configuration for the scholar gateway.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Sources contains the paper source API configurations.
	Sources SourcesConfig `mapstructure:"sources"`
	// DefaultAdapter is the source selected at startup.
	DefaultAdapter string `mapstructure:"default_adapter"`
	// BatchWorkers is the worker pool size for batch lookups.
	BatchWorkers int `mapstructure:"batch_workers"`
	// Cache contains response cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// Cleaning contains cleaning pass settings.
	Cleaning CleaningConfig `mapstructure:"cleaning"`
	// LLM contains LLM analysis settings.
	LLM LLMConfig `mapstructure:"llm"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// Port is the HTTP server port (default: 8000).
	Port int `mapstructure:"port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSEnabled allows cross-origin requests from any origin.
	CORSEnabled bool `mapstructure:"cors_enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// SourcesConfig holds configuration for every paper source API.
type SourcesConfig struct {
	// OpenAlex contains OpenAlex API settings.
	OpenAlex SourceConfig `mapstructure:"openalex"`
	// Scopus contains Scopus API settings.
	Scopus SourceConfig `mapstructure:"scopus"`
	// ScienceDirect contains ScienceDirect API settings.
	ScienceDirect SourceConfig `mapstructure:"sciencedirect"`
}

// SourceConfig holds configuration for a single paper source API.
type SourceConfig struct {
	// Enabled controls whether this source is registered.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variables only).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// RetryTimes is the total number of attempts per request.
	RetryTimes int `mapstructure:"retry_times"`
	// RetryDelay is the base delay between attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// Mailto joins the OpenAlex polite pool.
	Mailto string `mapstructure:"mailto"`
	// RateLimitWait makes Scopus and ScienceDirect sleep through 429s instead
	// of failing the request. OpenAlex always waits.
	RateLimitWait bool `mapstructure:"rate_limit_wait"`
}

// RequiresAPIKey reports whether the named source refuses anonymous access.
func RequiresAPIKey(name string) bool {
	return name == SourceScopus || name == SourceScienceDirect
}

// ByName returns the source configurations keyed by source name.
func (c SourcesConfig) ByName() map[string]SourceConfig {
	return map[string]SourceConfig{
		SourceOpenAlex:      c.OpenAlex,
		SourceScopus:        c.Scopus,
		SourceScienceDirect: c.ScienceDirect,
	}
}

// Active returns the enabled sources that can be used. Sources that need an
// API key are left out when none is set; their names are returned as skipped.
func (c SourcesConfig) Active() (active map[string]SourceConfig, skipped []string) {
	active = make(map[string]SourceConfig)
	for _, name := range []string{SourceOpenAlex, SourceScopus, SourceScienceDirect} {
		sc := c.ByName()[name]
		if !sc.Enabled {
			continue
		}
		if RequiresAPIKey(name) && sc.APIKey == "" {
			skipped = append(skipped, name)
			continue
		}
		active[name] = sc
	}
	return active, skipped
}

// CacheConfig holds response cache configuration.
type CacheConfig struct {
	// Enabled turns the cache on.
	Enabled bool `mapstructure:"enabled"`
	// Backend is the preferred backend (file, redis, bolt).
	Backend string `mapstructure:"backend"`
	// TTL is the default time to live.
	TTL time.Duration `mapstructure:"ttl"`
	// FilePath is the file backend directory, also used as the fallback.
	FilePath string `mapstructure:"file_path"`
	// Redis contains redis backend settings.
	Redis RedisConfig `mapstructure:"redis"`
	// Bolt contains bolt backend settings.
	Bolt BoltConfig `mapstructure:"bolt"`
}

// RedisConfig holds redis backend settings.
type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	DB          int           `mapstructure:"db"`
	Namespace   string        `mapstructure:"namespace"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// Password is loaded from environment variables only.
	Password string `mapstructure:"-"`
}

// BoltConfig holds bolt backend settings.
type BoltConfig struct {
	Path        string        `mapstructure:"path"`
	Bucket      string        `mapstructure:"bucket"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// CleaningConfig holds cleaning pass settings.
type CleaningConfig struct {
	// AuthorThreshold is the author overlap above which two papers with the
	// same normalized title are treated as one work.
	AuthorThreshold float64 `mapstructure:"author_threshold"`
}

// LLMConfig holds LLM client configuration.
type LLMConfig struct {
	// Provider is the LLM provider (openai, anthropic, zhipu). Empty disables
	// LLM analysis.
	Provider string `mapstructure:"provider"`
	// Temperature is the LLM temperature setting.
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens caps generated tokens.
	MaxTokens int `mapstructure:"max_tokens"`
	// Timeout is the timeout for LLM API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the maximum number of retries for failed calls.
	MaxRetries int `mapstructure:"max_retries"`
	// OpenAI contains OpenAI-specific settings.
	OpenAI LLMProviderConfig `mapstructure:"openai"`
	// Anthropic contains Anthropic-specific settings.
	Anthropic LLMProviderConfig `mapstructure:"anthropic"`
	// Zhipu contains Zhipu GLM settings.
	Zhipu LLMProviderConfig `mapstructure:"zhipu"`
}

// LLMProviderConfig holds settings for one LLM provider.
type LLMProviderConfig struct {
	// APIKey is the provider API key (loaded from environment variables only).
	APIKey string `mapstructure:"-"`
	// Model is the model to use.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables that are already set win. An empty path loads
// ./.env when it exists.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SCHOLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/scholar-gateway")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets never come from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// The prefixed name wins over the conventional one.
func loadSecrets(cfg *Config) {
	cfg.Sources.OpenAlex.APIKey = firstEnv("SCHOLAR_SOURCES_OPENALEX_API_KEY", "OPENALEX_API_KEY")
	cfg.Sources.Scopus.APIKey = firstEnv("SCHOLAR_SOURCES_SCOPUS_API_KEY", "SCOPUS_API_KEY", "ELSEVIER_API_KEY")
	cfg.Sources.ScienceDirect.APIKey = firstEnv("SCHOLAR_SOURCES_SCIENCEDIRECT_API_KEY", "SCIENCEDIRECT_API_KEY", "ELSEVIER_API_KEY")

	cfg.LLM.OpenAI.APIKey = firstEnv("SCHOLAR_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")
	cfg.LLM.Anthropic.APIKey = firstEnv("SCHOLAR_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	cfg.LLM.Zhipu.APIKey = firstEnv("SCHOLAR_LLM_ZHIPU_API_KEY", "ZHIPU_API_KEY")

	cfg.Cache.Redis.Password = firstEnv("SCHOLAR_CACHE_REDIS_PASSWORD", "REDIS_PASSWORD")
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_enabled", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "scholar_gateway")

	v.SetDefault("default_adapter", SourceOpenAlex)
	v.SetDefault("batch_workers", 5)

	// Sources defaults - OpenAlex
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("sources.openalex.enabled", true)
	v.SetDefault("sources.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("sources.openalex.rate_limit", 10.0)
	v.SetDefault("sources.openalex.retry_times", 3)
	v.SetDefault("sources.openalex.retry_delay", "1s")
	v.SetDefault("sources.openalex.timeout", "30s")
	v.SetDefault("sources.openalex.mailto", "")

	// Sources defaults - Scopus (registered only with an API key)
	v.SetDefault("sources.scopus.enabled", true)
	v.SetDefault("sources.scopus.base_url", "https://api.elsevier.com/content")
	v.SetDefault("sources.scopus.rate_limit", 0.8)
	v.SetDefault("sources.scopus.retry_times", 3)
	v.SetDefault("sources.scopus.retry_delay", "2s")
	v.SetDefault("sources.scopus.timeout", "30s")
	v.SetDefault("sources.scopus.rate_limit_wait", false)

	// Sources defaults - ScienceDirect (registered only with an API key)
	v.SetDefault("sources.sciencedirect.enabled", true)
	v.SetDefault("sources.sciencedirect.base_url", "https://api.elsevier.com/content")
	v.SetDefault("sources.sciencedirect.rate_limit", 0.5)
	v.SetDefault("sources.sciencedirect.retry_times", 3)
	v.SetDefault("sources.sciencedirect.retry_delay", "2s")
	v.SetDefault("sources.sciencedirect.timeout", "30s")
	v.SetDefault("sources.sciencedirect.rate_limit_wait", false)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", CacheBackendFile)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.file_path", "./cache")
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.namespace", "scholar:")
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.bolt.path", "./cache/scholar.db")
	v.SetDefault("cache.bolt.bucket", "scholar-cache")
	v.SetDefault("cache.bolt.open_timeout", "1s")

	v.SetDefault("cleaning.author_threshold", 0.5)

	// LLM defaults
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.openai.model", "gpt-4-turbo")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.anthropic.model", "claude-3-sonnet-20240229")
	v.SetDefault("llm.anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("llm.zhipu.model", "glm-4")
	v.SetDefault("llm.zhipu.base_url", "https://open.bigmodel.cn/api/paas/v4")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.Port)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.DefaultAdapter {
	case SourceOpenAlex, SourceScopus, SourceScienceDirect:
	default:
		return fmt.Errorf("invalid default_adapter: %q", c.DefaultAdapter)
	}
	if c.BatchWorkers < 0 {
		return fmt.Errorf("batch_workers must not be negative")
	}

	for name, sc := range c.Sources.ByName() {
		if !sc.Enabled {
			continue
		}
		if sc.RateLimit <= 0 {
			return fmt.Errorf("sources.%s.rate_limit must be positive", name)
		}
		if sc.RetryTimes < 1 {
			return fmt.Errorf("sources.%s.retry_times must be at least 1", name)
		}
		if sc.RetryDelay < 0 || sc.Timeout < 0 {
			return fmt.Errorf("sources.%s durations must not be negative", name)
		}
	}

	switch strings.ToLower(c.Cache.Backend) {
	case CacheBackendFile, CacheBackendRedis, CacheBackendBolt:
	default:
		return fmt.Errorf("invalid cache backend: %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if c.Cache.Redis.Port < 0 || c.Cache.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis port: %d", c.Cache.Redis.Port)
	}

	if c.Cleaning.AuthorThreshold < 0 || c.Cleaning.AuthorThreshold > 1 {
		return fmt.Errorf("cleaning author_threshold must be between 0 and 1")
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "", "openai", "anthropic", "zhipu":
	default:
		return fmt.Errorf("unsupported LLM provider: %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM temperature must be between 0 and 2")
	}

	return nil
}
