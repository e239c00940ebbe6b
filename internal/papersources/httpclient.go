package papersources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/scholar-gateway/internal/domain"
	"github.com/helixir/scholar-gateway/internal/observability"
)

// maxResponseBytes caps how much of a provider response body is read.
const maxResponseBytes = 10 << 20

// epochThreshold separates "seconds to wait" from "unix timestamp" in
// rate-limit reset headers.
const epochThreshold = 1_000_000_000

// RateLimitPolicy selects how the executor reacts to HTTP 429.
type RateLimitPolicy int

const (
	// RateLimitWait sleeps for the provider hint and retries inline. The sleep
	// consumes one attempt.
	RateLimitWait RateLimitPolicy = iota

	// RateLimitSurface returns a *domain.RateLimitError immediately and leaves
	// the decision to the caller.
	RateLimitSurface
)

// String returns the policy name.
func (p RateLimitPolicy) String() string {
	switch p {
	case RateLimitWait:
		return "wait"
	case RateLimitSurface:
		return "surface"
	default:
		return "unknown"
	}
}

// Doer executes a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClientConfig configures the request executor.
type HTTPClientConfig struct {
	// Source names the provider in errors, logs and metrics.
	Source string

	// BaseURL is prefixed to every endpoint.
	BaseURL string

	// Timeout bounds each individual attempt.
	Timeout time.Duration

	// RateLimit is the maximum requests per second for this instance.
	RateLimit float64

	// MaxAttempts is the total number of attempts per call (retry_times).
	MaxAttempts int

	// RetryDelay is the linear backoff unit: attempt n waits RetryDelay*n.
	RetryDelay time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key sent in APIKeyHeader.
	APIKey string

	// APIKeyHeader is the header name for the API key (e.g., "X-ELS-APIKey").
	APIKeyHeader string

	// Headers are extra static headers sent with every request.
	Headers map[string]string

	// RateLimitPolicy selects the reaction to HTTP 429.
	RateLimitPolicy RateLimitPolicy

	// RateLimitHeader carries the provider's wait hint (default "Retry-After").
	RateLimitHeader string

	// DefaultRateLimitWait is used when the hint header is absent or unparsable.
	DefaultRateLimitWait time.Duration

	// MaxRateLimitWait caps a single inline sleep under RateLimitWait.
	MaxRateLimitWait time.Duration
}

// HTTPClientOption customizes an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithDoer replaces the underlying transport.
func WithDoer(d Doer) HTTPClientOption {
	return func(c *HTTPClient) {
		c.doer = d
	}
}

// WithLogger sets the logger used for retry and rate-limit events.
func WithLogger(logger zerolog.Logger) HTTPClientOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// WithMetrics attaches Prometheus metrics. A nil value disables recording.
func WithMetrics(m *observability.Metrics) HTTPClientOption {
	return func(c *HTTPClient) {
		c.metrics = m
	}
}

// HTTPClient is the rate-limited resilient request executor shared by the
// provider adapters. Each adapter owns one instance; the throttle state lives
// in the instance and is safe for concurrent use.
type HTTPClient struct {
	doer     Doer
	throttle *Throttle
	config   HTTPClientConfig
	logger   zerolog.Logger
	metrics  *observability.Metrics

	// sleep waits for d or until ctx is done. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewHTTPClient creates a new executor with defaults applied.
func NewHTTPClient(cfg HTTPClientConfig, opts ...HTTPClientOption) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "ScholarGateway/1.0"
	}
	if cfg.RateLimitHeader == "" {
		cfg.RateLimitHeader = "Retry-After"
	}
	if cfg.DefaultRateLimitWait == 0 {
		cfg.DefaultRateLimitWait = 60 * time.Second
	}
	if cfg.MaxRateLimitWait == 0 {
		cfg.MaxRateLimitWait = 2 * time.Minute
	}
	if cfg.Source == "" {
		cfg.Source = "provider"
	}

	c := &HTTPClient{
		doer:     &http.Client{Timeout: cfg.Timeout},
		throttle: NewThrottle(cfg.RateLimit),
		config:   cfg,
		logger:   zerolog.Nop(),
		sleep:    waitFor,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = observability.WithSourceContext(c.logger, cfg.Source)

	return c
}

// Config returns the effective configuration after defaults.
func (c *HTTPClient) Config() HTTPClientConfig {
	return c.config
}

// BuildURL joins the base URL, endpoint and query parameters.
func (c *HTTPClient) BuildURL(endpoint string, query url.Values) string {
	u := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// GetJSON issues a GET against endpoint and returns the raw JSON body.
//
// found is false, with a nil error, when the provider answers 404. The call
// throttles before every attempt, retries transport failures and 5xx
// responses with linear backoff, fails immediately with a
// *domain.AuthenticationError on 401 and handles 429 per the configured
// RateLimitPolicy. Exhausted retries yield a *domain.ExternalAPIError wrapping
// the last failure.
func (c *HTTPClient) GetJSON(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, bool, error) {
	target := c.BuildURL(endpoint, query)
	source := c.config.Source

	var (
		lastErr    error
		lastStatus int
	)

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			c.metrics.RecordSourceRetry(source)
		}

		if err := c.throttle.Wait(ctx); err != nil {
			return nil, false, fmt.Errorf("%s: throttle wait: %w", source, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, false, domain.NewExternalAPIError(source, 0, "build request", err)
		}
		c.setHeaders(req)

		start := time.Now()
		resp, err := c.doer.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, false, ctxErr
			}
			lastErr, lastStatus = err, 0
			c.metrics.RecordSourceRequestFailed(source, "transport")
			if c.retryAfterFailure(ctx, attempt, err) {
				continue
			}
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			break
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		c.metrics.RecordSourceRequest(source, resp.StatusCode, time.Since(start).Seconds())

		switch status := resp.StatusCode; {
		case status >= 200 && status < 300:
			if readErr != nil {
				lastErr, lastStatus = fmt.Errorf("read response body: %w", readErr), status
				c.metrics.RecordSourceRequestFailed(source, "read")
				if c.retryAfterFailure(ctx, attempt, lastErr) {
					continue
				}
				if ctx.Err() != nil {
					return nil, false, ctx.Err()
				}
				return nil, false, c.exhausted(lastStatus, lastErr)
			}
			if !json.Valid(body) {
				c.metrics.RecordSourceRequestFailed(source, "decode")
				return nil, false, domain.NewExternalAPIError(source, status, "response is not valid JSON", nil)
			}
			return json.RawMessage(body), true, nil

		case status == http.StatusUnauthorized:
			c.metrics.RecordSourceRequestFailed(source, "auth")
			return nil, false, domain.NewAuthenticationError(source, status)

		case status == http.StatusNotFound:
			return nil, false, nil

		case status == http.StatusTooManyRequests:
			wait := c.rateLimitDelay(resp.Header)
			rlErr := domain.NewRateLimitError(source, wait)
			c.metrics.RecordSourceRateLimited(source)

			if c.config.RateLimitPolicy == RateLimitSurface {
				return nil, false, rlErr
			}
			lastErr, lastStatus = rlErr, status
			if attempt == c.config.MaxAttempts {
				return nil, false, rlErr
			}
			if wait > c.config.MaxRateLimitWait {
				wait = c.config.MaxRateLimitWait
			}
			logger := observability.WithRequestContext(ctx, c.logger)
			logger.Warn().
				Dur("wait", wait).
				Int("attempt", attempt).
				Msg("rate limited, waiting before retry")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, false, err
			}

		case status >= 500:
			lastErr, lastStatus = fmt.Errorf("server returned status %d", status), status
			c.metrics.RecordSourceRequestFailed(source, "server")
			if c.retryAfterFailure(ctx, attempt, lastErr) {
				continue
			}
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			return nil, false, c.exhausted(lastStatus, lastErr)

		default:
			c.metrics.RecordSourceRequestFailed(source, "client")
			return nil, false, domain.NewExternalAPIError(source, status, truncate(string(body), 512), nil)
		}
	}

	return nil, false, c.exhausted(lastStatus, lastErr)
}

// retryAfterFailure logs a failed attempt and, when attempts remain, sleeps
// RetryDelay*attempt. It reports whether the caller should try again.
func (c *HTTPClient) retryAfterFailure(ctx context.Context, attempt int, err error) bool {
	logger := observability.WithRequestContext(ctx, c.logger)
	event := logger.Warn()
	if attempt == c.config.MaxAttempts {
		event = logger.Error()
	}
	event.Err(err).
		Int("attempt", attempt).
		Int("max_attempts", c.config.MaxAttempts).
		Msg("provider request failed")

	if attempt >= c.config.MaxAttempts {
		return false
	}
	return c.sleep(ctx, c.backoff(attempt)) == nil
}

// backoff returns the linear delay after the given failed attempt.
func (c *HTTPClient) backoff(attempt int) time.Duration {
	return c.config.RetryDelay * time.Duration(attempt)
}

func (c *HTTPClient) exhausted(status int, cause error) error {
	if cause == nil {
		cause = errors.New("no response received")
	}
	var rlErr *domain.RateLimitError
	if errors.As(cause, &rlErr) {
		return rlErr
	}
	msg := fmt.Sprintf("giving up after %d attempts: %v", c.config.MaxAttempts, cause)
	return domain.NewExternalAPIError(c.config.Source, status, msg, cause)
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}
}

// rateLimitDelay reads the provider's wait hint. The header may hold a number
// of seconds, a unix timestamp or an HTTP date.
func (c *HTTPClient) rateLimitDelay(h http.Header) time.Duration {
	value := strings.TrimSpace(h.Get(c.config.RateLimitHeader))
	if value == "" {
		return c.config.DefaultRateLimitWait
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n >= epochThreshold {
			return nonNegative(time.Until(time.Unix(n, 0)))
		}
		return nonNegative(time.Duration(n) * time.Second)
	}

	if t, err := http.ParseTime(value); err == nil {
		return nonNegative(time.Until(t))
	}

	return c.config.DefaultRateLimitWait
}

// waitFor waits for the specified duration, respecting context cancellation.
func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
