// Package llm provides the large language model clients used for textual
// analysis of paper lists.
//
// Each Provider wraps one vendor HTTP API behind a single Complete call.
// Transient failures (network errors, 429 and 5xx responses) are retried
// with a per-provider backoff; everything else is returned as *APIError.
//
// Example usage:
//
//	provider, err := llm.NewProvider(llm.Config{Provider: "openai", OpenAI: llm.OpenAIConfig{APIKey: key}})
//	analyzer := llm.NewAnalyzer(provider, logger, metrics)
//	result, err := analyzer.AnalyzePapers(ctx, papers, llm.AnalysisTrend)
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Defaults shared by all providers.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
	DefaultTimeout     = 60 * time.Second
	DefaultMaxRetries  = 2
)

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a provider-neutral chat completion request.
type CompletionRequest struct {
	// System is an optional system prompt.
	System string
	// Messages are the conversation turns, oldest first.
	Messages []Message
	// Temperature overrides the provider default when set.
	Temperature *float64
	// MaxTokens overrides the provider default when positive.
	MaxTokens int
}

// UserPrompt builds a request holding a single user message.
func UserPrompt(prompt string) CompletionRequest {
	return CompletionRequest{Messages: []Message{{Role: RoleUser, Content: prompt}}}
}

// CompletionResult is the generated text and its accounting.
type CompletionResult struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	FinishReason string `json:"finish_reason,omitempty"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Provider generates text completions.
type Provider interface {
	// Complete sends req to the vendor API. The context bounds the call and
	// any retry waits.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)

	// Name returns the provider name (e.g., "openai", "anthropic").
	Name() string

	// Model returns the model identifier being used.
	Model() string
}

// isTransientError reports whether err is an *APIError worth retrying.
func isTransientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsTransient()
}

// retryTransient calls fn up to maxRetries+1 times. It waits delay(attempt)
// before each retry and stops early on a non-transient error or when ctx is
// done.
func retryTransient(ctx context.Context, provider string, maxRetries int, delay func(attempt int) time.Duration, fn func() (*CompletionResult, error)) (*CompletionResult, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("%s: context cancelled during retry wait: %w", provider, ctx.Err())
			case <-timer.C:
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !isTransientError(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%s: exhausted %d retries: %w", provider, maxRetries, lastErr)
}

