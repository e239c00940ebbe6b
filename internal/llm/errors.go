package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/helixir/scholar-gateway/internal/domain"
)

// ErrMissingAPIKey is returned when a provider is built without credentials.
var ErrMissingAPIKey = errors.New("llm: api key not configured")

// errorTypeNetwork marks an APIError for a call that never got a response.
const errorTypeNetwork = "network_error"

// maxErrorMessage bounds the raw body kept when an error payload is not JSON.
const maxErrorMessage = 512

// APIError is a failed call to an LLM vendor API.
type APIError struct {
	Provider string
	// StatusCode is zero when no HTTP response was received.
	StatusCode int
	Message    string
	// Type and Code are the vendor's classification, when it sent one.
	Type string
	Code string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: API error (status %d", e.Provider, e.StatusCode)
	if e.Type != "" {
		fmt.Fprintf(&b, ", type %s", e.Type)
	}
	fmt.Fprintf(&b, "): %s", e.Message)
	return b.String()
}

// IsTransient reports whether a retry may succeed: network failures, 429
// and 5xx.
func (e *APIError) IsTransient() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// Is maps the error onto the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case domain.ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case domain.ErrRequestFailed:
		return true
	}
	return false
}

// vendorError is the error envelope shared by the OpenAI-compatible APIs and
// Anthropic: {"error": {"type": ..., "message": ..., "code": ...}}. Anthropic
// sends no code, and OpenAI sometimes sends it as a number.
type vendorError struct {
	Error struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

// decodeAPIError builds an APIError from a non-200 response. Bodies that do
// not carry the vendor envelope are kept verbatim, truncated.
func decodeAPIError(provider string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{Provider: provider, StatusCode: statusCode}

	var env vendorError
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Message = env.Error.Message
		apiErr.Type = env.Error.Type
		apiErr.Code = rawCode(env.Error.Code)
		return apiErr
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	apiErr.Message = msg
	return apiErr
}

func rawCode(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func networkError(provider string, err error) *APIError {
	return &APIError{
		Provider: provider,
		Message:  fmt.Sprintf("request failed: %v", err),
		Type:     errorTypeNetwork,
	}
}
