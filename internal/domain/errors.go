package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. Typed errors below unwrap to one of these, so callers classify
// failures with errors.Is and never inspect messages.
var (
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means bad caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidData means a provider payload that cannot be normalized into
	// a valid record.
	ErrInvalidData = errors.New("invalid provider data")

	// ErrUnauthorized means a provider rejected the configured API key.
	ErrUnauthorized = errors.New("unauthorized")

	ErrRateLimited = errors.New("rate limited")

	// ErrRequestFailed means a provider call failed with a non-retryable
	// status or ran out of attempts.
	ErrRequestFailed = errors.New("api request failed")

	// ErrUnsupported means the provider has no equivalent of the operation.
	ErrUnsupported = errors.New("unsupported operation")

	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUnknownSource means a provider name outside openalex, scopus and
	// sciencedirect.
	ErrUnknownSource = errors.New("unknown source")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NotFoundError is the service-level answer for an entity no provider
// returned. Entity is "paper", "author", "journal" or "citations".
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError returns a NotFoundError for entity id.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AuthenticationError is a 401 from a provider. It is never retried.
type AuthenticationError struct {
	Source     string
	StatusCode int
}

// NewAuthenticationError returns an AuthenticationError for source.
func NewAuthenticationError(source string, statusCode int) *AuthenticationError {
	return &AuthenticationError{Source: source, StatusCode: statusCode}
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s authentication failed (status %d): check the API key", e.Source, e.StatusCode)
}

func (e *AuthenticationError) Unwrap() error { return ErrUnauthorized }

// RateLimitError is a 429 from a provider. RetryAfter comes from the
// Retry-After header, or the provider's default wait when absent.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

// NewRateLimitError returns a RateLimitError for source.
func NewRateLimitError(source string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Source: source, RetryAfter: retryAfter}
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// ExternalAPIError is a failed provider request. StatusCode is zero when no
// HTTP response was received; Cause then holds the transport error.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// NewExternalAPIError returns an ExternalAPIError for source.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{Source: source, StatusCode: statusCode, Message: message, Cause: cause}
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API request failed: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

func (e *ExternalAPIError) Unwrap() error { return e.Cause }

// Is matches ErrRequestFailed whatever the cause chain holds.
func (e *ExternalAPIError) Is(target error) bool { return target == ErrRequestFailed }

// DataError is a provider record that failed to decode or normalize. Cause
// holds the decode or validation error for logging; it stays out of the
// unwrap chain so a record-level ValidationError never reads as caller input.
type DataError struct {
	Source string
	Cause  error
}

// NewDataError returns a DataError for source.
func NewDataError(source string, cause error) *DataError {
	return &DataError{Source: source, Cause: cause}
}

func (e *DataError) Error() string {
	return fmt.Sprintf("malformed %s record: %v", e.Source, e.Cause)
}

func (e *DataError) Unwrap() error { return ErrInvalidData }

// UnsupportedError is an operation a provider has no endpoint for, such as
// Scopus journal lookup. Adapters log and return empty results instead;
// callers that need to tell the two apart return this error themselves.
type UnsupportedError struct {
	Source    string
	Operation string
}

// NewUnsupportedError returns an UnsupportedError for source.
func NewUnsupportedError(source, operation string) *UnsupportedError {
	return &UnsupportedError{Source: source, Operation: operation}
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Source, e.Operation)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// UnknownSourceError is a provider name outside the supported set.
type UnknownSourceError struct {
	Name string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source %q", e.Name)
}

func (e *UnknownSourceError) Unwrap() error { return ErrUnknownSource }
