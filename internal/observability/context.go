package observability

import "context"

type requestIDKey struct{}

// WithRequestID stores the HTTP request or correlation ID in ctx so that
// provider and cache logs can be joined to the request that caused them.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
