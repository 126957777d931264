package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	runIDKey     contextKey = "run_id"
	variantKey   contextKey = "variant"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithRun adds the digest run ID and variant to the context.
func WithRun(ctx context.Context, runID, variant string) context.Context {
	ctx = context.WithValue(ctx, runIDKey, runID)
	ctx = context.WithValue(ctx, variantKey, variant)
	return ctx
}

// RunFromContext retrieves the digest run ID and variant from context.
// Returns empty strings if not present.
func RunFromContext(ctx context.Context) (runID, variant string) {
	if v := ctx.Value(runIDKey); v != nil {
		if id, ok := v.(string); ok {
			runID = id
		}
	}
	if v := ctx.Value(variantKey); v != nil {
		if s, ok := v.(string); ok {
			variant = s
		}
	}
	return runID, variant
}
