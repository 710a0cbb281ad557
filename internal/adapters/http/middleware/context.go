// Package middleware provides HTTP middleware for the Gin framework.
package middleware

import "context"

type (
	requestIDKey     struct{}
	correlationIDKey struct{}
	principalKey     struct{}
)

// RequestIDFromContext returns the request ID, or "" if ctx is nil or
// carries none. Client adapters forward it upstream.
func RequestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, requestIDKey{})
}

// CorrelationIDFromContext returns the correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, correlationIDKey{})
}

// PrincipalFromContext returns the authenticated caller's name, or "" for an
// anonymous request.
func PrincipalFromContext(ctx context.Context) string {
	return stringFromContext(ctx, principalKey{})
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

func ContextWithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

func stringFromContext(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}

	s, _ := ctx.Value(key).(string)

	return s
}
