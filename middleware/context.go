package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// SessionPresentKey is the context key for the gate's credential check
	SessionPresentKey contextKey = "session_present"
)

// GetRequestIDFromContext retrieves the request ID from context, falling
// back to the ID chi's RequestID middleware assigned
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// HasSessionFromContext reports whether the session gate saw a credential
func HasSessionFromContext(ctx context.Context) bool {
	present, _ := ctx.Value(SessionPresentKey).(bool)
	return present
}

// WithSessionPresent records the gate's credential check in the context
func WithSessionPresent(ctx context.Context, present bool) context.Context {
	return context.WithValue(ctx, SessionPresentKey, present)
}
