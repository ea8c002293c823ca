// Package auth provides bearer-token authentication and request-scoped
// session context.
package auth

import (
	"context"
	"crypto/subtle"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const sessionContextKey contextKey = "session"

// Session identifies the authenticated caller for one request.
type Session struct {
	// UserID is the caller identity attached to persisted records and logs.
	UserID string
}

// ValidateToken performs constant-time comparison of the provided token
// against the expected token to prevent timing attacks.
func ValidateToken(provided, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// SessionFromContext retrieves the session from the context.
// Returns nil if the request is unauthenticated.
func SessionFromContext(ctx context.Context) *Session {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}

// WithSession returns a new context carrying the session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
