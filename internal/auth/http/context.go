// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"context"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// identityKey is a context key type for storing authenticated identities.
type identityKey struct{}

// sessionKey is a context key type for storing the authenticated session.
type sessionKey struct{}

// WithIdentity stores an authenticated identity in the context.
// This is typically called by the authentication middleware after successful token validation.
func WithIdentity(ctx context.Context, identity *identityDomain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity retrieves an authenticated identity from the context.
// Returns (identity, true) if an identity is present, or (nil, false) if none was set.
// This is typically called by handlers that need the authenticated caller.
func GetIdentity(ctx context.Context) (*identityDomain.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*identityDomain.Identity)
	return identity, ok
}

// WithSession stores the session backing the presented access token in the context.
// This is typically called by the authentication middleware after successful token validation.
func WithSession(ctx context.Context, session *authDomain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSession retrieves the authenticated session from the context.
// Returns (session, true) if a session is present, or (nil, false) if none was set.
// Handlers use it to spare the caller's own session from bulk revocations.
func GetSession(ctx context.Context) (*authDomain.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*authDomain.Session)
	return session, ok
}
