package domain

import (
	"fmt"
	"time"

	"github.com/caremesh/authcore/internal/errors"
)

// Authentication errors. Every failure kind maps to a stable machine-readable
// code; no failure path reveals whether a given identifier exists or which
// check rejected the secret.
var (
	// ErrInvalidCredentials covers both "unknown identifier" and "wrong secret"
	// so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrIdentityInactive indicates the identity exists but has been deactivated.
	ErrIdentityInactive = errors.Wrap(errors.ErrForbidden, "identity is not active")

	// ErrScopeInactive indicates the identity's organizational scope was
	// deactivated after the token was issued.
	ErrScopeInactive = errors.Wrap(errors.ErrForbidden, "organizational scope is not active")

	// ErrTokenExpired indicates the token's expiry has elapsed.
	ErrTokenExpired = errors.Wrap(errors.ErrUnauthorized, "token expired")

	// ErrTokenMalformed indicates the token could not be parsed or carries
	// unexpected claims.
	ErrTokenMalformed = errors.Wrap(errors.ErrUnauthorized, "token malformed")

	// ErrTokenBadSignature indicates the token signature did not verify.
	ErrTokenBadSignature = errors.Wrap(errors.ErrUnauthorized, "token signature invalid")

	// ErrTokenReuse indicates an already-rotated refresh token was presented
	// again. The whole session chain is revoked as a precaution.
	ErrTokenReuse = errors.Wrap(errors.ErrUnauthorized, "refresh token reuse detected")

	// ErrInvalidSession indicates the token verified but its session is
	// inactive, expired, or not found.
	ErrInvalidSession = errors.Wrap(errors.ErrUnauthorized, "invalid session")

	// ErrSessionNotFound indicates a session lookup found nothing.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "session not found")
)

// LockedError reports a credential under timed lockout, carrying how long the
// caller must wait. It unwraps to the ErrLocked sentinel.
type LockedError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *LockedError) Error() string {
	return fmt.Sprintf("credential locked, retry after %s", e.RetryAfter.Round(time.Second))
}

// Unwrap links the error into the ErrLocked chain.
func (e *LockedError) Unwrap() error {
	return errors.ErrLocked
}

// NewLockedError creates a LockedError with the given retry delay.
func NewLockedError(retryAfter time.Duration) *LockedError {
	return &LockedError{RetryAfter: retryAfter}
}
