package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one authenticated device or browser instance. Raw tokens
// are never stored; only their hashes are.
//
// A session belongs to a chain: the chain id is minted at login and carried
// through every refresh rotation, so reuse of a rotated refresh token can
// revoke the whole lineage at once.
type Session struct {
	ID               uuid.UUID
	IdentityID       uuid.UUID
	ChainID          uuid.UUID // Correlation id stable across refresh rotations
	AccessTokenHash  string
	RefreshTokenHash string

	// Device/context metadata captured at login.
	UserAgent string
	IPAddress string

	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time

	IsActive          bool
	TerminatedAt      *time.Time
	TerminationReason *TerminationReason
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// DeviceContext is the request metadata recorded on the session at login.
type DeviceContext struct {
	UserAgent string
	IPAddress string
}
