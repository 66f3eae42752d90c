// Package service provides technical services for authentication operations.
//
// This package implements password hashing and signed-token issuance and
// verification using industry-standard cryptographic practices.
package service

import (
	"github.com/google/uuid"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// PasswordService defines operations for credential secret hashing and
// verification. Implementations must use a memory-hard hashing algorithm
// (e.g., Argon2id) with a fresh salt per hash.
type PasswordService interface {
	// HashPassword hashes a plain text password. Each call produces a new salt,
	// so hashing the same password twice yields different hashes.
	HashPassword(plainPassword string) (hashedPassword string, error error)

	// ComparePassword compares a plain text password against a stored hash in
	// constant time. Returns true on match, false otherwise.
	ComparePassword(plainPassword string, hashedPassword string) bool
}

// TokenService defines operations for issuing and verifying signed token
// pairs. Verification is a pure function of the token and the signing keys; it
// never consults storage.
type TokenService interface {
	// IssuePair mints a new access/refresh token pair for an identity. The
	// chain id correlates every pair minted for the same login lineage.
	IssuePair(identity *identityDomain.Identity, chainID uuid.UUID) (*authDomain.TokenPair, error)

	// VerifyAccess verifies an access token's signature, expiry, and shape.
	// Returns ErrTokenExpired, ErrTokenBadSignature, or ErrTokenMalformed.
	VerifyAccess(token string) (*authDomain.AccessClaims, error)

	// VerifyRefresh verifies a refresh token's signature, expiry, and shape.
	VerifyRefresh(token string) (*authDomain.RefreshClaims, error)

	// HashToken hashes a plain token with SHA-256 for at-rest storage and
	// session lookup. Raw tokens are never persisted.
	HashToken(plainToken string) string
}
