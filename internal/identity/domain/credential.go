package domain

import (
	"time"

	"github.com/google/uuid"
)

// CredentialKind identifies how a credential verifies a presented secret.
type CredentialKind string

const (
	// CredentialKindPassword is a salted password hash credential.
	CredentialKindPassword CredentialKind = "password"
)

// AlgorithmArgon2id tags credentials hashed with Argon2id. The tag is stored
// next to the hash so old hashes stay verifiable across algorithm upgrades.
const AlgorithmArgon2id = "argon2id"

// Credential belongs to exactly one identity and holds the salted secret hash
// plus the lockout state. Only credential verification and the explicit
// password-change operation mutate it.
type Credential struct {
	ID             uuid.UUID
	IdentityID     uuid.UUID
	Kind           CredentialKind
	SecretHash     string     //nolint:gosec // salted hash, not a plaintext secret
	Algorithm      string     // Hash algorithm tag (e.g., "argon2id")
	FailedAttempts int        // Consecutive failed verification attempts
	LockedUntil    *time.Time // Timed lockout boundary (nil if not locked)
	LastUsedAt     *time.Time // Last successful verification
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Locked reports whether the credential is under a timed lockout at the given instant.
func (c *Credential) Locked(now time.Time) bool {
	return c.LockedUntil != nil && c.LockedUntil.After(now)
}

// RetryAfter returns how long until the lockout elapses. Zero when not locked.
func (c *Credential) RetryAfter(now time.Time) time.Duration {
	if !c.Locked(now) {
		return 0
	}
	return c.LockedUntil.Sub(now)
}
