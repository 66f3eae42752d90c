// Package usecase defines business logic interfaces for authentication:
// credential verification with lockout, session lifecycle, token rotation, and
// permission checks.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	abilityDomain "github.com/caremesh/authcore/internal/ability/domain"
	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// IdentityRepository defines the identity lookups authentication needs.
// Implementations must support transaction-aware operations via context propagation.
type IdentityRepository interface {
	// Get retrieves an identity by ID. Returns ErrIdentityNotFound if not found.
	Get(ctx context.Context, identityID uuid.UUID) (*identityDomain.Identity, error)
}

// OrganizationRepository defines the organization lookups authentication needs.
type OrganizationRepository interface {
	// Get retrieves an organization by ID. Returns ErrOrganizationNotFound if
	// not found.
	Get(ctx context.Context, organizationID uuid.UUID) (*identityDomain.Organization, error)
}

// CredentialRepository defines persistence operations for credentials and
// their lockout counters. Implementations must support transaction-aware
// operations via context propagation, and must mutate the counters with atomic
// increments so concurrent failed attempts never lose updates.
type CredentialRepository interface {
	// GetByIdentifier retrieves the active credential of a given kind by the
	// owning identity's email. Returns ErrCredentialNotFound if none matches.
	GetByIdentifier(
		ctx context.Context,
		identifier string,
		kind identityDomain.CredentialKind,
	) (*identityDomain.Credential, error)

	// RegisterFailure atomically increments the failed-attempt counter and sets
	// the lockout boundary once the counter reaches maxAttempts. Returns the
	// updated counter and boundary.
	RegisterFailure(
		ctx context.Context,
		credentialID uuid.UUID,
		maxAttempts int,
		lockedUntil time.Time,
		now time.Time,
	) (int, *time.Time, error)

	// RegisterSuccess resets the counter and lockout boundary and records the
	// successful verification time.
	RegisterSuccess(ctx context.Context, credentialID uuid.UUID, usedAt time.Time) error
}

// SessionRepository defines persistence operations for sessions.
// Implementations must support transaction-aware operations via context
// propagation. Revocations must be guarded on the active flag so concurrent
// revokes settle on exactly one winner.
type SessionRepository interface {
	// Create stores a new session in the repository.
	Create(ctx context.Context, session *authDomain.Session) error

	// Get retrieves a session by ID. Returns ErrSessionNotFound if not found.
	Get(ctx context.Context, sessionID uuid.UUID) (*authDomain.Session, error)

	// GetByAccessTokenHash retrieves a session by access token hash.
	GetByAccessTokenHash(ctx context.Context, tokenHash string) (*authDomain.Session, error)

	// GetByRefreshTokenHash retrieves a session by refresh token hash,
	// including terminated sessions for reuse detection.
	GetByRefreshTokenHash(ctx context.Context, tokenHash string) (*authDomain.Session, error)

	// ListActive returns the active sessions of an identity ordered by last
	// activity, oldest first.
	ListActive(ctx context.Context, identityID uuid.UUID) ([]*authDomain.Session, error)

	// Touch advances the session's last-activity timestamp.
	Touch(ctx context.Context, sessionID uuid.UUID, at time.Time) error

	// Revoke terminates one active session. Reports whether this call won the
	// guarded update.
	Revoke(
		ctx context.Context,
		sessionID uuid.UUID,
		reason authDomain.TerminationReason,
		at time.Time,
	) (bool, error)

	// RevokeAllForIdentity terminates every active session of an identity,
	// minus an optional exception. Returns the number terminated.
	RevokeAllForIdentity(
		ctx context.Context,
		identityID uuid.UUID,
		except *uuid.UUID,
		reason authDomain.TerminationReason,
		at time.Time,
	) (int64, error)

	// RevokeChain terminates every active session sharing a refresh chain.
	// Returns the number terminated.
	RevokeChain(
		ctx context.Context,
		chainID uuid.UUID,
		reason authDomain.TerminationReason,
		at time.Time,
	) (int64, error)

	// TerminateExpired marks every active session past its expiry as
	// terminated. Returns the number terminated.
	TerminateExpired(ctx context.Context, now time.Time) (int64, error)

	// DeleteTerminatedBefore purges terminated sessions older than the cutoff.
	// Returns the number of rows deleted.
	DeleteTerminatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AbilityCompiler compiles an identity's grants into an ability. Satisfied by
// the ability usecase.
type AbilityCompiler interface {
	CompileForIdentity(
		ctx context.Context,
		identity *identityDomain.Identity,
	) (abilityDomain.Ability, error)
}

// CredentialVerifier verifies a presented secret against the stored credential,
// enforcing the timed lockout and maintaining its counters.
type CredentialVerifier interface {
	// Verify checks the identifier/secret pair. Returns the credential on
	// success; ErrInvalidCredentials on unknown identifier or wrong secret; a
	// LockedError while the credential is under timed lockout.
	Verify(ctx context.Context, identifier, secret string) (*identityDomain.Credential, error)
}

// SessionUseCase defines business logic operations for the session lifecycle:
// establishment under the concurrency cap, refresh rotation, activity
// tracking, revocation, and expired-session cleanup.
type SessionUseCase interface {
	// Establish creates a session for a fresh login. When the identity exceeds
	// its concurrent-session cap, the least recently active sessions are
	// evicted in the same transaction.
	Establish(
		ctx context.Context,
		identityID uuid.UUID,
		chainID uuid.UUID,
		tokens *authDomain.TokenPair,
		device authDomain.DeviceContext,
	) (*authDomain.Session, error)

	// Rotate supersedes an active session with a new one carrying the rotated
	// token pair. The old session's guarded revocation and the new session's
	// creation happen in one transaction; losing the guarded update to a
	// concurrent rotation returns ErrTokenReuse.
	Rotate(
		ctx context.Context,
		current *authDomain.Session,
		tokens *authDomain.TokenPair,
		device authDomain.DeviceContext,
	) (*authDomain.Session, error)

	// Touch asynchronously advances the session's last-activity timestamp.
	// Failures are logged, never surfaced.
	Touch(sessionID uuid.UUID)

	// ListActive returns the identity's active sessions, oldest activity first.
	ListActive(ctx context.Context, identityID uuid.UUID) ([]*authDomain.Session, error)

	// Revoke terminates one session. Idempotent: reports false when the
	// session was already inactive.
	Revoke(
		ctx context.Context,
		sessionID uuid.UUID,
		reason authDomain.TerminationReason,
	) (bool, error)

	// RevokeAllForIdentity terminates every active session of an identity,
	// minus an optional exception. Returns the number terminated.
	RevokeAllForIdentity(
		ctx context.Context,
		identityID uuid.UUID,
		except *uuid.UUID,
		reason authDomain.TerminationReason,
	) (int64, error)

	// CleanupExpired terminates sessions past their expiry and purges
	// terminated sessions older than the retention period. Returns the
	// terminated and purged counts.
	CleanupExpired(ctx context.Context, retention time.Duration) (terminated, purged int64, err error)
}

// AuthUseCase defines the authentication entry points: login, token rotation,
// access verification, logout, and permission checks.
type AuthUseCase interface {
	// Login authenticates an identifier/password pair and establishes a
	// session.
	//
	// Returns ErrInvalidCredentials for unknown identifiers and wrong
	// passwords alike, a LockedError while the credential is locked out,
	// ErrIdentityInactive for deactivated identities, and ErrScopeInactive
	// when the identity's organization has been deactivated.
	Login(ctx context.Context, input *authDomain.LoginInput) (*authDomain.LoginOutput, error)

	// Refresh rotates a refresh token: the presenting session is superseded by
	// a new one in the same chain and a fresh token pair is issued. The
	// ability is recompiled, so permission changes since login take effect
	// here.
	//
	// Presenting an already-rotated token revokes the whole chain and returns
	// ErrTokenReuse.
	Refresh(ctx context.Context, input *authDomain.RefreshInput) (*authDomain.LoginOutput, error)

	// Verify validates an access token against its session and identity.
	// Returns the token's claims, the session, and the identity on success.
	Verify(ctx context.Context, accessToken string) (*authDomain.VerifyOutput, error)

	// Logout terminates the session bound to the given access token hash.
	// Idempotent: reports false when the session was already inactive.
	Logout(ctx context.Context, sessionID uuid.UUID) (bool, error)

	// LogoutAll terminates every active session of an identity. Returns the
	// number terminated.
	LogoutAll(ctx context.Context, identityID uuid.UUID) (int64, error)

	// Authorize evaluates one permission check against the identity's compiled
	// ability.
	Authorize(ctx context.Context, input *authDomain.AuthorizeInput) (*authDomain.AuthorizeOutput, error)
}
