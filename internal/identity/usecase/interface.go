// Package usecase defines business logic interfaces for identity provisioning
// and credential management.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// IdentityRepository defines persistence operations for identities.
// Implementations must support transaction-aware operations via context propagation.
type IdentityRepository interface {
	// Create stores a new identity in the repository.
	Create(ctx context.Context, identity *identityDomain.Identity) error

	// Update modifies an existing identity in the repository.
	Update(ctx context.Context, identity *identityDomain.Identity) error

	// Get retrieves an identity by ID. Returns ErrIdentityNotFound if not found.
	Get(ctx context.Context, identityID uuid.UUID) (*identityDomain.Identity, error)

	// GetByEmail retrieves an identity by email, compared case-insensitively.
	// Returns ErrIdentityNotFound if not found.
	GetByEmail(ctx context.Context, email string) (*identityDomain.Identity, error)
}

// OrganizationRepository defines persistence operations for organizations.
type OrganizationRepository interface {
	// Create stores a new organization in the repository.
	Create(ctx context.Context, org *identityDomain.Organization) error

	// Get retrieves an organization by ID. Returns ErrOrganizationNotFound if
	// not found.
	Get(ctx context.Context, organizationID uuid.UUID) (*identityDomain.Organization, error)
}

// CredentialRepository defines persistence operations for credentials as seen
// by provisioning and password changes.
type CredentialRepository interface {
	// Create stores a new credential in the repository.
	Create(ctx context.Context, credential *identityDomain.Credential) error

	// GetByIdentity retrieves the active credential of a given kind for an
	// identity. Returns ErrCredentialNotFound if none matches.
	GetByIdentity(
		ctx context.Context,
		identityID uuid.UUID,
		kind identityDomain.CredentialKind,
	) (*identityDomain.Credential, error)

	// UpdateSecret replaces the stored secret hash and clears any lockout state.
	UpdateSecret(
		ctx context.Context,
		credentialID uuid.UUID,
		secretHash string,
		algorithm string,
		now time.Time,
	) error
}

// SessionRevoker terminates sessions after identity-level changes. Satisfied
// by the auth session usecase.
type SessionRevoker interface {
	RevokeAllForIdentity(
		ctx context.Context,
		identityID uuid.UUID,
		except *uuid.UUID,
		reason authDomain.TerminationReason,
	) (int64, error)
}

// IdentityUseCase defines business logic operations for the identity lifecycle.
type IdentityUseCase interface {
	// Create provisions a new identity with a password credential. The initial
	// password is hashed before storage; the plain value is never persisted.
	//
	// Returns ErrInvalidRole for role codes outside the registry,
	// ErrEmailAlreadyExists for duplicate emails, and ErrOrganizationNotFound
	// when the organizational scope doesn't exist.
	Create(
		ctx context.Context,
		input *identityDomain.CreateIdentityInput,
	) (*identityDomain.CreateIdentityOutput, error)

	// Get retrieves an identity by ID. Returns ErrIdentityNotFound if not found.
	Get(ctx context.Context, identityID uuid.UUID) (*identityDomain.Identity, error)

	// Deactivate performs a soft delete: the identity stops authenticating and
	// all of its sessions are revoked, but the record stays for audit history.
	//
	// Returns ErrIdentityNotFound if the identity doesn't exist.
	Deactivate(ctx context.Context, identityID uuid.UUID) error

	// ChangePassword verifies the current password and replaces the stored
	// secret. A successful change clears any lockout and revokes every other
	// session of the identity.
	//
	// Returns ErrInvalidCredentials when the current password doesn't match.
	ChangePassword(ctx context.Context, input *identityDomain.ChangePasswordInput) error
}
