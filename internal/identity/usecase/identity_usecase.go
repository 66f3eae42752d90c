// Package usecase implements business logic orchestration for identity
// provisioning and credential management.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	authService "github.com/caremesh/authcore/internal/auth/service"
	"github.com/caremesh/authcore/internal/database"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// identityUseCase implements IdentityUseCase.
type identityUseCase struct {
	identityRepo    IdentityRepository
	orgRepo         OrganizationRepository
	credentialRepo  CredentialRepository
	sessionRevoker  SessionRevoker
	passwordService authService.PasswordService
	txManager       database.TxManager
	logger          *slog.Logger
	now             func() time.Time
}

// Create provisions a new identity with its password credential in one
// transaction.
//
// This method:
// 1. Validates the role code against the closed registry
// 2. Validates the organizational scope exists, when given
// 3. Rejects emails that are already registered (case-insensitively)
// 4. Hashes the initial password with Argon2id
// 5. Inserts the identity and its credential atomically
func (u *identityUseCase) Create(
	ctx context.Context,
	input *identityDomain.CreateIdentityInput,
) (*identityDomain.CreateIdentityOutput, error) {
	if !input.RoleCode.Valid() {
		return nil, identityDomain.ErrInvalidRole
	}

	if input.OrganizationID != nil {
		if _, err := u.orgRepo.Get(ctx, *input.OrganizationID); err != nil {
			return nil, err
		}
	}

	_, err := u.identityRepo.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil, identityDomain.ErrEmailAlreadyExists
	}
	if !errors.Is(err, identityDomain.ErrIdentityNotFound) {
		return nil, err
	}

	secretHash, err := u.passwordService.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := u.now()
	identity := &identityDomain.Identity{
		ID:             uuid.Must(uuid.NewV7()),
		Email:          input.Email,
		FullName:       input.FullName,
		RoleCode:       input.RoleCode,
		OrganizationID: input.OrganizationID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	credential := &identityDomain.Credential{
		ID:         uuid.Must(uuid.NewV7()),
		IdentityID: identity.ID,
		Kind:       identityDomain.CredentialKindPassword,
		SecretHash: secretHash,
		Algorithm:  identityDomain.AlgorithmArgon2id,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.identityRepo.Create(ctx, identity); err != nil {
			return err
		}
		return u.credentialRepo.Create(ctx, credential)
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("identity created",
		slog.String("identity_id", identity.ID.String()),
		slog.String("role_code", string(identity.RoleCode)),
	)

	return &identityDomain.CreateIdentityOutput{ID: identity.ID}, nil
}

// Get retrieves an identity by ID.
func (u *identityUseCase) Get(
	ctx context.Context,
	identityID uuid.UUID,
) (*identityDomain.Identity, error) {
	return u.identityRepo.Get(ctx, identityID)
}

// Deactivate soft-deletes an identity and revokes everything it had open.
func (u *identityUseCase) Deactivate(ctx context.Context, identityID uuid.UUID) error {
	identity, err := u.identityRepo.Get(ctx, identityID)
	if err != nil {
		return err
	}

	identity.IsActive = false
	identity.UpdatedAt = u.now()
	if err := u.identityRepo.Update(ctx, identity); err != nil {
		return err
	}

	count, err := u.sessionRevoker.RevokeAllForIdentity(
		ctx, identityID, nil, authDomain.TerminationAdminRevoked,
	)
	if err != nil {
		return err
	}

	u.logger.Info("identity deactivated",
		slog.String("identity_id", identityID.String()),
		slog.Int64("sessions_revoked", count),
	)
	return nil
}

// ChangePassword verifies the current password and replaces the stored secret.
//
// A successful change clears the lockout counters (UpdateSecret resets them in
// the same statement) and revokes every session except the one driving the
// change, so a stolen password stops working everywhere at once.
func (u *identityUseCase) ChangePassword(
	ctx context.Context,
	input *identityDomain.ChangePasswordInput,
) error {
	credential, err := u.credentialRepo.GetByIdentity(
		ctx, input.IdentityID, identityDomain.CredentialKindPassword,
	)
	if err != nil {
		return err
	}

	if !u.passwordService.ComparePassword(input.CurrentPassword, credential.SecretHash) {
		return authDomain.ErrInvalidCredentials
	}

	secretHash, err := u.passwordService.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}

	if err := u.credentialRepo.UpdateSecret(
		ctx, credential.ID, secretHash, identityDomain.AlgorithmArgon2id, u.now(),
	); err != nil {
		return err
	}

	count, err := u.sessionRevoker.RevokeAllForIdentity(
		ctx, input.IdentityID, input.CurrentSessionID, authDomain.TerminationPasswordChanged,
	)
	if err != nil {
		return err
	}

	u.logger.Info("password changed",
		slog.String("identity_id", input.IdentityID.String()),
		slog.Int64("sessions_revoked", count),
	)
	return nil
}

// NewIdentityUseCase creates a new IdentityUseCase with the provided dependencies.
func NewIdentityUseCase(
	identityRepo IdentityRepository,
	orgRepo OrganizationRepository,
	credentialRepo CredentialRepository,
	sessionRevoker SessionRevoker,
	passwordService authService.PasswordService,
	txManager database.TxManager,
	logger *slog.Logger,
) IdentityUseCase {
	return &identityUseCase{
		identityRepo:    identityRepo,
		orgRepo:         orgRepo,
		credentialRepo:  credentialRepo,
		sessionRevoker:  sessionRevoker,
		passwordService: passwordService,
		txManager:       txManager,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}
