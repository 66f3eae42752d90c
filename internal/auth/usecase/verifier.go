package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	authService "github.com/caremesh/authcore/internal/auth/service"
	"github.com/caremesh/authcore/internal/config"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// credentialVerifier implements CredentialVerifier with a timed lockout.
type credentialVerifier struct {
	credentialRepo  CredentialRepository
	passwordService authService.PasswordService
	maxAttempts     int
	lockDuration    time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// Verify checks an identifier/secret pair against the stored credential.
//
// This method:
// 1. Looks up the active password credential by identifier
// 2. Rejects immediately while a timed lockout is in force
// 3. Compares the secret against the stored Argon2id hash
// 4. On mismatch, atomically increments the failed-attempt counter; the
//    attempt that reaches the threshold starts the lockout
// 5. On match, resets the counter and lockout in one update
//
// Security Notes:
//   - Returns ErrInvalidCredentials for both unknown identifiers and wrong
//     secrets to prevent account enumeration
//   - Returns a LockedError carrying the remaining lockout so transports can
//     emit a Retry-After without leaking anything else
//   - Attempts during a lockout are rejected before the hash comparison and
//     do not extend the lockout
func (v *credentialVerifier) Verify(
	ctx context.Context,
	identifier, secret string,
) (*identityDomain.Credential, error) {
	credential, err := v.credentialRepo.GetByIdentifier(
		ctx,
		identifier,
		identityDomain.CredentialKindPassword,
	)
	if err != nil {
		if errors.Is(err, identityDomain.ErrCredentialNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	now := v.now()
	if credential.Locked(now) {
		return nil, authDomain.NewLockedError(credential.RetryAfter(now))
	}

	if !v.passwordService.ComparePassword(secret, credential.SecretHash) {
		attempts, boundary, err := v.credentialRepo.RegisterFailure(
			ctx,
			credential.ID,
			v.maxAttempts,
			now.Add(v.lockDuration),
			now,
		)
		if err != nil {
			return nil, err
		}

		if boundary != nil && boundary.After(now) {
			v.logger.Warn("credential locked after repeated failures",
				slog.String("credential_id", credential.ID.String()),
				slog.Int("failed_attempts", attempts),
			)
			return nil, authDomain.NewLockedError(boundary.Sub(now))
		}
		return nil, authDomain.ErrInvalidCredentials
	}

	if err := v.credentialRepo.RegisterSuccess(ctx, credential.ID, now); err != nil {
		return nil, err
	}
	credential.FailedAttempts = 0
	credential.LockedUntil = nil

	return credential, nil
}

// NewCredentialVerifier creates a CredentialVerifier with the lockout policy
// taken from config.
func NewCredentialVerifier(
	cfg *config.Config,
	credentialRepo CredentialRepository,
	passwordService authService.PasswordService,
	logger *slog.Logger,
) CredentialVerifier {
	return &credentialVerifier{
		credentialRepo:  credentialRepo,
		passwordService: passwordService,
		maxAttempts:     cfg.LockoutMaxAttempts,
		lockDuration:    cfg.LockoutDuration,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}
