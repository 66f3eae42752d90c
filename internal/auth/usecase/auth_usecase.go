// Package usecase implements business logic orchestration for authentication.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	abilityDomain "github.com/caremesh/authcore/internal/ability/domain"
	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	authService "github.com/caremesh/authcore/internal/auth/service"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// authUseCase implements AuthUseCase.
type authUseCase struct {
	identityRepo    IdentityRepository
	orgRepo         OrganizationRepository
	sessionRepo     SessionRepository
	verifier        CredentialVerifier
	sessionUseCase  SessionUseCase
	tokenService    authService.TokenService
	abilityCompiler AbilityCompiler
	logger          *slog.Logger
	now             func() time.Time
}

// Login authenticates an identifier/password pair and establishes a session.
//
// This method:
// 1. Verifies the credential, maintaining the lockout counters
// 2. Loads the identity and rejects deactivated identities
// 3. Rejects identities whose organizational scope has been deactivated
// 4. Mints a token pair under a fresh chain id
// 5. Establishes the session, evicting over the concurrency cap if needed
// 6. Compiles the identity's ability for the response
//
// Security Notes:
//   - Unknown identifiers and wrong passwords both return
//     ErrInvalidCredentials to prevent enumeration
//   - A locked credential returns a LockedError before the hash comparison
//   - The plain tokens in the output are returned exactly once
func (a *authUseCase) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.LoginOutput, error) {
	credential, err := a.verifier.Verify(ctx, input.Identifier, input.Password)
	if err != nil {
		return nil, err
	}

	identity, err := a.identityRepo.Get(ctx, credential.IdentityID)
	if err != nil {
		// The credential row exists but the identity doesn't; keep the
		// response indistinguishable from a bad password.
		if errors.Is(err, identityDomain.ErrIdentityNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := a.checkIdentityUsable(ctx, identity); err != nil {
		return nil, err
	}

	chainID := uuid.Must(uuid.NewV7())
	tokens, err := a.tokenService.IssuePair(identity, chainID)
	if err != nil {
		return nil, err
	}

	session, err := a.sessionUseCase.Establish(ctx, identity.ID, chainID, tokens, input.Device)
	if err != nil {
		return nil, err
	}

	ability, err := a.abilityCompiler.CompileForIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	a.logger.Info("login succeeded",
		slog.String("identity_id", identity.ID.String()),
		slog.String("session_id", session.ID.String()),
	)

	return &authDomain.LoginOutput{
		Identity:  identity,
		SessionID: session.ID,
		Tokens:    tokens,
		Ability:   ability,
	}, nil
}

// Refresh rotates a refresh token.
//
// This method:
// 1. Verifies the refresh token's signature and expiry
// 2. Looks up the session by token hash, terminated sessions included
// 3. Treats a hit on a terminated session as reuse of a rotated token and
//    revokes the whole chain
// 4. Re-checks the identity and its organizational scope
// 5. Mints a new pair under the same chain id and supersedes the session
// 6. Recompiles the ability, so permission changes take effect on rotation
//
// Security Notes:
//   - Each refresh token rotates exactly once; concurrent rotations of the
//     same token settle on one winner, and a loser gets ErrTokenReuse and
//     takes the chain down with it
//   - Chain revocation on reuse caps the damage of a stolen refresh token at
//     the lineage of one login
func (a *authUseCase) Refresh(
	ctx context.Context,
	input *authDomain.RefreshInput,
) (*authDomain.LoginOutput, error) {
	claims, err := a.tokenService.VerifyRefresh(input.RefreshToken)
	if err != nil {
		return nil, err
	}

	tokenHash := a.tokenService.HashToken(input.RefreshToken)
	session, err := a.sessionRepo.GetByRefreshTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, authDomain.ErrSessionNotFound) {
			return nil, authDomain.ErrInvalidSession
		}
		return nil, err
	}

	if !session.IsActive {
		count, err := a.sessionRepo.RevokeChain(
			ctx, session.ChainID, authDomain.TerminationTokenReuse, a.now(),
		)
		if err != nil {
			return nil, err
		}
		a.logger.Warn("refresh token reuse detected, chain revoked",
			slog.String("identity_id", session.IdentityID.String()),
			slog.String("chain_id", session.ChainID.String()),
			slog.Int64("sessions_revoked", count),
		)
		return nil, authDomain.ErrTokenReuse
	}

	if session.Expired(a.now()) {
		return nil, authDomain.ErrInvalidSession
	}

	identity, err := a.identityRepo.Get(ctx, claims.IdentityID)
	if err != nil {
		if errors.Is(err, identityDomain.ErrIdentityNotFound) {
			return nil, authDomain.ErrInvalidSession
		}
		return nil, err
	}

	if err := a.checkIdentityUsable(ctx, identity); err != nil {
		return nil, err
	}

	tokens, err := a.tokenService.IssuePair(identity, session.ChainID)
	if err != nil {
		return nil, err
	}

	rotated, err := a.sessionUseCase.Rotate(ctx, session, tokens, input.Device)
	if err != nil {
		// Losing a rotation race is reuse too: another request already
		// consumed this token, so the whole chain goes down with it.
		if errors.Is(err, authDomain.ErrTokenReuse) {
			count, revokeErr := a.sessionRepo.RevokeChain(
				ctx, session.ChainID, authDomain.TerminationTokenReuse, a.now(),
			)
			if revokeErr != nil {
				return nil, revokeErr
			}
			a.logger.Warn("concurrent refresh detected, chain revoked",
				slog.String("identity_id", session.IdentityID.String()),
				slog.String("chain_id", session.ChainID.String()),
				slog.Int64("sessions_revoked", count),
			)
		}
		return nil, err
	}

	ability, err := a.abilityCompiler.CompileForIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &authDomain.LoginOutput{
		Identity:  identity,
		SessionID: rotated.ID,
		Tokens:    tokens,
		Ability:   ability,
	}, nil
}

// Verify validates an access token against its session and identity.
//
// The signature check alone is not enough: a token that verifies
// cryptographically is still rejected when its session has been terminated by
// logout, eviction, rotation, or chain revocation.
func (a *authUseCase) Verify(ctx context.Context, accessToken string) (*authDomain.VerifyOutput, error) {
	claims, err := a.tokenService.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}

	tokenHash := a.tokenService.HashToken(accessToken)
	session, err := a.sessionRepo.GetByAccessTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, authDomain.ErrSessionNotFound) {
			return nil, authDomain.ErrInvalidSession
		}
		return nil, err
	}

	if !session.IsActive || session.Expired(a.now()) {
		return nil, authDomain.ErrInvalidSession
	}

	identity, err := a.identityRepo.Get(ctx, claims.IdentityID)
	if err != nil {
		if errors.Is(err, identityDomain.ErrIdentityNotFound) {
			return nil, authDomain.ErrInvalidSession
		}
		return nil, err
	}

	if err := a.checkIdentityUsable(ctx, identity); err != nil {
		return nil, err
	}

	return &authDomain.VerifyOutput{
		Identity: identity,
		Session:  session,
		Claims:   claims,
	}, nil
}

// Logout terminates one session. Idempotent.
func (a *authUseCase) Logout(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	return a.sessionUseCase.Revoke(ctx, sessionID, authDomain.TerminationLogout)
}

// LogoutAll terminates every active session of an identity.
func (a *authUseCase) LogoutAll(ctx context.Context, identityID uuid.UUID) (int64, error) {
	return a.sessionUseCase.RevokeAllForIdentity(ctx, identityID, nil, authDomain.TerminationLogoutAll)
}

// Authorize evaluates one permission check against the identity's compiled
// ability.
func (a *authUseCase) Authorize(
	ctx context.Context,
	input *authDomain.AuthorizeInput,
) (*authDomain.AuthorizeOutput, error) {
	action, err := abilityDomain.ParseAction(input.Action)
	if err != nil {
		return nil, err
	}
	resourceType, err := abilityDomain.ParseResourceType(input.ResourceType)
	if err != nil {
		return nil, err
	}

	ability, err := a.abilityCompiler.CompileForIdentity(ctx, input.Identity)
	if err != nil {
		return nil, err
	}

	if !ability.Can(action, resourceType, input.Resource) {
		return &authDomain.AuthorizeOutput{Allowed: false}, nil
	}

	fields, restricted := ability.PermittedFields(action, resourceType, input.Resource)
	return &authDomain.AuthorizeOutput{
		Allowed:          true,
		Fields:           fields,
		FieldsRestricted: restricted,
	}, nil
}

// checkIdentityUsable rejects deactivated identities and identities whose
// organizational scope is gone or deactivated.
func (a *authUseCase) checkIdentityUsable(ctx context.Context, identity *identityDomain.Identity) error {
	if !identity.IsActive {
		return authDomain.ErrIdentityInactive
	}

	if identity.OrganizationID == nil {
		return nil
	}

	org, err := a.orgRepo.Get(ctx, *identity.OrganizationID)
	if err != nil {
		if errors.Is(err, identityDomain.ErrOrganizationNotFound) {
			return authDomain.ErrScopeInactive
		}
		return err
	}
	if !org.IsActive {
		return authDomain.ErrScopeInactive
	}
	return nil
}

// NewAuthUseCase creates a new AuthUseCase with the provided dependencies.
func NewAuthUseCase(
	identityRepo IdentityRepository,
	orgRepo OrganizationRepository,
	sessionRepo SessionRepository,
	verifier CredentialVerifier,
	sessionUseCase SessionUseCase,
	tokenService authService.TokenService,
	abilityCompiler AbilityCompiler,
	logger *slog.Logger,
) AuthUseCase {
	return &authUseCase{
		identityRepo:    identityRepo,
		orgRepo:         orgRepo,
		sessionRepo:     sessionRepo,
		verifier:        verifier,
		sessionUseCase:  sessionUseCase,
		tokenService:    tokenService,
		abilityCompiler: abilityCompiler,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}
