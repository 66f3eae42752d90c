package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	abilityDomain "github.com/caremesh/authcore/internal/ability/domain"
	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockIdentityRepository is a mock implementation of IdentityRepository for testing.
type mockIdentityRepository struct {
	mock.Mock
}

func (m *mockIdentityRepository) Get(ctx context.Context, identityID uuid.UUID) (*identityDomain.Identity, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Identity), args.Error(1)
}

// mockOrganizationRepository is a mock implementation of OrganizationRepository for testing.
type mockOrganizationRepository struct {
	mock.Mock
}

func (m *mockOrganizationRepository) Get(
	ctx context.Context,
	organizationID uuid.UUID,
) (*identityDomain.Organization, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Organization), args.Error(1)
}

// mockCredentialRepository is a mock implementation of CredentialRepository for testing.
type mockCredentialRepository struct {
	mock.Mock
}

func (m *mockCredentialRepository) GetByIdentifier(
	ctx context.Context,
	identifier string,
	kind identityDomain.CredentialKind,
) (*identityDomain.Credential, error) {
	args := m.Called(ctx, identifier, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Credential), args.Error(1)
}

func (m *mockCredentialRepository) RegisterFailure(
	ctx context.Context,
	credentialID uuid.UUID,
	maxAttempts int,
	lockedUntil time.Time,
	now time.Time,
) (int, *time.Time, error) {
	args := m.Called(ctx, credentialID, maxAttempts, lockedUntil, now)
	var boundary *time.Time
	if args.Get(1) != nil {
		boundary = args.Get(1).(*time.Time)
	}
	return args.Int(0), boundary, args.Error(2)
}

func (m *mockCredentialRepository) RegisterSuccess(
	ctx context.Context,
	credentialID uuid.UUID,
	usedAt time.Time,
) error {
	args := m.Called(ctx, credentialID, usedAt)
	return args.Error(0)
}

// mockSessionRepository is a mock implementation of SessionRepository for testing.
type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Create(ctx context.Context, session *authDomain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*authDomain.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Session), args.Error(1)
}

func (m *mockSessionRepository) GetByAccessTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Session), args.Error(1)
}

func (m *mockSessionRepository) GetByRefreshTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Session), args.Error(1)
}

func (m *mockSessionRepository) ListActive(
	ctx context.Context,
	identityID uuid.UUID,
) ([]*authDomain.Session, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.Session), args.Error(1)
}

func (m *mockSessionRepository) Touch(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, sessionID, at)
	return args.Error(0)
}

func (m *mockSessionRepository) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	reason authDomain.TerminationReason,
	at time.Time,
) (bool, error) {
	args := m.Called(ctx, sessionID, reason, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepository) RevokeAllForIdentity(
	ctx context.Context,
	identityID uuid.UUID,
	except *uuid.UUID,
	reason authDomain.TerminationReason,
	at time.Time,
) (int64, error) {
	args := m.Called(ctx, identityID, except, reason, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepository) RevokeChain(
	ctx context.Context,
	chainID uuid.UUID,
	reason authDomain.TerminationReason,
	at time.Time,
) (int64, error) {
	args := m.Called(ctx, chainID, reason, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepository) TerminateExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepository) DeleteTerminatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// mockPasswordService is a mock implementation of PasswordService for testing.
type mockPasswordService struct {
	mock.Mock
}

func (m *mockPasswordService) HashPassword(plainPassword string) (string, error) {
	args := m.Called(plainPassword)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordService) ComparePassword(plainPassword string, hashedPassword string) bool {
	args := m.Called(plainPassword, hashedPassword)
	return args.Bool(0)
}

// mockTokenService is a mock implementation of TokenService for testing.
type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) IssuePair(
	identity *identityDomain.Identity,
	chainID uuid.UUID,
) (*authDomain.TokenPair, error) {
	args := m.Called(identity, chainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.TokenPair), args.Error(1)
}

func (m *mockTokenService) VerifyAccess(token string) (*authDomain.AccessClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.AccessClaims), args.Error(1)
}

func (m *mockTokenService) VerifyRefresh(token string) (*authDomain.RefreshClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.RefreshClaims), args.Error(1)
}

func (m *mockTokenService) HashToken(plainToken string) string {
	args := m.Called(plainToken)
	return args.String(0)
}

// mockCredentialVerifier is a mock implementation of CredentialVerifier for testing.
type mockCredentialVerifier struct {
	mock.Mock
}

func (m *mockCredentialVerifier) Verify(
	ctx context.Context,
	identifier, secret string,
) (*identityDomain.Credential, error) {
	args := m.Called(ctx, identifier, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Credential), args.Error(1)
}

// mockSessionUseCase is a mock implementation of SessionUseCase for testing.
type mockSessionUseCase struct {
	mock.Mock
}

func (m *mockSessionUseCase) Establish(
	ctx context.Context,
	identityID uuid.UUID,
	chainID uuid.UUID,
	tokens *authDomain.TokenPair,
	device authDomain.DeviceContext,
) (*authDomain.Session, error) {
	args := m.Called(ctx, identityID, chainID, tokens, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Session), args.Error(1)
}

func (m *mockSessionUseCase) Rotate(
	ctx context.Context,
	current *authDomain.Session,
	tokens *authDomain.TokenPair,
	device authDomain.DeviceContext,
) (*authDomain.Session, error) {
	args := m.Called(ctx, current, tokens, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Session), args.Error(1)
}

func (m *mockSessionUseCase) Touch(sessionID uuid.UUID) {
	m.Called(sessionID)
}

func (m *mockSessionUseCase) ListActive(
	ctx context.Context,
	identityID uuid.UUID,
) ([]*authDomain.Session, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.Session), args.Error(1)
}

func (m *mockSessionUseCase) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	reason authDomain.TerminationReason,
) (bool, error) {
	args := m.Called(ctx, sessionID, reason)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionUseCase) RevokeAllForIdentity(
	ctx context.Context,
	identityID uuid.UUID,
	except *uuid.UUID,
	reason authDomain.TerminationReason,
) (int64, error) {
	args := m.Called(ctx, identityID, except, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionUseCase) CleanupExpired(
	ctx context.Context,
	retention time.Duration,
) (int64, int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// mockAuthUseCase is a mock implementation of AuthUseCase for testing decorators.
type mockAuthUseCase struct {
	mock.Mock
}

func (m *mockAuthUseCase) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.LoginOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.LoginOutput), args.Error(1)
}

func (m *mockAuthUseCase) Refresh(
	ctx context.Context,
	input *authDomain.RefreshInput,
) (*authDomain.LoginOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.LoginOutput), args.Error(1)
}

func (m *mockAuthUseCase) Verify(ctx context.Context, accessToken string) (*authDomain.VerifyOutput, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.VerifyOutput), args.Error(1)
}

func (m *mockAuthUseCase) Logout(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAuthUseCase) LogoutAll(ctx context.Context, identityID uuid.UUID) (int64, error) {
	args := m.Called(ctx, identityID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAuthUseCase) Authorize(
	ctx context.Context,
	input *authDomain.AuthorizeInput,
) (*authDomain.AuthorizeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.AuthorizeOutput), args.Error(1)
}

// mockAbilityCompiler is a mock implementation of AbilityCompiler for testing.
type mockAbilityCompiler struct {
	mock.Mock
}

func (m *mockAbilityCompiler) CompileForIdentity(
	ctx context.Context,
	identity *identityDomain.Identity,
) (abilityDomain.Ability, error) {
	args := m.Called(ctx, identity)
	return args.Get(0).(abilityDomain.Ability), args.Error(1)
}
