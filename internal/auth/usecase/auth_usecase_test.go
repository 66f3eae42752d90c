package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	abilityDomain "github.com/caremesh/authcore/internal/ability/domain"
	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

type authFixture struct {
	identityRepo    *mockIdentityRepository
	orgRepo         *mockOrganizationRepository
	sessionRepo     *mockSessionRepository
	verifier        *mockCredentialVerifier
	sessionUseCase  *mockSessionUseCase
	tokenService    *mockTokenService
	abilityCompiler *mockAbilityCompiler
	useCase         AuthUseCase
	now             time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		identityRepo:    &mockIdentityRepository{},
		orgRepo:         &mockOrganizationRepository{},
		sessionRepo:     &mockSessionRepository{},
		verifier:        &mockCredentialVerifier{},
		sessionUseCase:  &mockSessionUseCase{},
		tokenService:    &mockTokenService{},
		abilityCompiler: &mockAbilityCompiler{},
		now:             time.Now().UTC(),
	}
	uc := NewAuthUseCase(
		f.identityRepo,
		f.orgRepo,
		f.sessionRepo,
		f.verifier,
		f.sessionUseCase,
		f.tokenService,
		f.abilityCompiler,
		testLogger(),
	).(*authUseCase)
	uc.now = func() time.Time { return f.now }
	f.useCase = uc
	return f
}

func fixtureIdentity(orgID *uuid.UUID) *identityDomain.Identity {
	return &identityDomain.Identity{
		ID:             uuid.Must(uuid.NewV7()),
		Email:          "doctor@h1.example.org",
		FullName:       "Dr. Example",
		RoleCode:       identityDomain.RoleDoctor,
		OrganizationID: orgID,
		IsActive:       true,
	}
}

func fixtureCredential(identityID uuid.UUID) *identityDomain.Credential {
	return &identityDomain.Credential{
		ID:         uuid.Must(uuid.NewV7()),
		IdentityID: identityID,
		Kind:       identityDomain.CredentialKindPassword,
		IsActive:   true,
	}
}

func readRule() abilityDomain.Ability {
	return abilityDomain.Ability{Rules: []abilityDomain.Rule{{
		Action:       abilityDomain.ActionRead,
		ResourceType: abilityDomain.ResourcePatient,
	}}}
}

func TestAuthUseCase_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture(t)
		orgID := uuid.Must(uuid.NewV7())
		identity := fixtureIdentity(&orgID)
		credential := fixtureCredential(identity.ID)
		pair := &authDomain.TokenPair{AccessToken: "a", RefreshToken: "r"}
		session := &authDomain.Session{ID: uuid.Must(uuid.NewV7())}

		f.verifier.On("Verify", ctx, "doctor@h1.example.org", "correct horse").Return(credential, nil)
		f.identityRepo.On("Get", ctx, identity.ID).Return(identity, nil)
		f.orgRepo.On("Get", ctx, orgID).Return(&identityDomain.Organization{ID: orgID, IsActive: true}, nil)
		f.tokenService.On("IssuePair", identity, mock.AnythingOfType("uuid.UUID")).Return(pair, nil)
		f.sessionUseCase.On("Establish", ctx, identity.ID, mock.AnythingOfType("uuid.UUID"), pair,
			authDomain.DeviceContext{UserAgent: "ua", IPAddress: "10.0.0.1"}).Return(session, nil)
		f.abilityCompiler.On("CompileForIdentity", ctx, identity).Return(readRule(), nil)

		output, err := f.useCase.Login(ctx, &authDomain.LoginInput{
			Identifier: "doctor@h1.example.org",
			Password:   "correct horse",
			Device:     authDomain.DeviceContext{UserAgent: "ua", IPAddress: "10.0.0.1"},
		})
		require.NoError(t, err)

		assert.Equal(t, identity, output.Identity)
		assert.Equal(t, session.ID, output.SessionID)
		assert.Equal(t, pair, output.Tokens)
		assert.Len(t, output.Ability.Rules, 1)
		f.verifier.AssertExpectations(t)
		f.sessionUseCase.AssertExpectations(t)
	})

	t.Run("verification failure propagates untouched", func(t *testing.T) {
		f := newAuthFixture(t)
		f.verifier.On("Verify", ctx, "doctor@h1.example.org", "wrong").
			Return(nil, authDomain.ErrInvalidCredentials)

		_, err := f.useCase.Login(ctx, &authDomain.LoginInput{
			Identifier: "doctor@h1.example.org",
			Password:   "wrong",
		})
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredentials)
		f.tokenService.AssertNotCalled(t, "IssuePair", mock.Anything, mock.Anything)
	})

	t.Run("deactivated identity rejected after verification", func(t *testing.T) {
		f := newAuthFixture(t)
		identity := fixtureIdentity(nil)
		identity.IsActive = false
		credential := fixtureCredential(identity.ID)

		f.verifier.On("Verify", ctx, "doctor@h1.example.org", "correct horse").Return(credential, nil)
		f.identityRepo.On("Get", ctx, identity.ID).Return(identity, nil)

		_, err := f.useCase.Login(ctx, &authDomain.LoginInput{
			Identifier: "doctor@h1.example.org",
			Password:   "correct horse",
		})
		assert.ErrorIs(t, err, authDomain.ErrIdentityInactive)
	})

	t.Run("deactivated scope rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		orgID := uuid.Must(uuid.NewV7())
		identity := fixtureIdentity(&orgID)
		credential := fixtureCredential(identity.ID)

		f.verifier.On("Verify", ctx, "doctor@h1.example.org", "correct horse").Return(credential, nil)
		f.identityRepo.On("Get", ctx, identity.ID).Return(identity, nil)
		f.orgRepo.On("Get", ctx, orgID).Return(&identityDomain.Organization{ID: orgID, IsActive: false}, nil)

		_, err := f.useCase.Login(ctx, &authDomain.LoginInput{
			Identifier: "doctor@h1.example.org",
			Password:   "correct horse",
		})
		assert.ErrorIs(t, err, authDomain.ErrScopeInactive)
	})

	t.Run("orphaned credential looks like bad credentials", func(t *testing.T) {
		f := newAuthFixture(t)
		credential := fixtureCredential(uuid.Must(uuid.NewV7()))

		f.verifier.On("Verify", ctx, "doctor@h1.example.org", "correct horse").Return(credential, nil)
		f.identityRepo.On("Get", ctx, credential.IdentityID).
			Return(nil, identityDomain.ErrIdentityNotFound)

		_, err := f.useCase.Login(ctx, &authDomain.LoginInput{
			Identifier: "doctor@h1.example.org",
			Password:   "correct horse",
		})
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredentials)
	})
}

func TestAuthUseCase_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the session and recompiles the ability", func(t *testing.T) {
		f := newAuthFixture(t)
		identity := fixtureIdentity(nil)
		chainID := uuid.Must(uuid.NewV7())
		session := &authDomain.Session{
			ID:         uuid.Must(uuid.NewV7()),
			IdentityID: identity.ID,
			ChainID:    chainID,
			ExpiresAt:  f.now.Add(time.Hour),
			IsActive:   true,
		}
		rotated := &authDomain.Session{ID: uuid.Must(uuid.NewV7()), ChainID: chainID}
		pair := &authDomain.TokenPair{AccessToken: "a2", RefreshToken: "r2"}

		f.tokenService.On("VerifyRefresh", "refresh-plain").Return(&authDomain.RefreshClaims{
			IdentityID: identity.ID,
			ChainID:    chainID,
			ExpiresAt:  f.now.Add(time.Hour),
		}, nil)
		f.tokenService.On("HashToken", "refresh-plain").Return("refresh-hash")
		f.sessionRepo.On("GetByRefreshTokenHash", ctx, "refresh-hash").Return(session, nil)
		f.identityRepo.On("Get", ctx, identity.ID).Return(identity, nil)
		f.tokenService.On("IssuePair", identity, chainID).Return(pair, nil)
		f.sessionUseCase.On("Rotate", ctx, session, pair, authDomain.DeviceContext{}).Return(rotated, nil)
		f.abilityCompiler.On("CompileForIdentity", ctx, identity).Return(readRule(), nil)

		output, err := f.useCase.Refresh(ctx, &authDomain.RefreshInput{RefreshToken: "refresh-plain"})
		require.NoError(t, err)

		assert.Equal(t, rotated.ID, output.SessionID)
		assert.Equal(t, pair, output.Tokens)
		f.sessionUseCase.AssertExpectations(t)
	})

	t.Run("reuse of a rotated token revokes the chain", func(t *testing.T) {
		f := newAuthFixture(t)
		identityID := uuid.Must(uuid.NewV7())
		chainID := uuid.Must(uuid.NewV7())
		terminated := &authDomain.Session{
			ID:         uuid.Must(uuid.NewV7()),
			IdentityID: identityID,
			ChainID:    chainID,
			IsActive:   false,
		}

		f.tokenService.On("VerifyRefresh", "stolen").Return(&authDomain.RefreshClaims{
			IdentityID: identityID,
			ChainID:    chainID,
			ExpiresAt:  f.now.Add(time.Hour),
		}, nil)
		f.tokenService.On("HashToken", "stolen").Return("stolen-hash")
		f.sessionRepo.On("GetByRefreshTokenHash", ctx, "stolen-hash").Return(terminated, nil)
		f.sessionRepo.On("RevokeChain", ctx, chainID, authDomain.TerminationTokenReuse, f.now).
			Return(int64(1), nil)

		_, err := f.useCase.Refresh(ctx, &authDomain.RefreshInput{RefreshToken: "stolen"})

		assert.ErrorIs(t, err, authDomain.ErrTokenReuse)
		f.sessionRepo.AssertExpectations(t)
		f.tokenService.AssertNotCalled(t, "IssuePair", mock.Anything, mock.Anything)
	})

	t.Run("losing a rotation race revokes the chain", func(t *testing.T) {
		f := newAuthFixture(t)
		identity := fixtureIdentity(nil)
		chainID := uuid.Must(uuid.NewV7())
		session := &authDomain.Session{
			ID:         uuid.Must(uuid.NewV7()),
			IdentityID: identity.ID,
			ChainID:    chainID,
			ExpiresAt:  f.now.Add(time.Hour),
			IsActive:   true,
		}
		pair := &authDomain.TokenPair{AccessToken: "a2", RefreshToken: "r2"}

		f.tokenService.On("VerifyRefresh", "raced").Return(&authDomain.RefreshClaims{
			IdentityID: identity.ID,
			ChainID:    chainID,
			ExpiresAt:  f.now.Add(time.Hour),
		}, nil)
		f.tokenService.On("HashToken", "raced").Return("raced-hash")
		f.sessionRepo.On("GetByRefreshTokenHash", ctx, "raced-hash").Return(session, nil)
		f.identityRepo.On("Get", ctx, identity.ID).Return(identity, nil)
		f.tokenService.On("IssuePair", identity, chainID).Return(pair, nil)
		// A concurrent refresh already consumed this token
		f.sessionUseCase.On("Rotate", ctx, session, pair, authDomain.DeviceContext{}).
			Return(nil, authDomain.ErrTokenReuse)
		f.sessionRepo.On("RevokeChain", ctx, chainID, authDomain.TerminationTokenReuse, f.now).
			Return(int64(2), nil)

		_, err := f.useCase.Refresh(ctx, &authDomain.RefreshInput{RefreshToken: "raced"})

		assert.ErrorIs(t, err, authDomain.ErrTokenReuse)
		f.sessionRepo.AssertCalled(t, "RevokeChain", ctx, chainID, authDomain.TerminationTokenReuse, f.now)
		f.abilityCompiler.AssertNotCalled(t, "CompileForIdentity", mock.Anything, mock.Anything)
	})

	t.Run("expired token rejected before any lookup", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokenService.On("VerifyRefresh", "expired").Return(nil, authDomain.ErrTokenExpired)

		_, err := f.useCase.Refresh(ctx, &authDomain.RefreshInput{RefreshToken: "expired"})
		assert.ErrorIs(t, err, authDomain.ErrTokenExpired)
		f.sessionRepo.AssertNotCalled(t, "GetByRefreshTokenHash", mock.Anything, mock.Anything)
	})

	t.Run("unknown token hash is an invalid session", func(t *testing.T) {
		f := newAuthFixture(t)
		f.tokenService.On("VerifyRefresh", "forged").Return(&authDomain.RefreshClaims{
			IdentityID: uuid.Must(uuid.NewV7()),
			ChainID:    uuid.Must(uuid.NewV7()),
			ExpiresAt:  f.now.Add(time.Hour),
		}, nil)
		f.tokenService.On("HashToken", "forged").Return("forged-hash")
		f.sessionRepo.On("GetByRefreshTokenHash", ctx, "forged-hash").
			Return(nil, authDomain.ErrSessionNotFound)

		_, err := f.useCase.Refresh(ctx, &authDomain.RefreshInput{RefreshToken: "forged"})
		assert.ErrorIs(t, err, authDomain.ErrInvalidSession)
	})
}

func TestAuthUseCase_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token with live session", func(t *testing.T) {
		f := newAuthFixture(t)
		identity := fixtureIdentity(nil)
		session := &authDomain.Session{
			ID:         uuid.Must(uuid.NewV7()),
			IdentityID: identity.ID,
			ExpiresAt:  f.now.Add(time.Hour),
			IsActive:   true,
		}
		claims := &authDomain.AccessClaims{IdentityID: identity.ID, RoleCode: identity.RoleCode}

		f.tokenService.On("VerifyAccess", "access-plain").Return(claims, nil)
		f.tokenService.On("HashToken", "access-plain").Return("access-hash")
		f.sessionRepo.On("GetByAccessTokenHash", ctx, "access-hash").Return(session, nil)
		f.identityRepo.On("Get", ctx, identity.ID).Return(identity, nil)

		output, err := f.useCase.Verify(ctx, "access-plain")
		require.NoError(t, err)
		assert.Equal(t, identity, output.Identity)
		assert.Equal(t, session, output.Session)
		assert.Equal(t, claims, output.Claims)
	})

	t.Run("terminated session rejects a cryptographically valid token", func(t *testing.T) {
		f := newAuthFixture(t)
		identityID := uuid.Must(uuid.NewV7())
		session := &authDomain.Session{
			ID:         uuid.Must(uuid.NewV7()),
			IdentityID: identityID,
			ExpiresAt:  f.now.Add(time.Hour),
			IsActive:   false,
		}

		f.tokenService.On("VerifyAccess", "access-plain").
			Return(&authDomain.AccessClaims{IdentityID: identityID}, nil)
		f.tokenService.On("HashToken", "access-plain").Return("access-hash")
		f.sessionRepo.On("GetByAccessTokenHash", ctx, "access-hash").Return(session, nil)

		_, err := f.useCase.Verify(ctx, "access-plain")
		assert.ErrorIs(t, err, authDomain.ErrInvalidSession)
	})
}

func TestAuthUseCase_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		f := newAuthFixture(t)
		sessionID := uuid.Must(uuid.NewV7())

		f.sessionUseCase.On("Revoke", ctx, sessionID, authDomain.TerminationLogout).
			Return(true, nil).Once()
		f.sessionUseCase.On("Revoke", ctx, sessionID, authDomain.TerminationLogout).
			Return(false, nil).Once()

		revoked, err := f.useCase.Logout(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = f.useCase.Logout(ctx, sessionID)
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestAuthUseCase_LogoutAll(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	identityID := uuid.Must(uuid.NewV7())

	f.sessionUseCase.On("RevokeAllForIdentity", ctx, identityID, (*uuid.UUID)(nil), authDomain.TerminationLogoutAll).
		Return(int64(3), nil)

	count, err := f.useCase.LogoutAll(ctx, identityID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestAuthUseCase_Authorize(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed with field restriction", func(t *testing.T) {
		f := newAuthFixture(t)
		identity := fixtureIdentity(nil)
		ability := abilityDomain.Ability{Rules: []abilityDomain.Rule{{
			Action:       abilityDomain.ActionRead,
			ResourceType: abilityDomain.ResourcePatient,
			Fields:       []string{"id", "name"},
		}}}

		f.abilityCompiler.On("CompileForIdentity", ctx, identity).Return(ability, nil)

		output, err := f.useCase.Authorize(ctx, &authDomain.AuthorizeInput{
			Identity:     identity,
			Action:       "read",
			ResourceType: "Patient",
		})
		require.NoError(t, err)
		assert.True(t, output.Allowed)
		assert.True(t, output.FieldsRestricted)
		assert.ElementsMatch(t, []string{"id", "name"}, output.Fields)
	})

	t.Run("denied", func(t *testing.T) {
		f := newAuthFixture(t)
		identity := fixtureIdentity(nil)
		f.abilityCompiler.On("CompileForIdentity", ctx, identity).Return(readRule(), nil)

		output, err := f.useCase.Authorize(ctx, &authDomain.AuthorizeInput{
			Identity:     identity,
			Action:       "delete",
			ResourceType: "Patient",
		})
		require.NoError(t, err)
		assert.False(t, output.Allowed)
		assert.Nil(t, output.Fields)
	})

	t.Run("unknown action rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		identity := fixtureIdentity(nil)

		_, err := f.useCase.Authorize(ctx, &authDomain.AuthorizeInput{
			Identity:     identity,
			Action:       "explode",
			ResourceType: "Patient",
		})
		assert.Error(t, err)
		f.abilityCompiler.AssertNotCalled(t, "CompileForIdentity", mock.Anything, mock.Anything)
	})
}
