package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	databaseMocks "github.com/caremesh/authcore/internal/database/mocks"
)

func newSessionUseCase(
	t *testing.T,
	sessionRepo SessionRepository,
	maxConcurrent int,
	now time.Time,
) (*sessionUseCase, *databaseMocks.MockTxManager) {
	t.Helper()
	txManager := databaseMocks.NewMockTxManager(t)
	return &sessionUseCase{
		sessionRepo:   sessionRepo,
		txManager:     txManager,
		tokenHasher:   func(plain string) string { return "hash:" + plain },
		maxConcurrent: maxConcurrent,
		logger:        testLogger(),
		now:           func() time.Time { return now },
	}, txManager
}

func tokenPair(now time.Time) *authDomain.TokenPair {
	return &authDomain.TokenPair{
		AccessToken:      "access-plain",
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshToken:     "refresh-plain",
		RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func activeSessionFor(identityID uuid.UUID, lastActivity time.Time) *authDomain.Session {
	return &authDomain.Session{
		ID:             uuid.Must(uuid.NewV7()),
		IdentityID:     identityID,
		ChainID:        uuid.Must(uuid.NewV7()),
		LastActivityAt: lastActivity,
		ExpiresAt:      lastActivity.Add(7 * 24 * time.Hour),
		IsActive:       true,
	}
}

func TestSessionUseCase_Establish(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	identityID := uuid.Must(uuid.NewV7())
	chainID := uuid.Must(uuid.NewV7())

	t.Run("creates session under the cap", func(t *testing.T) {
		sessionRepo := &mockSessionRepository{}
		var created *authDomain.Session
		sessionRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *authDomain.Session) bool {
			created = s
			return s.IdentityID == identityID &&
				s.ChainID == chainID &&
				s.AccessTokenHash == "hash:access-plain" &&
				s.RefreshTokenHash == "hash:refresh-plain" &&
				s.IsActive
		})).Return(nil)
		sessionRepo.On("ListActive", mock.Anything, identityID).
			Return([]*authDomain.Session{activeSessionFor(identityID, now)}, nil)

		uc, txManager := newSessionUseCase(t, sessionRepo, 5, now)
		session, err := uc.Establish(ctx, identityID, chainID, tokenPair(now), authDomain.DeviceContext{
			UserAgent: "Mozilla/5.0",
			IPAddress: "10.0.0.1",
		})
		require.NoError(t, err)

		assert.Equal(t, created.ID, session.ID)
		assert.Equal(t, now.Add(7*24*time.Hour), session.ExpiresAt)
		assert.Equal(t, 1, txManager.Calls)
		sessionRepo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("evicts the least recently active session over the cap", func(t *testing.T) {
		oldest := activeSessionFor(identityID, now.Add(-3*time.Hour))
		middle := activeSessionFor(identityID, now.Add(-1*time.Hour))
		newest := activeSessionFor(identityID, now)

		sessionRepo := &mockSessionRepository{}
		sessionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		sessionRepo.On("ListActive", mock.Anything, identityID).
			Return([]*authDomain.Session{oldest, middle, newest}, nil)
		sessionRepo.On("Revoke", mock.Anything, oldest.ID, authDomain.TerminationSessionLimit, now).
			Return(true, nil)

		uc, _ := newSessionUseCase(t, sessionRepo, 2, now)
		_, err := uc.Establish(ctx, identityID, chainID, tokenPair(now), authDomain.DeviceContext{})
		require.NoError(t, err)

		sessionRepo.AssertExpectations(t)
		sessionRepo.AssertNotCalled(t, "Revoke", mock.Anything, middle.ID, mock.Anything, mock.Anything)
	})

	t.Run("never evicts the session just created", func(t *testing.T) {
		other := activeSessionFor(identityID, now.Add(-time.Hour))

		sessionRepo := &mockSessionRepository{}
		// Create runs before ListActive inside the transaction, so the listing
		// can surface the freshly created session first. The eviction loop
		// must skip it even then.
		fresh := &authDomain.Session{}
		sessionRepo.On("Create", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				*fresh = *args.Get(1).(*authDomain.Session)
			}).
			Return(nil)
		sessionRepo.On("ListActive", mock.Anything, identityID).
			Return([]*authDomain.Session{fresh, other}, nil)
		sessionRepo.On("Revoke", mock.Anything, other.ID, authDomain.TerminationSessionLimit, now).
			Return(true, nil)

		uc, _ := newSessionUseCase(t, sessionRepo, 1, now)
		session, err := uc.Establish(ctx, identityID, chainID, tokenPair(now), authDomain.DeviceContext{})
		require.NoError(t, err)

		sessionRepo.AssertNotCalled(t, "Revoke", mock.Anything, session.ID, mock.Anything, mock.Anything)
	})
}

func TestSessionUseCase_Rotate(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	identityID := uuid.Must(uuid.NewV7())
	current := activeSessionFor(identityID, now.Add(-time.Hour))

	t.Run("supersedes the current session in one transaction", func(t *testing.T) {
		sessionRepo := &mockSessionRepository{}
		sessionRepo.On("Revoke", mock.Anything, current.ID, authDomain.TerminationSuperseded, now).
			Return(true, nil)
		sessionRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *authDomain.Session) bool {
			return s.ChainID == current.ChainID && s.IdentityID == identityID && s.ID != current.ID
		})).Return(nil)

		uc, txManager := newSessionUseCase(t, sessionRepo, 5, now)
		rotated, err := uc.Rotate(ctx, current, tokenPair(now), authDomain.DeviceContext{})
		require.NoError(t, err)

		assert.Equal(t, current.ChainID, rotated.ChainID)
		assert.NotEqual(t, current.ID, rotated.ID)
		assert.Equal(t, 1, txManager.Calls)
		sessionRepo.AssertExpectations(t)
	})

	t.Run("losing the guarded update reports reuse", func(t *testing.T) {
		sessionRepo := &mockSessionRepository{}
		sessionRepo.On("Revoke", mock.Anything, current.ID, authDomain.TerminationSuperseded, now).
			Return(false, nil)

		uc, _ := newSessionUseCase(t, sessionRepo, 5, now)
		_, err := uc.Rotate(ctx, current, tokenPair(now), authDomain.DeviceContext{})

		assert.ErrorIs(t, err, authDomain.ErrTokenReuse)
		sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestSessionUseCase_Touch(t *testing.T) {
	now := time.Now().UTC()
	sessionID := uuid.Must(uuid.NewV7())

	done := make(chan struct{})
	sessionRepo := &mockSessionRepository{}
	sessionRepo.On("Touch", mock.Anything, sessionID, now).
		Run(func(mock.Arguments) { close(done) }).
		Return(nil)

	uc, _ := newSessionUseCase(t, sessionRepo, 5, now)
	uc.Touch(sessionID)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("touch never reached the repository")
	}
}

func TestSessionUseCase_Revoke(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	sessionID := uuid.Must(uuid.NewV7())

	t.Run("second revoke is a no-op", func(t *testing.T) {
		sessionRepo := &mockSessionRepository{}
		sessionRepo.On("Revoke", ctx, sessionID, authDomain.TerminationLogout, now).
			Return(true, nil).Once()
		sessionRepo.On("Revoke", ctx, sessionID, authDomain.TerminationLogout, now).
			Return(false, nil).Once()

		uc, _ := newSessionUseCase(t, sessionRepo, 5, now)

		revoked, err := uc.Revoke(ctx, sessionID, authDomain.TerminationLogout)
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = uc.Revoke(ctx, sessionID, authDomain.TerminationLogout)
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestSessionUseCase_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	retention := 30 * 24 * time.Hour

	sessionRepo := &mockSessionRepository{}
	sessionRepo.On("TerminateExpired", ctx, now).Return(int64(4), nil)
	sessionRepo.On("DeleteTerminatedBefore", ctx, now.Add(-retention)).Return(int64(11), nil)

	uc, _ := newSessionUseCase(t, sessionRepo, 5, now)
	terminated, purged, err := uc.CleanupExpired(ctx, retention)
	require.NoError(t, err)
	assert.Equal(t, int64(4), terminated)
	assert.Equal(t, int64(11), purged)
	sessionRepo.AssertExpectations(t)
}
