package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	"github.com/caremesh/authcore/internal/config"
	"github.com/caremesh/authcore/internal/database"
)

// touchTimeout bounds the background last-activity update.
const touchTimeout = 5 * time.Second

// sessionUseCase implements SessionUseCase.
type sessionUseCase struct {
	sessionRepo   SessionRepository
	txManager     database.TxManager
	tokenHasher   func(plainToken string) string
	maxConcurrent int
	logger        *slog.Logger
	now           func() time.Time
}

// Establish creates a session for a fresh login.
//
// The insert and the cap enforcement run in one transaction: after the new
// session exists, any active sessions beyond the cap are evicted starting from
// the least recently active, never touching the session just created. A login
// therefore always succeeds; it is the oldest session that pays.
func (s *sessionUseCase) Establish(
	ctx context.Context,
	identityID uuid.UUID,
	chainID uuid.UUID,
	tokens *authDomain.TokenPair,
	device authDomain.DeviceContext,
) (*authDomain.Session, error) {
	now := s.now()
	session := &authDomain.Session{
		ID:               uuid.Must(uuid.NewV7()),
		IdentityID:       identityID,
		ChainID:          chainID,
		AccessTokenHash:  s.tokenHasher(tokens.AccessToken),
		RefreshTokenHash: s.tokenHasher(tokens.RefreshToken),
		UserAgent:        device.UserAgent,
		IPAddress:        device.IPAddress,
		CreatedAt:        now,
		LastActivityAt:   now,
		ExpiresAt:        tokens.RefreshExpiresAt,
		IsActive:         true,
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return err
		}
		return s.evictOverflow(ctx, identityID, session.ID, now)
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// evictOverflow terminates the least recently active sessions beyond the cap,
// sparing the session that was just created.
func (s *sessionUseCase) evictOverflow(
	ctx context.Context,
	identityID uuid.UUID,
	spare uuid.UUID,
	now time.Time,
) error {
	sessions, err := s.sessionRepo.ListActive(ctx, identityID)
	if err != nil {
		return err
	}

	overflow := len(sessions) - s.maxConcurrent
	for _, candidate := range sessions {
		if overflow <= 0 {
			break
		}
		if candidate.ID == spare {
			continue
		}
		revoked, err := s.sessionRepo.Revoke(ctx, candidate.ID, authDomain.TerminationSessionLimit, now)
		if err != nil {
			return err
		}
		if revoked {
			overflow--
			s.logger.Info("evicted session over concurrency cap",
				slog.String("session_id", candidate.ID.String()),
				slog.String("identity_id", identityID.String()),
			)
		}
	}
	return nil
}

// Rotate supersedes an active session with a new one carrying the rotated
// token pair. The chain id carries over, keeping the login lineage revocable
// as one unit.
//
// The guarded revocation of the old session and the insert of the new one run
// in a single transaction. When two rotations race on the same session,
// exactly one wins the guarded update; the loser gets ErrTokenReuse and the
// races resolve without ever leaving two live descendants.
func (s *sessionUseCase) Rotate(
	ctx context.Context,
	current *authDomain.Session,
	tokens *authDomain.TokenPair,
	device authDomain.DeviceContext,
) (*authDomain.Session, error) {
	now := s.now()
	session := &authDomain.Session{
		ID:               uuid.Must(uuid.NewV7()),
		IdentityID:       current.IdentityID,
		ChainID:          current.ChainID,
		AccessTokenHash:  s.tokenHasher(tokens.AccessToken),
		RefreshTokenHash: s.tokenHasher(tokens.RefreshToken),
		UserAgent:        device.UserAgent,
		IPAddress:        device.IPAddress,
		CreatedAt:        now,
		LastActivityAt:   now,
		ExpiresAt:        tokens.RefreshExpiresAt,
		IsActive:         true,
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		won, err := s.sessionRepo.Revoke(ctx, current.ID, authDomain.TerminationSuperseded, now)
		if err != nil {
			return err
		}
		if !won {
			return authDomain.ErrTokenReuse
		}
		return s.sessionRepo.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Touch advances the session's last-activity timestamp in the background.
// Request latency never waits on activity tracking; a failed touch is logged
// and forgotten.
func (s *sessionUseCase) Touch(sessionID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()

		if err := s.sessionRepo.Touch(ctx, sessionID, s.now()); err != nil {
			s.logger.Error("failed to touch session",
				slog.String("session_id", sessionID.String()),
				slog.Any("error", err),
			)
		}
	}()
}

// ListActive returns the identity's active sessions, oldest activity first.
func (s *sessionUseCase) ListActive(
	ctx context.Context,
	identityID uuid.UUID,
) ([]*authDomain.Session, error) {
	return s.sessionRepo.ListActive(ctx, identityID)
}

// Revoke terminates one session. Idempotent: revoking an already-terminated
// session reports false without error.
func (s *sessionUseCase) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	reason authDomain.TerminationReason,
) (bool, error) {
	return s.sessionRepo.Revoke(ctx, sessionID, reason, s.now())
}

// RevokeAllForIdentity terminates every active session of an identity, minus
// an optional exception.
func (s *sessionUseCase) RevokeAllForIdentity(
	ctx context.Context,
	identityID uuid.UUID,
	except *uuid.UUID,
	reason authDomain.TerminationReason,
) (int64, error) {
	return s.sessionRepo.RevokeAllForIdentity(ctx, identityID, except, reason, s.now())
}

// CleanupExpired terminates sessions past their expiry and purges terminated
// sessions older than the retention period.
func (s *sessionUseCase) CleanupExpired(
	ctx context.Context,
	retention time.Duration,
) (terminated, purged int64, err error) {
	now := s.now()

	terminated, err = s.sessionRepo.TerminateExpired(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	purged, err = s.sessionRepo.DeleteTerminatedBefore(ctx, now.Add(-retention))
	if err != nil {
		return terminated, 0, err
	}

	return terminated, purged, nil
}

// NewSessionUseCase creates a new SessionUseCase with the provided dependencies.
func NewSessionUseCase(
	cfg *config.Config,
	sessionRepo SessionRepository,
	txManager database.TxManager,
	tokenHasher func(plainToken string) string,
	logger *slog.Logger,
) SessionUseCase {
	return &sessionUseCase{
		sessionRepo:   sessionRepo,
		txManager:     txManager,
		tokenHasher:   tokenHasher,
		maxConcurrent: cfg.MaxConcurrentSessions,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}
