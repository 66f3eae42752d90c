package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
)

func sessionColumnNames() []string {
	return []string{
		"id", "identity_id", "chain_id", "access_token_hash", "refresh_token_hash",
		"user_agent", "ip_address", "created_at", "last_activity_at", "expires_at",
		"is_active", "terminated_at", "termination_reason",
	}
}

func sessionRow(session *authDomain.Session) *sqlmock.Rows {
	return sqlmock.NewRows(sessionColumnNames()).AddRow(
		session.ID,
		session.IdentityID,
		session.ChainID,
		session.AccessTokenHash,
		session.RefreshTokenHash,
		session.UserAgent,
		session.IPAddress,
		session.CreatedAt,
		session.LastActivityAt,
		session.ExpiresAt,
		session.IsActive,
		session.TerminatedAt,
		session.TerminationReason,
	)
}

func activeSession() *authDomain.Session {
	now := time.Now().UTC()
	return &authDomain.Session{
		ID:               uuid.Must(uuid.NewV7()),
		IdentityID:       uuid.Must(uuid.NewV7()),
		ChainID:          uuid.Must(uuid.NewV7()),
		AccessTokenHash:  "access-hash",
		RefreshTokenHash: "refresh-hash",
		UserAgent:        "Mozilla/5.0",
		IPAddress:        "10.0.0.1",
		CreatedAt:        now,
		LastActivityAt:   now,
		ExpiresAt:        now.Add(7 * 24 * time.Hour),
		IsActive:         true,
	}
}

func TestPostgreSQLSessionRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	session := activeSession()

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(
			session.ID,
			session.IdentityID,
			session.ChainID,
			session.AccessTokenHash,
			session.RefreshTokenHash,
			session.UserAgent,
			session.IPAddress,
			session.CreatedAt,
			session.LastActivityAt,
			session.ExpiresAt,
			session.IsActive,
			nil,
			nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgreSQLSessionRepository(db)
	err = repo.Create(context.Background(), session)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSessionRepository_GetByRefreshTokenHash(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	want := activeSession()

	mock.ExpectQuery(`SELECT .* FROM sessions WHERE refresh_token_hash`).
		WithArgs(want.RefreshTokenHash).
		WillReturnRows(sessionRow(want))

	repo := NewPostgreSQLSessionRepository(db)
	got, err := repo.GetByRefreshTokenHash(context.Background(), want.RefreshTokenHash)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.ChainID, got.ChainID)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.TerminationReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSessionRepository_GetByRefreshTokenHash_ReturnsInactive(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	want := activeSession()
	terminatedAt := time.Now().UTC()
	reason := authDomain.TerminationSuperseded
	want.IsActive = false
	want.TerminatedAt = &terminatedAt
	want.TerminationReason = &reason

	mock.ExpectQuery(`SELECT .* FROM sessions WHERE refresh_token_hash`).
		WithArgs(want.RefreshTokenHash).
		WillReturnRows(sessionRow(want))

	repo := NewPostgreSQLSessionRepository(db)
	got, err := repo.GetByRefreshTokenHash(context.Background(), want.RefreshTokenHash)
	require.NoError(t, err)

	// Rotated-token reuse detection depends on the terminated row being visible.
	assert.False(t, got.IsActive)
	require.NotNil(t, got.TerminationReason)
	assert.Equal(t, authDomain.TerminationSuperseded, *got.TerminationReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSessionRepository_GetByAccessTokenHashNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM sessions WHERE access_token_hash`).
		WithArgs("unknown-hash").
		WillReturnRows(sqlmock.NewRows(sessionColumnNames()))

	repo := NewPostgreSQLSessionRepository(db)
	got, err := repo.GetByAccessTokenHash(context.Background(), "unknown-hash")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, authDomain.ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSessionRepository_Revoke(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	sessionID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()
	repo := NewPostgreSQLSessionRepository(db)

	t.Run("active session revoked", func(t *testing.T) {
		mock.ExpectExec(`UPDATE sessions\s+SET is_active = false`).
			WithArgs(now, authDomain.TerminationLogout, sessionID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		revoked, err := repo.Revoke(context.Background(), sessionID, authDomain.TerminationLogout, now)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("already inactive session reports false", func(t *testing.T) {
		mock.ExpectExec(`UPDATE sessions\s+SET is_active = false`).
			WithArgs(now, authDomain.TerminationLogout, sessionID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		revoked, err := repo.Revoke(context.Background(), sessionID, authDomain.TerminationLogout, now)
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSessionRepository_RevokeAllForIdentity(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	identityID := uuid.Must(uuid.NewV7())
	keep := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE sessions\s+SET is_active = false`).
		WithArgs(now, authDomain.TerminationPasswordChanged, identityID, &keep).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewPostgreSQLSessionRepository(db)
	count, err := repo.RevokeAllForIdentity(
		context.Background(),
		identityID,
		&keep,
		authDomain.TerminationPasswordChanged,
		now,
	)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSessionRepository_RevokeChain(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	chainID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE sessions\s+SET is_active = false`).
		WithArgs(now, authDomain.TerminationTokenReuse, chainID).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewPostgreSQLSessionRepository(db)
	count, err := repo.RevokeChain(context.Background(), chainID, authDomain.TerminationTokenReuse, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSessionRepository_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	identityID := uuid.Must(uuid.NewV7())
	older := activeSession()
	older.IdentityID = identityID
	newer := activeSession()
	newer.IdentityID = identityID
	newer.LastActivityAt = older.LastActivityAt.Add(time.Hour)

	rows := sessionRow(older).AddRow(
		newer.ID, newer.IdentityID, newer.ChainID, newer.AccessTokenHash, newer.RefreshTokenHash,
		newer.UserAgent, newer.IPAddress, newer.CreatedAt, newer.LastActivityAt, newer.ExpiresAt,
		newer.IsActive, newer.TerminatedAt, newer.TerminationReason,
	)

	mock.ExpectQuery(`SELECT .* FROM sessions\s+WHERE identity_id = .* ORDER BY last_activity_at ASC`).
		WithArgs(identityID).
		WillReturnRows(rows)

	repo := NewPostgreSQLSessionRepository(db)
	sessions, err := repo.ListActive(context.Background(), identityID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, older.ID, sessions[0].ID)
	assert.Equal(t, newer.ID, sessions[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSessionRepository_CountActive(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	identityID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(`SELECT count\(\*\) FROM sessions`).
		WithArgs(identityID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	repo := NewPostgreSQLSessionRepository(db)
	count, err := repo.CountActive(context.Background(), identityID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSessionRepository_TerminateExpired(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE sessions\s+SET is_active = false`).
		WithArgs(now, authDomain.TerminationExpired).
		WillReturnResult(sqlmock.NewResult(0, 7))

	repo := NewPostgreSQLSessionRepository(db)
	count, err := repo.TerminateExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSessionRepository_DeleteTerminatedBefore(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Now().UTC().AddDate(0, 0, -30)

	mock.ExpectExec(`DELETE FROM sessions WHERE is_active = false`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 12))

	repo := NewPostgreSQLSessionRepository(db)
	count, err := repo.DeleteTerminatedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
