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

// binarySessionID marshals a UUID the way the MySQL repository binds BINARY(16) columns.
func binarySessionID(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	raw, err := id.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func TestMySQLSessionRepository_Revoke(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	sessionID := uuid.Must(uuid.NewV7())
	idBytes := binarySessionID(t, sessionID)
	now := time.Now().UTC()
	repo := NewMySQLSessionRepository(db)

	t.Run("active session revoked", func(t *testing.T) {
		mock.ExpectExec(`UPDATE sessions\s+SET is_active = false`).
			WithArgs(now, authDomain.TerminationLogout, idBytes).
			WillReturnResult(sqlmock.NewResult(0, 1))

		revoked, err := repo.Revoke(context.Background(), sessionID, authDomain.TerminationLogout, now)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("already inactive session reports false", func(t *testing.T) {
		mock.ExpectExec(`UPDATE sessions\s+SET is_active = false`).
			WithArgs(now, authDomain.TerminationLogout, idBytes).
			WillReturnResult(sqlmock.NewResult(0, 0))

		revoked, err := repo.Revoke(context.Background(), sessionID, authDomain.TerminationLogout, now)
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLSessionRepository_RevokeChain(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	chainID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE sessions\s+SET is_active = false`).
		WithArgs(now, authDomain.TerminationTokenReuse, binarySessionID(t, chainID)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewMySQLSessionRepository(db)
	count, err := repo.RevokeChain(context.Background(), chainID, authDomain.TerminationTokenReuse, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
