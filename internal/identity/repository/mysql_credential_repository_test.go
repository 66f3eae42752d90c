package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// binaryID marshals a UUID the way the MySQL repositories bind BINARY(16) columns.
func binaryID(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	raw, err := id.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func TestMySQLCredentialRepository_RegisterFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	credentialID := uuid.Must(uuid.NewV7())
	idBytes := binaryID(t, credentialID)
	now := time.Now().UTC()
	lockBoundary := now.Add(15 * time.Minute)
	repo := NewMySQLCredentialRepository(db)

	t.Run("below threshold leaves lockout unset", func(t *testing.T) {
		mock.ExpectExec(`UPDATE credentials\s+SET failed_attempts = failed_attempts \+ 1`).
			WithArgs(5, lockBoundary, now, idBytes).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT failed_attempts, locked_until FROM credentials`).
			WithArgs(idBytes).
			WillReturnRows(sqlmock.NewRows([]string{"failed_attempts", "locked_until"}).AddRow(3, nil))

		attempts, boundary, err := repo.RegisterFailure(context.Background(), credentialID, 5, lockBoundary, now)
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
		assert.Nil(t, boundary)
	})

	t.Run("threshold sets lockout boundary", func(t *testing.T) {
		mock.ExpectExec(`UPDATE credentials\s+SET failed_attempts = failed_attempts \+ 1`).
			WithArgs(5, lockBoundary, now, idBytes).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT failed_attempts, locked_until FROM credentials`).
			WithArgs(idBytes).
			WillReturnRows(sqlmock.NewRows([]string{"failed_attempts", "locked_until"}).AddRow(5, lockBoundary))

		attempts, boundary, err := repo.RegisterFailure(context.Background(), credentialID, 5, lockBoundary, now)
		require.NoError(t, err)
		assert.Equal(t, 5, attempts)
		require.NotNil(t, boundary)
		assert.WithinDuration(t, lockBoundary, *boundary, time.Second)
	})

	t.Run("unknown credential reports not found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE credentials\s+SET failed_attempts = failed_attempts \+ 1`).
			WithArgs(5, lockBoundary, now, idBytes).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, _, err := repo.RegisterFailure(context.Background(), credentialID, 5, lockBoundary, now)
		assert.ErrorIs(t, err, identityDomain.ErrCredentialNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLCredentialRepository_RegisterSuccess(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	credentialID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE credentials\s+SET failed_attempts = 0`).
		WithArgs(now, now, binaryID(t, credentialID)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewMySQLCredentialRepository(db)
	err = repo.RegisterSuccess(context.Background(), credentialID, now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
