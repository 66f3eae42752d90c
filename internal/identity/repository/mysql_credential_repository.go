package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/caremesh/authcore/internal/database"
	apperrors "github.com/caremesh/authcore/internal/errors"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// MySQLCredentialRepository implements Credential persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
// MySQL has no UPDATE ... RETURNING, so lockout mutations update and re-read
// inside the caller's transaction.
type MySQLCredentialRepository struct {
	db *sql.DB
}

// Create inserts a new Credential into the MySQL database using BINARY(16) for UUIDs.
func (m *MySQLCredentialRepository) Create(ctx context.Context, credential *identityDomain.Credential) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO credentials (id, identity_id, kind, secret_hash, algorithm, failed_attempts,
			  locked_until, last_used_at, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := credential.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential id")
	}

	identityID, err := credential.IdentityID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal identity id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		identityID,
		credential.Kind,
		credential.SecretHash,
		credential.Algorithm,
		credential.FailedAttempts,
		credential.LockedUntil,
		credential.LastUsedAt,
		credential.IsActive,
		credential.CreatedAt,
		credential.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create credential")
	}
	return nil
}

// GetByIdentity retrieves the active Credential of a given kind for an identity.
// Returns ErrCredentialNotFound if no active credential matches.
func (m *MySQLCredentialRepository) GetByIdentity(
	ctx context.Context,
	identityID uuid.UUID,
	kind identityDomain.CredentialKind,
) (*identityDomain.Credential, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, identity_id, kind, secret_hash, algorithm, failed_attempts,
			  locked_until, last_used_at, is_active, created_at, updated_at
			  FROM credentials
			  WHERE identity_id = ? AND kind = ? AND is_active = true`

	id, err := identityID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal identity id")
	}

	return m.scanCredential(querier.QueryRowContext(ctx, query, id, kind))
}

// GetByIdentifier retrieves the active Credential of a given kind by the owning
// identity's email. Emails are compared case-insensitively. Returns
// ErrCredentialNotFound if no active credential matches.
func (m *MySQLCredentialRepository) GetByIdentifier(
	ctx context.Context,
	identifier string,
	kind identityDomain.CredentialKind,
) (*identityDomain.Credential, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT c.id, c.identity_id, c.kind, c.secret_hash, c.algorithm, c.failed_attempts,
			  c.locked_until, c.last_used_at, c.is_active, c.created_at, c.updated_at
			  FROM credentials c
			  JOIN identities i ON i.id = c.identity_id
			  WHERE lower(i.email) = lower(?) AND c.kind = ? AND c.is_active = true`

	return m.scanCredential(querier.QueryRowContext(ctx, query, identifier, kind))
}

func (m *MySQLCredentialRepository) scanCredential(row *sql.Row) (*identityDomain.Credential, error) {
	var credential identityDomain.Credential
	var idBytes []byte
	var identityIDBytes []byte

	err := row.Scan(
		&idBytes,
		&identityIDBytes,
		&credential.Kind,
		&credential.SecretHash,
		&credential.Algorithm,
		&credential.FailedAttempts,
		&credential.LockedUntil,
		&credential.LastUsedAt,
		&credential.IsActive,
		&credential.CreatedAt,
		&credential.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrCredentialNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credential")
	}

	if err := credential.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal credential id")
	}
	if err := credential.IdentityID.UnmarshalBinary(identityIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal identity id")
	}

	return &credential, nil
}

// RegisterFailure increments the failed-attempt counter atomically and sets the
// lockout boundary once the counter reaches maxAttempts, then re-reads the
// updated state. Returns the updated counter and lockout boundary.
func (m *MySQLCredentialRepository) RegisterFailure(
	ctx context.Context,
	credentialID uuid.UUID,
	maxAttempts int,
	lockedUntil time.Time,
	now time.Time,
) (int, *time.Time, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := credentialID.MarshalBinary()
	if err != nil {
		return 0, nil, apperrors.Wrap(err, "failed to marshal credential id")
	}

	update := `UPDATE credentials
			   SET failed_attempts = failed_attempts + 1,
				   locked_until = CASE WHEN failed_attempts >= ? THEN ? ELSE locked_until END,
				   updated_at = ?
			   WHERE id = ?`

	// failed_attempts already holds the incremented value when the CASE
	// expression runs, so the threshold compares without the +1.
	result, err := querier.ExecContext(ctx, update, maxAttempts, lockedUntil, now, id)
	if err != nil {
		return 0, nil, apperrors.Wrap(err, "failed to register credential failure")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, nil, apperrors.Wrap(err, "failed to read affected rows")
	}
	if rows == 0 {
		return 0, nil, identityDomain.ErrCredentialNotFound
	}

	var failedAttempts int
	var boundary *time.Time

	err = querier.QueryRowContext(ctx, `SELECT failed_attempts, locked_until FROM credentials WHERE id = ?`, id).
		Scan(&failedAttempts, &boundary)
	if err != nil {
		return 0, nil, apperrors.Wrap(err, "failed to read credential lockout state")
	}

	return failedAttempts, boundary, nil
}

// RegisterSuccess resets the failed-attempt counter and lockout boundary and
// records the successful verification time.
func (m *MySQLCredentialRepository) RegisterSuccess(
	ctx context.Context,
	credentialID uuid.UUID,
	usedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := credentialID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential id")
	}

	query := `UPDATE credentials
			  SET failed_attempts = 0,
				  locked_until = NULL,
				  last_used_at = ?,
				  updated_at = ?
			  WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, usedAt, usedAt, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to register credential success")
	}
	return nil
}

// UpdateSecret replaces the stored secret hash and clears any lockout state.
// Used by password changes; a successful change also unlocks the credential.
func (m *MySQLCredentialRepository) UpdateSecret(
	ctx context.Context,
	credentialID uuid.UUID,
	secretHash string,
	algorithm string,
	now time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := credentialID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal credential id")
	}

	query := `UPDATE credentials
			  SET secret_hash = ?,
				  algorithm = ?,
				  failed_attempts = 0,
				  locked_until = NULL,
				  updated_at = ?
			  WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, secretHash, algorithm, now, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update credential secret")
	}
	return nil
}

// NewMySQLCredentialRepository creates a new MySQL Credential repository.
func NewMySQLCredentialRepository(db *sql.DB) *MySQLCredentialRepository {
	return &MySQLCredentialRepository{db: db}
}
