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

// PostgreSQLCredentialRepository implements Credential persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLCredentialRepository struct {
	db *sql.DB
}

// Create inserts a new Credential into the PostgreSQL database.
func (p *PostgreSQLCredentialRepository) Create(ctx context.Context, credential *identityDomain.Credential) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO credentials (id, identity_id, kind, secret_hash, algorithm, failed_attempts,
			  locked_until, last_used_at, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		credential.ID,
		credential.IdentityID,
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
func (p *PostgreSQLCredentialRepository) GetByIdentity(
	ctx context.Context,
	identityID uuid.UUID,
	kind identityDomain.CredentialKind,
) (*identityDomain.Credential, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, identity_id, kind, secret_hash, algorithm, failed_attempts,
			  locked_until, last_used_at, is_active, created_at, updated_at
			  FROM credentials
			  WHERE identity_id = $1 AND kind = $2 AND is_active = true`

	return p.scanCredential(querier.QueryRowContext(ctx, query, identityID, kind))
}

// GetByIdentifier retrieves the active Credential of a given kind by the owning
// identity's email. Emails are compared case-insensitively. Returns
// ErrCredentialNotFound if no active credential matches.
func (p *PostgreSQLCredentialRepository) GetByIdentifier(
	ctx context.Context,
	identifier string,
	kind identityDomain.CredentialKind,
) (*identityDomain.Credential, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT c.id, c.identity_id, c.kind, c.secret_hash, c.algorithm, c.failed_attempts,
			  c.locked_until, c.last_used_at, c.is_active, c.created_at, c.updated_at
			  FROM credentials c
			  JOIN identities i ON i.id = c.identity_id
			  WHERE lower(i.email) = lower($1) AND c.kind = $2 AND c.is_active = true`

	return p.scanCredential(querier.QueryRowContext(ctx, query, identifier, kind))
}

func (p *PostgreSQLCredentialRepository) scanCredential(row *sql.Row) (*identityDomain.Credential, error) {
	var credential identityDomain.Credential

	err := row.Scan(
		&credential.ID,
		&credential.IdentityID,
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

	return &credential, nil
}

// RegisterFailure increments the failed-attempt counter atomically and sets the
// lockout boundary once the counter reaches maxAttempts. The increment runs in
// a single UPDATE so concurrent failures never lose counts. Returns the updated
// counter and lockout boundary.
func (p *PostgreSQLCredentialRepository) RegisterFailure(
	ctx context.Context,
	credentialID uuid.UUID,
	maxAttempts int,
	lockedUntil time.Time,
	now time.Time,
) (int, *time.Time, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE credentials
			  SET failed_attempts = failed_attempts + 1,
				  locked_until = CASE WHEN failed_attempts + 1 >= $1 THEN $2 ELSE locked_until END,
				  updated_at = $3
			  WHERE id = $4
			  RETURNING failed_attempts, locked_until`

	var failedAttempts int
	var boundary *time.Time

	err := querier.QueryRowContext(ctx, query, maxAttempts, lockedUntil, now, credentialID).
		Scan(&failedAttempts, &boundary)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, identityDomain.ErrCredentialNotFound
		}
		return 0, nil, apperrors.Wrap(err, "failed to register credential failure")
	}

	return failedAttempts, boundary, nil
}

// RegisterSuccess resets the failed-attempt counter and lockout boundary and
// records the successful verification time.
func (p *PostgreSQLCredentialRepository) RegisterSuccess(
	ctx context.Context,
	credentialID uuid.UUID,
	usedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE credentials
			  SET failed_attempts = 0,
				  locked_until = NULL,
				  last_used_at = $1,
				  updated_at = $1
			  WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, usedAt, credentialID)
	if err != nil {
		return apperrors.Wrap(err, "failed to register credential success")
	}
	return nil
}

// UpdateSecret replaces the stored secret hash and clears any lockout state.
// Used by password changes; a successful change also unlocks the credential.
func (p *PostgreSQLCredentialRepository) UpdateSecret(
	ctx context.Context,
	credentialID uuid.UUID,
	secretHash string,
	algorithm string,
	now time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE credentials
			  SET secret_hash = $1,
				  algorithm = $2,
				  failed_attempts = 0,
				  locked_until = NULL,
				  updated_at = $3
			  WHERE id = $4`

	_, err := querier.ExecContext(ctx, query, secretHash, algorithm, now, credentialID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update credential secret")
	}
	return nil
}

// NewPostgreSQLCredentialRepository creates a new PostgreSQL Credential repository.
func NewPostgreSQLCredentialRepository(db *sql.DB) *PostgreSQLCredentialRepository {
	return &PostgreSQLCredentialRepository{db: db}
}
