// Package repository implements session persistence for authentication.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(). Revocations are guarded UPDATEs on is_active so concurrent
// revokes and refresh rotations settle on exactly one winner.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	"github.com/caremesh/authcore/internal/database"
	apperrors "github.com/caremesh/authcore/internal/errors"
)

// PostgreSQLSessionRepository implements Session persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLSessionRepository struct {
	db *sql.DB
}

// Create inserts a new Session into the PostgreSQL database.
func (p *PostgreSQLSessionRepository) Create(ctx context.Context, session *authDomain.Session) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO sessions (id, identity_id, chain_id, access_token_hash, refresh_token_hash,
			  user_agent, ip_address, created_at, last_activity_at, expires_at, is_active,
			  terminated_at, termination_reason)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := querier.ExecContext(
		ctx,
		query,
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
	if err != nil {
		return apperrors.Wrap(err, "failed to create session")
	}
	return nil
}

const sessionColumns = `id, identity_id, chain_id, access_token_hash, refresh_token_hash,
			  user_agent, ip_address, created_at, last_activity_at, expires_at, is_active,
			  terminated_at, termination_reason`

// Get retrieves a Session by ID from the PostgreSQL database.
// Returns ErrSessionNotFound if the session doesn't exist.
func (p *PostgreSQLSessionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*authDomain.Session, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(querier.QueryRowContext(ctx, query, sessionID))
}

// GetByAccessTokenHash retrieves a Session by the hash of its access token.
// Returns ErrSessionNotFound if no session matches.
func (p *PostgreSQLSessionRepository) GetByAccessTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.Session, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE access_token_hash = $1`
	return scanSession(querier.QueryRowContext(ctx, query, tokenHash))
}

// GetByRefreshTokenHash retrieves a Session by the hash of its refresh token.
// Inactive sessions are returned too: refresh rotation needs the terminated row
// to detect reuse of an already-rotated token. Returns ErrSessionNotFound if no
// session matches.
func (p *PostgreSQLSessionRepository) GetByRefreshTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.Session, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE refresh_token_hash = $1`
	return scanSession(querier.QueryRowContext(ctx, query, tokenHash))
}

func scanSession(row *sql.Row) (*authDomain.Session, error) {
	var session authDomain.Session

	err := row.Scan(
		&session.ID,
		&session.IdentityID,
		&session.ChainID,
		&session.AccessTokenHash,
		&session.RefreshTokenHash,
		&session.UserAgent,
		&session.IPAddress,
		&session.CreatedAt,
		&session.LastActivityAt,
		&session.ExpiresAt,
		&session.IsActive,
		&session.TerminatedAt,
		&session.TerminationReason,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get session")
	}

	return &session, nil
}

// ListActive returns the active sessions of an identity ordered by last
// activity, oldest first. Cap eviction terminates from the head of this list.
func (p *PostgreSQLSessionRepository) ListActive(
	ctx context.Context,
	identityID uuid.UUID,
) ([]*authDomain.Session, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + sessionColumns + ` FROM sessions
			  WHERE identity_id = $1 AND is_active = true
			  ORDER BY last_activity_at ASC`

	rows, err := querier.QueryContext(ctx, query, identityID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list active sessions")
	}
	defer rows.Close()

	var sessions []*authDomain.Session
	for rows.Next() {
		var session authDomain.Session
		err := rows.Scan(
			&session.ID,
			&session.IdentityID,
			&session.ChainID,
			&session.AccessTokenHash,
			&session.RefreshTokenHash,
			&session.UserAgent,
			&session.IPAddress,
			&session.CreatedAt,
			&session.LastActivityAt,
			&session.ExpiresAt,
			&session.IsActive,
			&session.TerminatedAt,
			&session.TerminationReason,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan session")
		}
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate sessions")
	}

	return sessions, nil
}

// CountActive returns the number of active sessions for an identity.
func (p *PostgreSQLSessionRepository) CountActive(ctx context.Context, identityID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	query := `SELECT count(*) FROM sessions WHERE identity_id = $1 AND is_active = true`
	if err := querier.QueryRowContext(ctx, query, identityID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count active sessions")
	}
	return count, nil
}

// Touch advances the session's last-activity timestamp.
func (p *PostgreSQLSessionRepository) Touch(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions SET last_activity_at = $1 WHERE id = $2 AND is_active = true`
	if _, err := querier.ExecContext(ctx, query, at, sessionID); err != nil {
		return apperrors.Wrap(err, "failed to touch session")
	}
	return nil
}

// Revoke terminates one session. The UPDATE is guarded on is_active so exactly
// one of any number of concurrent revokes wins; the return value reports
// whether this call was the winner.
func (p *PostgreSQLSessionRepository) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	reason authDomain.TerminationReason,
	at time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions
			  SET is_active = false,
				  terminated_at = $1,
				  termination_reason = $2
			  WHERE id = $3 AND is_active = true`

	result, err := querier.ExecContext(ctx, query, at, reason, sessionID)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to revoke session")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read affected rows")
	}
	return rows > 0, nil
}

// RevokeAllForIdentity terminates every active session of an identity, minus an
// optional exception (the session driving the revocation). Returns the number
// of sessions terminated.
func (p *PostgreSQLSessionRepository) RevokeAllForIdentity(
	ctx context.Context,
	identityID uuid.UUID,
	except *uuid.UUID,
	reason authDomain.TerminationReason,
	at time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions
			  SET is_active = false,
				  terminated_at = $1,
				  termination_reason = $2
			  WHERE identity_id = $3 AND is_active = true AND ($4::uuid IS NULL OR id <> $4)`

	result, err := querier.ExecContext(ctx, query, at, reason, identityID, except)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to revoke identity sessions")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return rows, nil
}

// RevokeChain terminates every active session sharing a refresh chain. Used
// when a rotated refresh token is presented again. Returns the number of
// sessions terminated.
func (p *PostgreSQLSessionRepository) RevokeChain(
	ctx context.Context,
	chainID uuid.UUID,
	reason authDomain.TerminationReason,
	at time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions
			  SET is_active = false,
				  terminated_at = $1,
				  termination_reason = $2
			  WHERE chain_id = $3 AND is_active = true`

	result, err := querier.ExecContext(ctx, query, at, reason, chainID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to revoke session chain")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return rows, nil
}

// TerminateExpired marks every active session past its expiry as terminated.
// Returns the number of sessions terminated.
func (p *PostgreSQLSessionRepository) TerminateExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE sessions
			  SET is_active = false,
				  terminated_at = $1,
				  termination_reason = $2
			  WHERE is_active = true AND expires_at <= $1`

	result, err := querier.ExecContext(ctx, query, now, authDomain.TerminationExpired)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to terminate expired sessions")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return rows, nil
}

// DeleteTerminatedBefore purges terminated sessions whose termination predates
// the cutoff. Returns the number of rows deleted.
func (p *PostgreSQLSessionRepository) DeleteTerminatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM sessions WHERE is_active = false AND terminated_at < $1`

	result, err := querier.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete terminated sessions")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return rows, nil
}

// NewPostgreSQLSessionRepository creates a new PostgreSQL Session repository.
func NewPostgreSQLSessionRepository(db *sql.DB) *PostgreSQLSessionRepository {
	return &PostgreSQLSessionRepository{db: db}
}
