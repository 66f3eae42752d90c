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

// MySQLSessionRepository implements Session persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLSessionRepository struct {
	db *sql.DB
}

// Create inserts a new Session into the MySQL database using BINARY(16) for UUIDs.
func (m *MySQLSessionRepository) Create(ctx context.Context, session *authDomain.Session) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO sessions (id, identity_id, chain_id, access_token_hash, refresh_token_hash,
			  user_agent, ip_address, created_at, last_activity_at, expires_at, is_active,
			  terminated_at, termination_reason)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := session.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}
	identityID, err := session.IdentityID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal identity id")
	}
	chainID, err := session.ChainID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal chain id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		identityID,
		chainID,
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

// Get retrieves a Session by ID from the MySQL database using BINARY(16) for UUIDs.
// Returns ErrSessionNotFound if the session doesn't exist.
func (m *MySQLSessionRepository) Get(ctx context.Context, sessionID uuid.UUID) (*authDomain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := sessionID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	return scanMySQLSession(querier.QueryRowContext(ctx, query, id))
}

// GetByAccessTokenHash retrieves a Session by the hash of its access token.
// Returns ErrSessionNotFound if no session matches.
func (m *MySQLSessionRepository) GetByAccessTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE access_token_hash = ?`
	return scanMySQLSession(querier.QueryRowContext(ctx, query, tokenHash))
}

// GetByRefreshTokenHash retrieves a Session by the hash of its refresh token.
// Inactive sessions are returned too: refresh rotation needs the terminated row
// to detect reuse of an already-rotated token. Returns ErrSessionNotFound if no
// session matches.
func (m *MySQLSessionRepository) GetByRefreshTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE refresh_token_hash = ?`
	return scanMySQLSession(querier.QueryRowContext(ctx, query, tokenHash))
}

func scanMySQLSession(row *sql.Row) (*authDomain.Session, error) {
	var session authDomain.Session
	var idBytes, identityIDBytes, chainIDBytes []byte

	err := row.Scan(
		&idBytes,
		&identityIDBytes,
		&chainIDBytes,
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

	if err := unmarshalSessionIDs(&session, idBytes, identityIDBytes, chainIDBytes); err != nil {
		return nil, err
	}

	return &session, nil
}

func unmarshalSessionIDs(session *authDomain.Session, id, identityID, chainID []byte) error {
	if err := session.ID.UnmarshalBinary(id); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal session id")
	}
	if err := session.IdentityID.UnmarshalBinary(identityID); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal identity id")
	}
	if err := session.ChainID.UnmarshalBinary(chainID); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal chain id")
	}
	return nil
}

// ListActive returns the active sessions of an identity ordered by last
// activity, oldest first. Cap eviction terminates from the head of this list.
func (m *MySQLSessionRepository) ListActive(
	ctx context.Context,
	identityID uuid.UUID,
) ([]*authDomain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := identityID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal identity id")
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions
			  WHERE identity_id = ? AND is_active = true
			  ORDER BY last_activity_at ASC`

	rows, err := querier.QueryContext(ctx, query, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list active sessions")
	}
	defer rows.Close()

	var sessions []*authDomain.Session
	for rows.Next() {
		var session authDomain.Session
		var idBytes, identityIDBytes, chainIDBytes []byte

		err := rows.Scan(
			&idBytes,
			&identityIDBytes,
			&chainIDBytes,
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
		if err := unmarshalSessionIDs(&session, idBytes, identityIDBytes, chainIDBytes); err != nil {
			return nil, err
		}
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate sessions")
	}

	return sessions, nil
}

// CountActive returns the number of active sessions for an identity.
func (m *MySQLSessionRepository) CountActive(ctx context.Context, identityID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := identityID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal identity id")
	}

	var count int64
	query := `SELECT count(*) FROM sessions WHERE identity_id = ? AND is_active = true`
	if err := querier.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count active sessions")
	}
	return count, nil
}

// Touch advances the session's last-activity timestamp.
func (m *MySQLSessionRepository) Touch(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, m.db)

	id, err := sessionID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `UPDATE sessions SET last_activity_at = ? WHERE id = ? AND is_active = true`
	if _, err := querier.ExecContext(ctx, query, at, id); err != nil {
		return apperrors.Wrap(err, "failed to touch session")
	}
	return nil
}

// Revoke terminates one session. The UPDATE is guarded on is_active so exactly
// one of any number of concurrent revokes wins; the return value reports
// whether this call was the winner.
func (m *MySQLSessionRepository) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	reason authDomain.TerminationReason,
	at time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := sessionID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `UPDATE sessions
			  SET is_active = false,
				  terminated_at = ?,
				  termination_reason = ?
			  WHERE id = ? AND is_active = true`

	result, err := querier.ExecContext(ctx, query, at, reason, id)
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
func (m *MySQLSessionRepository) RevokeAllForIdentity(
	ctx context.Context,
	identityID uuid.UUID,
	except *uuid.UUID,
	reason authDomain.TerminationReason,
	at time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := identityID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal identity id")
	}

	exceptID, err := marshalNullableSessionID(except)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `UPDATE sessions
			  SET is_active = false,
				  terminated_at = ?,
				  termination_reason = ?
			  WHERE identity_id = ? AND is_active = true AND (? IS NULL OR id <> ?)`

	result, err := querier.ExecContext(ctx, query, at, reason, id, exceptID, exceptID)
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
func (m *MySQLSessionRepository) RevokeChain(
	ctx context.Context,
	chainID uuid.UUID,
	reason authDomain.TerminationReason,
	at time.Time,
) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := chainID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal chain id")
	}

	query := `UPDATE sessions
			  SET is_active = false,
				  terminated_at = ?,
				  termination_reason = ?
			  WHERE chain_id = ? AND is_active = true`

	result, err := querier.ExecContext(ctx, query, at, reason, id)
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
func (m *MySQLSessionRepository) TerminateExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE sessions
			  SET is_active = false,
				  terminated_at = ?,
				  termination_reason = ?
			  WHERE is_active = true AND expires_at <= ?`

	result, err := querier.ExecContext(ctx, query, now, authDomain.TerminationExpired, now)
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
func (m *MySQLSessionRepository) DeleteTerminatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM sessions WHERE is_active = false AND terminated_at < ?`

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

func marshalNullableSessionID(id *uuid.UUID) ([]byte, error) {
	if id == nil {
		return nil, nil
	}
	return id.MarshalBinary()
}

// NewMySQLSessionRepository creates a new MySQL Session repository.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}
