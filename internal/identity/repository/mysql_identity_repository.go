package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/caremesh/authcore/internal/database"
	apperrors "github.com/caremesh/authcore/internal/errors"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// MySQLIdentityRepository implements Identity persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLIdentityRepository struct {
	db *sql.DB
}

// Create inserts a new Identity into the MySQL database using BINARY(16) for UUIDs.
func (m *MySQLIdentityRepository) Create(ctx context.Context, identity *identityDomain.Identity) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO identities (id, email, full_name, role_code, organization_id, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := identity.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal identity id")
	}

	orgID, err := marshalNullableUUID(identity.OrganizationID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal organization id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		identity.Email,
		identity.FullName,
		identity.RoleCode,
		orgID,
		identity.IsActive,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create identity")
	}
	return nil
}

// Update modifies an existing Identity in the MySQL database using BINARY(16) for UUIDs.
func (m *MySQLIdentityRepository) Update(ctx context.Context, identity *identityDomain.Identity) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE identities
			  SET email = ?,
			  	  full_name = ?,
				  role_code = ?,
				  organization_id = ?,
				  is_active = ?,
				  updated_at = ?
			  WHERE id = ?`

	id, err := identity.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal identity id")
	}

	orgID, err := marshalNullableUUID(identity.OrganizationID)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal organization id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		identity.Email,
		identity.FullName,
		identity.RoleCode,
		orgID,
		identity.IsActive,
		identity.UpdatedAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update identity")
	}

	return nil
}

// Get retrieves an Identity by ID from the MySQL database using BINARY(16) for UUIDs.
// Returns ErrIdentityNotFound if the identity doesn't exist.
func (m *MySQLIdentityRepository) Get(
	ctx context.Context,
	identityID uuid.UUID,
) (*identityDomain.Identity, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, email, full_name, role_code, organization_id, is_active, created_at, updated_at
			  FROM identities WHERE id = ?`

	id, err := identityID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal identity id")
	}

	return m.scanIdentity(querier.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves an Identity by email from the MySQL database.
// Emails are compared case-insensitively. Returns ErrIdentityNotFound if no
// identity matches.
func (m *MySQLIdentityRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*identityDomain.Identity, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, email, full_name, role_code, organization_id, is_active, created_at, updated_at
			  FROM identities WHERE lower(email) = lower(?)`

	return m.scanIdentity(querier.QueryRowContext(ctx, query, email))
}

func (m *MySQLIdentityRepository) scanIdentity(row *sql.Row) (*identityDomain.Identity, error) {
	var identity identityDomain.Identity
	var idBytes []byte
	var orgBytes []byte

	err := row.Scan(
		&idBytes,
		&identity.Email,
		&identity.FullName,
		&identity.RoleCode,
		&orgBytes,
		&identity.IsActive,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get identity")
	}

	if err := identity.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal identity id")
	}

	orgID, err := unmarshalNullableUUID(orgBytes)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal organization id")
	}
	identity.OrganizationID = orgID

	return &identity, nil
}

// NewMySQLIdentityRepository creates a new MySQL Identity repository.
func NewMySQLIdentityRepository(db *sql.DB) *MySQLIdentityRepository {
	return &MySQLIdentityRepository{db: db}
}

// MySQLOrganizationRepository implements Organization persistence for MySQL.
type MySQLOrganizationRepository struct {
	db *sql.DB
}

// Create inserts a new Organization into the MySQL database using BINARY(16) for UUIDs.
func (m *MySQLOrganizationRepository) Create(ctx context.Context, org *identityDomain.Organization) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO organizations (id, name, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?)`

	id, err := org.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal organization id")
	}

	_, err = querier.ExecContext(ctx, query, id, org.Name, org.IsActive, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create organization")
	}
	return nil
}

// Get retrieves an Organization by ID from the MySQL database using BINARY(16) for UUIDs.
// Returns ErrOrganizationNotFound if the organization doesn't exist.
func (m *MySQLOrganizationRepository) Get(
	ctx context.Context,
	organizationID uuid.UUID,
) (*identityDomain.Organization, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, is_active, created_at, updated_at FROM organizations WHERE id = ?`

	id, err := organizationID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal organization id")
	}

	var org identityDomain.Organization
	var idBytes []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
		&org.Name,
		&org.IsActive,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrOrganizationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get organization")
	}

	if err := org.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal organization id")
	}

	return &org, nil
}

// NewMySQLOrganizationRepository creates a new MySQL Organization repository.
func NewMySQLOrganizationRepository(db *sql.DB) *MySQLOrganizationRepository {
	return &MySQLOrganizationRepository{db: db}
}

// marshalNullableUUID converts an optional UUID to its BINARY(16) form,
// preserving NULL.
func marshalNullableUUID(id *uuid.UUID) ([]byte, error) {
	if id == nil {
		return nil, nil
	}
	return id.MarshalBinary()
}

// unmarshalNullableUUID converts a BINARY(16) column value back to an optional
// UUID, preserving NULL.
func unmarshalNullableUUID(raw []byte) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	var id uuid.UUID
	if err := id.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return &id, nil
}
