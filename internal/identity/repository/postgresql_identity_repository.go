// Package repository implements data persistence for identities, credentials,
// and organizations.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(). PostgreSQL uses native UUID types, MySQL uses BINARY(16)
// types. Lockout counters are mutated with atomic SQL increments so concurrent
// failed attempts never lose updates.
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

// PostgreSQLIdentityRepository implements Identity persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLIdentityRepository struct {
	db *sql.DB
}

// Create inserts a new Identity into the PostgreSQL database.
func (p *PostgreSQLIdentityRepository) Create(ctx context.Context, identity *identityDomain.Identity) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO identities (id, email, full_name, role_code, organization_id, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		identity.ID,
		identity.Email,
		identity.FullName,
		identity.RoleCode,
		identity.OrganizationID,
		identity.IsActive,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create identity")
	}
	return nil
}

// Update modifies an existing Identity in the PostgreSQL database.
func (p *PostgreSQLIdentityRepository) Update(ctx context.Context, identity *identityDomain.Identity) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE identities
			  SET email = $1,
			  	  full_name = $2,
				  role_code = $3,
				  organization_id = $4,
				  is_active = $5,
				  updated_at = $6
			  WHERE id = $7`

	_, err := querier.ExecContext(
		ctx,
		query,
		identity.Email,
		identity.FullName,
		identity.RoleCode,
		identity.OrganizationID,
		identity.IsActive,
		identity.UpdatedAt,
		identity.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update identity")
	}

	return nil
}

// Get retrieves an Identity by ID from the PostgreSQL database.
// Returns ErrIdentityNotFound if the identity doesn't exist.
func (p *PostgreSQLIdentityRepository) Get(
	ctx context.Context,
	identityID uuid.UUID,
) (*identityDomain.Identity, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, full_name, role_code, organization_id, is_active, created_at, updated_at
			  FROM identities WHERE id = $1`

	var identity identityDomain.Identity

	err := querier.QueryRowContext(ctx, query, identityID).Scan(
		&identity.ID,
		&identity.Email,
		&identity.FullName,
		&identity.RoleCode,
		&identity.OrganizationID,
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

	return &identity, nil
}

// GetByEmail retrieves an Identity by email from the PostgreSQL database.
// Emails are compared case-insensitively. Returns ErrIdentityNotFound if no
// identity matches.
func (p *PostgreSQLIdentityRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*identityDomain.Identity, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, full_name, role_code, organization_id, is_active, created_at, updated_at
			  FROM identities WHERE lower(email) = lower($1)`

	var identity identityDomain.Identity

	err := querier.QueryRowContext(ctx, query, email).Scan(
		&identity.ID,
		&identity.Email,
		&identity.FullName,
		&identity.RoleCode,
		&identity.OrganizationID,
		&identity.IsActive,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get identity by email")
	}

	return &identity, nil
}

// NewPostgreSQLIdentityRepository creates a new PostgreSQL Identity repository.
func NewPostgreSQLIdentityRepository(db *sql.DB) *PostgreSQLIdentityRepository {
	return &PostgreSQLIdentityRepository{db: db}
}

// PostgreSQLOrganizationRepository implements Organization persistence for PostgreSQL.
type PostgreSQLOrganizationRepository struct {
	db *sql.DB
}

// Create inserts a new Organization into the PostgreSQL database.
func (p *PostgreSQLOrganizationRepository) Create(ctx context.Context, org *identityDomain.Organization) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO organizations (id, name, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(ctx, query, org.ID, org.Name, org.IsActive, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create organization")
	}
	return nil
}

// Get retrieves an Organization by ID from the PostgreSQL database.
// Returns ErrOrganizationNotFound if the organization doesn't exist.
func (p *PostgreSQLOrganizationRepository) Get(
	ctx context.Context,
	organizationID uuid.UUID,
) (*identityDomain.Organization, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, is_active, created_at, updated_at FROM organizations WHERE id = $1`

	var org identityDomain.Organization

	err := querier.QueryRowContext(ctx, query, organizationID).Scan(
		&org.ID,
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

	return &org, nil
}

// NewPostgreSQLOrganizationRepository creates a new PostgreSQL Organization repository.
func NewPostgreSQLOrganizationRepository(db *sql.DB) *PostgreSQLOrganizationRepository {
	return &PostgreSQLOrganizationRepository{db: db}
}
