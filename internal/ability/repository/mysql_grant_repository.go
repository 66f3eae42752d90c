package repository

import (
	"context"
	"database/sql"

	abilityDomain "github.com/caremesh/authcore/internal/ability/domain"
	"github.com/caremesh/authcore/internal/database"
	apperrors "github.com/caremesh/authcore/internal/errors"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// MySQLGrantRepository implements Permission and RoleGrant persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLGrantRepository struct {
	db *sql.DB
}

// CreatePermission inserts a new Permission into the MySQL database using
// BINARY(16) for UUIDs.
func (m *MySQLGrantRepository) CreatePermission(
	ctx context.Context,
	permission *abilityDomain.Permission,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO permissions (id, action, resource_type, category, description, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := permission.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal permission id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		permission.Action,
		permission.ResourceType,
		permission.Category,
		permission.Description,
		permission.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create permission")
	}
	return nil
}

// CreateGrant inserts a new RoleGrant into the MySQL database using BINARY(16)
// for UUIDs.
func (m *MySQLGrantRepository) CreateGrant(ctx context.Context, grant *abilityDomain.RoleGrant) error {
	querier := database.GetTx(ctx, m.db)

	cols, err := marshalGrantColumns(grant)
	if err != nil {
		return err
	}

	id, err := grant.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal grant id")
	}
	permissionID, err := grant.Permission.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal permission id")
	}

	query := `INSERT INTO role_grants (id, role_code, permission_id, granted, conditions, time_window,
			  allowed_weekdays, location_restrictions, data_restrictions, field_allow_list,
			  expires_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		grant.RoleCode,
		permissionID,
		grant.Granted,
		cols.conditions,
		cols.timeWindow,
		cols.allowedWeekdays,
		cols.locationRestrictions,
		cols.dataRestrictions,
		cols.fieldAllowList,
		grant.ExpiresAt,
		grant.CreatedAt,
		grant.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create role grant")
	}
	return nil
}

// ListForRole returns every grant assigned to a role, each joined to its
// permission. Revoked and expired grants are returned too; the compiler decides
// what contributes and what gets reported as an issue.
func (m *MySQLGrantRepository) ListForRole(
	ctx context.Context,
	roleCode identityDomain.RoleCode,
) ([]*abilityDomain.RoleGrant, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT g.id, g.role_code, g.granted, g.conditions, g.time_window, g.allowed_weekdays,
			  g.location_restrictions, g.data_restrictions, g.field_allow_list, g.expires_at,
			  g.created_at, g.updated_at,
			  p.id, p.action, p.resource_type, p.category, p.description, p.created_at
			  FROM role_grants g
			  JOIN permissions p ON p.id = g.permission_id
			  WHERE g.role_code = ?
			  ORDER BY g.created_at ASC`

	rows, err := querier.QueryContext(ctx, query, roleCode)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list role grants")
	}
	defer rows.Close()

	var grants []*abilityDomain.RoleGrant
	for rows.Next() {
		grant, err := scanMySQLGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate role grants")
	}

	return grants, nil
}

// scanMySQLGrant scans a joined grant row, converting BINARY(16) ids back to
// UUIDs before delegating the JSON columns to the shared decoder.
func scanMySQLGrant(rows *sql.Rows) (*abilityDomain.RoleGrant, error) {
	var grant abilityDomain.RoleGrant
	var idBytes, permissionIDBytes []byte
	var conditionsJSON, timeWindowJSON, weekdaysJSON []byte
	var locationJSON, dataJSON, fieldsJSON []byte

	err := rows.Scan(
		&idBytes,
		&grant.RoleCode,
		&grant.Granted,
		&conditionsJSON,
		&timeWindowJSON,
		&weekdaysJSON,
		&locationJSON,
		&dataJSON,
		&fieldsJSON,
		&grant.ExpiresAt,
		&grant.CreatedAt,
		&grant.UpdatedAt,
		&permissionIDBytes,
		&grant.Permission.Action,
		&grant.Permission.ResourceType,
		&grant.Permission.Category,
		&grant.Permission.Description,
		&grant.Permission.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan role grant")
	}

	if err := grant.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal grant id")
	}
	if err := grant.Permission.ID.UnmarshalBinary(permissionIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal permission id")
	}

	if err := decodeGrantJSON(&grant, conditionsJSON, timeWindowJSON, weekdaysJSON,
		locationJSON, dataJSON, fieldsJSON); err != nil {
		return nil, err
	}

	return &grant, nil
}

// NewMySQLGrantRepository creates a new MySQL grant repository.
func NewMySQLGrantRepository(db *sql.DB) *MySQLGrantRepository {
	return &MySQLGrantRepository{db: db}
}
