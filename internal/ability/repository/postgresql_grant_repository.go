// Package repository implements persistence for permissions and role grants.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(). Grant conditions, time windows, weekday lists, and
// restriction maps are stored as JSON columns, mirroring how the grants are
// authored.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	abilityDomain "github.com/caremesh/authcore/internal/ability/domain"
	"github.com/caremesh/authcore/internal/database"
	apperrors "github.com/caremesh/authcore/internal/errors"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// PostgreSQLGrantRepository implements Permission and RoleGrant persistence for
// PostgreSQL. Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLGrantRepository struct {
	db *sql.DB
}

// CreatePermission inserts a new Permission into the PostgreSQL database.
func (p *PostgreSQLGrantRepository) CreatePermission(
	ctx context.Context,
	permission *abilityDomain.Permission,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO permissions (id, action, resource_type, category, description, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		permission.ID,
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

// CreateGrant inserts a new RoleGrant into the PostgreSQL database.
func (p *PostgreSQLGrantRepository) CreateGrant(ctx context.Context, grant *abilityDomain.RoleGrant) error {
	querier := database.GetTx(ctx, p.db)

	cols, err := marshalGrantColumns(grant)
	if err != nil {
		return err
	}

	query := `INSERT INTO role_grants (id, role_code, permission_id, granted, conditions, time_window,
			  allowed_weekdays, location_restrictions, data_restrictions, field_allow_list,
			  expires_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = querier.ExecContext(
		ctx,
		query,
		grant.ID,
		grant.RoleCode,
		grant.Permission.ID,
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
func (p *PostgreSQLGrantRepository) ListForRole(
	ctx context.Context,
	roleCode identityDomain.RoleCode,
) ([]*abilityDomain.RoleGrant, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT g.id, g.role_code, g.granted, g.conditions, g.time_window, g.allowed_weekdays,
			  g.location_restrictions, g.data_restrictions, g.field_allow_list, g.expires_at,
			  g.created_at, g.updated_at,
			  p.id, p.action, p.resource_type, p.category, p.description, p.created_at
			  FROM role_grants g
			  JOIN permissions p ON p.id = g.permission_id
			  WHERE g.role_code = $1
			  ORDER BY g.created_at ASC`

	rows, err := querier.QueryContext(ctx, query, roleCode)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list role grants")
	}
	defer rows.Close()

	var grants []*abilityDomain.RoleGrant
	for rows.Next() {
		grant, err := scanGrant(rows)
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

// NewPostgreSQLGrantRepository creates a new PostgreSQL grant repository.
func NewPostgreSQLGrantRepository(db *sql.DB) *PostgreSQLGrantRepository {
	return &PostgreSQLGrantRepository{db: db}
}

// grantColumns holds the JSON-encoded column values of a grant. Optional
// columns stay nil so they land as SQL NULL.
type grantColumns struct {
	conditions           []byte
	timeWindow           []byte
	allowedWeekdays      []byte
	locationRestrictions []byte
	dataRestrictions     []byte
	fieldAllowList       []byte
}

func marshalGrantColumns(grant *abilityDomain.RoleGrant) (*grantColumns, error) {
	var cols grantColumns
	var err error

	cols.conditions, err = json.Marshal(grant.Conditions)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal grant conditions")
	}

	if grant.TimeWindow != nil {
		cols.timeWindow, err = json.Marshal(grant.TimeWindow)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal grant time window")
		}
	}
	if grant.AllowedWeekdays != nil {
		cols.allowedWeekdays, err = json.Marshal(grant.AllowedWeekdays)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal grant weekdays")
		}
	}
	if grant.LocationRestrictions != nil {
		cols.locationRestrictions, err = json.Marshal(grant.LocationRestrictions)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal grant location restrictions")
		}
	}
	if grant.DataRestrictions != nil {
		cols.dataRestrictions, err = json.Marshal(grant.DataRestrictions)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal grant data restrictions")
		}
	}
	if grant.FieldAllowList != nil {
		cols.fieldAllowList, err = json.Marshal(grant.FieldAllowList)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal grant field allow list")
		}
	}

	return &cols, nil
}

// grantScanner abstracts *sql.Row and *sql.Rows for grant scanning.
type grantScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row grantScanner) (*abilityDomain.RoleGrant, error) {
	var grant abilityDomain.RoleGrant
	var conditionsJSON, timeWindowJSON, weekdaysJSON []byte
	var locationJSON, dataJSON, fieldsJSON []byte

	err := row.Scan(
		&grant.ID,
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
		&grant.Permission.ID,
		&grant.Permission.Action,
		&grant.Permission.ResourceType,
		&grant.Permission.Category,
		&grant.Permission.Description,
		&grant.Permission.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to scan role grant")
	}

	if err := decodeGrantJSON(&grant, conditionsJSON, timeWindowJSON, weekdaysJSON,
		locationJSON, dataJSON, fieldsJSON); err != nil {
		return nil, err
	}

	return &grant, nil
}

// decodeGrantJSON fills a grant's optional structured fields from their JSON
// column values. Nil column values stay nil on the grant.
func decodeGrantJSON(
	grant *abilityDomain.RoleGrant,
	conditionsJSON, timeWindowJSON, weekdaysJSON []byte,
	locationJSON, dataJSON, fieldsJSON []byte,
) error {
	if conditionsJSON != nil {
		if err := json.Unmarshal(conditionsJSON, &grant.Conditions); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal grant conditions")
		}
	}
	if timeWindowJSON != nil {
		grant.TimeWindow = &abilityDomain.TimeWindow{}
		if err := json.Unmarshal(timeWindowJSON, grant.TimeWindow); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal grant time window")
		}
	}
	if weekdaysJSON != nil {
		var weekdays []time.Weekday
		if err := json.Unmarshal(weekdaysJSON, &weekdays); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal grant weekdays")
		}
		grant.AllowedWeekdays = weekdays
	}
	if locationJSON != nil {
		if err := json.Unmarshal(locationJSON, &grant.LocationRestrictions); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal grant location restrictions")
		}
	}
	if dataJSON != nil {
		if err := json.Unmarshal(dataJSON, &grant.DataRestrictions); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal grant data restrictions")
		}
	}
	if fieldsJSON != nil {
		if err := json.Unmarshal(fieldsJSON, &grant.FieldAllowList); err != nil {
			return apperrors.Wrap(err, "failed to unmarshal grant field allow list")
		}
	}
	return nil
}
