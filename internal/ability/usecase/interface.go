// Package usecase defines business logic interfaces for ability compilation.
package usecase

import (
	"context"

	abilityDomain "github.com/caremesh/authcore/internal/ability/domain"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// GrantRepository defines persistence operations for role grants.
// Implementations must support transaction-aware operations via context propagation.
type GrantRepository interface {
	// CreatePermission stores a new permission in the repository.
	CreatePermission(ctx context.Context, permission *abilityDomain.Permission) error

	// CreateGrant stores a new role grant in the repository.
	CreateGrant(ctx context.Context, grant *abilityDomain.RoleGrant) error

	// ListForRole returns every grant assigned to a role joined to its
	// permission, including revoked and expired grants.
	ListForRole(
		ctx context.Context,
		roleCode identityDomain.RoleCode,
	) ([]*abilityDomain.RoleGrant, error)
}

// AbilityUseCase defines business logic operations for compiling an identity's
// grants into an immutable ability.
type AbilityUseCase interface {
	// CompileForIdentity fetches the identity's role grants and folds them into
	// an Ability. Grants that fail to compile are skipped and reported in the
	// log; a bad grant never blocks authentication.
	CompileForIdentity(
		ctx context.Context,
		identity *identityDomain.Identity,
	) (abilityDomain.Ability, error)
}
