// Package usecase implements business logic orchestration for ability compilation.
package usecase

import (
	"context"
	"log/slog"
	"time"

	abilityDomain "github.com/caremesh/authcore/internal/ability/domain"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// abilityUseCase implements AbilityUseCase.
type abilityUseCase struct {
	grantRepo GrantRepository
	logger    *slog.Logger
	now       func() time.Time
}

// CompileForIdentity fetches the identity's role grants and compiles them into
// an Ability at the current instant.
//
// Compilation is deliberately tolerant: a grant with a malformed condition
// template or an unresolvable attribute reference is skipped and logged as a
// warning while the remaining grants still contribute. Only a repository
// failure aborts the whole compilation.
func (a *abilityUseCase) CompileForIdentity(
	ctx context.Context,
	identity *identityDomain.Identity,
) (abilityDomain.Ability, error) {
	// The universal administrative role compiles without fetching grants.
	if identity.RoleCode.IsSuperAdmin() {
		ability, _ := abilityDomain.Compile(identity, nil, a.now())
		return ability, nil
	}

	grants, err := a.grantRepo.ListForRole(ctx, identity.RoleCode)
	if err != nil {
		return abilityDomain.Ability{}, err
	}

	roleGrants := make([]abilityDomain.RoleGrant, 0, len(grants))
	for _, grant := range grants {
		roleGrants = append(roleGrants, *grant)
	}

	ability, issues := abilityDomain.Compile(identity, roleGrants, a.now())
	for _, issue := range issues {
		a.logger.Warn("skipped role grant during ability compilation",
			slog.String("grant_id", issue.GrantID.String()),
			slog.String("identity_id", identity.ID.String()),
			slog.String("role_code", string(identity.RoleCode)),
			slog.Any("error", issue.Err),
		)
	}

	return ability, nil
}

// NewAbilityUseCase creates a new AbilityUseCase with the provided dependencies.
func NewAbilityUseCase(grantRepo GrantRepository, logger *slog.Logger) AbilityUseCase {
	// Local time, not UTC: grant time windows are authored against the
	// hospital's wall clock.
	return &abilityUseCase{
		grantRepo: grantRepo,
		logger:    logger,
		now:       time.Now,
	}
}
