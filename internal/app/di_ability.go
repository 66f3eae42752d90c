package app

import (
	"fmt"

	abilityRepository "github.com/caremesh/authcore/internal/ability/repository"
	abilityUsecase "github.com/caremesh/authcore/internal/ability/usecase"
)

// GrantRepository returns the role grant repository based on database driver.
func (c *Container) GrantRepository() (abilityUsecase.GrantRepository, error) {
	var err error
	c.grantRepositoryInit.Do(func() {
		c.grantRepository, err = c.initGrantRepository()
		if err != nil {
			c.initErrors["grantRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["grantRepository"]; exists {
		return nil, storedErr
	}
	return c.grantRepository, nil
}

// AbilityUseCase returns the ability compilation use case.
func (c *Container) AbilityUseCase() (abilityUsecase.AbilityUseCase, error) {
	var err error
	c.abilityUseCaseInit.Do(func() {
		c.abilityUseCase, err = c.initAbilityUseCase()
		if err != nil {
			c.initErrors["abilityUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["abilityUseCase"]; exists {
		return nil, storedErr
	}
	return c.abilityUseCase, nil
}

// initGrantRepository creates the grant repository based on the database driver.
func (c *Container) initGrantRepository() (abilityUsecase.GrantRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for grant repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return abilityRepository.NewPostgreSQLGrantRepository(db), nil
	case "mysql":
		return abilityRepository.NewMySQLGrantRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAbilityUseCase creates the ability use case with all its dependencies.
func (c *Container) initAbilityUseCase() (abilityUsecase.AbilityUseCase, error) {
	grantRepo, err := c.GrantRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get grant repository for ability use case: %w", err)
	}

	return abilityUsecase.NewAbilityUseCase(grantRepo, c.Logger()), nil
}
