package app

import (
	"fmt"

	authService "github.com/caremesh/authcore/internal/auth/service"
	identityRepository "github.com/caremesh/authcore/internal/identity/repository"
	identityUsecase "github.com/caremesh/authcore/internal/identity/usecase"
)

// PasswordService returns the Argon2id password hashing service.
func (c *Container) PasswordService() authService.PasswordService {
	c.passwordServiceInit.Do(func() {
		c.passwordService = authService.NewPasswordService()
	})
	return c.passwordService
}

// IdentityRepository returns the identity repository based on database driver.
func (c *Container) IdentityRepository() (identityUsecase.IdentityRepository, error) {
	var err error
	c.identityRepositoryInit.Do(func() {
		c.identityRepository, err = c.initIdentityRepository()
		if err != nil {
			c.initErrors["identityRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["identityRepository"]; exists {
		return nil, storedErr
	}
	return c.identityRepository, nil
}

// OrganizationRepository returns the organization repository based on database driver.
func (c *Container) OrganizationRepository() (identityUsecase.OrganizationRepository, error) {
	var err error
	c.organizationRepositoryInit.Do(func() {
		c.organizationRepository, err = c.initOrganizationRepository()
		if err != nil {
			c.initErrors["organizationRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["organizationRepository"]; exists {
		return nil, storedErr
	}
	return c.organizationRepository, nil
}

// CredentialRepository returns the credential repository as seen by
// provisioning and password changes, based on database driver.
func (c *Container) CredentialRepository() (identityUsecase.CredentialRepository, error) {
	var err error
	c.credentialRepositoryInit.Do(func() {
		c.credentialRepository, err = c.initCredentialRepository()
		if err != nil {
			c.initErrors["credentialRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialRepository"]; exists {
		return nil, storedErr
	}
	return c.credentialRepository, nil
}

// IdentityUseCase returns the identity lifecycle use case.
func (c *Container) IdentityUseCase() (identityUsecase.IdentityUseCase, error) {
	var err error
	c.identityUseCaseInit.Do(func() {
		c.identityUseCase, err = c.initIdentityUseCase()
		if err != nil {
			c.initErrors["identityUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["identityUseCase"]; exists {
		return nil, storedErr
	}
	return c.identityUseCase, nil
}

// initIdentityRepository creates the identity repository based on the database driver.
func (c *Container) initIdentityRepository() (identityUsecase.IdentityRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for identity repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return identityRepository.NewPostgreSQLIdentityRepository(db), nil
	case "mysql":
		return identityRepository.NewMySQLIdentityRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOrganizationRepository creates the organization repository based on the database driver.
func (c *Container) initOrganizationRepository() (identityUsecase.OrganizationRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for organization repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return identityRepository.NewPostgreSQLOrganizationRepository(db), nil
	case "mysql":
		return identityRepository.NewMySQLOrganizationRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCredentialRepository creates the credential repository based on the database driver.
func (c *Container) initCredentialRepository() (identityUsecase.CredentialRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for credential repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return identityRepository.NewPostgreSQLCredentialRepository(db), nil
	case "mysql":
		return identityRepository.NewMySQLCredentialRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initIdentityUseCase creates the identity use case with all its dependencies.
func (c *Container) initIdentityUseCase() (identityUsecase.IdentityUseCase, error) {
	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for identity use case: %w", err)
	}

	orgRepo, err := c.OrganizationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get organization repository for identity use case: %w", err)
	}

	credentialRepo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for identity use case: %w", err)
	}

	// Password changes and deactivations revoke sessions through the auth
	// session use case.
	sessionUseCase, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for identity use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for identity use case: %w", err)
	}

	return identityUsecase.NewIdentityUseCase(
		identityRepo,
		orgRepo,
		credentialRepo,
		sessionUseCase,
		c.PasswordService(),
		txManager,
		c.Logger(),
	), nil
}
