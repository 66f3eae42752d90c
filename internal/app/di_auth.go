package app

import (
	"fmt"

	authHTTP "github.com/caremesh/authcore/internal/auth/http"
	authRepository "github.com/caremesh/authcore/internal/auth/repository"
	authService "github.com/caremesh/authcore/internal/auth/service"
	authUsecase "github.com/caremesh/authcore/internal/auth/usecase"
	identityRepository "github.com/caremesh/authcore/internal/identity/repository"
)

// TokenService returns the token signing service. The signing keys are derived
// from the configured master key on first access.
func (c *Container) TokenService() (authService.TokenService, error) {
	var err error
	c.tokenServiceInit.Do(func() {
		c.tokenService, err = authService.NewTokenService(
			c.config.TokenSigningKey,
			c.config.TokenIssuer,
			c.config.AccessTokenExpiration,
			c.config.RefreshTokenExpiration,
		)
		if err != nil {
			c.initErrors["tokenService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenService"]; exists {
		return nil, storedErr
	}
	return c.tokenService, nil
}

// AuthCredentialRepository returns the credential repository as seen by
// verification and lockout, based on database driver.
func (c *Container) AuthCredentialRepository() (authUsecase.CredentialRepository, error) {
	var err error
	c.authCredentialRepositoryInit.Do(func() {
		c.authCredentialRepository, err = c.initAuthCredentialRepository()
		if err != nil {
			c.initErrors["authCredentialRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authCredentialRepository"]; exists {
		return nil, storedErr
	}
	return c.authCredentialRepository, nil
}

// SessionRepository returns the session repository based on database driver.
func (c *Container) SessionRepository() (authUsecase.SessionRepository, error) {
	var err error
	c.sessionRepositoryInit.Do(func() {
		c.sessionRepository, err = c.initSessionRepository()
		if err != nil {
			c.initErrors["sessionRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionRepository"]; exists {
		return nil, storedErr
	}
	return c.sessionRepository, nil
}

// CredentialVerifier returns the credential verifier with the configured
// lockout policy.
func (c *Container) CredentialVerifier() (authUsecase.CredentialVerifier, error) {
	var err error
	c.credentialVerifierInit.Do(func() {
		c.credentialVerifier, err = c.initCredentialVerifier()
		if err != nil {
			c.initErrors["credentialVerifier"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialVerifier"]; exists {
		return nil, storedErr
	}
	return c.credentialVerifier, nil
}

// SessionUseCase returns the session lifecycle use case.
func (c *Container) SessionUseCase() (authUsecase.SessionUseCase, error) {
	var err error
	c.sessionUseCaseInit.Do(func() {
		c.sessionUseCase, err = c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUseCase, nil
}

// AuthUseCase returns the authentication use case.
func (c *Container) AuthUseCase() (authUsecase.AuthUseCase, error) {
	var err error
	c.authUseCaseInit.Do(func() {
		c.authUseCase, err = c.initAuthUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authUseCase"]; exists {
		return nil, storedErr
	}
	return c.authUseCase, nil
}

// AuthHandler returns the HTTP handler for authentication operations.
func (c *Container) AuthHandler() (*authHTTP.AuthHandler, error) {
	var err error
	c.authHandlerInit.Do(func() {
		c.authHandler, err = c.initAuthHandler()
		if err != nil {
			c.initErrors["authHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authHandler"]; exists {
		return nil, storedErr
	}
	return c.authHandler, nil
}

// SessionHandler returns the HTTP handler for session management operations.
func (c *Container) SessionHandler() (*authHTTP.SessionHandler, error) {
	var err error
	c.sessionHandlerInit.Do(func() {
		c.sessionHandler, err = c.initSessionHandler()
		if err != nil {
			c.initErrors["sessionHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionHandler"]; exists {
		return nil, storedErr
	}
	return c.sessionHandler, nil
}

// initAuthCredentialRepository creates the credential repository based on the database driver.
func (c *Container) initAuthCredentialRepository() (authUsecase.CredentialRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for auth credential repository: %w", err)
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

// initSessionRepository creates the session repository based on the database driver.
func (c *Container) initSessionRepository() (authUsecase.SessionRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for session repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return authRepository.NewPostgreSQLSessionRepository(db), nil
	case "mysql":
		return authRepository.NewMySQLSessionRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCredentialVerifier creates the credential verifier with all its dependencies.
func (c *Container) initCredentialVerifier() (authUsecase.CredentialVerifier, error) {
	credentialRepo, err := c.AuthCredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for credential verifier: %w", err)
	}

	return authUsecase.NewCredentialVerifier(
		c.config,
		credentialRepo,
		c.PasswordService(),
		c.Logger(),
	), nil
}

// initSessionUseCase creates the session use case with all its dependencies.
func (c *Container) initSessionUseCase() (authUsecase.SessionUseCase, error) {
	sessionRepo, err := c.SessionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get session repository for session use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for session use case: %w", err)
	}

	tokenService, err := c.TokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get token service for session use case: %w", err)
	}

	return authUsecase.NewSessionUseCase(
		c.config,
		sessionRepo,
		txManager,
		tokenService.HashToken,
		c.Logger(),
	), nil
}

// initAuthUseCase creates the authentication use case with all its dependencies.
func (c *Container) initAuthUseCase() (authUsecase.AuthUseCase, error) {
	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for auth use case: %w", err)
	}

	orgRepo, err := c.OrganizationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get organization repository for auth use case: %w", err)
	}

	sessionRepo, err := c.SessionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get session repository for auth use case: %w", err)
	}

	verifier, err := c.CredentialVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential verifier for auth use case: %w", err)
	}

	sessionUseCase, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for auth use case: %w", err)
	}

	tokenService, err := c.TokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get token service for auth use case: %w", err)
	}

	abilityUseCase, err := c.AbilityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get ability use case for auth use case: %w", err)
	}

	baseUseCase := authUsecase.NewAuthUseCase(
		identityRepo,
		orgRepo,
		sessionRepo,
		verifier,
		sessionUseCase,
		tokenService,
		abilityUseCase,
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for auth use case: %w", err)
		}
		return authUsecase.NewAuthUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuthHandler creates the authentication HTTP handler with all its dependencies.
func (c *Container) initAuthHandler() (*authHTTP.AuthHandler, error) {
	authUseCase, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for auth handler: %w", err)
	}

	return authHTTP.NewAuthHandler(authUseCase, c.Logger()), nil
}

// initSessionHandler creates the session HTTP handler with all its dependencies.
func (c *Container) initSessionHandler() (*authHTTP.SessionHandler, error) {
	sessionUseCase, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for session handler: %w", err)
	}

	return authHTTP.NewSessionHandler(sessionUseCase, c.Logger()), nil
}
