package domain

import (
	"github.com/caremesh/authcore/internal/errors"
)

// Identity and credential errors.
var (
	// ErrIdentityNotFound indicates an identity with the specified ID was not found.
	ErrIdentityNotFound = errors.Wrap(errors.ErrNotFound, "identity not found")

	// ErrCredentialNotFound indicates no active credential matches the identifier.
	ErrCredentialNotFound = errors.Wrap(errors.ErrNotFound, "credential not found")

	// ErrEmailAlreadyExists indicates the email is already registered.
	ErrEmailAlreadyExists = errors.Wrap(errors.ErrConflict, "email already registered")

	// ErrInvalidRole indicates the role code is not part of the registry.
	ErrInvalidRole = errors.Wrap(errors.ErrInvalidInput, "invalid role code")

	// ErrOrganizationNotFound indicates an organization with the specified ID was not found.
	ErrOrganizationNotFound = errors.Wrap(errors.ErrNotFound, "organization not found")
)
