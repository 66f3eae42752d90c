package domain

import (
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// TokenPair is the result of issuing or rotating tokens. The plain tokens are
// returned to the caller exactly once; only their hashes are persisted.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AccessClaims are the verified claims of an access token.
type AccessClaims struct {
	IdentityID     uuid.UUID
	RoleCode       identityDomain.RoleCode
	OrganizationID *uuid.UUID
	ChainID        uuid.UUID // Session correlation id
	ExpiresAt      time.Time
}

// RefreshClaims are the verified claims of a refresh token. Refresh tokens
// deliberately carry no role or scope: conditions may have changed since the
// original login and are recompiled on rotation.
type RefreshClaims struct {
	IdentityID uuid.UUID
	ChainID    uuid.UUID
	ExpiresAt  time.Time
}
