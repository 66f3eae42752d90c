package domain

import (
	"github.com/google/uuid"

	abilityDomain "github.com/caremesh/authcore/internal/ability/domain"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// LoginInput carries the credentials and device context of a login attempt.
type LoginInput struct {
	Identifier string // Email, compared case-insensitively
	Password   string
	Device     DeviceContext
}

// LoginOutput is the result of a successful login or refresh: the identity,
// the session that was established, the plain token pair (returned exactly
// once), and the ability compiled for this authentication.
type LoginOutput struct {
	Identity  *identityDomain.Identity
	SessionID uuid.UUID
	Tokens    *TokenPair
	Ability   abilityDomain.Ability
}

// RefreshInput carries a refresh token presented for rotation.
type RefreshInput struct {
	RefreshToken string
	Device       DeviceContext
}

// VerifyOutput is the result of validating an access token against its session.
type VerifyOutput struct {
	Identity *identityDomain.Identity
	Session  *Session
	Claims   *AccessClaims
}

// AuthorizeInput is a single permission check for an authenticated identity.
// Resource carries the attributes of the concrete instance under check; leave
// it nil for type-level checks.
type AuthorizeInput struct {
	Identity     *identityDomain.Identity
	Action       string
	ResourceType string
	Resource     map[string]any
}

// AuthorizeOutput reports the verdict of a permission check. Fields lists the
// permitted resource fields when FieldsRestricted is true; an unrestricted
// verdict leaves Fields nil.
type AuthorizeOutput struct {
	Allowed          bool
	Fields           []string
	FieldsRestricted bool
}
