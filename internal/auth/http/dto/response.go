// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	abilityDomain "github.com/caremesh/authcore/internal/ability/domain"
	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// IdentityResponse represents the authenticated identity in API responses.
type IdentityResponse struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	FullName       string  `json:"full_name"`
	RoleCode       string  `json:"role_code"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

// MapIdentityToResponse converts a domain identity to an API response.
func MapIdentityToResponse(identity *identityDomain.Identity) IdentityResponse {
	response := IdentityResponse{
		ID:       identity.ID.String(),
		Email:    identity.Email,
		FullName: identity.FullName,
		RoleCode: string(identity.RoleCode),
	}
	if identity.OrganizationID != nil {
		orgID := identity.OrganizationID.String()
		response.OrganizationID = &orgID
	}
	return response
}

// RuleResponse is one compiled permission rule, shaped for clients that mirror
// the server-side checks in their UI.
type RuleResponse struct {
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	Conditions   map[string]any `json:"conditions,omitempty"`
	Fields       []string       `json:"fields,omitempty"`
}

// MapAbilityToResponse converts a compiled ability to its API representation.
func MapAbilityToResponse(ability abilityDomain.Ability) []RuleResponse {
	rules := make([]RuleResponse, 0, len(ability.Rules))
	for _, rule := range ability.Rules {
		rules = append(rules, RuleResponse{
			Action:       string(rule.Action),
			ResourceType: string(rule.ResourceType),
			Conditions:   rule.Conditions,
			Fields:       rule.Fields,
		})
	}
	return rules
}

// LoginResponse contains the result of a successful login or refresh.
// SECURITY: The tokens are only returned once and must be saved securely.
type LoginResponse struct {
	AccessToken      string           `json:"access_token"`
	AccessExpiresAt  time.Time        `json:"access_expires_at"`
	RefreshToken     string           `json:"refresh_token"`
	RefreshExpiresAt time.Time        `json:"refresh_expires_at"`
	SessionID        string           `json:"session_id"`
	Identity         IdentityResponse `json:"identity"`
	Rules            []RuleResponse   `json:"rules"`
}

// MapLoginToResponse converts a login/refresh result to an API response.
func MapLoginToResponse(output *authDomain.LoginOutput) LoginResponse {
	return LoginResponse{
		AccessToken:      output.Tokens.AccessToken,
		AccessExpiresAt:  output.Tokens.AccessExpiresAt,
		RefreshToken:     output.Tokens.RefreshToken,
		RefreshExpiresAt: output.Tokens.RefreshExpiresAt,
		SessionID:        output.SessionID.String(),
		Identity:         MapIdentityToResponse(output.Identity),
		Rules:            MapAbilityToResponse(output.Ability),
	}
}

// AuthorizeResponse reports the verdict of a permission check. Fields carries
// the permitted resource fields when the matching rules restrict them.
type AuthorizeResponse struct {
	Allowed          bool     `json:"allowed"`
	Fields           []string `json:"fields,omitempty"`
	FieldsRestricted bool     `json:"fields_restricted"`
}

// SessionResponse represents one active session in API responses. Token hashes
// never leave the server.
type SessionResponse struct {
	ID             string    `json:"id"`
	UserAgent      string    `json:"user_agent,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	Current        bool      `json:"current"`
}

// MapSessionToResponse converts a domain session to an API response. currentID
// marks the session backing the calling request.
func MapSessionToResponse(session *authDomain.Session, currentID string) SessionResponse {
	return SessionResponse{
		ID:             session.ID.String(),
		UserAgent:      session.UserAgent,
		IPAddress:      session.IPAddress,
		CreatedAt:      session.CreatedAt,
		LastActivityAt: session.LastActivityAt,
		ExpiresAt:      session.ExpiresAt,
		Current:        session.ID.String() == currentID,
	}
}

// ListSessionsResponse represents the caller's active sessions.
type ListSessionsResponse struct {
	Data []SessionResponse `json:"data"`
}

// MapSessionsToListResponse converts a slice of domain sessions to a list API response.
func MapSessionsToListResponse(sessions []*authDomain.Session, currentID string) ListSessionsResponse {
	sessionResponses := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		sessionResponses = append(sessionResponses, MapSessionToResponse(session, currentID))
	}
	return ListSessionsResponse{
		Data: sessionResponses,
	}
}

// LogoutResponse reports the result of a logout.
type LogoutResponse struct {
	Revoked bool `json:"revoked"`
}

// LogoutAllResponse reports the result of revoking every session.
type LogoutAllResponse struct {
	SessionsRevoked int64 `json:"sessions_revoked"`
}
