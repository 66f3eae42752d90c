// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/caremesh/authcore/internal/validation"
)

// LoginRequest contains the credentials presented for authentication.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Validate checks if the login request is valid.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Identifier,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Password,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// RefreshRequest contains a refresh token presented for rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate checks if the refresh request is valid.
func (r *RefreshRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// AuthorizeRequest is one permission check: can the caller perform the action
// on the resource type, optionally against a concrete resource instance.
type AuthorizeRequest struct {
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	Resource     map[string]any `json:"resource,omitempty"`
}

// Validate checks if the authorize request is valid. Action and resource type
// values are validated against the closed registries by the use case.
func (r *AuthorizeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Action,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.ResourceType,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
