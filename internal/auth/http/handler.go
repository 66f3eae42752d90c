// Package http provides HTTP handlers for authentication operations.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	"github.com/caremesh/authcore/internal/auth/http/dto"
	authUseCase "github.com/caremesh/authcore/internal/auth/usecase"
	apperrors "github.com/caremesh/authcore/internal/errors"
	"github.com/caremesh/authcore/internal/httputil"
	customValidation "github.com/caremesh/authcore/internal/validation"
)

// AuthHandler handles HTTP requests for authentication operations.
// It coordinates login, token rotation, logout, and permission checks with the AuthUseCase.
type AuthHandler struct {
	authUseCase authUseCase.AuthUseCase
	logger      *slog.Logger
}

// NewAuthHandler creates a new authentication handler with required dependencies.
func NewAuthHandler(
	authUC authUseCase.AuthUseCase,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUC,
		logger:      logger,
	}
}

// LoginHandler authenticates an identifier/password pair and establishes a session.
// POST /v1/auth/login - No authentication required (this is the authentication endpoint).
// Returns 200 OK with the token pair, identity, and compiled permission rules.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authDomain.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		Device:     deviceContext(c),
	}

	output, err := h.authUseCase.Login(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapLoginToResponse(output))
}

// RefreshHandler rotates a refresh token into a fresh token pair.
// POST /v1/auth/refresh - No authentication required (the refresh token is the credential).
// Returns 200 OK with the new token pair; the presented refresh token stops working.
func (h *AuthHandler) RefreshHandler(c *gin.Context) {
	var req dto.RefreshRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authDomain.RefreshInput{
		RefreshToken: req.RefreshToken,
		Device:       deviceContext(c),
	}

	output, err := h.authUseCase.Refresh(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapLoginToResponse(output))
}

// LogoutHandler terminates the session backing the presented access token.
// POST /v1/auth/logout - Requires authentication.
// Returns 200 OK; idempotent, revoked=false when the session was already gone.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	session, ok := GetSession(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	revoked, err := h.authUseCase.Logout(c.Request.Context(), session.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.LogoutResponse{Revoked: revoked})
}

// LogoutAllHandler terminates every active session of the calling identity.
// POST /v1/auth/logout-all - Requires authentication.
// Returns 200 OK with the number of sessions revoked.
func (h *AuthHandler) LogoutAllHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	count, err := h.authUseCase.LogoutAll(c.Request.Context(), identity.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.LogoutAllResponse{SessionsRevoked: count})
}

// AuthorizeHandler evaluates one permission check for the calling identity.
// POST /v1/auth/authorize - Requires authentication.
// Returns 200 OK with the verdict; a denial is an ordinary allowed=false, not an error.
func (h *AuthHandler) AuthorizeHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.AuthorizeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authDomain.AuthorizeInput{
		Identity:     identity,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		Resource:     req.Resource,
	}

	output, err := h.authUseCase.Authorize(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.AuthorizeResponse{
		Allowed:          output.Allowed,
		Fields:           output.Fields,
		FieldsRestricted: output.FieldsRestricted,
	})
}

// deviceContext captures the request metadata recorded on sessions.
func deviceContext(c *gin.Context) authDomain.DeviceContext {
	return authDomain.DeviceContext{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}
