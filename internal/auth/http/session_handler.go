// Package http provides HTTP handlers for authentication operations.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	"github.com/caremesh/authcore/internal/auth/http/dto"
	authUseCase "github.com/caremesh/authcore/internal/auth/usecase"
	apperrors "github.com/caremesh/authcore/internal/errors"
	"github.com/caremesh/authcore/internal/httputil"
)

// SessionHandler handles HTTP requests for the caller's session inventory.
// It lets clients implement "log out other devices" style screens.
type SessionHandler struct {
	sessionUseCase authUseCase.SessionUseCase
	logger         *slog.Logger
}

// NewSessionHandler creates a new session handler with required dependencies.
func NewSessionHandler(
	sessionUC authUseCase.SessionUseCase,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessionUseCase: sessionUC,
		logger:         logger,
	}
}

// ListSessionsHandler returns the calling identity's active sessions, oldest
// activity first. The session backing this request is flagged as current.
// GET /v1/auth/sessions - Requires authentication.
func (h *SessionHandler) ListSessionsHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	currentID := ""
	if session, ok := GetSession(c.Request.Context()); ok {
		currentID = session.ID.String()
	}

	sessions, err := h.sessionUseCase.ListActive(c.Request.Context(), identity.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSessionsToListResponse(sessions, currentID))
}

// RevokeSessionHandler terminates one of the calling identity's sessions.
// DELETE /v1/auth/sessions/:session_id - Requires authentication.
//
// Only the caller's own sessions are reachable: the ID is checked against the
// identity's active session list before revocation, so a foreign session ID
// reads as not found.
func (h *SessionHandler) RevokeSessionHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			apperrors.Wrap(apperrors.ErrInvalidInput, "session_id must be a valid UUID"),
			h.logger)
		return
	}

	sessions, err := h.sessionUseCase.ListActive(c.Request.Context(), identity.ID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	owned := false
	for _, session := range sessions {
		if session.ID == sessionID {
			owned = true
			break
		}
	}
	if !owned {
		httputil.HandleErrorGin(c, authDomain.ErrSessionNotFound, h.logger)
		return
	}

	revoked, err := h.sessionUseCase.Revoke(
		c.Request.Context(), sessionID, authDomain.TerminationLogout,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.LogoutResponse{Revoked: revoked})
}
