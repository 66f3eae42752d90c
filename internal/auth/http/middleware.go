// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authUseCase "github.com/caremesh/authcore/internal/auth/usecase"
	apperrors "github.com/caremesh/authcore/internal/errors"
	"github.com/caremesh/authcore/internal/httputil"
)

// AuthenticationMiddleware provides authentication via Bearer access token in
// the Authorization header.
//
// The middleware:
// 1. Extracts the Bearer token from the Authorization header (case-insensitive)
// 2. Validates the token, its session, and the identity via AuthUseCase.Verify
// 3. Advances the session's activity timestamp asynchronously (fire-and-forget)
// 4. Stores the identity and session in the request context
// 5. Allows downstream handlers to access them via GetIdentity()/GetSession()
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer")
//
// Error handling:
//   - Missing Authorization header → 401 Unauthorized
//   - Malformed Authorization header → 401 Unauthorized
//   - Invalid/expired token or inactive session → 401 Unauthorized (from Verify)
//   - Deactivated identity or organizational scope → 403 Forbidden (from Verify)
//   - Other errors → 500 Internal Server Error
func AuthenticationMiddleware(
	authUC authUseCase.AuthUseCase,
	sessionUC authUseCase.SessionUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer token (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		plainToken := authHeader[len(bearerPrefix):]
		if plainToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		output, err := authUC.Verify(c.Request.Context(), plainToken)
		if err != nil {
			logger.Debug("authentication failed",
				slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		// Activity tracking never blocks the request.
		sessionUC.Touch(output.Session.ID)

		ctx := WithIdentity(c.Request.Context(), output.Identity)
		ctx = WithSession(ctx, output.Session)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("identity_id", output.Identity.ID.String()),
			slog.String("session_id", output.Session.ID.String()))

		c.Next()
	}
}
