// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/caremesh/authcore/internal/auth/http"
)

// Server represents the main HTTP API server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// RouterConfig carries the handlers and optional middlewares mounted by
// SetupRouter. Nil middlewares are skipped.
type RouterConfig struct {
	AuthHandler    *authHTTP.AuthHandler
	SessionHandler *authHTTP.SessionHandler

	// AuthMiddleware authenticates bearer tokens on protected routes.
	AuthMiddleware gin.HandlerFunc

	// LoginRateLimitMiddleware throttles the unauthenticated login and refresh
	// endpoints by IP+identifier.
	LoginRateLimitMiddleware gin.HandlerFunc

	// RateLimitMiddleware throttles authenticated routes per identity.
	RateLimitMiddleware gin.HandlerFunc

	// CORSEnabled and CORSAllowOrigins configure the CORS policy. No
	// middleware is mounted when disabled or no origins are configured.
	CORSEnabled      bool
	CORSAllowOrigins string

	// MetricsMiddleware records request counts and durations.
	MetricsMiddleware gin.HandlerFunc
}

// NewServer creates a new HTTP server. The database handle backs the readiness
// probe and may be nil in tests.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the full API router: base middleware chain, health
// probes, and the authentication routes.
func (s *Server) SetupRouter(rc RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if rc.MetricsMiddleware != nil {
		router.Use(rc.MetricsMiddleware)
	}
	if corsMiddleware := createCORSMiddleware(rc.CORSEnabled, rc.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1/auth")

	// Unauthenticated entry points: the credentials themselves are the auth.
	public := v1.Group("")
	if rc.LoginRateLimitMiddleware != nil {
		public.Use(rc.LoginRateLimitMiddleware)
	}
	public.POST("/login", rc.AuthHandler.LoginHandler)
	public.POST("/refresh", rc.AuthHandler.RefreshHandler)

	// Everything else requires a verified access token.
	protected := v1.Group("")
	protected.Use(rc.AuthMiddleware)
	if rc.RateLimitMiddleware != nil {
		protected.Use(rc.RateLimitMiddleware)
	}
	protected.POST("/logout", rc.AuthHandler.LogoutHandler)
	protected.POST("/logout-all", rc.AuthHandler.LogoutAllHandler)
	protected.POST("/authorize", rc.AuthHandler.AuthorizeHandler)
	protected.GET("/sessions", rc.SessionHandler.ListSessionsHandler)
	protected.DELETE("/sessions/:session_id", rc.SessionHandler.RevokeSessionHandler)

	s.router = router
}

// GetHandler returns the configured router, or nil before SetupRouter runs.
// Integration tests mount it on an httptest.Server.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can do useful work. The database
// is the only hard dependency.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	ready := s.db != nil
	if ready {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			ready = false
		}
	}

	if !ready {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// Start starts the HTTP server. SetupRouter must have been called first unless
// a router was injected by tests.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
