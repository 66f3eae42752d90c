package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
	"github.com/caremesh/authcore/internal/metrics"
)

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Login records metrics for login operations.
func (a *authUseCaseWithMetrics) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.LoginOutput, error) {
	start := time.Now()
	output, err := a.next.Login(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "login", status)
	a.metrics.RecordDuration(ctx, "auth", "login", time.Since(start), status)

	return output, err
}

// Refresh records metrics for token rotation operations.
func (a *authUseCaseWithMetrics) Refresh(
	ctx context.Context,
	input *authDomain.RefreshInput,
) (*authDomain.LoginOutput, error) {
	start := time.Now()
	output, err := a.next.Refresh(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "refresh", status)
	a.metrics.RecordDuration(ctx, "auth", "refresh", time.Since(start), status)

	return output, err
}

// Verify records metrics for access verification operations.
func (a *authUseCaseWithMetrics) Verify(
	ctx context.Context,
	accessToken string,
) (*authDomain.VerifyOutput, error) {
	start := time.Now()
	output, err := a.next.Verify(ctx, accessToken)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "verify", status)
	a.metrics.RecordDuration(ctx, "auth", "verify", time.Since(start), status)

	return output, err
}

// Logout records metrics for logout operations.
func (a *authUseCaseWithMetrics) Logout(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	start := time.Now()
	revoked, err := a.next.Logout(ctx, sessionID)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "logout", status)
	a.metrics.RecordDuration(ctx, "auth", "logout", time.Since(start), status)

	return revoked, err
}

// LogoutAll records metrics for bulk logout operations.
func (a *authUseCaseWithMetrics) LogoutAll(ctx context.Context, identityID uuid.UUID) (int64, error) {
	start := time.Now()
	count, err := a.next.LogoutAll(ctx, identityID)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "logout_all", status)
	a.metrics.RecordDuration(ctx, "auth", "logout_all", time.Since(start), status)

	return count, err
}

// Authorize records metrics for permission check operations.
func (a *authUseCaseWithMetrics) Authorize(
	ctx context.Context,
	input *authDomain.AuthorizeInput,
) (*authDomain.AuthorizeOutput, error) {
	start := time.Now()
	output, err := a.next.Authorize(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "authorize", status)
	a.metrics.RecordDuration(ctx, "auth", "authorize", time.Since(start), status)

	return output, err
}
