// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/caremesh/authcore/internal/auth/domain"
)

// MockSessionUseCase is a mock implementation of SessionUseCase for testing.
type MockSessionUseCase struct {
	mock.Mock
}

// Establish mocks the Establish method of SessionUseCase.
func (m *MockSessionUseCase) Establish(
	ctx context.Context,
	identityID uuid.UUID,
	chainID uuid.UUID,
	tokens *authDomain.TokenPair,
	device authDomain.DeviceContext,
) (*authDomain.Session, error) {
	args := m.Called(ctx, identityID, chainID, tokens, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Session), args.Error(1)
}

// Rotate mocks the Rotate method of SessionUseCase.
func (m *MockSessionUseCase) Rotate(
	ctx context.Context,
	current *authDomain.Session,
	tokens *authDomain.TokenPair,
	device authDomain.DeviceContext,
) (*authDomain.Session, error) {
	args := m.Called(ctx, current, tokens, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Session), args.Error(1)
}

// Touch mocks the Touch method of SessionUseCase.
func (m *MockSessionUseCase) Touch(sessionID uuid.UUID) {
	m.Called(sessionID)
}

// ListActive mocks the ListActive method of SessionUseCase.
func (m *MockSessionUseCase) ListActive(
	ctx context.Context,
	identityID uuid.UUID,
) ([]*authDomain.Session, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.Session), args.Error(1)
}

// Revoke mocks the Revoke method of SessionUseCase.
func (m *MockSessionUseCase) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	reason authDomain.TerminationReason,
) (bool, error) {
	args := m.Called(ctx, sessionID, reason)
	return args.Bool(0), args.Error(1)
}

// RevokeAllForIdentity mocks the RevokeAllForIdentity method of SessionUseCase.
func (m *MockSessionUseCase) RevokeAllForIdentity(
	ctx context.Context,
	identityID uuid.UUID,
	except *uuid.UUID,
	reason authDomain.TerminationReason,
) (int64, error) {
	args := m.Called(ctx, identityID, except, reason)
	return args.Get(0).(int64), args.Error(1)
}

// CleanupExpired mocks the CleanupExpired method of SessionUseCase.
func (m *MockSessionUseCase) CleanupExpired(
	ctx context.Context,
	retention time.Duration,
) (int64, int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}
