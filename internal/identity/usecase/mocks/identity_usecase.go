// Package mocks provides mock implementations for testing identity consumers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// MockIdentityUseCase is a mock implementation of IdentityUseCase for testing.
type MockIdentityUseCase struct {
	mock.Mock
}

// Create mocks the Create method of IdentityUseCase.
func (m *MockIdentityUseCase) Create(
	ctx context.Context,
	input *identityDomain.CreateIdentityInput,
) (*identityDomain.CreateIdentityOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.CreateIdentityOutput), args.Error(1)
}

// Get mocks the Get method of IdentityUseCase.
func (m *MockIdentityUseCase) Get(
	ctx context.Context,
	identityID uuid.UUID,
) (*identityDomain.Identity, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Identity), args.Error(1)
}

// Deactivate mocks the Deactivate method of IdentityUseCase.
func (m *MockIdentityUseCase) Deactivate(ctx context.Context, identityID uuid.UUID) error {
	args := m.Called(ctx, identityID)
	return args.Error(0)
}

// ChangePassword mocks the ChangePassword method of IdentityUseCase.
func (m *MockIdentityUseCase) ChangePassword(
	ctx context.Context,
	input *identityDomain.ChangePasswordInput,
) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}
