// Package mocks provides test doubles for the database package.
package mocks

import (
	"context"
	"testing"
)

// MockTxManager is a TxManager test double that runs transactional callbacks
// inline without a database connection.
type MockTxManager struct {
	// Calls counts how many transactions were opened.
	Calls int

	// Err, when set, is returned instead of running the callback.
	Err error
}

// WithTx runs fn with the given context. There is no real transaction; the
// callback's error is returned as-is.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx)
}

// NewMockTxManager creates a MockTxManager.
func NewMockTxManager(t *testing.T) *MockTxManager {
	t.Helper()
	return &MockTxManager{}
}
