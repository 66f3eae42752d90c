package domain

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the organizational scope (a hospital) identities belong to.
// Deactivating an organization invalidates every scoped login and token check
// against it without touching the identities themselves.
type Organization struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
