package domain

import (
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// Permission is an (action, resource type) pair, optionally grouped under a
// functional category. Immutable once referenced by a grant, except for
// descriptive metadata.
type Permission struct {
	ID           uuid.UUID
	Action       Action
	ResourceType ResourceType
	Category     string // Functional grouping (e.g., "clinical", "administration")
	Description  string
	CreatedAt    time.Time
}

// TimeWindow restricts a grant to a daily time-of-day window. Minutes are
// counted since local midnight; the start is inclusive, the end exclusive.
// A window with StartMinute > EndMinute wraps past midnight.
type TimeWindow struct {
	StartMinute int `json:"start_time"`
	EndMinute   int `json:"end_time"`
}

// Contains reports whether the instant falls inside the window, evaluated in
// the server's local time zone.
func (w TimeWindow) Contains(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	if w.StartMinute <= w.EndMinute {
		return minute >= w.StartMinute && minute < w.EndMinute
	}
	// Overnight window (e.g., 22:00-06:00)
	return minute >= w.StartMinute || minute < w.EndMinute
}

// RoleGrant is the edge from a role to a permission. Grants are logically
// revoked by flipping Granted to false or letting them expire; they are never
// deleted while referenced.
type RoleGrant struct {
	ID         uuid.UUID
	RoleCode   identityDomain.RoleCode
	Permission Permission

	Granted bool

	// Conditions is the stored condition template: field -> literal or
	// "${identity-attribute-path}" placeholder.
	Conditions map[string]any

	// TimeWindow and AllowedWeekdays gate when the grant contributes a rule.
	// They are evaluated at compile time, so a window-restricted grant
	// activates and deactivates across logins, not within one session.
	TimeWindow      *TimeWindow
	AllowedWeekdays []time.Weekday

	// LocationRestrictions are carried through to the compiled rule for the
	// transport layer to enforce (e.g., on-premises IP ranges).
	LocationRestrictions map[string]any

	// DataRestrictions are merged into the resolved condition set.
	DataRestrictions map[string]any

	// FieldAllowList, when present, limits which resource fields a matching
	// rule exposes. Callers project the resource with it rather than using it
	// to decide pass or fail.
	FieldAllowList []string

	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveAt reports whether the grant contributes to a compilation performed at
// the given instant: it must be granted, unexpired, and inside its time-of-day
// and weekday restrictions.
func (g *RoleGrant) ActiveAt(now time.Time) bool {
	if !g.Granted {
		return false
	}
	if g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
		return false
	}
	if g.TimeWindow != nil && !g.TimeWindow.Contains(now) {
		return false
	}
	if len(g.AllowedWeekdays) > 0 {
		weekday := now.Weekday()
		allowed := false
		for _, day := range g.AllowedWeekdays {
			if day == weekday {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	return true
}
