// Package domain defines the authorization rule model and its compilation.
//
// A role grant connects a role to an (action, resource type) permission and may
// carry a condition template, time/day windows, restriction maps, and an expiry.
// Compiling an identity's grants yields an Ability: an immutable list of allow
// rules evaluated against a requested action, resource type, and resource
// instance. There is no deny rule; absence of a matching rule is a denial.
package domain

import (
	"github.com/caremesh/authcore/internal/errors"
)

// Action is the closed enumeration of operations a rule can allow.
// Free-form action strings are rejected at the boundary so a typo cannot
// silently create a dead rule.
type Action string

const (
	// ActionCreate allows creating a resource.
	ActionCreate Action = "create"

	// ActionRead allows reading a resource.
	ActionRead Action = "read"

	// ActionUpdate allows modifying a resource.
	ActionUpdate Action = "update"

	// ActionDelete allows removing a resource.
	ActionDelete Action = "delete"

	// ActionManage is the wildcard action: it matches every other action.
	ActionManage Action = "manage"
)

// actionRegistry is the closed set of valid actions.
var actionRegistry = map[Action]struct{}{
	ActionCreate: {},
	ActionRead:   {},
	ActionUpdate: {},
	ActionDelete: {},
	ActionManage: {},
}

// Valid reports whether the action is part of the registry.
func (a Action) Valid() bool {
	_, ok := actionRegistry[a]
	return ok
}

// Matches reports whether a rule carrying this action allows the requested one.
// The manage wildcard matches all actions.
func (a Action) Matches(requested Action) bool {
	return a == ActionManage || a == requested
}

// ParseAction validates a raw action string against the registry.
func ParseAction(raw string) (Action, error) {
	action := Action(raw)
	if !action.Valid() {
		return "", errors.Wrapf(errors.ErrInvalidInput, "unknown action %q", raw)
	}
	return action, nil
}

// ResourceType is the closed enumeration of resource types a rule can target.
type ResourceType string

const (
	// ResourceAll is the wildcard resource type: it matches every type.
	ResourceAll ResourceType = "all"

	ResourcePatient       ResourceType = "Patient"
	ResourceStaff         ResourceType = "Staff"
	ResourceDepartment    ResourceType = "Department"
	ResourceAppointment   ResourceType = "Appointment"
	ResourceMedicalRecord ResourceType = "MedicalRecord"
	ResourcePrescription  ResourceType = "Prescription"
	ResourceLabResult     ResourceType = "LabResult"
	ResourceHospital      ResourceType = "Hospital"
)

// resourceRegistry is the closed set of valid resource types.
var resourceRegistry = map[ResourceType]struct{}{
	ResourceAll:           {},
	ResourcePatient:       {},
	ResourceStaff:         {},
	ResourceDepartment:    {},
	ResourceAppointment:   {},
	ResourceMedicalRecord: {},
	ResourcePrescription:  {},
	ResourceLabResult:     {},
	ResourceHospital:      {},
}

// Valid reports whether the resource type is part of the registry.
func (r ResourceType) Valid() bool {
	_, ok := resourceRegistry[r]
	return ok
}

// Matches reports whether a rule carrying this type allows the requested one.
// The "all" wildcard matches every type.
func (r ResourceType) Matches(requested ResourceType) bool {
	return r == ResourceAll || r == requested
}

// ParseResourceType validates a raw resource type string against the registry.
func ParseResourceType(raw string) (ResourceType, error) {
	resource := ResourceType(raw)
	if !resource.Valid() {
		return "", errors.Wrapf(errors.ErrInvalidInput, "unknown resource type %q", raw)
	}
	return resource, nil
}

// ScopeConditionKey is the condition key that pins a rule to an organizational
// scope. Compilation injects it for every non-administrative identity whose
// resolved conditions do not already carry it.
const ScopeConditionKey = "organizationId"
