// Package domain defines identity and credential domain models.
//
// An identity is an authenticated principal (staff member, patient, or service
// account) with at most one role and at most one organizational scope. Credentials
// hold the salted secret hashes and the lockout counters mutated on each
// verification attempt.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoleCode identifies the role assigned to an identity. Roles are a closed set;
// free-form role strings are rejected at the boundary.
type RoleCode string

const (
	// RoleSuperAdmin is the universal administrative role. It bypasses
	// organizational scoping and compiles to a single manage-all rule.
	RoleSuperAdmin RoleCode = "SUPER_ADMIN"

	// RoleHospitalAdmin administers a single hospital.
	RoleHospitalAdmin RoleCode = "HOSPITAL_ADMIN"

	// RoleDoctor is clinical staff with patient-record privileges.
	RoleDoctor RoleCode = "DOCTOR"

	// RoleNurse is clinical staff with restricted patient-record privileges.
	RoleNurse RoleCode = "NURSE"

	// RoleReceptionist handles scheduling and admissions.
	RoleReceptionist RoleCode = "RECEPTIONIST"

	// RoleLabTechnician manages lab orders and results.
	RoleLabTechnician RoleCode = "LAB_TECHNICIAN"

	// RolePharmacist manages medication dispensing.
	RolePharmacist RoleCode = "PHARMACIST"

	// RolePatient is a patient accessing their own records.
	RolePatient RoleCode = "PATIENT"
)

// roleRegistry is the closed set of valid role codes.
var roleRegistry = map[RoleCode]struct{}{
	RoleSuperAdmin:    {},
	RoleHospitalAdmin: {},
	RoleDoctor:        {},
	RoleNurse:         {},
	RoleReceptionist:  {},
	RoleLabTechnician: {},
	RolePharmacist:    {},
	RolePatient:       {},
}

// Valid reports whether the role code is part of the registry.
func (r RoleCode) Valid() bool {
	_, ok := roleRegistry[r]
	return ok
}

// IsSuperAdmin reports whether the role is the universal administrative role.
func (r RoleCode) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

// Identity represents an authenticated principal.
// Identities are deactivated, never physically deleted.
type Identity struct {
	ID             uuid.UUID  // Unique identifier (UUIDv7)
	Email          string     // Login identifier, unique, compared case-insensitively
	FullName       string     // Display name
	RoleCode       RoleCode   // Zero-or-one role assignment (empty when unassigned)
	OrganizationID *uuid.UUID // Organizational scope (nil for unscoped identities)
	IsActive       bool       // Whether the identity can authenticate
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Attribute resolves a typed attribute path against the identity. It backs
// condition-template resolution: "${organizationId}" in a grant condition is
// resolved by calling Attribute("organizationId").
//
// Supported paths: "id", "email", "roleCode", "organizationId".
// The second return value is false for unknown paths and for "organizationId"
// when the identity has no organizational scope.
func (i *Identity) Attribute(path string) (any, bool) {
	switch path {
	case "id":
		return i.ID.String(), true
	case "email":
		return i.Email, true
	case "roleCode":
		return string(i.RoleCode), true
	case "organizationId":
		if i.OrganizationID == nil {
			return nil, false
		}
		return i.OrganizationID.String(), true
	default:
		return nil, false
	}
}

// CreateIdentityInput contains the parameters for provisioning a new identity.
type CreateIdentityInput struct {
	Email          string
	FullName       string
	RoleCode       RoleCode
	OrganizationID *uuid.UUID
	Password       string // Plain initial password; hashed before storage, never persisted
}

// CreateIdentityOutput contains the result of provisioning a new identity.
type CreateIdentityOutput struct {
	ID uuid.UUID
}

// ChangePasswordInput contains the parameters for a password change.
// CurrentPassword is verified before the new secret replaces the old one.
// CurrentSessionID, when set, is the one session spared by the revocation that
// follows a successful change.
type ChangePasswordInput struct {
	IdentityID       uuid.UUID
	CurrentPassword  string
	NewPassword      string
	CurrentSessionID *uuid.UUID
}
