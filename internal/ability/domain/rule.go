package domain

import (
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/caremesh/authcore/internal/identity/domain"
)

// Rule is one compiled allow rule: an action and resource type plus the fully
// resolved condition set a resource instance must satisfy.
type Rule struct {
	Action       Action
	ResourceType ResourceType

	// Conditions maps resource field names to required values. Every key must
	// equal the corresponding field on the checked resource instance.
	Conditions map[string]any

	// Fields, when non-nil, is the explicit field allow-list callers use to
	// project the resource before returning it.
	Fields []string

	// LocationRestrictions are passed through from the grant for the transport
	// layer; Matches does not evaluate them.
	LocationRestrictions map[string]any
}

// Matches reports whether the rule allows the requested action on the given
// resource instance. A nil instance satisfies only unconditional rules.
func (r Rule) Matches(action Action, resourceType ResourceType, instance map[string]any) bool {
	if !r.Action.Matches(action) || !r.ResourceType.Matches(resourceType) {
		return false
	}
	for field, want := range r.Conditions {
		got, ok := instance[field]
		if !ok || !equalValues(want, got) {
			return false
		}
	}
	return true
}

// Ability is the compiled, identity-specific set of allow rules used at
// authorization time. It is immutable and safe for concurrent use.
type Ability struct {
	Rules []Rule
}

// Can reports whether at least one rule allows the action on the resource.
// It never fails: absence of a match is an ordinary false.
func (a Ability) Can(action Action, resourceType ResourceType, instance map[string]any) bool {
	for _, rule := range a.Rules {
		if rule.Matches(action, resourceType, instance) {
			return true
		}
	}
	return false
}

// PermittedFields returns the union of field allow-lists across the rules
// matching the request. The second return value is false when no matching rule
// restricts fields, meaning the whole resource may be returned.
func (a Ability) PermittedFields(
	action Action,
	resourceType ResourceType,
	instance map[string]any,
) ([]string, bool) {
	var fields []string
	restricted := false
	for _, rule := range a.Rules {
		if !rule.Matches(action, resourceType, instance) {
			continue
		}
		if rule.Fields == nil {
			// A matching rule without an allow-list grants the whole
			// resource; no union of restricted rules can narrow that.
			return nil, false
		}
		restricted = true
		for _, field := range rule.Fields {
			if !slices.Contains(fields, field) {
				fields = append(fields, field)
			}
		}
	}
	return fields, restricted
}

// GrantIssue records a grant that was skipped during compilation. A bad grant
// degrades to "no rule produced"; it never aborts compiling the rest.
type GrantIssue struct {
	GrantID uuid.UUID
	Err     error
}

// Compile folds an identity's grants into an immutable Ability.
//
// For each grant active at the compile instant, the condition template is
// resolved against the identity's own attributes, data restrictions are merged
// in, and the identity's organizational scope is injected as an implicit
// condition unless the role is the universal administrative role or the
// resolved conditions already pin a scope. A SUPER_ADMIN identity
// short-circuits to a single unconditional manage-all rule.
//
// Compile is a pure function of its inputs and safe to call concurrently for
// different identities.
func Compile(
	identity *identityDomain.Identity,
	grants []RoleGrant,
	now time.Time,
) (Ability, []GrantIssue) {
	if identity.RoleCode.IsSuperAdmin() {
		return Ability{Rules: []Rule{{Action: ActionManage, ResourceType: ResourceAll}}}, nil
	}

	var rules []Rule
	var issues []GrantIssue

	for _, grant := range grants {
		if !grant.ActiveAt(now) {
			continue
		}

		rule, err := compileGrant(identity, grant)
		if err != nil {
			issues = append(issues, GrantIssue{GrantID: grant.ID, Err: err})
			continue
		}
		rules = append(rules, rule)
	}

	return Ability{Rules: rules}, issues
}

// compileGrant turns a single active grant into a rule.
func compileGrant(identity *identityDomain.Identity, grant RoleGrant) (Rule, error) {
	template, err := ParseConditions(grant.Conditions)
	if err != nil {
		return Rule{}, err
	}

	conditions, err := template.Resolve(identity)
	if err != nil {
		return Rule{}, err
	}

	// Merge data restrictions; on collision the restriction wins.
	if len(grant.DataRestrictions) > 0 {
		if conditions == nil {
			conditions = make(map[string]any, len(grant.DataRestrictions))
		}
		for field, value := range grant.DataRestrictions {
			conditions[field] = value
		}
	}

	// Multi-tenant isolation backstop: every non-administrative rule is pinned
	// to the identity's own scope unless the grant already pinned one.
	if identity.OrganizationID != nil {
		if _, ok := conditions[ScopeConditionKey]; !ok {
			if conditions == nil {
				conditions = make(map[string]any, 1)
			}
			conditions[ScopeConditionKey] = identity.OrganizationID.String()
		}
	}

	var fields []string
	if grant.FieldAllowList != nil {
		fields = slices.Clone(grant.FieldAllowList)
	}

	return Rule{
		Action:               grant.Permission.Action,
		ResourceType:         grant.Permission.ResourceType,
		Conditions:           conditions,
		Fields:               fields,
		LocationRestrictions: grant.LocationRestrictions,
	}, nil
}

// equalValues compares a condition value against a resource field, tolerating
// the type drift introduced by JSON decoding and uuid-typed fields.
func equalValues(want, got any) bool {
	nw, ng := normalizeValue(want), normalizeValue(got)
	if nw == nil || ng == nil {
		return nw == ng
	}
	if reflect.TypeOf(nw).Comparable() && reflect.TypeOf(ng).Comparable() && nw == ng {
		return true
	}
	return reflect.DeepEqual(nw, ng)
}

// normalizeValue collapses numeric types to float64 and stringer types
// (uuid.UUID in particular) to their string form.
func normalizeValue(v any) any {
	switch value := v.(type) {
	case nil:
		return nil
	case int:
		return float64(value)
	case int32:
		return float64(value)
	case int64:
		return float64(value)
	case float32:
		return float64(value)
	case float64:
		return value
	case fmt.Stringer:
		return value.String()
	default:
		return v
	}
}
