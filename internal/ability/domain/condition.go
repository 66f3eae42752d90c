package domain

import (
	"fmt"
	"strings"

	"github.com/caremesh/authcore/internal/errors"
)

// AttributeSource resolves attribute paths for condition templates.
// *identity/domain.Identity satisfies this interface.
type AttributeSource interface {
	// Attribute returns the value at the given path and whether it resolved.
	Attribute(path string) (any, bool)
}

// Expr is a condition template value: either a literal or a reference to an
// attribute of the calling identity. Using a tagged expression type instead of
// runtime string interpolation makes condition compilation statically checkable.
type Expr interface {
	// Resolve produces the concrete condition value for the given identity.
	Resolve(source AttributeSource) (any, error)
}

// Literal is a condition value that passes through unchanged.
type Literal struct {
	Value any
}

// Resolve returns the literal value.
func (l Literal) Resolve(AttributeSource) (any, error) {
	return l.Value, nil
}

// AttrRef references an attribute of the calling identity, written in stored
// templates as "${path}" (e.g., "${organizationId}").
type AttrRef struct {
	Path string
}

// Resolve walks the path against the identity. An unresolvable path is an
// error; the containing grant is skipped, never the whole compilation.
func (r AttrRef) Resolve(source AttributeSource) (any, error) {
	value, ok := source.Attribute(r.Path)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unresolvable attribute path %q", r.Path)
	}
	return value, nil
}

// ConditionTemplate maps condition field names to expressions.
type ConditionTemplate map[string]Expr

// ParseConditions converts a raw stored condition map into a typed template.
// String values of the form "${path}" become attribute references; everything
// else passes through as a literal. An empty placeholder is malformed.
func ParseConditions(raw map[string]any) (ConditionTemplate, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	template := make(ConditionTemplate, len(raw))
	for field, value := range raw {
		s, ok := value.(string)
		if !ok || !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
			template[field] = Literal{Value: value}
			continue
		}

		path := strings.TrimSuffix(strings.TrimPrefix(s, "${"), "}")
		if strings.TrimSpace(path) == "" {
			return nil, errors.Wrapf(errors.ErrInvalidInput,
				"malformed condition template for field %q", field)
		}
		template[field] = AttrRef{Path: path}
	}
	return template, nil
}

// Resolve evaluates every expression in the template against the identity,
// producing the concrete condition set for a rule.
func (t ConditionTemplate) Resolve(source AttributeSource) (map[string]any, error) {
	if len(t) == 0 {
		return nil, nil
	}

	conditions := make(map[string]any, len(t))
	for field, expr := range t {
		value, err := expr.Resolve(source)
		if err != nil {
			return nil, fmt.Errorf("condition field %q: %w", field, err)
		}
		conditions[field] = value
	}
	return conditions, nil
}
