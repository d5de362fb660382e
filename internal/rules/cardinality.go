package rules

import (
	"fmt"

	"github.com/personacraft/personad/pkg/models"
)

// ListCardinality checks that an array field's length lies within
// [minItems, maxItems]. An empty array fails when minItems is at least 1,
// and a missing or non-array value always fails.
type ListCardinality struct {
	name     string
	field    string
	minItems int
	maxItems int
}

// NewListCardinality creates a cardinality rule over the given list field.
func NewListCardinality(name, field string, minItems, maxItems int) (*ListCardinality, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: rule name is empty", ErrBadConfig)
	}
	if field == "" {
		return nil, fmt.Errorf("%w: cardinality rule %q has no field", ErrBadConfig, name)
	}
	if minItems < 0 {
		return nil, fmt.Errorf("%w: cardinality rule %q has negative min_items", ErrBadConfig, name)
	}
	if minItems > maxItems {
		return nil, fmt.Errorf("%w: cardinality rule %q has min_items %d > max_items %d",
			ErrBadConfig, name, minItems, maxItems)
	}
	return &ListCardinality{name: name, field: field, minItems: minItems, maxItems: maxItems}, nil
}

// Name implements Rule.
func (r *ListCardinality) Name() string { return r.name }

// Field returns the field this rule inspects.
func (r *ListCardinality) Field() string { return r.field }

// Evaluate implements Rule.
func (r *ListCardinality) Evaluate(candidate models.Candidate, _ Context) []Result {
	list, ok := candidate.List(r.field)
	if !ok {
		return []Result{fail(r.name, CategoryRange, r.field,
			fmt.Sprintf("field %q is missing or not a list", r.field))}
	}
	if len(list) < r.minItems || len(list) > r.maxItems {
		return []Result{fail(r.name, CategoryRange, r.field,
			fmt.Sprintf("field %q has %d items, want between %d and %d",
				r.field, len(list), r.minItems, r.maxItems))}
	}
	return []Result{pass(r.name, CategoryRange,
		fmt.Sprintf("field %q has %d items", r.field, len(list)))}
}
