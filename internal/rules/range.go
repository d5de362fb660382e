package rules

import (
	"fmt"

	"github.com/personacraft/personad/pkg/models"
)

// NumericRange checks that a numeric field lies within [min, max] inclusive.
// A missing or non-numeric value is a range failure too: the rule guards its
// own input rather than relying on a structural rule having run first.
type NumericRange struct {
	name  string
	field string
	min   float64
	max   float64
}

// NewNumericRange creates a range rule over the given field.
func NewNumericRange(name, field string, min, max float64) (*NumericRange, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: rule name is empty", ErrBadConfig)
	}
	if field == "" {
		return nil, fmt.Errorf("%w: range rule %q has no field", ErrBadConfig, name)
	}
	if min > max {
		return nil, fmt.Errorf("%w: range rule %q has min %v > max %v", ErrBadConfig, name, min, max)
	}
	return &NumericRange{name: name, field: field, min: min, max: max}, nil
}

// Name implements Rule.
func (r *NumericRange) Name() string { return r.name }

// Field returns the field this rule inspects.
func (r *NumericRange) Field() string { return r.field }

// Evaluate implements Rule.
func (r *NumericRange) Evaluate(candidate models.Candidate, _ Context) []Result {
	value, ok := candidate.Number(r.field)
	if !ok {
		return []Result{fail(r.name, CategoryRange, r.field,
			fmt.Sprintf("field %q is missing or not numeric", r.field))}
	}
	if value < r.min || value > r.max {
		return []Result{fail(r.name, CategoryRange, r.field,
			fmt.Sprintf("field %q value %v outside range [%v, %v]", r.field, value, r.min, r.max))}
	}
	return []Result{pass(r.name, CategoryRange,
		fmt.Sprintf("field %q within range [%v, %v]", r.field, r.min, r.max))}
}
