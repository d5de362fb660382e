package rules

import (
	"fmt"

	"github.com/personacraft/personad/pkg/models"
)

// RequiredFields checks that a set of top-level fields is present on the
// candidate. Each missing field is reported as its own failing result so
// callers can enumerate every gap in one pass.
type RequiredFields struct {
	name   string
	fields []string
}

// NewRequiredFields creates a required-field rule for the given fields.
func NewRequiredFields(name string, fields []string) (*RequiredFields, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: rule name is empty", ErrBadConfig)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: required-field rule %q has no fields", ErrBadConfig, name)
	}
	for _, f := range fields {
		if f == "" {
			return nil, fmt.Errorf("%w: required-field rule %q has an empty field name", ErrBadConfig, name)
		}
	}
	return &RequiredFields{name: name, fields: fields}, nil
}

// Name implements Rule.
func (r *RequiredFields) Name() string { return r.name }

// Fields returns the fields this rule inspects.
func (r *RequiredFields) Fields() []string {
	return append([]string{}, r.fields...)
}

// Evaluate implements Rule. It produces one failing result per missing
// field, or a single passing result when everything is present.
func (r *RequiredFields) Evaluate(candidate models.Candidate, _ Context) []Result {
	var results []Result
	for _, field := range r.fields {
		if !candidate.Has(field) {
			results = append(results, fail(r.name, CategoryStructure, field,
				fmt.Sprintf("required field %q is missing", field)))
		}
	}
	if len(results) == 0 {
		return []Result{pass(r.name, CategoryStructure, "all required fields present")}
	}
	return results
}
