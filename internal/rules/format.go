package rules

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/personacraft/personad/pkg/models"
)

// StringFormat checks that text fields are non-empty and, optionally, within
// a maximum length. Format problems are advisory: a blank occupation reads
// badly but does not make the persona unusable.
type StringFormat struct {
	name   string
	fields []string
	maxLen int
}

// NewStringFormat creates a format rule over the given text fields.
// maxLen of 0 disables the length check.
func NewStringFormat(name string, fields []string, maxLen int) (*StringFormat, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: rule name is empty", ErrBadConfig)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: format rule %q has no fields", ErrBadConfig, name)
	}
	if maxLen < 0 {
		return nil, fmt.Errorf("%w: format rule %q has negative max_len", ErrBadConfig, name)
	}
	return &StringFormat{name: name, fields: fields, maxLen: maxLen}, nil
}

// Name implements Rule.
func (r *StringFormat) Name() string { return r.name }

// Evaluate implements Rule. Missing fields are skipped (presence is the
// required-field rule's concern); present fields must be non-blank strings.
func (r *StringFormat) Evaluate(candidate models.Candidate, _ Context) []Result {
	var results []Result
	for _, field := range r.fields {
		if !candidate.Has(field) {
			continue
		}
		value, ok := candidate.String(field)
		if !ok {
			results = append(results, fail(r.name, CategoryFormat, field,
				fmt.Sprintf("field %q is not a string", field)))
			continue
		}
		if strings.TrimSpace(value) == "" {
			results = append(results, fail(r.name, CategoryFormat, field,
				fmt.Sprintf("field %q is blank", field)))
			continue
		}
		if r.maxLen > 0 && utf8.RuneCountInString(value) > r.maxLen {
			results = append(results, fail(r.name, CategoryFormat, field,
				fmt.Sprintf("field %q exceeds %d characters", field, r.maxLen)))
		}
	}
	if len(results) == 0 {
		return []Result{pass(r.name, CategoryFormat, "text fields well formed")}
	}
	return results
}
