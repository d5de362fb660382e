package rules

import (
	"fmt"
	"strings"

	"github.com/personacraft/personad/pkg/models"
)

// InterestConsistency checks that every interest category referenced on the
// candidate appears in the allowed category set from the context's cultural
// constraints. Each off-constraint entry is reported individually. The check
// is advisory: a mismatch lowers trust in the persona without invalidating it.
//
// Interest entries are accepted in two shapes:
//   - an object carrying a "category" key, e.g. {"category": "music", "name": "Radiohead"}
//   - a "category:value" string, e.g. "music:Radiohead"
//
// Entries with no recognizable category are skipped rather than failed; the
// structure and cardinality rules own shape enforcement.
type InterestConsistency struct {
	name  string
	field string
}

// NewInterestConsistency creates a consistency rule over the given field.
func NewInterestConsistency(name, field string) (*InterestConsistency, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: rule name is empty", ErrBadConfig)
	}
	if field == "" {
		return nil, fmt.Errorf("%w: consistency rule %q has no field", ErrBadConfig, name)
	}
	return &InterestConsistency{name: name, field: field}, nil
}

// Name implements Rule.
func (r *InterestConsistency) Name() string { return r.name }

// Field returns the field this rule inspects.
func (r *InterestConsistency) Field() string { return r.field }

// Evaluate implements Rule.
func (r *InterestConsistency) Evaluate(candidate models.Candidate, vctx Context) []Result {
	list, ok := candidate.List(r.field)
	if !ok {
		return []Result{fail(r.name, CategoryConsistency, r.field,
			fmt.Sprintf("field %q is missing or not a list", r.field))}
	}

	var results []Result
	for _, entry := range list {
		category, label, found := interestCategory(entry)
		if !found {
			continue
		}
		if !vctx.Constraints.HasCategory(category) {
			results = append(results, fail(r.name, CategoryConsistency, r.field,
				fmt.Sprintf("interest %q references category %q outside the allowed set", label, category)))
		}
	}
	if len(results) == 0 {
		return []Result{pass(r.name, CategoryConsistency, "all interest categories within cultural constraints")}
	}
	return results
}

// interestCategory extracts the category from a single interest entry.
func interestCategory(entry any) (category, label string, ok bool) {
	switch v := entry.(type) {
	case map[string]any:
		c, cok := v["category"].(string)
		if !cok || c == "" {
			return "", "", false
		}
		label = c
		if name, nok := v["name"].(string); nok {
			label = name
		}
		return c, label, true
	case string:
		before, _, found := strings.Cut(v, ":")
		if !found || before == "" {
			return "", "", false
		}
		return strings.TrimSpace(before), v, true
	default:
		return "", "", false
	}
}
