// Package rules provides the pure validation rules that persona candidates
// are checked against. Rules never perform I/O, never mutate their inputs,
// and report business failures as failed results rather than errors.
package rules

import (
	"errors"

	"github.com/personacraft/personad/pkg/models"
)

// ErrBadConfig indicates a rule was constructed with invalid configuration.
// This is a programmer error, distinct from a failed validation.
var ErrBadConfig = errors.New("invalid rule configuration")

// Category classifies what a rule checks and whether its failures block.
type Category string

const (
	// CategoryFormat covers value formatting checks (advisory).
	CategoryFormat Category = "format"
	// CategoryStructure covers field presence and shape checks (blocking).
	CategoryStructure Category = "structure"
	// CategoryConsistency covers cross-field checks (advisory).
	CategoryConsistency Category = "consistency"
	// CategoryRange covers numeric and cardinality bounds (blocking).
	CategoryRange Category = "range"
)

// Valid returns true if the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryFormat, CategoryStructure, CategoryConsistency, CategoryRange:
		return true
	default:
		return false
	}
}

// Blocking returns true if failures in this category invalidate the
// candidate. Advisory categories only lower the score and produce warnings.
func (c Category) Blocking() bool {
	return c == CategoryStructure || c == CategoryRange
}

// Result is the outcome of a single rule check. A rule may produce several
// results (one per offending field or entry).
type Result struct {
	// Rule is the name of the rule that produced this result.
	Rule string `json:"rule"`
	// Passed indicates whether the check passed.
	Passed bool `json:"passed"`
	// Score is the check's score, 0-100.
	Score int `json:"score"`
	// Category classifies the check.
	Category Category `json:"category"`
	// Message describes the outcome.
	Message string `json:"message"`
	// Field is the candidate field the result refers to, if any.
	Field string `json:"field,omitempty"`
}

// Context is the read-only snapshot every rule receives. Rules must never
// mutate it.
type Context struct {
	// Request is the original generation request.
	Request models.GenerationRequest
	// Constraints is the taste-graph data available at generation time.
	Constraints models.CulturalConstraints
	// Signals are the requesting user's own signals.
	Signals models.UserSignals
	// Attempt is the current generation attempt, starting at 1.
	Attempt int
	// PreviousErrors holds failed results from earlier attempts, if any.
	PreviousErrors []Result
}

// Rule is a single pure check against a persona candidate.
type Rule interface {
	// Name identifies the rule within its template.
	Name() string
	// Evaluate checks the candidate and returns one or more results.
	// It must be deterministic and side-effect free.
	Evaluate(candidate models.Candidate, vctx Context) []Result
}

// pass builds a passing result with full score.
func pass(rule string, category Category, message string) Result {
	return Result{
		Rule:     rule,
		Passed:   true,
		Score:    100,
		Category: category,
		Message:  message,
	}
}

// fail builds a failing result with zero score.
func fail(rule string, category Category, field, message string) Result {
	return Result{
		Rule:     rule,
		Passed:   false,
		Score:    0,
		Category: category,
		Message:  message,
		Field:    field,
	}
}
