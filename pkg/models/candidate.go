package models

import (
	"encoding/json"
	"fmt"
)

// Candidate is the checked boundary type for persona JSON entering the
// validation engine. It is decoded once; rules read it through typed
// accessors and never touch raw dynamic JSON, so a malformed shape surfaces
// as a failed lookup rather than a panic.
type Candidate struct {
	fields map[string]any
}

// ParseCandidate decodes raw JSON into a Candidate. The top level must be a
// JSON object.
func ParseCandidate(raw []byte) (Candidate, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Candidate{}, fmt.Errorf("parse candidate: %w", err)
	}
	return Candidate{fields: fields}, nil
}

// CandidateFromMap wraps an already-decoded JSON object as a Candidate.
// The map is not copied; callers must not mutate it afterwards.
func CandidateFromMap(fields map[string]any) Candidate {
	return Candidate{fields: fields}
}

// Has returns true if the field is present, regardless of its type or value.
func (c Candidate) Has(field string) bool {
	_, ok := c.fields[field]
	return ok
}

// String returns the field as a string. ok is false if the field is absent
// or not a string.
func (c Candidate) String(field string) (string, bool) {
	v, ok := c.fields[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Number returns the field as a float64. ok is false if the field is absent
// or not numeric. encoding/json decodes all JSON numbers as float64.
func (c Candidate) Number(field string) (float64, bool) {
	v, ok := c.fields[field]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// List returns the field as a slice. ok is false if the field is absent or
// not an array.
func (c Candidate) List(field string) ([]any, bool) {
	v, ok := c.fields[field]
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	return l, ok
}

// StringList returns the field as a slice of strings. Non-string elements
// are skipped. ok is false if the field is absent or not an array.
func (c Candidate) StringList(field string) ([]string, bool) {
	l, ok := c.List(field)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(l))
	for _, v := range l {
		if s, sok := v.(string); sok {
			out = append(out, s)
		}
	}
	return out, true
}

// Object returns the field as a nested JSON object wrapped in a Candidate.
func (c Candidate) Object(field string) (Candidate, bool) {
	v, ok := c.fields[field]
	if !ok {
		return Candidate{}, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{fields: m}, true
}

// Fields returns the underlying decoded object. Callers must treat it as
// read-only.
func (c Candidate) Fields() map[string]any {
	return c.fields
}

// Len returns the number of top-level fields.
func (c Candidate) Len() int {
	return len(c.fields)
}
