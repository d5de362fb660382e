package models

import "time"

// GenerationMetadata records how a persona was produced. It is persisted on
// the persona record as the generationMetadata JSON document.
type GenerationMetadata struct {
	// Source is the provider that produced the persona (e.g. "anthropic").
	Source string `json:"source,omitempty"`
	// Method is the generation path taken ("llm", "fallback").
	Method string `json:"method,omitempty"`
	// ProcessingTimeMs is the wall time the generation call took.
	ProcessingTimeMs int64 `json:"processing_time_ms,omitempty"`
	// UsedTasteGraph indicates whether taste-graph data informed generation.
	UsedTasteGraph bool `json:"used_taste_graph,omitempty"`
	// TemplateID is the validation template the persona was generated for.
	TemplateID string `json:"template_id,omitempty"`
}

// ValidationMetadata records the outcome of the last validation run against
// a persona. It is persisted as the validationMetadata JSON document and is
// the stored shape of an engine ValidationResult.
type ValidationMetadata struct {
	// TemplateID is the template the persona was validated against.
	TemplateID string `json:"template_id"`
	// Score is the aggregate validation score, 0-100.
	Score int `json:"score"`
	// Details holds every rule-level result from the run.
	Details []RuleDetail `json:"details,omitempty"`
	// FailedRules lists the names of rules that failed.
	FailedRules []string `json:"failed_rules,omitempty"`
	// PassedRules lists the names of rules that passed.
	PassedRules []string `json:"passed_rules,omitempty"`
	// ValidationTimeMs is the wall time rule evaluation took.
	ValidationTimeMs int64 `json:"validation_time_ms"`
	// Timestamp is when the validation ran.
	Timestamp time.Time `json:"timestamp"`
}

// RuleDetail is the persisted form of a single rule result.
type RuleDetail struct {
	// Rule is the rule name.
	Rule string `json:"rule"`
	// Passed indicates whether the rule passed.
	Passed bool `json:"passed"`
	// Score is the rule's score, 0-100.
	Score int `json:"score"`
	// Category is the rule category (format, structure, consistency, range).
	Category string `json:"category"`
	// Message describes the outcome.
	Message string `json:"message,omitempty"`
	// Field is the candidate field the result refers to, if any.
	Field string `json:"field,omitempty"`
}

// PersonaMeta is the merged, flattened view of a persona's metadata used by
// callers that need a single answer for "which template, which score, which
// source". The merge precedence is fixed:
//
//	explicit override > validationMetadata > generationMetadata > default
//
// All merging goes through MergeMeta; call sites never chain their own
// fallbacks.
type PersonaMeta struct {
	// TemplateID is the resolved validation template id.
	TemplateID string `json:"template_id"`
	// Score is the resolved validation score, 0-100.
	Score int `json:"score"`
	// Source is the resolved generation source.
	Source string `json:"source"`
	// UsedTasteGraph indicates whether taste-graph data was used.
	UsedTasteGraph bool `json:"used_taste_graph"`
}

// MetaOverride carries explicit values that take precedence over anything
// stored on the record. Nil pointer fields mean "not overridden".
type MetaOverride struct {
	TemplateID *string
	Score      *int
	Source     *string
}

// DefaultMeta is the lowest-precedence fallback used when neither metadata
// document carries a value.
func DefaultMeta() PersonaMeta {
	return PersonaMeta{
		TemplateID: "",
		Score:      0,
		Source:     "unknown",
	}
}

// MergeMeta resolves a persona's metadata through the documented precedence
// order. Either metadata document may be nil.
func MergeMeta(override MetaOverride, vm *ValidationMetadata, gm *GenerationMetadata) PersonaMeta {
	meta := DefaultMeta()

	if gm != nil {
		if gm.TemplateID != "" {
			meta.TemplateID = gm.TemplateID
		}
		if gm.Source != "" {
			meta.Source = gm.Source
		}
		meta.UsedTasteGraph = gm.UsedTasteGraph
	}

	if vm != nil {
		if vm.TemplateID != "" {
			meta.TemplateID = vm.TemplateID
		}
		meta.Score = vm.Score
	}

	if override.TemplateID != nil {
		meta.TemplateID = *override.TemplateID
	}
	if override.Score != nil {
		meta.Score = *override.Score
	}
	if override.Source != nil {
		meta.Source = *override.Source
	}

	return meta
}
