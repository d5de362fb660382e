package models

import "time"

// PersonaType identifies the marketing audience a persona targets.
type PersonaType string

const (
	// PersonaTypeB2C is a consumer-facing persona.
	PersonaTypeB2C PersonaType = "b2c"
	// PersonaTypeB2B is a business-decision-maker persona.
	PersonaTypeB2B PersonaType = "b2b"
	// PersonaTypeNiche is a narrow-segment persona built around a specific interest cluster.
	PersonaTypeNiche PersonaType = "niche"
)

// Valid returns true if the persona type is a known value.
func (p PersonaType) Valid() bool {
	switch p {
	case PersonaTypeB2C, PersonaTypeB2B, PersonaTypeNiche:
		return true
	default:
		return false
	}
}

// AllPersonaTypes lists every known persona type.
func AllPersonaTypes() []PersonaType {
	return []PersonaType{PersonaTypeB2C, PersonaTypeB2B, PersonaTypeNiche}
}

// GenerationRequest describes what the upstream generator was asked to produce.
// It is carried read-only through validation so rules can check the candidate
// against what was requested.
type GenerationRequest struct {
	// PersonaType is the kind of persona requested.
	PersonaType PersonaType `json:"persona_type"`
	// Brief is the free-text marketing brief the persona is generated from.
	Brief string `json:"brief,omitempty"`
	// Demographics constrains the generated persona's demographic fields.
	Demographics Demographics `json:"demographics,omitempty"`
	// DesiredInterests is the number of interests the persona should carry.
	DesiredInterests int `json:"desired_interests,omitempty"`
}

// Demographics holds requested demographic bounds for a persona.
type Demographics struct {
	// MinAge is the lower age bound, inclusive. Zero means unconstrained.
	MinAge int `json:"min_age,omitempty"`
	// MaxAge is the upper age bound, inclusive. Zero means unconstrained.
	MaxAge int `json:"max_age,omitempty"`
	// Location is the requested locale or region, if any.
	Location string `json:"location,omitempty"`
}

// CulturalConstraints is the allowed-value set sourced from the taste-graph
// provider at generation time. Consistency rules check candidate interests
// against it.
type CulturalConstraints struct {
	// AllowedCategories lists the interest categories the taste graph
	// resolved for this request (music, brands, dining, ...).
	AllowedCategories []string `json:"allowed_categories,omitempty"`
	// AllowedValues maps a category to its allowed entity names.
	AllowedValues map[string][]string `json:"allowed_values,omitempty"`
}

// HasCategory returns true if the category is in the allowed set.
// An empty constraint set allows everything.
func (c CulturalConstraints) HasCategory(category string) bool {
	if len(c.AllowedCategories) == 0 {
		return true
	}
	for _, allowed := range c.AllowedCategories {
		if allowed == category {
			return true
		}
	}
	return false
}

// UserSignals captures the requesting user's own signals, available to rules
// for consistency checks.
type UserSignals struct {
	// Interests the user declared.
	Interests []string `json:"interests,omitempty"`
	// Values the user declared (e.g. sustainability, price-sensitivity).
	Values []string `json:"values,omitempty"`
	// Locale is the user's locale.
	Locale string `json:"locale,omitempty"`
}

// Persona is a stored persona record: the generated document plus the two
// metadata blobs the pipeline attaches to it.
type Persona struct {
	// ID is the unique identifier for this persona.
	ID string `json:"id"`
	// PersonaType is the kind of persona.
	PersonaType PersonaType `json:"persona_type"`
	// Document is the generated persona body as produced upstream.
	Document map[string]any `json:"document"`
	// GenerationMetadata describes how the persona was produced.
	GenerationMetadata *GenerationMetadata `json:"generationMetadata,omitempty"`
	// ValidationMetadata describes the last validation run against it.
	ValidationMetadata *ValidationMetadata `json:"validationMetadata,omitempty"`
	// CreatedAt is when the record was created.
	CreatedAt time.Time `json:"created_at"`
}
