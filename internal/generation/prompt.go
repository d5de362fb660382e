package generation

import (
	"fmt"
	"strings"

	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/pkg/models"
)

// systemPrompt returns the system instructions for generating a persona of
// the given type. The reply must be a single JSON object so the extractor
// can parse it without heuristics.
func systemPrompt(personaType models.PersonaType) string {
	var b strings.Builder
	b.WriteString("You are a marketing persona generator. ")

	switch personaType {
	case models.PersonaTypeB2B:
		b.WriteString("Generate a business-decision-maker persona with the fields: " +
			"name, age, job_title, company_size, interests, pain_points.")
	case models.PersonaTypeNiche:
		b.WriteString("Generate a niche-audience persona built around a specific " +
			"interest cluster, with the fields: name, age, interests, subculture.")
	default:
		b.WriteString("Generate a consumer persona with the fields: " +
			"name, age, occupation, interests, values.")
	}

	b.WriteString("\n\nEach interest must be written as \"category:value\", " +
		"for example \"music:indie rock\".")
	b.WriteString("\nRespond with a single JSON object and nothing else. " +
		"No markdown fences, no commentary.")
	return b.String()
}

// userPrompt renders the generation request and validation context into the
// user message. Previous validation errors are listed so the model can fix
// them on retry attempts.
func userPrompt(req models.GenerationRequest, vctx rules.Context) string {
	var b strings.Builder

	if req.Brief != "" {
		fmt.Fprintf(&b, "Marketing brief:\n%s\n\n", req.Brief)
	}

	if req.Demographics.MinAge > 0 || req.Demographics.MaxAge > 0 {
		fmt.Fprintf(&b, "Age range: %d-%d\n", req.Demographics.MinAge, req.Demographics.MaxAge)
	}
	if req.Demographics.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", req.Demographics.Location)
	}
	if req.DesiredInterests > 0 {
		fmt.Fprintf(&b, "Number of interests: %d\n", req.DesiredInterests)
	}

	if len(vctx.Constraints.AllowedCategories) > 0 {
		fmt.Fprintf(&b, "Only use interest categories from this list: %s\n",
			strings.Join(vctx.Constraints.AllowedCategories, ", "))
	}
	for category, values := range vctx.Constraints.AllowedValues {
		fmt.Fprintf(&b, "Allowed %s values: %s\n", category, strings.Join(values, ", "))
	}

	if len(vctx.Signals.Interests) > 0 {
		fmt.Fprintf(&b, "The requesting user's interests: %s\n",
			strings.Join(vctx.Signals.Interests, ", "))
	}
	if len(vctx.Signals.Values) > 0 {
		fmt.Fprintf(&b, "The requesting user's values: %s\n",
			strings.Join(vctx.Signals.Values, ", "))
	}

	if len(vctx.PreviousErrors) > 0 {
		fmt.Fprintf(&b, "\nA previous attempt failed validation (attempt %d). "+
			"Fix these problems:\n", vctx.Attempt)
		for _, result := range vctx.PreviousErrors {
			if result.Field != "" {
				fmt.Fprintf(&b, "- %s: %s\n", result.Field, result.Message)
			} else {
				fmt.Fprintf(&b, "- %s\n", result.Message)
			}
		}
	}

	if b.Len() == 0 {
		fmt.Fprintf(&b, "Generate a %s persona.\n", req.PersonaType)
	}

	return b.String()
}
