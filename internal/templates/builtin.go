package templates

import (
	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/pkg/models"
)

// Builtin returns the default templates shipped with the engine, one per
// persona type. They are registered before any on-disk definitions so a
// misconfigured deployment still validates against something sane.
func Builtin() []*Template {
	return []*Template{
		b2cStandard(),
		b2bStandard(),
		nicheStandard(),
	}
}

func b2cStandard() *Template {
	required := must(rules.NewRequiredFields("required-core",
		[]string{"name", "age", "occupation", "interests", "values"}))
	ageRange := must(rules.NewNumericRange("age-range", "age", 18, 95))
	interestCount := must(rules.NewListCardinality("interest-count", "interests", 3, 8))
	consistency := must(rules.NewInterestConsistency("interest-categories", "interests"))
	format := must(rules.NewStringFormat("text-format", []string{"name", "occupation"}, 120))

	return &Template{
		ID:          "b2c-standard",
		PersonaType: models.PersonaTypeB2C,
		Version:     "1.0.0",
		Rules:       []rules.Rule{required, ageRange, interestCount, consistency, format},
	}
}

func b2bStandard() *Template {
	required := must(rules.NewRequiredFields("required-core",
		[]string{"name", "age", "job_title", "company_size", "interests", "pain_points"}))
	ageRange := must(rules.NewNumericRange("age-range", "age", 22, 70))
	companySize := must(rules.NewNumericRange("company-size", "company_size", 1, 500000))
	painPoints := must(rules.NewListCardinality("pain-point-count", "pain_points", 2, 6))
	consistency := must(rules.NewInterestConsistency("interest-categories", "interests"))
	format := must(rules.NewStringFormat("text-format", []string{"name", "job_title"}, 120))

	return &Template{
		ID:          "b2b-standard",
		PersonaType: models.PersonaTypeB2B,
		Version:     "1.0.0",
		Rules:       []rules.Rule{required, ageRange, companySize, painPoints, consistency, format},
	}
}

func nicheStandard() *Template {
	required := must(rules.NewRequiredFields("required-core",
		[]string{"name", "age", "interests", "subculture"}))
	ageRange := must(rules.NewNumericRange("age-range", "age", 16, 95))
	interestCount := must(rules.NewListCardinality("interest-count", "interests", 5, 12))
	consistency := must(rules.NewInterestConsistency("interest-categories", "interests"))
	format := must(rules.NewStringFormat("text-format", []string{"name", "subculture"}, 120))

	return &Template{
		ID:          "niche-standard",
		PersonaType: models.PersonaTypeNiche,
		Version:     "1.0.0",
		Rules:       []rules.Rule{required, ageRange, interestCount, consistency, format},
	}
}

// must panics on rule construction errors. Builtin rule parameters are
// compile-time constants, so a failure here is a programming bug caught by
// the package tests.
func must(rule rules.Rule, err error) rules.Rule {
	if err != nil {
		panic(err)
	}
	return rule
}
