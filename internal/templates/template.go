// Package templates defines validation templates and the registry that
// resolves them. Templates are assembled once at process start and are
// immutable afterwards.
package templates

import (
	"fmt"

	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/pkg/models"
)

// Template is a named, ordered set of validation rules for one persona type.
type Template struct {
	// ID uniquely identifies the template within the registry.
	ID string
	// PersonaType is the persona type this template applies to.
	PersonaType models.PersonaType
	// Version is the template revision, informational only.
	Version string
	// Rules run in declared order during validation.
	Rules []rules.Rule
}

// Validate checks the template is well formed before registration.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: template id is empty", rules.ErrBadConfig)
	}
	if !t.PersonaType.Valid() {
		return fmt.Errorf("%w: template %q has unknown persona type %q",
			rules.ErrBadConfig, t.ID, t.PersonaType)
	}
	if len(t.Rules) == 0 {
		return fmt.Errorf("%w: template %q has no rules", rules.ErrBadConfig, t.ID)
	}
	return nil
}

// RuleNames returns the rule names in declared order.
func (t *Template) RuleNames() []string {
	names := make([]string, 0, len(t.Rules))
	for _, r := range t.Rules {
		names = append(names, r.Name())
	}
	return names
}
