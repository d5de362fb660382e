package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/pkg/models"
)

// templateFile is the YAML shape of a declarative template definition.
type templateFile struct {
	ID          string     `yaml:"id"`
	PersonaType string     `yaml:"persona_type"`
	Version     string     `yaml:"version"`
	Rules       []ruleSpec `yaml:"rules"`
}

// ruleSpec is one declarative rule entry. The type discriminates which
// fields apply.
type ruleSpec struct {
	Type     string   `yaml:"type"`
	Name     string   `yaml:"name"`
	Fields   []string `yaml:"fields"`
	Field    string   `yaml:"field"`
	Min      float64  `yaml:"min"`
	Max      float64  `yaml:"max"`
	MinItems int      `yaml:"min_items"`
	MaxItems int      `yaml:"max_items"`
	MaxLen   int      `yaml:"max_len"`
}

// LoadFile parses a single YAML template definition and compiles it into a
// Template. Malformed rule configuration is a boot-time error.
func LoadFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	return t, nil
}

// Parse compiles a YAML template definition.
func Parse(data []byte) (*Template, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	t := &Template{
		ID:          file.ID,
		PersonaType: models.PersonaType(file.PersonaType),
		Version:     file.Version,
	}

	for i, spec := range file.Rules {
		rule, err := compileRule(spec, i)
		if err != nil {
			return nil, err
		}
		t.Rules = append(t.Rules, rule)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// compileRule turns a declarative rule entry into a concrete rule.
func compileRule(spec ruleSpec, index int) (rules.Rule, error) {
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("%s-%d", spec.Type, index+1)
	}

	switch spec.Type {
	case "required_fields":
		return rules.NewRequiredFields(name, spec.Fields)
	case "range":
		return rules.NewNumericRange(name, spec.Field, spec.Min, spec.Max)
	case "list_cardinality":
		return rules.NewListCardinality(name, spec.Field, spec.MinItems, spec.MaxItems)
	case "interest_consistency":
		return rules.NewInterestConsistency(name, spec.Field)
	case "string_format":
		return rules.NewStringFormat(name, spec.Fields, spec.MaxLen)
	default:
		return nil, fmt.Errorf("%w: unknown rule type %q", rules.ErrBadConfig, spec.Type)
	}
}

// LoadDir loads every .yaml/.yml template definition in dir, sorted by file
// name so registration order is stable. A missing directory is not an error;
// an unreadable or malformed file is.
func LoadDir(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	var templates []*Template
	for _, path := range paths {
		t, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}
