package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/pkg/models"
)

const validTemplateYAML = `
id: b2c-strict
persona_type: b2c
version: "2.0.0"
rules:
  - type: required_fields
    name: required-core
    fields: [name, age, interests]
  - type: range
    field: age
    min: 21
    max: 65
  - type: list_cardinality
    field: interests
    min_items: 3
    max_items: 8
  - type: interest_consistency
    field: interests
  - type: string_format
    fields: [name]
    max_len: 80
`

func TestParse(t *testing.T) {
	tpl, err := Parse([]byte(validTemplateYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if tpl.ID != "b2c-strict" {
		t.Errorf("ID = %q, want %q", tpl.ID, "b2c-strict")
	}
	if tpl.PersonaType != models.PersonaTypeB2C {
		t.Errorf("PersonaType = %q, want b2c", tpl.PersonaType)
	}
	if tpl.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", tpl.Version)
	}
	if len(tpl.Rules) != 5 {
		t.Fatalf("len(Rules) = %d, want 5", len(tpl.Rules))
	}

	// Declared order is preserved; unnamed rules are auto-named by type.
	names := tpl.RuleNames()
	if names[0] != "required-core" {
		t.Errorf("first rule name = %q, want %q", names[0], "required-core")
	}
	if names[1] != "range-2" {
		t.Errorf("second rule name = %q, want %q", names[1], "range-2")
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown rule type", "id: x\npersona_type: b2c\nrules:\n  - type: telepathy\n"},
		{"missing id", "persona_type: b2c\nrules:\n  - type: required_fields\n    fields: [name]\n"},
		{"bad persona type", "id: x\npersona_type: alien\nrules:\n  - type: required_fields\n    fields: [name]\n"},
		{"no rules", "id: x\npersona_type: b2c\n"},
		{"inverted range", "id: x\npersona_type: b2c\nrules:\n  - type: range\n    field: age\n    min: 90\n    max: 10\n"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}

func TestParse_BadRuleConfigIsErrBadConfig(t *testing.T) {
	_, err := Parse([]byte("id: x\npersona_type: b2c\nrules:\n  - type: required_fields\n    fields: []\n"))
	if !errors.Is(err, rules.ErrBadConfig) {
		t.Errorf("Parse(empty fields) error = %v, want ErrBadConfig", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	writeTemplate := func(name, id string) {
		content := "id: " + id + "\npersona_type: b2c\nrules:\n  - type: required_fields\n    fields: [name]\n"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	writeTemplate("20-second.yaml", "second")
	writeTemplate("10-first.yml", "first")
	// Non-template files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadDir() returned %d templates, want 2", len(loaded))
	}
	// Sorted by file name for stable registration order.
	if loaded[0].ID != "first" || loaded[1].ID != "second" {
		t.Errorf("LoadDir() order = [%s %s], want [first second]", loaded[0].ID, loaded[1].ID)
	}
}

func TestLoadDir_MissingDirIsEmpty(t *testing.T) {
	loaded, err := LoadDir(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("LoadDir(missing) error = %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("LoadDir(missing) returned %d templates, want 0", len(loaded))
	}
}

func TestLoadDir_MalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: x\npersona_type: b2c\nrules:\n  - type: telepathy\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadDir(dir); err == nil {
		t.Error("LoadDir(malformed) error = nil, want error")
	}
}
