package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/personacraft/personad/internal/engine"
	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/internal/templates"
	"github.com/personacraft/personad/pkg/models"
)

// scriptedGenerator returns one scripted candidate per call and captures the
// validation context each call received.
type scriptedGenerator struct {
	candidates []map[string]any
	contexts   []rules.Context
	err        error
}

func (g *scriptedGenerator) Generate(_ context.Context, _ models.GenerationRequest, vctx rules.Context) (models.Candidate, error) {
	g.contexts = append(g.contexts, vctx)
	if g.err != nil {
		return models.Candidate{}, g.err
	}
	call := len(g.contexts) - 1
	if call >= len(g.candidates) {
		call = len(g.candidates) - 1
	}
	return models.CandidateFromMap(g.candidates[call]), nil
}

type capturedRecord struct {
	result       *engine.ValidationResult
	personaType  models.PersonaType
	usedFallback bool
}

type captureRecorder struct {
	records []capturedRecord
}

func (r *captureRecorder) Record(result *engine.ValidationResult, personaType models.PersonaType, usedFallback bool) error {
	r.records = append(r.records, capturedRecord{result, personaType, usedFallback})
	return nil
}

func validB2C() map[string]any {
	return map[string]any{
		"name":       "Ava Chen",
		"age":        float64(34),
		"occupation": "Product Designer",
		"interests":  []any{"music:indie", "dining:ramen", "film:noir"},
		"values":     []any{"sustainability"},
	}
}

func newTestPipeline(t *testing.T, gen Generator, recorder engine.Recorder) *Pipeline {
	t.Helper()

	registry := templates.NewRegistry()
	for _, tpl := range templates.Builtin() {
		if err := registry.Register(tpl); err != nil {
			t.Fatal(err)
		}
	}

	p, err := NewPipeline(PipelineConfig{
		Generator: gen,
		Engine:    engine.NewEngine(registry, nil, nil),
		Recorder:  recorder,
	})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return p
}

func TestGenerateValidated_FirstAttemptPasses(t *testing.T) {
	gen := &scriptedGenerator{candidates: []map[string]any{validB2C()}}
	rec := &captureRecorder{}
	p := newTestPipeline(t, gen, rec)

	req := models.GenerationRequest{PersonaType: models.PersonaTypeB2C, Brief: "urban creatives"}
	outcome, err := p.GenerateValidated(context.Background(), req, models.CulturalConstraints{}, models.UserSignals{})
	if err != nil {
		t.Fatalf("GenerateValidated() error = %v", err)
	}

	if outcome.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", outcome.Attempts)
	}
	if outcome.UsedFallback {
		t.Error("UsedFallback = true, want false")
	}
	if !outcome.Result.IsValid {
		t.Errorf("result invalid; errors: %+v", outcome.Result.Errors)
	}

	persona := outcome.Persona
	if persona.ID == "" {
		t.Error("persona ID is empty")
	}
	if persona.PersonaType != models.PersonaTypeB2C {
		t.Errorf("PersonaType = %q, want b2c", persona.PersonaType)
	}
	if persona.GenerationMetadata.Method != "llm" {
		t.Errorf("Method = %q, want llm", persona.GenerationMetadata.Method)
	}
	if persona.GenerationMetadata.TemplateID != "b2c-standard" {
		t.Errorf("TemplateID = %q, want b2c-standard", persona.GenerationMetadata.TemplateID)
	}
	if persona.ValidationMetadata == nil || persona.ValidationMetadata.Score != outcome.Result.Score {
		t.Error("validation metadata not attached from the result")
	}
	if persona.Document["name"] != "Ava Chen" {
		t.Errorf("Document[name] = %v, want Ava Chen", persona.Document["name"])
	}

	if len(rec.records) != 1 {
		t.Fatalf("recorded %d outcomes, want 1", len(rec.records))
	}
	if rec.records[0].usedFallback {
		t.Error("recorded usedFallback = true, want false")
	}
}

func TestGenerateValidated_RetriesWithErrorFeedback(t *testing.T) {
	broken := validB2C()
	delete(broken, "occupation")
	broken["age"] = float64(12)

	gen := &scriptedGenerator{candidates: []map[string]any{broken, validB2C()}}
	p := newTestPipeline(t, gen, nil)

	req := models.GenerationRequest{PersonaType: models.PersonaTypeB2C}
	outcome, err := p.GenerateValidated(context.Background(), req, models.CulturalConstraints{}, models.UserSignals{})
	if err != nil {
		t.Fatalf("GenerateValidated() error = %v", err)
	}

	if outcome.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", outcome.Attempts)
	}
	if outcome.UsedFallback {
		t.Error("UsedFallback = true, want false")
	}

	if len(gen.contexts) != 2 {
		t.Fatalf("generator called %d times, want 2", len(gen.contexts))
	}
	first, second := gen.contexts[0], gen.contexts[1]
	if first.Attempt != 1 || len(first.PreviousErrors) != 0 {
		t.Errorf("first context = attempt %d with %d previous errors, want fresh", first.Attempt, len(first.PreviousErrors))
	}
	if second.Attempt != 2 {
		t.Errorf("second context attempt = %d, want 2", second.Attempt)
	}
	if len(second.PreviousErrors) == 0 {
		t.Fatal("second context carries no previous errors")
	}
	var sawMissingField bool
	for _, result := range second.PreviousErrors {
		if result.Field == "occupation" {
			sawMissingField = true
		}
	}
	if !sawMissingField {
		t.Errorf("previous errors %+v do not mention the missing occupation field", second.PreviousErrors)
	}
}

func TestGenerateValidated_FallbackUsesBestAttempt(t *testing.T) {
	// Three invalid candidates with increasing quality; the last one still
	// misses a required field but scores highest.
	worst := map[string]any{"name": "x"}
	middling := validB2C()
	delete(middling, "values")
	delete(middling, "occupation")
	bestCandidate := validB2C()
	delete(bestCandidate, "values")
	bestCandidate["marker"] = "best"

	gen := &scriptedGenerator{candidates: []map[string]any{worst, middling, bestCandidate}}
	rec := &captureRecorder{}
	p := newTestPipeline(t, gen, rec)

	req := models.GenerationRequest{PersonaType: models.PersonaTypeB2C}
	outcome, err := p.GenerateValidated(context.Background(), req, models.CulturalConstraints{}, models.UserSignals{})
	if err != nil {
		t.Fatalf("GenerateValidated() error = %v", err)
	}

	if !outcome.UsedFallback {
		t.Fatal("UsedFallback = false, want true")
	}
	if outcome.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", outcome.Attempts)
	}
	if outcome.Result.IsValid {
		t.Error("fallback result claims valid")
	}
	if outcome.Persona.Document["marker"] != "best" {
		t.Errorf("fallback persona is not the best-scoring attempt: %v", outcome.Persona.Document)
	}
	if outcome.Persona.GenerationMetadata.Method != "fallback" {
		t.Errorf("Method = %q, want fallback", outcome.Persona.GenerationMetadata.Method)
	}

	if len(rec.records) != 3 {
		t.Fatalf("recorded %d attempts, want 3", len(rec.records))
	}
	for i, record := range rec.records[:2] {
		if record.usedFallback {
			t.Errorf("attempt %d recorded usedFallback = true, want false", i+1)
		}
	}
	if !rec.records[2].usedFallback {
		t.Error("final attempt of a failed run not flagged as fallback")
	}
}

func TestGenerateValidated_GeneratorErrorAborts(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("api unreachable")}
	p := newTestPipeline(t, gen, nil)

	req := models.GenerationRequest{PersonaType: models.PersonaTypeB2C}
	_, err := p.GenerateValidated(context.Background(), req, models.CulturalConstraints{}, models.UserSignals{})
	if err == nil || !strings.Contains(err.Error(), "api unreachable") {
		t.Fatalf("error = %v, want wrapped generator error", err)
	}
	if len(gen.contexts) != 1 {
		t.Errorf("generator called %d times, want 1 (no retry on generation errors)", len(gen.contexts))
	}
}

func TestGenerateValidated_UnknownPersonaType(t *testing.T) {
	p := newTestPipeline(t, &scriptedGenerator{candidates: []map[string]any{validB2C()}}, nil)

	req := models.GenerationRequest{PersonaType: "enterprise"}
	_, err := p.GenerateValidated(context.Background(), req, models.CulturalConstraints{}, models.UserSignals{})
	if err == nil {
		t.Fatal("expected error for unknown persona type")
	}
}

func TestNewPipeline_RequiresDeps(t *testing.T) {
	if _, err := NewPipeline(PipelineConfig{}); err == nil {
		t.Error("expected error when generator is missing")
	}
	if _, err := NewPipeline(PipelineConfig{Generator: &scriptedGenerator{}}); err == nil {
		t.Error("expected error when engine is missing")
	}
}

func TestDefaultTemplateID(t *testing.T) {
	if got := DefaultTemplateID(models.PersonaTypeNiche); got != "niche-standard" {
		t.Errorf("DefaultTemplateID(niche) = %q, want niche-standard", got)
	}
}
