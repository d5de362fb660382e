package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/internal/templates"
	"github.com/personacraft/personad/pkg/models"
)

// countingRule wraps a rule and counts evaluations, to prove no rule is
// skipped regardless of earlier failures.
type countingRule struct {
	inner rules.Rule
	calls *int
}

func (r *countingRule) Name() string { return r.inner.Name() }

func (r *countingRule) Evaluate(candidate models.Candidate, vctx rules.Context) []rules.Result {
	*r.calls++
	return r.inner.Evaluate(candidate, vctx)
}

// staticRule returns a fixed result, for score arithmetic tests.
type staticRule struct {
	name   string
	result rules.Result
}

func (r *staticRule) Name() string { return r.name }

func (r *staticRule) Evaluate(models.Candidate, rules.Context) []rules.Result {
	res := r.result
	res.Rule = r.name
	return []rules.Result{res}
}

// failingRecorder always errors, to prove metrics trouble is isolated.
type failingRecorder struct {
	calls int
}

func (r *failingRecorder) Record(*ValidationResult, models.PersonaType, bool) error {
	r.calls++
	return errors.New("metrics store unavailable")
}

// memoryRecorder captures recorded results.
type memoryRecorder struct {
	results []*ValidationResult
}

func (r *memoryRecorder) Record(result *ValidationResult, _ models.PersonaType, _ bool) error {
	r.results = append(r.results, result)
	return nil
}

func newTestRegistry(t *testing.T, tpl *templates.Template) *templates.Registry {
	t.Helper()
	registry := templates.NewRegistry()
	if err := registry.Register(tpl); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return registry
}

func b2cTemplate(t *testing.T) *templates.Template {
	t.Helper()
	required, err := rules.NewRequiredFields("required-core", []string{"name", "age", "interests"})
	if err != nil {
		t.Fatal(err)
	}
	ageRange, err := rules.NewNumericRange("age-range", "age", 18, 95)
	if err != nil {
		t.Fatal(err)
	}
	consistency, err := rules.NewInterestConsistency("interest-categories", "interests")
	if err != nil {
		t.Fatal(err)
	}
	return &templates.Template{
		ID:          "b2c-test",
		PersonaType: models.PersonaTypeB2C,
		Version:     "1.0.0",
		Rules:       []rules.Rule{required, ageRange, consistency},
	}
}

func TestValidateResponse_Valid(t *testing.T) {
	eng := NewEngine(newTestRegistry(t, b2cTemplate(t)), nil, nil)

	candidate := models.CandidateFromMap(map[string]any{
		"name":      "Ava Chen",
		"age":       float64(34),
		"interests": []any{"music:indie rock"},
	})
	vctx := rules.Context{
		Constraints: models.CulturalConstraints{AllowedCategories: []string{"music"}},
		Attempt:     1,
	}

	result, err := eng.ValidateResponse(context.Background(), candidate, "b2c-test", vctx)
	if err != nil {
		t.Fatalf("ValidateResponse() error = %v", err)
	}

	if !result.IsValid {
		t.Errorf("IsValid = false, want true; errors: %+v", result.Errors)
	}
	if result.Score != 100 {
		t.Errorf("Score = %d, want 100", result.Score)
	}
	if len(result.Errors) != 0 || len(result.Warnings) != 0 {
		t.Errorf("Errors/Warnings = %d/%d, want 0/0", len(result.Errors), len(result.Warnings))
	}
	if result.TemplateID != "b2c-test" {
		t.Errorf("TemplateID = %q, want %q", result.TemplateID, "b2c-test")
	}
	if result.ValidatedAt.IsZero() {
		t.Error("ValidatedAt not stamped")
	}
}

func TestValidateResponse_UnknownTemplateIsFatal(t *testing.T) {
	eng := NewEngine(templates.NewRegistry(), nil, nil)

	_, err := eng.ValidateResponse(context.Background(), models.CandidateFromMap(nil), "ghost", rules.Context{})
	if !errors.Is(err, templates.ErrNotFound) {
		t.Errorf("ValidateResponse(unknown template) error = %v, want ErrNotFound", err)
	}
}

func TestValidateResponse_NoShortCircuit(t *testing.T) {
	required, _ := rules.NewRequiredFields("required-core", []string{"name", "age"})
	ageRange, _ := rules.NewNumericRange("age-range", "age", 18, 95)

	var requiredCalls, rangeCalls int
	tpl := &templates.Template{
		ID:          "counting",
		PersonaType: models.PersonaTypeB2C,
		Version:     "1.0.0",
		Rules: []rules.Rule{
			&countingRule{inner: required, calls: &requiredCalls},
			&countingRule{inner: ageRange, calls: &rangeCalls},
		},
	}
	eng := NewEngine(newTestRegistry(t, tpl), nil, nil)

	// Candidate fails the first rule; the second must still run.
	result, err := eng.ValidateResponse(context.Background(), models.CandidateFromMap(map[string]any{}), "counting", rules.Context{})
	if err != nil {
		t.Fatalf("ValidateResponse() error = %v", err)
	}

	if requiredCalls != 1 || rangeCalls != 1 {
		t.Errorf("rule calls = %d, %d, want 1, 1 (no short-circuit)", requiredCalls, rangeCalls)
	}
	// Two missing fields plus a range failure on the missing age.
	if len(result.Details) != 3 {
		t.Errorf("len(Details) = %d, want 3", len(result.Details))
	}
	if result.IsValid {
		t.Error("IsValid = true, want false")
	}
}

func TestValidateResponse_ScoreIsRoundedMean(t *testing.T) {
	tpl := &templates.Template{
		ID:          "scores",
		PersonaType: models.PersonaTypeB2C,
		Version:     "1.0.0",
		Rules: []rules.Rule{
			&staticRule{name: "a", result: rules.Result{Passed: true, Score: 100, Category: rules.CategoryStructure}},
			&staticRule{name: "b", result: rules.Result{Passed: true, Score: 70, Category: rules.CategoryFormat}},
			&staticRule{name: "c", result: rules.Result{Passed: false, Score: 40, Category: rules.CategoryConsistency, Message: "off"}},
		},
	}
	eng := NewEngine(newTestRegistry(t, tpl), nil, nil)

	result, err := eng.ValidateResponse(context.Background(), models.CandidateFromMap(nil), "scores", rules.Context{})
	if err != nil {
		t.Fatalf("ValidateResponse() error = %v", err)
	}

	// mean(100, 70, 40) = 70.
	if result.Score != 70 {
		t.Errorf("Score = %d, want 70", result.Score)
	}
	// The only failure is advisory: still valid, one warning.
	if !result.IsValid {
		t.Error("IsValid = false, want true (advisory failure only)")
	}
	if len(result.Warnings) != 1 || len(result.Errors) != 0 {
		t.Errorf("Warnings/Errors = %d/%d, want 1/0", len(result.Warnings), len(result.Errors))
	}
}

func TestValidateResponse_ScoreRounding(t *testing.T) {
	tpl := &templates.Template{
		ID:          "rounding",
		PersonaType: models.PersonaTypeB2C,
		Version:     "1.0.0",
		Rules: []rules.Rule{
			&staticRule{name: "a", result: rules.Result{Passed: true, Score: 100, Category: rules.CategoryFormat}},
			&staticRule{name: "b", result: rules.Result{Passed: true, Score: 100, Category: rules.CategoryFormat}},
			&staticRule{name: "c", result: rules.Result{Passed: false, Score: 0, Category: rules.CategoryFormat, Message: "x"}},
		},
	}
	eng := NewEngine(newTestRegistry(t, tpl), nil, nil)

	result, err := eng.ValidateResponse(context.Background(), models.CandidateFromMap(nil), "rounding", rules.Context{})
	if err != nil {
		t.Fatalf("ValidateResponse() error = %v", err)
	}

	// mean(100, 100, 0) = 66.67 -> 67.
	if result.Score != 67 {
		t.Errorf("Score = %d, want 67", result.Score)
	}
	if result.Score < 0 || result.Score > 100 {
		t.Errorf("Score = %d outside [0, 100]", result.Score)
	}
}

func TestValidateResponse_BlockingVsAdvisory(t *testing.T) {
	eng := NewEngine(newTestRegistry(t, b2cTemplate(t)), nil, nil)

	// Valid structure and range, off-constraint interest category.
	candidate := models.CandidateFromMap(map[string]any{
		"name":      "Ben",
		"age":       float64(40),
		"interests": []any{"gaming:speedrunning"},
	})
	vctx := rules.Context{
		Constraints: models.CulturalConstraints{AllowedCategories: []string{"music"}},
	}

	result, err := eng.ValidateResponse(context.Background(), candidate, "b2c-test", vctx)
	if err != nil {
		t.Fatalf("ValidateResponse() error = %v", err)
	}

	if !result.IsValid {
		t.Error("IsValid = false, want true: consistency failures are advisory")
	}
	if len(result.Warnings) != 1 {
		t.Errorf("len(Warnings) = %d, want 1", len(result.Warnings))
	}
	if result.Score >= 100 {
		t.Errorf("Score = %d, want below 100 with a warning present", result.Score)
	}
}

func TestValidateResponse_Deterministic(t *testing.T) {
	eng := NewEngine(newTestRegistry(t, b2cTemplate(t)), nil, nil)

	candidate := models.CandidateFromMap(map[string]any{
		"name": "Ada", "interests": []any{"music:jazz"},
	})
	vctx := rules.Context{Attempt: 1}

	first, err := eng.ValidateResponse(context.Background(), candidate, "b2c-test", vctx)
	if err != nil {
		t.Fatalf("first ValidateResponse() error = %v", err)
	}
	second, err := eng.ValidateResponse(context.Background(), candidate, "b2c-test", vctx)
	if err != nil {
		t.Fatalf("second ValidateResponse() error = %v", err)
	}

	if first.IsValid != second.IsValid || first.Score != second.Score {
		t.Errorf("results differ: %v/%d vs %v/%d", first.IsValid, first.Score, second.IsValid, second.Score)
	}
	if !reflect.DeepEqual(first.Details, second.Details) {
		t.Errorf("details differ between identical calls")
	}
}

func TestValidateResponse_RecorderFailureIsIsolated(t *testing.T) {
	recorder := &failingRecorder{}
	eng := NewEngine(newTestRegistry(t, b2cTemplate(t)), recorder, nil)

	result, err := eng.ValidateResponse(context.Background(), models.CandidateFromMap(map[string]any{
		"name": "Eve", "age": float64(30), "interests": []any{},
	}), "b2c-test", rules.Context{})

	if err != nil {
		t.Fatalf("ValidateResponse() error = %v, want nil despite recorder failure", err)
	}
	if result == nil {
		t.Fatal("result = nil, want a result despite recorder failure")
	}
	if recorder.calls != 1 {
		t.Errorf("recorder calls = %d, want 1", recorder.calls)
	}
}

func TestValidateResponse_RecordsToRecorder(t *testing.T) {
	recorder := &memoryRecorder{}
	eng := NewEngine(newTestRegistry(t, b2cTemplate(t)), recorder, nil)

	_, err := eng.ValidateResponse(context.Background(), models.CandidateFromMap(map[string]any{
		"name": "Kim", "age": float64(28), "interests": []any{"music:house"},
	}), "b2c-test", rules.Context{})
	if err != nil {
		t.Fatalf("ValidateResponse() error = %v", err)
	}

	if len(recorder.results) != 1 {
		t.Fatalf("recorded %d results, want 1", len(recorder.results))
	}
	if recorder.results[0].TemplateID != "b2c-test" {
		t.Errorf("recorded TemplateID = %q, want %q", recorder.results[0].TemplateID, "b2c-test")
	}
}

func TestValidationResult_Metadata(t *testing.T) {
	eng := NewEngine(newTestRegistry(t, b2cTemplate(t)), nil, nil)

	result, err := eng.ValidateResponse(context.Background(), models.CandidateFromMap(map[string]any{
		"name": "Ana", "interests": []any{"music:salsa"},
	}), "b2c-test", rules.Context{})
	if err != nil {
		t.Fatalf("ValidateResponse() error = %v", err)
	}

	meta := result.Metadata()
	if meta.TemplateID != "b2c-test" {
		t.Errorf("meta TemplateID = %q, want %q", meta.TemplateID, "b2c-test")
	}
	if meta.Score != result.Score {
		t.Errorf("meta Score = %d, want %d", meta.Score, result.Score)
	}
	if len(meta.Details) != len(result.Details) {
		t.Errorf("meta Details = %d entries, want %d", len(meta.Details), len(result.Details))
	}
	// age missing: required-core and age-range both failed.
	wantFailed := map[string]bool{"required-core": true, "age-range": true}
	if len(meta.FailedRules) != len(wantFailed) {
		t.Fatalf("FailedRules = %v, want required-core and age-range", meta.FailedRules)
	}
	for _, name := range meta.FailedRules {
		if !wantFailed[name] {
			t.Errorf("unexpected failed rule %q", name)
		}
	}
}

func TestRetryHandler(t *testing.T) {
	handler := NewRetryHandler(RetryConfig{MaxAttempts: 3})

	if !handler.ShouldRetry(1) || !handler.ShouldRetry(2) {
		t.Error("ShouldRetry(1..2) = false, want true")
	}
	if handler.ShouldRetry(3) {
		t.Error("ShouldRetry(3) = true at ceiling, want false")
	}
}

func TestRetryHandler_NextContext(t *testing.T) {
	handler := NewRetryHandler(DefaultRetryConfig())

	vctx := rules.Context{Attempt: 1}
	result := &ValidationResult{
		Errors: []rules.Result{
			{Rule: "required-core", Passed: false, Category: rules.CategoryStructure, Field: "age"},
		},
	}

	next := handler.NextContext(vctx, result)

	if next.Attempt != 2 {
		t.Errorf("next Attempt = %d, want 2", next.Attempt)
	}
	if len(next.PreviousErrors) != 1 || next.PreviousErrors[0].Field != "age" {
		t.Errorf("PreviousErrors = %+v, want the failed result carried over", next.PreviousErrors)
	}
	// Original context untouched.
	if vctx.Attempt != 1 || len(vctx.PreviousErrors) != 0 {
		t.Errorf("input context mutated: %+v", vctx)
	}

	// Errors accumulate across attempts.
	third := handler.NextContext(next, result)
	if third.Attempt != 3 || len(third.PreviousErrors) != 2 {
		t.Errorf("third context = attempt %d with %d errors, want 3 with 2", third.Attempt, len(third.PreviousErrors))
	}
}
