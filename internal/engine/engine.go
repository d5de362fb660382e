// Package engine orchestrates running a persona candidate through a
// validation template and aggregating the rule results.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/internal/templates"
	"github.com/personacraft/personad/pkg/models"
)

// ValidationResult is the aggregated outcome of one validation call.
// It is computed once and never mutated afterwards.
type ValidationResult struct {
	// IsValid is true when no blocking rule failed.
	IsValid bool `json:"is_valid"`
	// Score is the rounded mean of every rule result's score, 0-100.
	Score int `json:"score"`
	// Errors are the failed results in blocking categories.
	Errors []rules.Result `json:"errors,omitempty"`
	// Warnings are the failed results in advisory categories.
	Warnings []rules.Result `json:"warnings,omitempty"`
	// Details holds every rule result in declared rule order.
	Details []rules.Result `json:"details"`
	// TemplateID is the template the candidate was validated against.
	TemplateID string `json:"template_id"`
	// PersonaType is the template's persona type.
	PersonaType models.PersonaType `json:"persona_type"`
	// ValidatedAt is when the validation ran.
	ValidatedAt time.Time `json:"validated_at"`
	// ValidationTimeMs is the wall time rule evaluation took.
	ValidationTimeMs int64 `json:"validation_time_ms"`
}

// Metadata converts the result into its persisted document form.
func (r *ValidationResult) Metadata() *models.ValidationMetadata {
	meta := &models.ValidationMetadata{
		TemplateID:       r.TemplateID,
		Score:            r.Score,
		ValidationTimeMs: r.ValidationTimeMs,
		Timestamp:        r.ValidatedAt,
	}
	seenFailed := make(map[string]bool)
	seenPassed := make(map[string]bool)
	for _, detail := range r.Details {
		meta.Details = append(meta.Details, models.RuleDetail{
			Rule:     detail.Rule,
			Passed:   detail.Passed,
			Score:    detail.Score,
			Category: string(detail.Category),
			Message:  detail.Message,
			Field:    detail.Field,
		})
		if detail.Passed {
			if !seenPassed[detail.Rule] {
				seenPassed[detail.Rule] = true
				meta.PassedRules = append(meta.PassedRules, detail.Rule)
			}
		} else if !seenFailed[detail.Rule] {
			seenFailed[detail.Rule] = true
			meta.FailedRules = append(meta.FailedRules, detail.Rule)
		}
	}
	return meta
}

// Recorder receives validation results for metrics persistence. A failing
// recorder must never fail the validation call.
type Recorder interface {
	Record(result *ValidationResult, personaType models.PersonaType, usedFallback bool) error
}

// Engine resolves templates and runs candidates through them. It holds no
// mutable state; concurrent calls are independent.
type Engine struct {
	registry *templates.Registry
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine creates an engine over the given registry. recorder may be nil
// to disable metrics; logger may be nil.
func NewEngine(registry *templates.Registry, recorder Recorder, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry: registry,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// ValidateResponse runs the candidate through the named template's rules in
// declared order, with no short-circuiting, and aggregates the results.
// An unknown template id is a fatal error, not a validation failure.
func (e *Engine) ValidateResponse(ctx context.Context, candidate models.Candidate, templateID string, vctx rules.Context) (*ValidationResult, error) {
	tpl, err := e.registry.Get(templateID)
	if err != nil {
		return nil, fmt.Errorf("resolve template: %w", err)
	}

	start := e.now()
	var details []rules.Result
	for _, rule := range tpl.Rules {
		details = append(details, rule.Evaluate(candidate, vctx)...)
	}
	elapsed := e.now().Sub(start)

	result := aggregate(details, tpl)
	result.ValidatedAt = start
	result.ValidationTimeMs = elapsed.Milliseconds()

	e.record(result)

	return result, nil
}

// aggregate folds rule results into a ValidationResult.
func aggregate(details []rules.Result, tpl *templates.Template) *ValidationResult {
	result := &ValidationResult{
		IsValid:     true,
		Details:     details,
		TemplateID:  tpl.ID,
		PersonaType: tpl.PersonaType,
	}

	total := 0
	for _, res := range details {
		total += res.Score
		if res.Passed {
			continue
		}
		if res.Category.Blocking() {
			result.IsValid = false
			result.Errors = append(result.Errors, res)
		} else {
			result.Warnings = append(result.Warnings, res)
		}
	}
	if len(details) > 0 {
		result.Score = int(math.Round(float64(total) / float64(len(details))))
	}
	return result
}

// record sends the result to the metrics recorder. Failures are logged and
// swallowed so metrics trouble never fails a validation.
func (e *Engine) record(result *ValidationResult) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(result, result.PersonaType, false); err != nil {
		e.logger.Warn("record validation metrics",
			zap.String("template_id", result.TemplateID),
			zap.Error(err))
	}
}
