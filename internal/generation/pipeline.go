package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/personacraft/personad/internal/engine"
	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/pkg/models"
)

// PipelineConfig wires dependencies for the generate-validate loop.
type PipelineConfig struct {
	// Generator produces candidate documents.
	Generator Generator
	// Engine validates candidates. Give the pipeline an engine without its
	// own recorder; the pipeline records each attempt itself so the
	// fallback flag is stored correctly.
	Engine *engine.Engine
	// Retry bounds the attempt loop.
	Retry engine.RetryConfig
	// Recorder receives every attempt's validation result. May be nil.
	Recorder engine.Recorder
	// Logger may be nil.
	Logger *zap.Logger
	// TemplateID resolves the validation template for a persona type.
	// Defaults to DefaultTemplateID.
	TemplateID func(models.PersonaType) string
	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// DefaultTemplateID maps a persona type to its standard template.
func DefaultTemplateID(personaType models.PersonaType) string {
	return string(personaType) + "-standard"
}

// Pipeline runs the generate-validate loop: generate a candidate, validate
// it, and on failure regenerate with the errors fed back, up to the attempt
// ceiling. If no attempt passes, the best-scoring one is returned as a
// fallback.
type Pipeline struct {
	generator  Generator
	engine     *engine.Engine
	retry      *engine.RetryHandler
	recorder   engine.Recorder
	logger     *zap.Logger
	templateID func(models.PersonaType) string
	now        func() time.Time
}

// NewPipeline creates a pipeline. Generator and Engine are required.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("new pipeline: generator is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("new pipeline: engine is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	templateID := cfg.TemplateID
	if templateID == nil {
		templateID = DefaultTemplateID
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Pipeline{
		generator:  cfg.Generator,
		engine:     cfg.Engine,
		retry:      engine.NewRetryHandler(cfg.Retry),
		recorder:   cfg.Recorder,
		logger:     logger,
		templateID: templateID,
		now:        nowFn,
	}, nil
}

// Outcome is the result of a full generate-validate run.
type Outcome struct {
	// Persona is the generated record with both metadata blobs attached.
	Persona *models.Persona
	// Result is the validation result for the returned persona.
	Result *engine.ValidationResult
	// Attempts is how many generation attempts were made.
	Attempts int
	// UsedFallback is true when no attempt passed and the best-scoring
	// attempt was returned instead.
	UsedFallback bool
}

type attemptState struct {
	candidate models.Candidate
	result    *engine.ValidationResult
	elapsedMs int64
}

// GenerateValidated runs the loop for a request. Generation and engine
// errors abort the run; a candidate that merely fails validation triggers
// another attempt with the failures threaded into the next prompt.
func (p *Pipeline) GenerateValidated(ctx context.Context, req models.GenerationRequest, constraints models.CulturalConstraints, signals models.UserSignals) (*Outcome, error) {
	if !req.PersonaType.Valid() {
		return nil, fmt.Errorf("generate validated: unknown persona type %q", req.PersonaType)
	}

	templateID := p.templateID(req.PersonaType)
	vctx := rules.Context{
		Request:     req,
		Constraints: constraints,
		Signals:     signals,
		Attempt:     1,
	}

	var best *attemptState
	attempts := 0
	for attempt := 1; ; attempt++ {
		attempts = attempt

		start := p.now()
		candidate, err := p.generator.Generate(ctx, req, vctx)
		if err != nil {
			return nil, fmt.Errorf("attempt %d: %w", attempt, err)
		}
		elapsedMs := p.now().Sub(start).Milliseconds()

		result, err := p.engine.ValidateResponse(ctx, candidate, templateID, vctx)
		if err != nil {
			return nil, fmt.Errorf("attempt %d: %w", attempt, err)
		}

		state := &attemptState{candidate: candidate, result: result, elapsedMs: elapsedMs}
		if best == nil || result.Score > best.result.Score {
			best = state
		}

		if result.IsValid {
			p.record(result, req.PersonaType, false)
			return p.finish(req, state, attempt, false), nil
		}

		p.logger.Warn("attempt failed validation",
			zap.Int("attempt", attempt),
			zap.String("template_id", templateID),
			zap.Int("score", result.Score),
			zap.Int("errors", len(result.Errors)))

		if !p.retry.ShouldRetry(attempt) {
			// Last record of a failed run carries the fallback flag.
			p.record(result, req.PersonaType, true)
			break
		}
		p.record(result, req.PersonaType, false)
		vctx = p.retry.NextContext(vctx, result)
	}

	p.logger.Warn("all attempts failed, using best-scoring candidate",
		zap.Int("attempts", attempts),
		zap.Int("best_score", best.result.Score))
	return p.finish(req, best, attempts, true), nil
}

// record sends an attempt's result to the recorder, best effort.
func (p *Pipeline) record(result *engine.ValidationResult, personaType models.PersonaType, usedFallback bool) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(result, personaType, usedFallback); err != nil {
		p.logger.Warn("record validation attempt", zap.Error(err))
	}
}

// finish assembles the persona record and returns it.
func (p *Pipeline) finish(req models.GenerationRequest, state *attemptState, attempts int, usedFallback bool) *Outcome {
	method := "llm"
	if usedFallback {
		method = "fallback"
	}

	persona := &models.Persona{
		ID:          uuid.NewString(),
		PersonaType: req.PersonaType,
		Document:    state.candidate.Fields(),
		GenerationMetadata: &models.GenerationMetadata{
			Source:           "anthropic",
			Method:           method,
			ProcessingTimeMs: state.elapsedMs,
			TemplateID:       state.result.TemplateID,
		},
		ValidationMetadata: state.result.Metadata(),
		CreatedAt:          p.now(),
	}

	return &Outcome{
		Persona:      persona,
		Result:       state.result,
		Attempts:     attempts,
		UsedFallback: usedFallback,
	}
}
