package engine

import (
	"github.com/personacraft/personad/internal/rules"
)

// RetryConfig configures the caller-driven retry contract.
type RetryConfig struct {
	// MaxAttempts is the attempt ceiling (default 3).
	MaxAttempts int
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3}
}

// RetryHandler builds validation contexts for regeneration attempts. The
// engine itself stays stateless across attempts; the handler only threads
// the previous attempt's errors into the next context.
type RetryHandler struct {
	config RetryConfig
}

// NewRetryHandler creates a retry handler.
func NewRetryHandler(config RetryConfig) *RetryHandler {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultRetryConfig().MaxAttempts
	}
	return &RetryHandler{config: config}
}

// MaxAttempts returns the configured attempt ceiling.
func (h *RetryHandler) MaxAttempts() int {
	return h.config.MaxAttempts
}

// ShouldRetry reports whether another attempt may be made after the given
// attempt number.
func (h *RetryHandler) ShouldRetry(attempt int) bool {
	return attempt < h.config.MaxAttempts
}

// NextContext derives the context for the next attempt from the current one
// and the failed result: the attempt counter advances and the failed
// blocking results are appended to PreviousErrors so the generator can
// address them. The input context is not mutated.
func (h *RetryHandler) NextContext(vctx rules.Context, result *ValidationResult) rules.Context {
	next := vctx
	next.Attempt = vctx.Attempt + 1
	if next.Attempt < 2 {
		next.Attempt = 2
	}

	next.PreviousErrors = append([]rules.Result{}, vctx.PreviousErrors...)
	if result != nil {
		next.PreviousErrors = append(next.PreviousErrors, result.Errors...)
	}
	return next
}
