package metrics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/personacraft/personad/internal/engine"
	"github.com/personacraft/personad/pkg/models"
)

// Record is one stored validation outcome.
type Record struct {
	// ID is the unique identifier for this record.
	ID string `json:"id"`
	// TemplateID is the template the candidate was validated against.
	TemplateID string `json:"template_id"`
	// PersonaType is the persona type the validation applied to.
	PersonaType models.PersonaType `json:"persona_type"`
	// IsValid is the validation verdict.
	IsValid bool `json:"is_valid"`
	// Score is the aggregate score, 0-100.
	Score int `json:"score"`
	// ErrorCount is the number of blocking failures.
	ErrorCount int `json:"error_count"`
	// WarningCount is the number of advisory failures.
	WarningCount int `json:"warning_count"`
	// UsedFallback indicates the caller accepted a fallback generation path.
	UsedFallback bool `json:"used_fallback"`
	// ValidationTimeMs is the wall time the validation took.
	ValidationTimeMs int64 `json:"validation_time_ms"`
	// ValidatedAt is when the validation ran.
	ValidatedAt time.Time `json:"validated_at"`
	// Details holds the rule-level results.
	Details []models.RuleDetail `json:"details,omitempty"`
}

// Record stores a validation result. The insert is a single atomic
// statement, so concurrent callers cannot lose updates.
// It implements engine.Recorder.
func (s *Store) Record(result *engine.ValidationResult, personaType models.PersonaType, usedFallback bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := result.Metadata()
	detailsJSON, err := json.Marshal(meta.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO validation_metrics (
			id, template_id, persona_type, is_valid, score,
			error_count, warning_count, used_fallback, validation_time_ms,
			validated_at, details
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.NewString(),
		result.TemplateID,
		string(personaType),
		boolToInt(result.IsValid),
		result.Score,
		len(result.Errors),
		len(result.Warnings),
		boolToInt(usedFallback),
		result.ValidationTimeMs,
		formatTime(result.ValidatedAt),
		string(detailsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert validation record: %w", err)
	}

	return nil
}

// scanRecord reads one record from a row scanner.
func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		rec          Record
		personaType  string
		isValid      int
		usedFallback int
		validatedAt  string
		details      sql.NullString
	)

	if err := rows.Scan(
		&rec.ID,
		&rec.TemplateID,
		&personaType,
		&isValid,
		&rec.Score,
		&rec.ErrorCount,
		&rec.WarningCount,
		&usedFallback,
		&rec.ValidationTimeMs,
		&validatedAt,
		&details,
	); err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	rec.PersonaType = models.PersonaType(personaType)
	rec.IsValid = isValid != 0
	rec.UsedFallback = usedFallback != 0

	parsed, err := parseTime(validatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse validated_at: %w", err)
	}
	rec.ValidatedAt = parsed

	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &rec.Details); err != nil {
			return nil, fmt.Errorf("unmarshal details: %w", err)
		}
	}

	return &rec, nil
}

// boolToInt converts a bool to SQLite's integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
