package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/personacraft/personad/pkg/models"
)

// Query filters stored validation records. Zero values mean "no filter".
type Query struct {
	// TemplateID filters by template.
	TemplateID string
	// PersonaType filters by persona type.
	PersonaType models.PersonaType
	// Since bounds validated_at from below, inclusive.
	Since time.Time
	// Until bounds validated_at from above, inclusive.
	Until time.Time
	// IsValid filters by verdict when non-nil.
	IsValid *bool
	// MinScore bounds the score from below when non-nil.
	MinScore *int
	// MaxScore bounds the score from above when non-nil.
	MaxScore *int
	// Limit caps the number of returned records; 0 means no cap.
	Limit int
}

// Aggregated is the derived view over a set of matched records. It is always
// recomputed from the stored records, never cached or mutated in place.
type Aggregated struct {
	// TemplateID is the template the aggregation covers; empty for all.
	TemplateID string `json:"template_id,omitempty"`
	// Period is the requested window ("24h", "7d", ...), if any.
	Period string `json:"period,omitempty"`
	// TotalValidations is the number of matched records.
	TotalValidations int `json:"total_validations"`
	// SuccessRate is the fraction of matched records with is_valid=true.
	SuccessRate float64 `json:"success_rate"`
	// AverageScore is the arithmetic mean of matched scores.
	AverageScore float64 `json:"average_score"`
	// FallbackUsageRate is the fraction of records flagged as fallback.
	FallbackUsageRate float64 `json:"fallback_usage_rate"`
}

// SummaryRow is the per-template breakdown line of a metrics summary.
type SummaryRow struct {
	// TemplateID is the template the row covers.
	TemplateID string `json:"template_id"`
	// PersonaType is the template's persona type as recorded.
	PersonaType models.PersonaType `json:"persona_type"`
	// TotalValidations is the number of matched records.
	TotalValidations int `json:"total_validations"`
	// SuccessRate is the fraction of matched records with is_valid=true.
	SuccessRate float64 `json:"success_rate"`
	// AverageScore is the arithmetic mean of matched scores.
	AverageScore float64 `json:"average_score"`
	// FallbackUsageRate is the fraction of records flagged as fallback.
	FallbackUsageRate float64 `json:"fallback_usage_rate"`
}

// ParsePeriod resolves a period string like "24h", "7d" or "2w" into a
// duration. Supported suffixes: h (hours), d (days), w (weeks).
func ParsePeriod(period string) (time.Duration, error) {
	if len(period) < 2 {
		return 0, fmt.Errorf("invalid period %q", period)
	}
	suffix := period[len(period)-1]
	n, err := strconv.Atoi(period[:len(period)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid period %q", period)
	}
	switch suffix {
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid period %q: unknown unit %q", period, string(suffix))
	}
}

// GetMetrics returns the stored records matching the query, newest first.
func (s *Store) GetMetrics(q Query) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildWhere(q)

	query := `
		SELECT id, template_id, persona_type, is_valid, score,
		       error_count, warning_count, used_fallback, validation_time_ms,
		       validated_at, details
		FROM validation_metrics
	` + where + " ORDER BY validated_at DESC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetAggregatedMetrics computes the aggregate view for a template over a
// period window ending now. An empty templateID aggregates across all
// templates; an empty period covers all time.
func (s *Store) GetAggregatedMetrics(templateID, period string) (*Aggregated, error) {
	q := Query{TemplateID: templateID}
	if period != "" {
		window, err := ParsePeriod(period)
		if err != nil {
			return nil, err
		}
		q.Since = s.now().Add(-window)
	}

	agg, err := s.aggregate(q)
	if err != nil {
		return nil, err
	}
	agg.TemplateID = templateID
	agg.Period = period
	return agg, nil
}

// GetMetricsSummary computes a per-template breakdown over the query window.
func (s *Store) GetMetricsSummary(q Query) ([]*SummaryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildWhere(q)

	rows, err := s.db.Query(`
		SELECT template_id, persona_type, COUNT(*),
		       AVG(is_valid), AVG(score), AVG(used_fallback)
		FROM validation_metrics
	`+where+`
		GROUP BY template_id, persona_type
		ORDER BY template_id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var summary []*SummaryRow
	for rows.Next() {
		var (
			row         SummaryRow
			personaType string
		)
		if err := rows.Scan(&row.TemplateID, &personaType, &row.TotalValidations,
			&row.SuccessRate, &row.AverageScore, &row.FallbackUsageRate); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		row.PersonaType = models.PersonaType(personaType)
		summary = append(summary, &row)
	}
	return summary, rows.Err()
}

// aggregate computes the aggregate view over records matching the query.
func (s *Store) aggregate(q Query) (*Aggregated, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildWhere(q)

	row := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(AVG(is_valid), 0),
		       COALESCE(AVG(score), 0),
		       COALESCE(AVG(used_fallback), 0)
		FROM validation_metrics
	`+where, args...)

	agg := &Aggregated{}
	if err := row.Scan(&agg.TotalValidations, &agg.SuccessRate, &agg.AverageScore, &agg.FallbackUsageRate); err != nil {
		return nil, fmt.Errorf("aggregate metrics: %w", err)
	}
	return agg, nil
}

// buildWhere assembles the WHERE clause for a query.
func buildWhere(q Query) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if q.TemplateID != "" {
		clauses = append(clauses, "template_id = ?")
		args = append(args, q.TemplateID)
	}
	if q.PersonaType != "" {
		clauses = append(clauses, "persona_type = ?")
		args = append(args, string(q.PersonaType))
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "validated_at >= ?")
		args = append(args, formatTime(q.Since))
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "validated_at <= ?")
		args = append(args, formatTime(q.Until))
	}
	if q.IsValid != nil {
		clauses = append(clauses, "is_valid = ?")
		args = append(args, boolToInt(*q.IsValid))
	}
	if q.MinScore != nil {
		clauses = append(clauses, "score >= ?")
		args = append(args, *q.MinScore)
	}
	if q.MaxScore != nil {
		clauses = append(clauses, "score <= ?")
		args = append(args, *q.MaxScore)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
