// Package api exposes the validation engine and metrics collector over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/personacraft/personad/internal/engine"
	"github.com/personacraft/personad/internal/metrics"
	"github.com/personacraft/personad/internal/rules"
	"github.com/personacraft/personad/internal/templates"
	"github.com/personacraft/personad/pkg/models"
)

// MetricsStore is the slice of the metrics package the handler needs.
type MetricsStore interface {
	GetMetrics(q metrics.Query) ([]*metrics.Record, error)
	GetAggregatedMetrics(templateID, period string) (*metrics.Aggregated, error)
	GetMetricsSummary(q metrics.Query) ([]*metrics.SummaryRow, error)
	Cleanup(olderThanDays int) (int64, error)
}

// Config wires dependencies for the HTTP handler.
type Config struct {
	Registry *templates.Registry
	Engine   *engine.Engine
	Metrics  MetricsStore
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewHandler builds the HTTP handler for the validation API.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	h := &handler{
		registry: cfg.Registry,
		engine:   cfg.Engine,
		metrics:  cfg.Metrics,
		logger:   logger,
		nowFn:    nowFn,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/validation/templates", h.handleTemplates)
	mux.HandleFunc("/validation/test", h.handleTest)
	mux.HandleFunc("/validation/metrics", h.handleMetrics)
	return mux
}

type handler struct {
	registry *templates.Registry
	engine   *engine.Engine
	metrics  MetricsStore
	logger   *zap.Logger
	nowFn    func() time.Time
}

// templateView is the wire shape of a registered template.
type templateView struct {
	ID          string              `json:"id"`
	PersonaType models.PersonaType  `json:"persona_type"`
	Version     string              `json:"version"`
	Rules       []string            `json:"rules"`
	Metrics     *metrics.Aggregated `json:"metrics,omitempty"`
}

func (h *handler) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	includeMetrics := parseBool(r.URL.Query().Get("includeMetrics"))
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "24h"
	}
	if includeMetrics {
		if _, err := metrics.ParsePeriod(period); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}

	var views []templateView
	for _, tpl := range h.registry.All() {
		view := templateView{
			ID:          tpl.ID,
			PersonaType: tpl.PersonaType,
			Version:     tpl.Version,
			Rules:       tpl.RuleNames(),
		}
		if includeMetrics {
			agg, err := h.metrics.GetAggregatedMetrics(tpl.ID, period)
			if err != nil {
				h.logger.Error("aggregate template metrics",
					zap.String("template_id", tpl.ID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "metrics_error", err.Error())
				return
			}
			view.Metrics = agg
		}
		views = append(views, view)
	}

	writeJSON(w, http.StatusOK, map[string]any{"templates": views})
}

// testRequest is the POST /validation/test body.
type testRequest struct {
	TemplateID        string         `json:"templateId"`
	TestData          map[string]any `json:"testData"`
	AllowedCategories []string       `json:"allowedCategories,omitempty"`
}

func (h *handler) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.TemplateID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "templateId is required")
		return
	}
	if req.TestData == nil {
		writeError(w, http.StatusBadRequest, "bad_request", "testData is required")
		return
	}

	vctx := rules.Context{
		Constraints: models.CulturalConstraints{AllowedCategories: req.AllowedCategories},
		Attempt:     1,
	}
	candidate := models.CandidateFromMap(req.TestData)

	result, err := h.engine.ValidateResponse(r.Context(), candidate, req.TemplateID, vctx)
	if err != nil {
		if errors.Is(err, templates.ErrNotFound) {
			writeError(w, http.StatusNotFound, "template_not_found", err.Error())
			return
		}
		h.logger.Error("test validation", zap.String("template_id", req.TemplateID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "validation_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleMetricsQuery(w, r)
	case http.MethodDelete:
		h.handleMetricsCleanup(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) handleMetricsQuery(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q, err := h.buildQuery(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	switch {
	case parseBool(params.Get("aggregated")):
		agg, err := h.metrics.GetAggregatedMetrics(params.Get("templateId"), params.Get("period"))
		if err != nil {
			h.writeMetricsError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, agg)

	case parseBool(params.Get("summary")) || parseBool(params.Get("byTemplate")):
		summary, err := h.metrics.GetMetricsSummary(q)
		if err != nil {
			h.writeMetricsError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"summary": summary})

	default:
		records, err := h.metrics.GetMetrics(q)
		if err != nil {
			h.writeMetricsError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"records": records,
			"count":   len(records),
		})
	}
}

func (h *handler) handleMetricsCleanup(w http.ResponseWriter, r *http.Request) {
	olderThanDays := metrics.DefaultRetentionDays
	if raw := r.URL.Query().Get("olderThanDays"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "olderThanDays must be a positive integer")
			return
		}
		olderThanDays = n
	}

	deleted, err := h.metrics.Cleanup(olderThanDays)
	if err != nil {
		h.writeMetricsError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":         deleted,
		"older_than_days": olderThanDays,
	})
}

// buildQuery assembles a metrics query from URL parameters. Explicit
// startTime/endTime bounds take precedence over a period window.
func (h *handler) buildQuery(params map[string][]string) (metrics.Query, error) {
	get := func(key string) string {
		if vals, ok := params[key]; ok && len(vals) > 0 {
			return vals[0]
		}
		return ""
	}

	q := metrics.Query{
		TemplateID:  get("templateId"),
		PersonaType: models.PersonaType(get("personaType")),
	}

	if raw := get("startTime"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, errors.New("startTime must be RFC3339")
		}
		q.Since = t
	}
	if raw := get("endTime"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, errors.New("endTime must be RFC3339")
		}
		q.Until = t
	}
	if raw := get("period"); raw != "" {
		window, err := metrics.ParsePeriod(raw)
		if err != nil {
			return q, err
		}
		if q.Since.IsZero() {
			q.Since = h.nowFn().Add(-window)
		}
	}

	if raw := get("isValid"); raw != "" {
		v := parseBool(raw)
		q.IsValid = &v
	}
	if raw := get("minScore"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.New("minScore must be an integer")
		}
		q.MinScore = &n
	}
	if raw := get("maxScore"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.New("maxScore must be an integer")
		}
		q.MaxScore = &n
	}
	if raw := get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, errors.New("limit must be a non-negative integer")
		}
		q.Limit = n
	}

	return q, nil
}

// writeMetricsError logs a metrics store failure and reports it explicitly
// rather than fabricating empty metrics.
func (h *handler) writeMetricsError(w http.ResponseWriter, err error) {
	h.logger.Error("metrics store", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "metrics_error", err.Error())
}

// parseBool treats "true" and "1" as true, anything else as false.
func parseBool(raw string) bool {
	return raw == "true" || raw == "1"
}
