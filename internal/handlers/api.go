package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/aggregate"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// ViewResponse is the payload of /api/view.
type ViewResponse struct {
	Filters     filter.Selection     `json:"filters"`
	Description string               `json:"description"`
	Summary     models.Summary       `json:"summary"`
	View        models.AggregateView `json:"view"`
}

func (h *APIHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	sel := selectionFromQuery(r.URL.Query())

	data := ViewResponse{
		Filters:     sel,
		Description: sel.Describe(),
		Summary:     h.analytics.Summary(),
		View:        h.analytics.View(sel),
	}

	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Summary(), map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Options(), map[string]string{"Cache-Control": cacheControl})
}

// HandleRollup serves a single GroupSumBy pass, e.g.
// /api/rollup?by=categoria&sum=ingresos_hnl.
func (h *APIHandlers) HandleRollup(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	q := r.URL.Query()

	dim, ok := aggregate.ParseDimension(q.Get("by"))
	if !ok {
		errors.WriteError(w, h.logger, errors.Validation("unknown grouping dimension").WithDetails("by="+q.Get("by")), requestID)
		return
	}
	measure, ok := aggregate.ParseMeasure(q.Get("sum"))
	if !ok {
		errors.WriteError(w, h.logger, errors.Validation("unknown measure").WithDetails("sum="+q.Get("sum")), requestID)
		return
	}

	data := h.analytics.Rollup(dim, measure, selectionFromQuery(q))
	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": cacheControl})
}

func (h *APIHandlers) HandleChoropleth(w http.ResponseWriter, r *http.Request) {
	data := h.analytics.Choropleth(selectionFromQuery(r.URL.Query()))
	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": cacheControl})
}

// HandleChoroplethGeoJSON returns the boundary file with shading written into
// feature properties, ready for a map library.
func (h *APIHandlers) HandleChoroplethGeoJSON(w http.ResponseWriter, r *http.Request) {
	body, err := h.analytics.ChoroplethGeoJSON(selectionFromQuery(r.URL.Query()))
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "failed to build choropleth"), observability.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.Stats()
	stats["warning_details"] = h.analytics.Warnings()

	errors.WriteSuccess(w, stats)
}
