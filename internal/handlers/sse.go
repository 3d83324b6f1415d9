package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const maxTableRows = 50

// dashboardSignals is the client state datastar sends with each request.
// The client owns its selection; the server only transforms it.
type dashboardSignals struct {
	Filters filter.Selection `json:"filters"`
}

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderStatus(ctx context.Context, sel filter.Selection, view models.AggregateView) (string, error) {
	var buf strings.Builder

	regions := view.ByRegion
	if len(regions) > maxTableRows {
		regions = regions[:maxTableRows]
	}

	err := templates.FilterStatus(sel.Describe(), view.IsEmpty(), regions).Render(ctx, &buf)
	return buf.String(), err
}

// readSelection returns the client's current selection. Unreadable signals
// count as no selection.
func (h *SSEHandlers) readSelection(r *http.Request) filter.Selection {
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("unreadable signals, using empty selection",
			"error", err,
			"request_id", observability.GetRequestID(r.Context()),
		)
		return filter.Selection{}
	}
	return signals.Filters.Normalize()
}

// HandleRefresh re-sends every view for the client's current selection.
func (h *SSEHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	sel := h.readSelection(r)
	h.patchDashboard(w, r, sel)
}

// HandleSelect toggles one filter: /sse/select?dim=categoria&value=Ropa.
// Selecting the active value again clears that filter.
func (h *SSEHandlers) HandleSelect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dim, ok := filter.ParseDimension(q.Get("dim"))
	if !ok {
		errors.WriteError(w, h.logger,
			errors.Validation("unknown filter dimension").WithDetails("dim="+q.Get("dim")),
			observability.GetRequestID(r.Context()))
		return
	}

	sel := h.readSelection(r).Toggle(dim, q.Get("value"))
	h.patchDashboard(w, r, sel)
}

func (h *SSEHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.patchDashboard(w, r, filter.Selection{}.Reset())
}

func (h *SSEHandlers) patchDashboard(w http.ResponseWriter, r *http.Request, sel filter.Selection) {
	view := h.analytics.View(sel)

	signals, err := json.Marshal(map[string]any{
		"filters":    sel,
		"status":     sel.Describe(),
		"view":       view,
		"choropleth": h.analytics.ChoroplethFor(view, sel),
		"currency":   h.analytics.Summary().Currency,
	})
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}

	html, err := h.renderStatus(r.Context(), sel, view)
	if err != nil {
		h.logger.Error("render filter status", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchSignals(signals); err != nil {
		h.logger.Warn("patch signals", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch status element", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
