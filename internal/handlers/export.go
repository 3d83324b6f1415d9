package handlers

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/export"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const noDataMessage = "No hay datos para exportar."

type ExportHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewExportHandlers(analytics *services.Analytics, logger *slog.Logger) *ExportHandlers {
	return &ExportHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *ExportHandlers) HandleCSV(w http.ResponseWriter, r *http.Request) {
	rows := h.analytics.FilteredRows(selectionFromQuery(r.URL.Query()))
	h.serve(w, r, "text/csv; charset=utf-8", export.CSVFilename, func(buf io.Writer) error {
		return export.CSV(buf, rows)
	})
}

func (h *ExportHandlers) HandleXLSX(w http.ResponseWriter, r *http.Request) {
	report := h.report(r)
	h.serve(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.XLSXFilename, func(buf io.Writer) error {
		return export.XLSX(buf, report)
	})
}

// HandlePDF renders the chart page. An empty selection still renders, with
// zero-valued charts.
func (h *ExportHandlers) HandlePDF(w http.ResponseWriter, r *http.Request) {
	report := h.report(r)
	h.serve(w, r, "application/pdf", export.PDFFilename, func(buf io.Writer) error {
		return export.PDF(buf, report)
	})
}

func (h *ExportHandlers) report(r *http.Request) export.Report {
	sel := selectionFromQuery(r.URL.Query())
	return export.Report{
		Rows:        h.analytics.FilteredRows(sel),
		View:        h.analytics.View(sel),
		Summary:     h.analytics.Summary(),
		Description: sel.Describe(),
	}
}

// serve renders into memory first so a failed export still gets a JSON
// error instead of a truncated download.
func (h *ExportHandlers) serve(w http.ResponseWriter, r *http.Request, contentType, filename string, render func(io.Writer) error) {
	requestID := observability.GetRequestID(r.Context())

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		if stderrors.Is(err, export.ErrNoRows) {
			errors.WriteError(w, h.logger, errors.NoData(noDataMessage), requestID)
			return
		}
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "export failed"), requestID)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export write interrupted", "error", err, "request_id", requestID)
	}
}
