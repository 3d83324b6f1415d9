package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/static"
)

type Server struct {
	analytics      *services.Analytics
	mux            *http.ServeMux
	logger         *slog.Logger
	pageHandlers   *handlers.PageHandlers
	apiHandlers    *handlers.APIHandlers
	sseHandlers    *handlers.SSEHandlers
	exportHandlers *handlers.ExportHandlers
}

func NewServer(analytics *services.Analytics, logger *slog.Logger) *Server {
	s := &Server{
		analytics:      analytics,
		mux:            http.NewServeMux(),
		logger:         logger,
		pageHandlers:   handlers.NewPageHandlers(analytics, logger),
		apiHandlers:    handlers.NewAPIHandlers(analytics, logger),
		sseHandlers:    handlers.NewSSEHandlers(analytics, logger),
		exportHandlers: handlers.NewExportHandlers(analytics, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static.FS)))

	// REST API endpoints
	s.mux.HandleFunc("GET /api/view", s.apiHandlers.HandleView)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/options", s.apiHandlers.HandleOptions)
	s.mux.HandleFunc("GET /api/rollup", s.apiHandlers.HandleRollup)
	s.mux.HandleFunc("GET /api/choropleth", s.apiHandlers.HandleChoropleth)
	s.mux.HandleFunc("GET /api/choropleth.geojson", s.apiHandlers.HandleChoroplethGeoJSON)

	// Exports of the filtered state
	s.mux.HandleFunc("GET /export/csv", s.exportHandlers.HandleCSV)
	s.mux.HandleFunc("GET /export/xlsx", s.exportHandlers.HandleXLSX)
	s.mux.HandleFunc("GET /export/pdf", s.exportHandlers.HandlePDF)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/refresh", s.sseHandlers.HandleRefresh)
	s.mux.HandleFunc("POST /sse/select", s.sseHandlers.HandleSelect)
	s.mux.HandleFunc("POST /sse/reset", s.sseHandlers.HandleReset)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
