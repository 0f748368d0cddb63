package server

import (
	"log/slog"
	"net/http"

	"retail-dashboard/internal/handlers"
	"retail-dashboard/internal/services"
)

type Server struct {
	dashboard     *services.Dashboard
	mux           *http.ServeMux
	logger        *slog.Logger
	apiHandlers   *handlers.APIHandlers
	sseHandlers   *handlers.SSEHandlers
	chartHandlers *handlers.ChartHandlers
	pageHandlers  *handlers.PageHandlers
}

func NewServer(dashboard *services.Dashboard, opts handlers.Options, logger *slog.Logger) *Server {
	s := &Server{
		dashboard:     dashboard,
		mux:           http.NewServeMux(),
		logger:        logger,
		apiHandlers:   handlers.NewAPIHandlers(dashboard, opts, logger),
		sseHandlers:   handlers.NewSSEHandlers(dashboard, opts, logger),
		chartHandlers: handlers.NewChartHandlers(dashboard, opts, logger),
		pageHandlers:  handlers.NewPageHandlers(dashboard, opts, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("GET /api/products", s.apiHandlers.HandleProducts)
	s.mux.HandleFunc("GET /api/selection", s.apiHandlers.HandleSelection)
	s.mux.HandleFunc("GET /api/predictions", s.apiHandlers.HandlePredictions)
	s.mux.HandleFunc("GET /api/trend", s.apiHandlers.HandleTrend)

	// SVG charts
	s.mux.HandleFunc("GET /charts/scatter.svg", s.chartHandlers.HandleScatter)
	s.mux.HandleFunc("GET /charts/predictions.svg", s.chartHandlers.HandlePredictions)
	s.mux.HandleFunc("GET /charts/trend.svg", s.chartHandlers.HandleTrend)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/action/{action}", s.sseHandlers.HandleAction)
	s.mux.HandleFunc("GET /sse/predictions", s.sseHandlers.HandlePredictions)
	s.mux.HandleFunc("GET /sse/trend", s.sseHandlers.HandleTrend)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
