package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/pipeline"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	dashboard *services.Dashboard
	opts      Options
	logger    *slog.Logger
}

func NewPageHandlers(dashboard *services.Dashboard, opts Options, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		dashboard: dashboard,
		opts:      opts,
		logger:    logger,
	}
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()
	requestID := observability.GetRequestID(ctx)

	_, state := h.opts.loadState(w, r, h.dashboard, h.logger)
	v, err := pipeline.BuildView(h.dashboard.Products(), state, h.opts.Catalog, h.opts.Dims)
	if err != nil {
		errors.Respond(w, r, h.logger, errors.InternalWrap(err, "Failed to build dashboard"))
		return
	}

	skus := h.dashboard.SKUs()
	sku := ""
	if len(skus) > 0 {
		sku = skus[0]
	}
	signals, err := pageSignals(state, sku)
	if err != nil {
		errors.Respond(w, r, h.logger, errors.InternalWrap(err, "Failed to encode signals"))
		return
	}

	version := uuid.NewString()
	scatter, err := scatterView(v, version)
	if err != nil {
		errors.Respond(w, r, h.logger, errors.InternalWrap(err, "Failed to lay out scatter chart"))
		return
	}

	page := templates.Page{
		Title:       pageTitle,
		Signals:     signals,
		Controls:    controlsView(h.opts.Catalog, h.dashboard.Countries(), state, h.opts.MaxDensity),
		Scatter:     scatter,
		Selection:   selectionView(v),
		Notes:       notesView(v.Metric),
		Predictions: predictionsView(h.dashboard.Predictions(), version),
		Trend:       trendView(skus, sku, false, version),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Dashboard(page).Render(ctx, w); err != nil {
		h.logger.Error("render dashboard", "error", err, "request_id", requestID)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
