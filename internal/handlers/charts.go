package handlers

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"net/http"

	"retail-dashboard/internal/charts"
	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/pipeline"
	"retail-dashboard/internal/services"
)

type ChartHandlers struct {
	dashboard *services.Dashboard
	opts      Options
	logger    *slog.Logger
}

func NewChartHandlers(dashboard *services.Dashboard, opts Options, logger *slog.Logger) *ChartHandlers {
	return &ChartHandlers{
		dashboard: dashboard,
		opts:      opts,
		logger:    logger,
	}
}

// render runs draw into a buffer so a failed render can still send an error.
func (h *ChartHandlers) render(w http.ResponseWriter, r *http.Request, empty string, draw func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	err := draw(&buf)
	if stderrors.Is(err, charts.ErrNoData) {
		buf.Reset()
		err = charts.Placeholder(&buf, 800, 240, empty)
	}
	if err != nil {
		errors.Respond(w, r, h.logger, errors.InternalWrap(err, "Failed to render chart"))
		return
	}
	writeSVG(w, h.logger, &buf)
}

// HandleScatter draws the state given by query parameters, or the session's
// state when there are none.
func (h *ChartHandlers) HandleScatter(w http.ResponseWriter, r *http.Request) {
	var state pipeline.ViewState
	if q := r.URL.Query(); hasFilterParams(q) {
		s, err := stateFromQuery(q, h.opts.pipelineOptions(h.dashboard), h.opts.defaultState())
		if err != nil {
			errors.Respond(w, r, h.logger, err)
			return
		}
		state = s
	} else {
		_, state = h.opts.loadState(w, r, h.dashboard, h.logger)
	}

	v, err := pipeline.BuildView(h.dashboard.Products(), state, h.opts.Catalog, h.opts.Dims)
	if err != nil {
		errors.Respond(w, r, h.logger, actionError(err))
		return
	}

	h.render(w, r, "No products match the current filters", func(buf *bytes.Buffer) error {
		return charts.Scatter(buf, v)
	})
}

func (h *ChartHandlers) HandlePredictions(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "No predictions available", func(buf *bytes.Buffer) error {
		return charts.Predictions(buf, h.dashboard.Predictions())
	})
}

func (h *ChartHandlers) HandleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("all") == "true" {
		h.render(w, r, "No trend data available", func(buf *bytes.Buffer) error {
			return charts.TrendStacked(buf, h.dashboard.MonthlyTotals())
		})
		return
	}

	sku := q.Get("sku")
	if sku == "" {
		if skus := h.dashboard.SKUs(); len(skus) > 0 {
			sku = skus[0]
		}
	}
	series, ok := h.dashboard.TrendSeries(sku)
	if !ok && sku != "" {
		errors.Respond(w, r, h.logger, errors.NotFound("Unknown product").WithDetails(sku))
		return
	}

	h.render(w, r, "No trend data available", func(buf *bytes.Buffer) error {
		return charts.TrendLine(buf, sku, series)
	})
}
