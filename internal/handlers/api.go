package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/pipeline"
	"retail-dashboard/internal/services"
)

type APIHandlers struct {
	dashboard *services.Dashboard
	opts      Options
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, opts Options, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		opts:      opts,
		logger:    logger,
	}
}

type metricDTO struct {
	Key        pipeline.Metric `json:"key"`
	Label      string          `json:"label"`
	ShortLabel string          `json:"short_label"`
	Currency   bool            `json:"currency"`
}

type filtersResponse struct {
	Metrics         []metricDTO            `json:"metrics"`
	Countries       []string               `json:"countries"`
	PriceFilter     bool                   `json:"price_filter"`
	PriceCategories []models.PriceCategory `json:"price_categories,omitempty"`
	MaxDensity      int                    `json:"max_density"`
	Defaults        pipeline.ViewState     `json:"defaults"`
}

type pointDTO struct {
	StockCode     string               `json:"stock_code"`
	Description   string               `json:"description"`
	Country       string               `json:"country"`
	PriceCategory models.PriceCategory `json:"price_category"`
	AvgPrice      *float64             `json:"avg_price"`
	Value         *float64             `json:"value"`
	TotalSales    *float64             `json:"total_sales"`
}

type productsResponse struct {
	State     pipeline.ViewState `json:"state"`
	Title     string             `json:"title"`
	XDomain   pipeline.Domain    `json:"x_domain"`
	YDomain   pipeline.Domain    `json:"y_domain"`
	Countries []string           `json:"countries"`
	Count     int                `json:"count"`
	Points    []pointDTO         `json:"points"`
}

type selectionResponse struct {
	Region *pipeline.Region `json:"region"`
	Count  int              `json:"count"`
	Points []pointDTO       `json:"points"`
}

type predictionDTO struct {
	StockCode    string        `json:"stock_code"`
	Description  string        `json:"description"`
	AvgPrice     *float64      `json:"avg_price"`
	PredictedQty *float64      `json:"predicted_qty"`
	Recency      *float64      `json:"recency"`
	Frequency    *float64      `json:"frequency"`
	Advice       models.Advice `json:"advice"`
	AdviceLabel  string        `json:"advice_label"`
	Explanation  string        `json:"explanation"`
}

type trendPointDTO struct {
	Month      string   `json:"month"`
	Quantity   *float64 `json:"quantity"`
	TotalPrice *float64 `json:"total_price"`
}

type trendResponse struct {
	SKU    string          `json:"sku"`
	Points []trendPointDTO `json:"points"`
}

type trendTotalDTO struct {
	Month       string   `json:"month"`
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity"`
}

func points(series []models.Record, metric pipeline.MetricSpec) []pointDTO {
	out := make([]pointDTO, 0, len(series))
	for _, r := range series {
		out = append(out, pointDTO{
			StockCode:     r.StockCode,
			Description:   r.Description,
			Country:       r.Country,
			PriceCategory: r.PriceCategory,
			AvgPrice:      number(r.AvgPrice),
			Value:         number(metric.Value(r)),
			TotalSales:    number(r.TotalSales),
		})
	}
	return out
}

func (h *APIHandlers) view(r *http.Request) (pipeline.View, error) {
	state, err := stateFromQuery(r.URL.Query(), h.opts.pipelineOptions(h.dashboard), h.opts.defaultState())
	if err != nil {
		return pipeline.View{}, err
	}

	_, span := observability.StartSpan(r.Context(), "pipeline.build_view")
	defer span.Finish()

	v, err := pipeline.BuildView(h.dashboard.Products(), state, h.opts.Catalog, h.opts.Dims)
	if err != nil {
		span.SetError(err)
		return pipeline.View{}, actionError(err)
	}
	return v, nil
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	resp := filtersResponse{
		Countries:   h.dashboard.Countries(),
		PriceFilter: h.opts.Catalog.PriceFilter(),
		MaxDensity:  h.opts.MaxDensity,
		Defaults:    h.opts.defaultState(),
	}
	for _, m := range h.opts.Catalog.Metrics() {
		resp.Metrics = append(resp.Metrics, metricDTO{Key: m.Key, Label: m.AxisLabel, ShortLabel: m.ShortLabel, Currency: m.Currency})
	}
	if resp.PriceFilter {
		resp.PriceCategories = models.PriceCategories
	}

	errors.WriteSuccessWithHeaders(w, resp, map[string]string{"Cache-Control": cacheMaxAge})
}

func (h *APIHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	v, err := h.view(r)
	if err != nil {
		errors.Respond(w, r, h.logger, err)
		return
	}

	errors.WriteSuccess(w, productsResponse{
		State:     v.State,
		Title:     pipeline.ChartTitle(v.Metric),
		XDomain:   v.XDomain,
		YDomain:   v.YDomain,
		Countries: v.Countries,
		Count:     len(v.Series),
		Points:    points(v.Series, v.Metric),
	})
}

func (h *APIHandlers) HandleSelection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("x0") || !q.Has("y0") || !q.Has("x1") || !q.Has("y1") {
		errors.Respond(w, r, h.logger, errors.BadRequest("x0, y0, x1 and y1 are required"))
		return
	}

	v, err := h.view(r)
	if err != nil {
		errors.Respond(w, r, h.logger, err)
		return
	}

	errors.WriteSuccess(w, selectionResponse{
		Region: v.State.Region,
		Count:  len(v.Selection),
		Points: points(v.Selection, v.Metric),
	})
}

func (h *APIHandlers) HandlePredictions(w http.ResponseWriter, r *http.Request) {
	preds := h.dashboard.Predictions()
	out := make([]predictionDTO, 0, len(preds))
	for _, p := range preds {
		out = append(out, predictionDTO{
			StockCode:    p.StockCode,
			Description:  p.Description,
			AvgPrice:     number(p.AvgPrice),
			PredictedQty: number(p.PredictedQty),
			Recency:      number(p.Recency),
			Frequency:    number(p.Frequency),
			Advice:       p.Advice,
			AdviceLabel:  p.Advice.Label(),
			Explanation:  p.Advice.Explanation(),
		})
	}

	errors.WriteSuccessWithHeaders(w, out, map[string]string{"Cache-Control": cacheMaxAge})
}

func (h *APIHandlers) HandleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("all") == "true" {
		totals := h.dashboard.MonthlyTotals()
		out := make([]trendTotalDTO, 0, len(totals))
		for _, t := range totals {
			out = append(out, trendTotalDTO{Month: t.Month.Format("2006-01"), Description: t.Description, Quantity: number(t.Quantity)})
		}
		errors.WriteSuccessWithHeaders(w, out, map[string]string{"Cache-Control": cacheMaxAge})
		return
	}

	sku := q.Get("sku")
	if sku == "" {
		errors.Respond(w, r, h.logger, errors.BadRequest("sku or all=true is required"))
		return
	}
	series, ok := h.dashboard.TrendSeries(sku)
	if !ok {
		errors.Respond(w, r, h.logger, errors.NotFound("Unknown product").WithDetails(sku))
		return
	}

	resp := trendResponse{SKU: sku, Points: make([]trendPointDTO, 0, len(series))}
	for _, p := range series {
		resp.Points = append(resp.Points, trendPointDTO{
			Month:      p.Month.Format("2006-01"),
			Quantity:   number(p.Quantity),
			TotalPrice: number(p.TotalPrice),
		})
	}
	errors.WriteSuccessWithHeaders(w, resp, map[string]string{"Cache-Control": cacheMaxAge})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"products":  len(h.dashboard.Products()),
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.dashboard.Stats()
	if h.opts.Latency != nil {
		stats["latency"] = h.opts.Latency.Snapshot()
	}

	errors.WriteSuccess(w, stats)
}
