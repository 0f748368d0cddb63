package handlers

import (
	"encoding/json"
	"net/url"
	"strconv"

	"retail-dashboard/internal/charts"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/pipeline"
	"retail-dashboard/internal/ui/templates"
)

const (
	pageTitle        = "Retail Product Analytics"
	maxSelectionRows = 100
)

func controlsView(catalog *pipeline.Catalog, countries []string, state pipeline.ViewState, maxDensity int) templates.Controls {
	c := templates.Controls{
		PriceFilter:  catalog.PriceFilter(),
		Density:      state.Filter.Density,
		MaxDensity:   maxDensity,
		DensityLabel: pipeline.DensityLabel(state.Filter.Density),
	}

	for _, m := range catalog.Metrics() {
		c.Metrics = append(c.Metrics, templates.Option{
			Value:    string(m.Key),
			Label:    m.AxisLabel,
			Selected: m.Key == state.Filter.Metric,
		})
	}

	c.Countries = append(c.Countries, templates.Option{Value: pipeline.All, Label: "All Countries", Selected: state.Filter.Country == pipeline.All})
	for _, country := range countries {
		c.Countries = append(c.Countries, templates.Option{Value: country, Label: country, Selected: country == state.Filter.Country})
	}

	if c.PriceFilter {
		c.Prices = append(c.Prices, templates.Option{Value: pipeline.All, Label: "All Prices", Selected: state.Filter.PriceCategory == pipeline.All})
		for _, pc := range models.PriceCategories {
			c.Prices = append(c.Prices, templates.Option{Value: string(pc), Label: string(pc), Selected: pc == state.Filter.PriceCategory})
		}
	}
	return c
}

// scatterView places the brush over the plot area of the chart the scatter
// endpoint will draw for v.
func scatterView(v pipeline.View, version string) (templates.Scatter, error) {
	frame, err := charts.ScatterFrame(v)
	if err != nil {
		return templates.Scatter{}, err
	}
	return templates.Scatter{
		Title:      pipeline.ChartTitle(v.Metric),
		Src:        "/charts/scatter.svg?v=" + url.QueryEscape(version),
		Width:      frame.Width,
		Height:     frame.Height,
		PlotLeft:   frame.PlotLeft,
		PlotTop:    frame.PlotTop,
		PlotWidth:  frame.PlotWidth,
		PlotHeight: frame.PlotHeight,
		Points:     len(v.Series),
	}, nil
}

func selectionView(v pipeline.View) templates.Selection {
	s := templates.Selection{
		Count:       len(v.Selection),
		MetricLabel: v.Metric.ShortLabel,
	}
	for i, r := range v.Selection {
		if i == maxSelectionRows {
			s.Hidden = len(v.Selection) - maxSelectionRows
			break
		}
		s.Rows = append(s.Rows, templates.SelectionRow{
			StockCode:   r.StockCode,
			Description: r.Description,
			Country:     r.Country,
			AvgPrice:    pipeline.FormatMoney(r.AvgPrice),
			Value:       pipeline.FormatValue(v.Metric, v.Metric.Value(r)),
			TotalSales:  pipeline.FormatMoney(r.TotalSales),
		})
	}
	return s
}

func notesView(m pipeline.MetricSpec) templates.Notes {
	return templates.Notes{Title: m.NotesTitle, Notes: m.Notes}
}

func predictionsView(preds []models.Prediction, version string) templates.Predictions {
	p := templates.Predictions{Src: "/charts/predictions.svg?v=" + url.QueryEscape(version)}
	for _, pred := range preds {
		p.Rows = append(p.Rows, templates.AdviceRow{
			StockCode:    pred.StockCode,
			Description:  pred.Description,
			AvgPrice:     pipeline.FormatMoney(pred.AvgPrice),
			PredictedQty: formatQty(pred.PredictedQty),
			Advice:       pred.Advice,
			Label:        pred.Advice.Label(),
			Explanation:  pred.Advice.Explanation(),
		})
	}
	return p
}

func trendView(skus []string, sku string, all bool, version string) templates.Trend {
	t := templates.Trend{All: all}
	if len(skus) == 0 {
		return t
	}
	if sku == "" {
		sku = skus[0]
	}
	for _, s := range skus {
		t.SKUs = append(t.SKUs, templates.Option{Value: s, Label: s, Selected: s == sku})
	}

	q := url.Values{}
	if all {
		q.Set("all", "true")
	} else {
		q.Set("sku", sku)
	}
	q.Set("v", version)
	t.Src = "/charts/trend.svg?" + q.Encode()
	return t
}

func formatQty(v float64) string {
	n := number(v)
	if n == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*n, 'f', 0, 64)
}

// stateSignals mirrors a view state into the page's Datastar signals.
func stateSignals(state pipeline.ViewState) map[string]any {
	signals := map[string]any{
		"metric":   state.Filter.Metric,
		"country":  state.Filter.Country,
		"price":    state.Filter.PriceCategory,
		"density":  state.Filter.Density,
		"brushing": false,
	}
	if state.Region == nil {
		signals["x0"], signals["y0"], signals["x1"], signals["y1"] = 0, 0, 0, 0
	} else {
		signals["x0"], signals["y0"] = state.Region.X0, state.Region.Y0
		signals["x1"], signals["y1"] = state.Region.X1, state.Region.Y1
	}
	return signals
}

func pageSignals(state pipeline.ViewState, sku string) (string, error) {
	signals := stateSignals(state)
	signals["sku"] = sku
	signals["all"] = false
	b, err := json.Marshal(signals)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
