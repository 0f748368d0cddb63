package pipeline

import (
	"fmt"

	"retail-dashboard/internal/models"
)

// Dimensions is the size of the scatter plot's drawing area in pixels.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultDimensions is the default plot area. The rendered chart grows around
// it to fit the title and axes.
var DefaultDimensions = Dimensions{Width: 1100, Height: 650}

// View is everything the renderers need for one state.
type View struct {
	State     ViewState
	Metric    MetricSpec
	Series    []models.Record
	Selection []models.Record
	XDomain   Domain
	YDomain   Domain
	XScale    LinearScale
	YScale    LinearScale
	Countries []string
	Dims      Dimensions
}

// BuildView runs the pipeline for state and derives scales and selection.
func BuildView(base []models.Record, state ViewState, catalog *Catalog, dims Dimensions) (View, error) {
	metric, ok := catalog.Lookup(state.Filter.Metric)
	if !ok {
		return View{}, fmt.Errorf("%w: unknown metric %q", ErrInvalidAction, state.Filter.Metric)
	}

	series := Compute(base, state.Filter)

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, r := range series {
		xs[i] = r.AvgPrice
		ys[i] = metric.Value(r)
	}

	v := View{
		State:     state,
		Metric:    metric,
		Series:    series,
		Selection: []models.Record{},
		XDomain:   DisplayDomain(xs),
		YDomain:   DisplayDomain(ys),
		Countries: countriesInOrder(series),
		Dims:      dims,
	}
	v.XScale = LinearScale{Domain: v.XDomain, R0: 0, R1: dims.Width}
	v.YScale = LinearScale{Domain: v.YDomain, R0: dims.Height, R1: 0}

	if state.Region != nil {
		v.Selection = Select(series, *state.Region, metric, v.XScale, v.YScale)
	}
	return v, nil
}

// countriesInOrder lists each country once, in order of first appearance.
func countriesInOrder(series []models.Record) []string {
	seen := make(map[string]struct{})
	countries := make([]string, 0)
	for _, r := range series {
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		countries = append(countries, r.Country)
	}
	return countries
}
