package charts

import (
	"io"
	"math"
	"slices"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"retail-dashboard/internal/models"
)

const trendHeadroom = 1.12

// TrendLine draws one product's monthly quantity. Months with a missing
// quantity keep their place on the axis but get no point.
func TrendLine(w io.Writer, sku string, points []models.TrendPoint) error {
	if len(points) == 0 {
		return ErrNoData
	}

	ts := chart.TimeSeries{
		Name: sku,
		Style: chart.Style{
			StrokeColor: colorAt(0),
			StrokeWidth: 2,
			DotColor:    colorAt(0),
			DotWidth:    4,
		},
	}
	top := 0.0
	for _, p := range points {
		if math.IsNaN(p.Quantity) {
			continue
		}
		top = math.Max(top, p.Quantity)
		ts.XValues = append(ts.XValues, p.Month)
		ts.YValues = append(ts.YValues, p.Quantity)
	}
	if len(ts.XValues) == 0 {
		return ErrNoData
	}
	if top <= 0 {
		top = 1
	}

	first, last := points[0].Month, points[len(points)-1].Month
	if !last.After(first) {
		first = first.AddDate(0, 0, -15)
		last = last.AddDate(0, 0, 15)
	}

	ch := chart.Chart{
		Title:      "Monthly Trend: " + truncate(sku, 60),
		Width:      1400,
		Height:     500,
		Background: background(),
		XAxis: chart.XAxis{
			Name:           "Month",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(first), Max: chart.TimeToFloat64(last)},
		},
		YAxis: chart.YAxis{
			Name:  "Quantity",
			Range: &chart.ContinuousRange{Min: 0, Max: top * trendHeadroom},
		},
		Series: []chart.Series{ts},
	}
	return ch.Render(chart.SVG, w)
}

// TrendStacked draws every product's quantity as stacked bars per month.
func TrendStacked(w io.Writer, totals []models.MonthlyTotal) error {
	if len(totals) == 0 {
		return ErrNoData
	}

	descriptions := make([]string, 0)
	for _, t := range totals {
		descriptions = append(descriptions, t.Description)
	}
	slices.Sort(descriptions)
	descriptions = slices.Compact(descriptions)

	var (
		bars    []chart.StackedBar
		current time.Time
		top     float64
		sum     float64
	)
	for _, t := range totals {
		qty := t.Quantity
		if math.IsNaN(qty) || qty < 0 {
			continue
		}
		if len(bars) == 0 || !t.Month.Equal(current) {
			current = t.Month
			bars = append(bars, chart.StackedBar{Name: t.Month.Format("2006-01")})
			sum = 0
		}
		i, _ := slices.BinarySearch(descriptions, t.Description)
		bar := &bars[len(bars)-1]
		bar.Values = append(bar.Values, chart.Value{
			Value: qty,
			Label: truncate(t.Description, labelMaxRunes),
			Style: chart.Style{FillColor: colorAt(i), StrokeColor: colorAt(i)},
		})
		sum += qty
		top = math.Max(top, sum)
	}
	if top <= 0 {
		return ErrNoData
	}

	sbc := chart.StackedBarChart{
		Title:      "Monthly Trend: All Products",
		Width:      1400,
		Height:     500,
		BarSpacing: 20,
		Background: background(),
		Bars:       bars,
	}
	return sbc.Render(chart.SVG, w)
}
