package charts

import (
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"

	"retail-dashboard/internal/models"
)

const predictionsHeadroom = 1.1

// Predictions draws predicted quantity per product as vertical bars.
func Predictions(w io.Writer, preds []models.Prediction) error {
	if len(preds) == 0 {
		return ErrNoData
	}

	bars := make([]chart.Value, 0, len(preds))
	top := 0.0
	for i, p := range preds {
		qty := p.PredictedQty
		if math.IsNaN(qty) || qty < 0 {
			qty = 0
		}
		top = math.Max(top, qty)
		bars = append(bars, chart.Value{
			Value: qty,
			Label: truncate(p.Description, labelMaxRunes),
			Style: chart.Style{FillColor: colorAt(i), StrokeColor: colorAt(i)},
		})
	}
	if top <= 0 {
		top = 1
	}

	bc := chart.BarChart{
		Title:      "Top Predicted Products",
		Width:      1400,
		Height:     600,
		BarWidth:   28,
		BarSpacing: 14,
		Background: background(),
		XAxis:      chart.Style{FontSize: 7, TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Name:  "Predicted Quantity",
			Range: &chart.ContinuousRange{Min: 0, Max: top * predictionsHeadroom},
		},
		Bars: bars,
	}
	return bc.Render(chart.SVG, w)
}
