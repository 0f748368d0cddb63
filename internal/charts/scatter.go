package charts

import (
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"slices"

	chart "github.com/wcharczuk/go-chart/v2"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/pipeline"
)

// jitterFraction is the largest dot offset as a share of the domain span.
const jitterFraction = 0.006

// scatterChart builds the view's series, one dot series per country, with
// the selected points overlaid.
func scatterChart(v pipeline.View) chart.Chart {
	byCountry := make(map[string]*chart.ContinuousSeries, len(v.Countries))
	series := make([]chart.Series, 0, len(v.Countries)+1)
	for i, country := range v.Countries {
		s := &chart.ContinuousSeries{Name: country, Style: pointStyle(colorAt(i), 4)}
		byCountry[country] = s
	}

	for _, r := range v.Series {
		x, y, ok := plotPoint(v, r)
		if !ok {
			continue
		}
		s := byCountry[r.Country]
		s.XValues = append(s.XValues, x)
		s.YValues = append(s.YValues, y)
	}

	for _, country := range v.Countries {
		if s := byCountry[country]; len(s.XValues) > 0 {
			series = append(series, *s)
		}
	}

	if len(v.Selection) > 0 {
		sel := chart.ContinuousSeries{Name: "Selected", Style: pointStyle(highlightColor, 6)}
		for _, r := range v.Selection {
			if x, y, ok := plotPoint(v, r); ok {
				sel.XValues = append(sel.XValues, x)
				sel.YValues = append(sel.YValues, y)
			}
		}
		if len(sel.XValues) > 0 {
			series = append(series, sel)
		}
	}

	withLegend := len(series) > 0
	if !withLegend {
		// go-chart needs one series to lay out the axes.
		series = append(series, chart.ContinuousSeries{
			Style:   pointStyle(colorAt(0), 0.01),
			XValues: []float64{v.XDomain.Min, v.XDomain.Max},
			YValues: []float64{v.YDomain.Min, v.YDomain.Max},
		})
	}

	ch := chart.Chart{
		Title:      pipeline.ChartTitle(v.Metric),
		Width:      int(v.Dims.Width) + axisPadding,
		Height:     int(v.Dims.Height) + titlePadding,
		Background: background(),
		XAxis: chart.XAxis{
			Name:  pipeline.XAxisLabel,
			Range: &chart.ContinuousRange{Min: v.XDomain.Min, Max: v.XDomain.Max},
			Ticks: ticks(v.XDomain, pipeline.FormatXTick),
		},
		YAxis: chart.YAxis{
			Name:  v.Metric.AxisLabel,
			Range: &chart.ContinuousRange{Min: v.YDomain.Min, Max: v.YDomain.Max},
			Ticks: ticks(v.YDomain, pipeline.FormatYTick),
		},
		Series: series,
	}
	if withLegend {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch
}

// maxLayoutPasses bounds the measuring renders layout may do.
const maxLayoutPasses = 4

// Frame places the scatter's plot area inside the rendered chart, in chart
// pixels. Once laid out the plot area is the view's Dims, so a brush drawn
// over it shares the pipeline's selection scales.
type Frame struct {
	Width      int
	Height     int
	PlotLeft   int
	PlotTop    int
	PlotWidth  int
	PlotHeight int
}

// Scatter draws the view with its plot area sized to v.Dims.
func Scatter(w io.Writer, v pipeline.View) error {
	ch := scatterChart(v)
	if _, err := layout(&ch, v.Dims); err != nil {
		return err
	}
	return ch.Render(chart.SVG, w)
}

// ScatterFrame reports where Scatter puts the plot area for v.
func ScatterFrame(v pipeline.View) (Frame, error) {
	ch := scatterChart(v)
	return layout(&ch, v.Dims)
}

// layout resizes ch until its plot area is dims. go-chart insets the plot by
// the measured axis labels and padding, which do not depend on the chart size.
func layout(ch *chart.Chart, dims pipeline.Dimensions) (Frame, error) {
	w, h := int(math.Round(dims.Width)), int(math.Round(dims.Height))
	ch.Width, ch.Height = w+axisPadding, h+titlePadding

	for pass := 1; ; pass++ {
		box, err := plotBox(*ch)
		if err != nil {
			return Frame{}, err
		}
		dw, dh := w-box.Width(), h-box.Height()
		if (dw == 0 && dh == 0) || pass == maxLayoutPasses {
			return Frame{
				Width:      ch.Width,
				Height:     ch.Height,
				PlotLeft:   box.Left,
				PlotTop:    box.Top,
				PlotWidth:  box.Width(),
				PlotHeight: box.Height(),
			}, nil
		}
		if ch.Width+dw <= 0 || ch.Height+dh <= 0 {
			return Frame{}, fmt.Errorf("scatter layout: plot %dx%d does not fit", w, h)
		}
		ch.Width += dw
		ch.Height += dh
	}
}

// plotBox renders ch without output and returns the canvas box its series
// were drawn in.
func plotBox(ch chart.Chart) (chart.Box, error) {
	var box chart.Box
	ch.Elements = append(slices.Clip(ch.Elements), func(_ chart.Renderer, canvas chart.Box, _ chart.Style) {
		box = canvas
	})
	if err := ch.Render(chart.SVG, io.Discard); err != nil {
		return chart.Box{}, err
	}
	return box, nil
}

// plotPoint is the record's jittered position, clamped inside the domains.
// Records with a missing coordinate are not drawn.
func plotPoint(v pipeline.View, r models.Record) (float64, float64, bool) {
	x, y := r.AvgPrice, v.Metric.Value(r)
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, false
	}
	x = clamp(x+jitter(r.StockCode+"/x", v.XDomain), v.XDomain)
	y = clamp(y+jitter(r.StockCode+"/y", v.YDomain), v.YDomain)
	return x, y, true
}

// jitter is a stable offset derived from key so a point does not move
// between renders.
func jitter(key string, d pipeline.Domain) float64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	u := float64(h.Sum64()%10000)/10000 - 0.5
	return u * 2 * jitterFraction * (d.Max - d.Min)
}

func clamp(v float64, d pipeline.Domain) float64 {
	return math.Min(math.Max(v, d.Min), d.Max)
}

func ticks(d pipeline.Domain, format func(float64) string) []chart.Tick {
	values := pipeline.Ticks(d, 10)
	out := make([]chart.Tick, 0, len(values))
	for _, v := range values {
		out = append(out, chart.Tick{Value: v, Label: format(v)})
	}
	return out
}
