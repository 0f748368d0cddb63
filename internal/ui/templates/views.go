package templates

import (
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/pipeline"
)

type Option struct {
	Value    string
	Label    string
	Selected bool
}

type Controls struct {
	Metrics      []Option
	Countries    []Option
	PriceFilter  bool
	Prices       []Option
	Density      int
	MaxDensity   int
	DensityLabel string
}

// Scatter is the chart image and the brush overlay laid over its plot area.
type Scatter struct {
	Title      string
	Src        string
	Width      int
	Height     int
	PlotLeft   int
	PlotTop    int
	PlotWidth  int
	PlotHeight int
	Points     int
}

type SelectionRow struct {
	StockCode   string
	Description string
	Country     string
	AvgPrice    string
	Value       string
	TotalSales  string
}

type Selection struct {
	Count       int
	MetricLabel string
	Rows        []SelectionRow
	Hidden      int
}

type Notes struct {
	Title string
	Notes []pipeline.Note
}

type AdviceRow struct {
	StockCode    string
	Description  string
	AvgPrice     string
	PredictedQty string
	Advice       models.Advice
	Label        string
	Explanation  string
}

type Predictions struct {
	Src  string
	Rows []AdviceRow
}

type Trend struct {
	Src  string
	SKUs []Option
	All  bool
}

type Flash struct {
	Message string
}

type Page struct {
	Title       string
	Signals     string
	Controls    Controls
	Scatter     Scatter
	Selection   Selection
	Notes       Notes
	Predictions Predictions
	Trend       Trend
}
