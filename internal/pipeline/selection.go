package pipeline

import (
	"math"

	"retail-dashboard/internal/models"
)

// Region is a rectangle in projected (screen) coordinates, as drawn by a brush.
type Region struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Normalize orders the corners so X0 <= X1 and Y0 <= Y1.
func (r Region) Normalize() Region {
	if r.X1 < r.X0 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y1 < r.Y0 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Empty reports whether the region encloses no area, which a brush
// produces on a plain click.
func (r Region) Empty() bool {
	return r.X0 == r.X1 || r.Y0 == r.Y1
}

func (r Region) valid() bool {
	for _, v := range []float64{r.X0, r.Y0, r.X1, r.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (r Region) contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// Select returns the records of series whose unjittered projection lies in
// region. Records with a missing price or metric never match.
func Select(series []models.Record, region Region, metric MetricSpec, x, y LinearScale) []models.Record {
	region = region.Normalize()

	selected := make([]models.Record, 0)
	for _, r := range series {
		px := x.Apply(r.AvgPrice)
		py := y.Apply(metric.Value(r))
		if math.IsNaN(px) || math.IsNaN(py) {
			continue
		}
		if region.contains(px, py) {
			selected = append(selected, r)
		}
	}
	return selected
}
