package pipeline

import (
	"math"
	"slices"
)

// Percentile returns the p-quantile (0..1) of values using linear
// interpolation between closest ranks, h = (n-1)p. NaN values are ignored;
// with nothing left the result is 0.
func Percentile(values []float64, p float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 || math.IsNaN(p) {
		return 0
	}
	slices.Sort(sorted)

	n := len(sorted)
	if p <= 0 || n < 2 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*(h-float64(lo))
}
