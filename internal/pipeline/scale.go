package pipeline

import "math"

// Domain is a closed numeric interval.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// LinearScale maps a domain onto a screen range. Values outside the domain
// extrapolate, so they project outside the plot rather than onto its edge.
type LinearScale struct {
	Domain Domain
	R0, R1 float64
}

func (s LinearScale) Apply(v float64) float64 {
	span := s.Domain.Max - s.Domain.Min
	if span == 0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.Domain.Min)/span*(s.R1-s.R0)
}

// Invert maps a screen coordinate back into the domain.
func (s LinearScale) Invert(px float64) float64 {
	if s.R1 == s.R0 {
		return s.Domain.Min
	}
	return s.Domain.Min + (px-s.R0)/(s.R1-s.R0)*(s.Domain.Max-s.Domain.Min)
}

const defaultTickCount = 10

// DisplayDomain is [0, nice(p95)] of values. An empty, all-NaN or
// non-positive p95 gives [0, 1].
func DisplayDomain(values []float64) Domain {
	p95 := Percentile(values, 0.95)
	if !(p95 > 0) || math.IsInf(p95, 0) {
		return Domain{Min: 0, Max: 1}
	}
	return Nice(Domain{Min: 0, Max: p95}, defaultTickCount)
}

// Nice widens d so both ends fall on tick boundaries for roughly count ticks.
func Nice(d Domain, count int) Domain {
	if count <= 0 {
		count = defaultTickCount
	}
	start, stop := d.Min, d.Max
	if stop < start {
		start, stop = stop, start
	}
	if stop == start {
		return Domain{Min: start, Max: stop}
	}

	var prev float64
	for range 10 {
		step := tickIncrement(start, stop, count)
		if step == prev {
			break
		}
		switch {
		case step > 0:
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		case step < 0:
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		default:
			return Domain{Min: start, Max: stop}
		}
		prev = step
	}
	return Domain{Min: start, Max: stop}
}

// tickIncrement returns the tick step as a positive power-of-ten multiple,
// or as a negative reciprocal when the step is below one.
func tickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / math.Max(0, float64(count))
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)

	factor := 1.0
	switch {
	case e >= math.Sqrt(50):
		factor = 10
	case e >= math.Sqrt(10):
		factor = 5
	case e >= math.Sqrt(2):
		factor = 2
	}
	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}

// Ticks returns the tick values inside d for roughly count ticks.
func Ticks(d Domain, count int) []float64 {
	if d.Max <= d.Min || count <= 0 {
		return []float64{d.Min}
	}
	step := tickIncrement(d.Min, d.Max, count)
	var ticks []float64
	if step > 0 {
		for i := math.Ceil(d.Min / step); i*step <= d.Max+step*1e-9; i++ {
			ticks = append(ticks, i*step)
		}
		return ticks
	}
	inv := -step
	for i := math.Ceil(d.Min * inv); i/inv <= d.Max+1e-9/inv; i++ {
		ticks = append(ticks, i/inv)
	}
	return ticks
}
