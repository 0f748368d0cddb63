package pipeline

import "retail-dashboard/internal/models"

// All disables the country or price-category filter.
const All = "ALL"

// FilterState is the immutable set of controls driving one recomputation.
type FilterState struct {
	Metric        Metric               `json:"metric"`
	Country       string               `json:"country"`
	PriceCategory models.PriceCategory `json:"price"`
	Density       int                  `json:"density"`
}

func (s FilterState) matches(r models.Record) bool {
	if s.Country != All && r.Country != s.Country {
		return false
	}
	if s.PriceCategory != All && r.PriceCategory != s.PriceCategory {
		return false
	}
	return true
}

// Compute filters base by country and price category, then keeps every
// Density-th survivor. Load order is preserved; base is never modified.
func Compute(base []models.Record, state FilterState) []models.Record {
	density := max(state.Density, 1)

	series := make([]models.Record, 0, len(base)/density+1)
	kept := 0
	for _, r := range base {
		if !state.matches(r) {
			continue
		}
		if kept%density == 0 {
			series = append(series, r)
		}
		kept++
	}
	return series
}
