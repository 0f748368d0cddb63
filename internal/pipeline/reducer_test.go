package pipeline

import (
	"errors"
	"math"
	"testing"

	"retail-dashboard/internal/models"
)

func testOptions() Options {
	return Options{
		Catalog:    DefaultCatalog(),
		Countries:  []string{"France", "Germany", "United Kingdom"},
		MaxDensity: 10,
	}
}

func TestDefaultViewState(t *testing.T) {
	state := DefaultViewState(DefaultCatalog(), 3)

	want := FilterState{Metric: MetricQuantity, Country: All, PriceCategory: All, Density: 3}
	if state.Filter != want {
		t.Errorf("DefaultViewState().Filter = %+v, want %+v", state.Filter, want)
	}
	if state.Region != nil {
		t.Error("a fresh session should have no selection")
	}
}

func TestDispatch(t *testing.T) {
	opts := testOptions()
	start := DefaultViewState(opts.Catalog, 3)

	tests := []struct {
		name   string
		action Action
		check  func(t *testing.T, s ViewState)
	}{
		{
			name:   "change metric",
			action: Action{Type: ChangeMetric, Metric: MetricMonetary},
			check: func(t *testing.T, s ViewState) {
				if s.Filter.Metric != MetricMonetary {
					t.Errorf("metric = %q, want monetary", s.Filter.Metric)
				}
			},
		},
		{
			name:   "change country",
			action: Action{Type: ChangeCountry, Country: "France"},
			check: func(t *testing.T, s ViewState) {
				if s.Filter.Country != "France" {
					t.Errorf("country = %q, want France", s.Filter.Country)
				}
			},
		},
		{
			name:   "change price",
			action: Action{Type: ChangePriceFilter, PriceCategory: models.PriceMid},
			check: func(t *testing.T, s ViewState) {
				if s.Filter.PriceCategory != models.PriceMid {
					t.Errorf("price = %q, want %q", s.Filter.PriceCategory, models.PriceMid)
				}
			},
		},
		{
			name:   "change density",
			action: Action{Type: ChangeDensity, Density: 1},
			check: func(t *testing.T, s ViewState) {
				if s.Filter.Density != 1 {
					t.Errorf("density = %d, want 1", s.Filter.Density)
				}
			},
		},
		{
			name:   "draw selection normalises corners",
			action: Action{Type: DrawSelection, Region: Region{X0: 300, Y0: 200, X1: 100, Y1: 50}},
			check: func(t *testing.T, s ViewState) {
				want := Region{X0: 100, Y0: 50, X1: 300, Y1: 200}
				if s.Region == nil || *s.Region != want {
					t.Errorf("region = %+v, want %+v", s.Region, want)
				}
			},
		},
		{
			name:   "zero-area selection clears",
			action: Action{Type: DrawSelection, Region: Region{X0: 10, Y0: 10, X1: 10, Y1: 90}},
			check: func(t *testing.T, s ViewState) {
				if s.Region != nil {
					t.Errorf("region = %+v, want none", s.Region)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Dispatch(start, tt.action, opts)
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			tt.check(t, next)
		})
	}
}

func TestDispatch_InvalidActionsLeaveStateUnchanged(t *testing.T) {
	opts := testOptions()
	start := DefaultViewState(opts.Catalog, 3)
	start.Region = &Region{X0: 1, Y0: 1, X1: 5, Y1: 5}

	tests := []struct {
		name   string
		action Action
		opts   Options
	}{
		{"unknown metric", Action{Type: ChangeMetric, Metric: "margin"}, opts},
		{"unknown country", Action{Type: ChangeCountry, Country: "Atlantis"}, opts},
		{"unknown price", Action{Type: ChangePriceFilter, PriceCategory: "Free"}, opts},
		{"zero density", Action{Type: ChangeDensity, Density: 0}, opts},
		{"density above max", Action{Type: ChangeDensity, Density: 11}, opts},
		{"NaN region", Action{Type: DrawSelection, Region: Region{X0: math.NaN(), X1: 3, Y1: 3}}, opts},
		{"unknown type", Action{Type: "zoom"}, opts},
	}

	noPrice, err := NewCatalog([]string{"quantity", "sales"}, false)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	disabled := opts
	disabled.Catalog = noPrice
	tests = append(tests, struct {
		name   string
		action Action
		opts   Options
	}{"price filter disabled", Action{Type: ChangePriceFilter, PriceCategory: models.PriceLow}, disabled})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Dispatch(start, tt.action, tt.opts)
			if !errors.Is(err, ErrInvalidAction) {
				t.Fatalf("Dispatch() error = %v, want ErrInvalidAction", err)
			}
			if next.Filter != start.Filter || next.Region != start.Region {
				t.Errorf("Dispatch() changed state on error: %+v", next)
			}
		})
	}
}

func TestDispatch_ClearSelectionAlwaysEmpties(t *testing.T) {
	opts := testOptions()
	base := tenRecords()

	states := []ViewState{
		DefaultViewState(opts.Catalog, 3),
		{
			Filter: FilterState{Metric: MetricQuantity, Country: All, PriceCategory: All, Density: 1},
			Region: &Region{X0: 0, Y0: 0, X1: 1100, Y1: 650},
		},
		{
			Filter: FilterState{Metric: MetricRecency, Country: "United Kingdom", PriceCategory: models.PriceHigh, Density: 2},
			Region: &Region{X0: 10, Y0: 10, X1: 500, Y1: 600},
		},
	}

	for i, state := range states {
		next, err := Dispatch(state, Action{Type: ClearSelection}, opts)
		if err != nil {
			t.Fatalf("state %d: Dispatch() error = %v", i, err)
		}
		view, err := BuildView(base, next, opts.Catalog, DefaultDimensions)
		if err != nil {
			t.Fatalf("state %d: BuildView() error = %v", i, err)
		}
		if next.Region != nil || len(view.Selection) != 0 {
			t.Errorf("state %d: selection not cleared (%d selected)", i, len(view.Selection))
		}
		if next.Filter != state.Filter {
			t.Errorf("state %d: clearing the selection changed filters", i)
		}
	}
}

func TestViewState_Validate(t *testing.T) {
	opts := testOptions()
	narrow, err := NewCatalog([]string{"quantity", "sales"}, false)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(s *ViewState)
		opts    Options
		wantErr bool
	}{
		{"default", func(s *ViewState) {}, opts, false},
		{"with selection", func(s *ViewState) { s.Region = &Region{X0: 1, Y0: 2, X1: 30, Y1: 40} }, opts, false},
		{"metric dropped from catalog", func(s *ViewState) { s.Filter.Metric = MetricMonetary }, Options{Catalog: narrow, Countries: opts.Countries, MaxDensity: 10}, true},
		{"price filter disabled", func(s *ViewState) { s.Filter.PriceCategory = models.PriceHigh }, Options{Catalog: narrow, Countries: opts.Countries, MaxDensity: 10}, true},
		{"country no longer loaded", func(s *ViewState) { s.Filter.Country = "Spain" }, opts, true},
		{"density above limit", func(s *ViewState) { s.Filter.Density = 11 }, opts, true},
		{"zero density", func(s *ViewState) { s.Filter.Density = 0 }, opts, true},
		{"non-finite selection", func(s *ViewState) { s.Region = &Region{X0: math.Inf(1), X1: 3, Y1: 3} }, opts, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultViewState(DefaultCatalog(), 1)
			tt.mutate(&s)
			err := s.Validate(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAction) {
				t.Errorf("Validate() error should wrap ErrInvalidAction: %v", err)
			}
		})
	}
}

func TestParseActionType(t *testing.T) {
	for _, s := range []string{"change-metric", "change-country", "change-price", "change-density", "draw-selection", "clear-selection"} {
		if _, ok := ParseActionType(s); !ok {
			t.Errorf("ParseActionType(%q) should succeed", s)
		}
	}
	if _, ok := ParseActionType("reset"); ok {
		t.Error("ParseActionType(\"reset\") should fail")
	}
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog([]string{"Recency", " frequency "}, true)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	if c.Default() != MetricRecency {
		t.Errorf("Default() = %q, want recency", c.Default())
	}
	if len(c.Metrics()) != 2 {
		t.Errorf("Metrics() has %d entries, want 2", len(c.Metrics()))
	}

	for _, keys := range [][]string{nil, {"quantity", "quantity"}, {"profit"}} {
		if _, err := NewCatalog(keys, true); err == nil {
			t.Errorf("NewCatalog(%v) should fail", keys)
		}
	}
}
