package pipeline

import (
	"slices"
	"testing"

	"retail-dashboard/internal/models"
)

func TestBuildView(t *testing.T) {
	base := tenRecords()
	state := DefaultViewState(DefaultCatalog(), 1)

	view, err := BuildView(base, state, DefaultCatalog(), DefaultDimensions)
	if err != nil {
		t.Fatalf("BuildView() error = %v", err)
	}

	if len(view.Series) != len(base) {
		t.Errorf("series has %d records, want %d", len(view.Series), len(base))
	}
	if view.XDomain.Min != 0 || view.XDomain.Max <= 0 {
		t.Errorf("XDomain = %+v, want [0, >0]", view.XDomain)
	}
	if view.YScale.Apply(0) != DefaultDimensions.Height {
		t.Errorf("YScale(0) = %v, want the bottom of the plot", view.YScale.Apply(0))
	}
	if view.Selection == nil || len(view.Selection) != 0 {
		t.Errorf("Selection = %v, want empty", view.Selection)
	}

	wantCountries := []string{"United Kingdom", "France", "Germany"}
	if !slices.Equal(view.Countries, wantCountries) {
		t.Errorf("Countries = %v, want %v", view.Countries, wantCountries)
	}
}

func TestBuildView_SelectionFollowsSeries(t *testing.T) {
	base := tenRecords()
	catalog := DefaultCatalog()
	opts := Options{Catalog: catalog, Countries: []string{"France", "Germany", "United Kingdom"}}

	state := DefaultViewState(catalog, 1)
	state, err := Dispatch(state, Action{Type: DrawSelection, Region: Region{X0: 0, Y0: 0, X1: 1100, Y1: 650}}, opts)
	if err != nil {
		t.Fatalf("Dispatch(draw) error = %v", err)
	}

	before, err := BuildView(base, state, catalog, DefaultDimensions)
	if err != nil {
		t.Fatalf("BuildView() error = %v", err)
	}

	state, err = Dispatch(state, Action{Type: ChangeCountry, Country: "Germany"}, opts)
	if err != nil {
		t.Fatalf("Dispatch(country) error = %v", err)
	}
	after, err := BuildView(base, state, catalog, DefaultDimensions)
	if err != nil {
		t.Fatalf("BuildView() error = %v", err)
	}

	if len(after.Selection) >= len(before.Selection) {
		t.Errorf("selection should shrink with the series: before %d, after %d", len(before.Selection), len(after.Selection))
	}
	for _, r := range after.Selection {
		if r.Country != "Germany" {
			t.Errorf("selected %s from %s after filtering to Germany", r.StockCode, r.Country)
		}
	}
}

func TestBuildView_EmptyBase(t *testing.T) {
	state := DefaultViewState(DefaultCatalog(), 3)
	state.Region = &Region{X0: 0, Y0: 0, X1: 100, Y1: 100}

	view, err := BuildView([]models.Record{}, state, DefaultCatalog(), DefaultDimensions)
	if err != nil {
		t.Fatalf("BuildView() error = %v", err)
	}
	if len(view.Series) != 0 || len(view.Selection) != 0 {
		t.Errorf("empty base gave %d series, %d selected", len(view.Series), len(view.Selection))
	}
	if view.XDomain != (Domain{Min: 0, Max: 1}) || view.YDomain != (Domain{Min: 0, Max: 1}) {
		t.Errorf("domains = %+v / %+v, want [0, 1]", view.XDomain, view.YDomain)
	}
}

func TestBuildView_UnknownMetric(t *testing.T) {
	state := DefaultViewState(DefaultCatalog(), 3)
	state.Filter.Metric = "margin"

	if _, err := BuildView(tenRecords(), state, DefaultCatalog(), DefaultDimensions); err == nil {
		t.Error("BuildView() should reject a metric the catalog does not offer")
	}
}
