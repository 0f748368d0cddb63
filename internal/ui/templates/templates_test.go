package templates

import (
	"context"
	"strings"
	"testing"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/pipeline"
)

func testPage() Page {
	return Page{
		Title:   "Retail Product Analytics",
		Signals: `{"metric":"quantity","country":"ALL"}`,
		Controls: Controls{
			Metrics:      []Option{{Value: "quantity", Label: "Total Quantity Sold", Selected: true}, {Value: "sales", Label: "Total Sales ($)"}},
			Countries:    []Option{{Value: "ALL", Label: "All Countries", Selected: true}, {Value: "France", Label: "France"}},
			PriceFilter:  true,
			Prices:       []Option{{Value: "ALL", Label: "All Prices", Selected: true}, {Value: string(models.PriceLow), Label: string(models.PriceLow)}},
			Density:      3,
			MaxDensity:   10,
			DensityLabel: "Every 3rd point",
		},
		Scatter: Scatter{
			Title: "Chart", Src: "/charts/scatter.svg?v=1", Width: 1262, Height: 745,
			PlotLeft: 16, PlotTop: 71, PlotWidth: 1100, PlotHeight: 650, Points: 12,
		},
		Notes:   Notes{Title: "Price-Quantity Analysis", Notes: []pipeline.Note{{Text: "Compare clusters."}}},
		Predictions: Predictions{
			Src:  "/charts/predictions.svg?v=1",
			Rows: []AdviceRow{{StockCode: "22423", Description: "REGENCY CAKESTAND", Advice: models.AdvicePush, Label: "Push Bestseller"}},
		},
		Trend: Trend{Src: "/charts/trend.svg?sku=a&v=1", SKUs: []Option{{Value: "a", Label: "a", Selected: true}}},
	}
}

func TestDashboard_Render(t *testing.T) {
	html, err := RenderString(context.Background(), Dashboard(testPage()))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	expected := []string{
		"<title>Retail Product Analytics</title>",
		DatastarScript,
		`data-signals="{&#34;metric&#34;:&#34;quantity&#34;,&#34;country&#34;:&#34;ALL&#34;}"`,
		`<option value="quantity" selected>Total Quantity Sold</option>`,
		`<span id="density-label">Every 3rd point</span>`,
		`Low Price (≤$2)`,
		`id="scatter-chart"`,
		`width="1262" height="745"`,
		`style="left: 16px; top: 71px; width: 1100px; height: 650px"`,
		`<p>12 products shown</p>`,
		`class="advice-Push"`,
		`/charts/trend.svg?sku=a&amp;v=1`,
		`<div id="flash" role="alert"></div>`,
	}
	for _, want := range expected {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard should contain %q", want)
		}
	}

	// Hidden selection panel keeps its id so it can be patched later.
	if !strings.Contains(html, `<section id="selection-info" style="display: none">`) {
		t.Error("empty selection should render hidden")
	}
}

func TestFragments_Render(t *testing.T) {
	tests := []struct {
		name     string
		render   func() (string, error)
		contains []string
		excludes []string
	}{
		{
			name: "selection with overflow",
			render: func() (string, error) {
				return RenderString(context.Background(), SelectionPanel(Selection{
					Count:       102,
					MetricLabel: "Total Qty",
					Rows:        []SelectionRow{{StockCode: "A1", Description: "<b>bold</b>"}},
					Hidden:      2,
				}))
			},
			contains: []string{"102 products selected", "Press Esc or click empty space to clear selection", "&lt;b&gt;bold&lt;/b&gt;", "and 2 more"},
			excludes: []string{"display: none", "<b>bold</b>"},
		},
		{
			name: "empty predictions",
			render: func() (string, error) {
				return RenderString(context.Background(), PredictionsPanel(Predictions{}))
			},
			contains: []string{`id="predictions-panel"`, "No predictions available."},
			excludes: []string{"<img"},
		},
		{
			name: "empty trend",
			render: func() (string, error) {
				return RenderString(context.Background(), TrendPanel(Trend{}))
			},
			contains: []string{`id="trend-panel"`, "No trend data available."},
		},
		{
			name: "flash",
			render: func() (string, error) {
				return RenderString(context.Background(), FlashMessage(Flash{Message: "density must be at most 10"}))
			},
			contains: []string{`<div id="flash" role="alert">density must be at most 10</div>`},
		},
		{
			name: "controls without price filter",
			render: func() (string, error) {
				c := testPage().Controls
				c.PriceFilter = false
				return RenderString(context.Background(), ControlsPanel(c))
			},
			contains: []string{`id="controls"`, "change-density"},
			excludes: []string{"Price Range"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := tt.render()
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(html, want) {
					t.Errorf("fragment should contain %q, got %s", want, html)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(html, bad) {
					t.Errorf("fragment should not contain %q", bad)
				}
			}
		})
	}
}

func BenchmarkDashboard_Render(b *testing.B) {
	page := testPage()
	ctx := context.Background()
	for b.Loop() {
		if _, err := RenderString(ctx, Dashboard(page)); err != nil {
			b.Fatal(err)
		}
	}
}
