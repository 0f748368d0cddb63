package pipeline

import (
	"fmt"
	"strings"

	"retail-dashboard/internal/models"
)

// Metric selects the y-axis value of the scatter plot.
type Metric string

const (
	MetricQuantity  Metric = "quantity"
	MetricSales     Metric = "sales"
	MetricRecency   Metric = "recency"
	MetricFrequency Metric = "frequency"
	MetricMonetary  Metric = "monetary"
)

// Note is one paragraph of the analytical notes shown under the scatter plot.
type Note struct {
	Lead string
	Text string
}

// MetricSpec describes how a metric is read, labelled and explained.
type MetricSpec struct {
	Key        Metric
	Column     string
	AxisLabel  string
	ShortLabel string
	Currency   bool
	NotesTitle string
	Notes      []Note
	value      func(models.Record) float64
}

// Value reads the metric from a record. NaN means missing.
func (m MetricSpec) Value(r models.Record) float64 {
	return m.value(r)
}

var metricSpecs = []MetricSpec{
	{
		Key:        MetricQuantity,
		Column:     "totalQty",
		AxisLabel:  "Total Quantity Sold",
		ShortLabel: "Total Qty",
		NotesTitle: "Price-Quantity Analysis",
		Notes: []Note{
			{Text: "Identify high price-low volume vs. low price-high volume items for pricing and promotion strategies."},
			{Text: "Compare country-wise clusters to infer market preferences and price sensitivity."},
		},
		value: func(r models.Record) float64 { return r.TotalQty },
	},
	{
		Key:        MetricSales,
		Column:     "totalSales",
		AxisLabel:  "Total Sales ($)",
		ShortLabel: "Total Sales",
		Currency:   true,
		NotesTitle: "Price-Sales Analysis",
		Notes: []Note{
			{Text: "Visualize the relationship between pricing strategy and revenue generation."},
			{Text: "Identify optimal price points for maximizing sales volume."},
		},
		value: func(r models.Record) float64 { return r.TotalSales },
	},
	{
		Key:        MetricRecency,
		Column:     "Recency",
		AxisLabel:  "Recency - Days Since Last Purchase",
		ShortLabel: "Recency",
		NotesTitle: "Price-Recency Analysis",
		Notes: []Note{
			{Lead: "Upper Left:", Text: "Low price, high recency → Outdated items, consider discontinuing or promoting"},
			{Lead: "Upper Right:", Text: "High price, high recency → Pricey niche items, consider markdown or limited editions"},
			{Lead: "Lower Left:", Text: "Low price, recent sales → Staples and essentials, good for bundling or cross-selling"},
			{Lead: "Lower Right:", Text: "High price, recent sales → Premium stars, exploit exclusivity or FOMO marketing"},
		},
		value: func(r models.Record) float64 { return r.Recency },
	},
	{
		Key:        MetricFrequency,
		Column:     "frequency",
		AxisLabel:  "Purchase Frequency",
		ShortLabel: "Frequency",
		NotesTitle: "Price-Frequency Analysis",
		Notes: []Note{
			{Lead: "High frequency & low price:", Text: "Replenishment staples, ideal for subscription models"},
			{Lead: "High frequency & high price:", Text: "Customers rely on pricey essentials, enhance VIP perks"},
			{Lead: "Low frequency:", Text: "Occasional purchases, target with seasonal or event-based promotions"},
		},
		value: func(r models.Record) float64 { return r.Frequency },
	},
	{
		Key:        MetricMonetary,
		Column:     "Monetary",
		AxisLabel:  "Monetary Value ($)",
		ShortLabel: "Monetary",
		Currency:   true,
		NotesTitle: "Price-Monetary Analysis",
		Notes: []Note{
			{Lead: "Low price, high revenue:", Text: "Mass market winners, focus on volume and efficiency"},
			{Lead: "High price, high revenue:", Text: "Luxury cash cows, require careful inventory and experience management"},
			{Lead: "High price, low revenue:", Text: "One-off splurges, consider bundling or targeted marketing"},
		},
		value: func(r models.Record) float64 { return r.Monetary },
	},
}

// AllMetrics returns the keys of every metric the pipeline knows about.
func AllMetrics() []string {
	keys := make([]string, len(metricSpecs))
	for i, spec := range metricSpecs {
		keys[i] = string(spec.Key)
	}
	return keys
}

// Catalog is the configured set of metrics and filters a dashboard offers.
// The first metric is the default.
type Catalog struct {
	metrics     []MetricSpec
	byKey       map[Metric]MetricSpec
	priceFilter bool
}

// NewCatalog builds a catalog from metric keys in display order.
func NewCatalog(keys []string, priceFilter bool) (*Catalog, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one metric is required")
	}

	known := make(map[Metric]MetricSpec, len(metricSpecs))
	for _, spec := range metricSpecs {
		known[spec.Key] = spec
	}

	c := &Catalog{
		byKey:       make(map[Metric]MetricSpec, len(keys)),
		priceFilter: priceFilter,
	}
	for _, key := range keys {
		m := Metric(strings.ToLower(strings.TrimSpace(key)))
		spec, ok := known[m]
		if !ok {
			return nil, fmt.Errorf("unknown metric %q, must be one of: %s", key, strings.Join(AllMetrics(), ", "))
		}
		if _, dup := c.byKey[m]; dup {
			return nil, fmt.Errorf("metric %q listed twice", key)
		}
		c.metrics = append(c.metrics, spec)
		c.byKey[m] = spec
	}
	return c, nil
}

// DefaultCatalog offers every metric with the price filter enabled.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(AllMetrics(), true)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(m Metric) (MetricSpec, bool) {
	spec, ok := c.byKey[m]
	return spec, ok
}

func (c *Catalog) Metrics() []MetricSpec {
	return c.metrics
}

func (c *Catalog) Default() Metric {
	return c.metrics[0].Key
}

// PriceFilter reports whether the price-category filter is offered.
func (c *Catalog) PriceFilter() bool {
	return c.priceFilter
}
