package models

import "math"

// PriceCategory is the coarse price bucket assigned to a product at load time.
type PriceCategory string

const (
	PriceLow  PriceCategory = "Low Price (≤$2)"
	PriceMid  PriceCategory = "Mid Price ($2-$10)"
	PriceHigh PriceCategory = "High Price (>$10)"
)

// PriceCategories lists the buckets in ascending order.
var PriceCategories = []PriceCategory{PriceLow, PriceMid, PriceHigh}

// CategorizePrice buckets an average unit price. A missing (NaN) price has no category.
func CategorizePrice(price float64) PriceCategory {
	switch {
	case math.IsNaN(price):
		return ""
	case price <= 2:
		return PriceLow
	case price <= 10:
		return PriceMid
	default:
		return PriceHigh
	}
}

// Record is one product's aggregated transaction metrics. Numeric fields hold
// NaN when the source value was missing or malformed.
type Record struct {
	StockCode       string
	Description     string
	AvgPrice        float64
	TotalQty        float64
	TotalSales      float64
	Country         string
	Recency         float64
	Frequency       float64
	Monetary        float64
	FirstPurchase   string
	LastPurchase    string
	UniqueCustomers float64
	PriceCategory   PriceCategory
}

// NewRecord fills the derived fields of r.
func NewRecord(r Record) Record {
	r.PriceCategory = CategorizePrice(r.AvgPrice)
	return r
}
