package models

import "time"

// TrendPoint is one product's sales for one month.
type TrendPoint struct {
	StockCode   string
	Description string
	Month       time.Time
	Quantity    float64
	TotalPrice  float64
}

// SKU is the "<code> - <description>" key the trend selector uses.
func (p TrendPoint) SKU() string {
	return p.StockCode + " - " + p.Description
}

// MonthlyTotal is the quantity one product sold in one month of the stacked view.
type MonthlyTotal struct {
	Month       time.Time `json:"month"`
	Description string    `json:"description"`
	Quantity    float64   `json:"quantity"`
}

// MissingDescription replaces empty product descriptions.
const MissingDescription = "N/A"
