package pipeline

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

const XAxisLabel = "Average Unit Price ($)"

func ChartTitle(m MetricSpec) string {
	return fmt.Sprintf("Product Analysis: Average Price vs %s (95th Percentile View)", m.AxisLabel)
}

// DensityLabel describes the density slider position.
func DensityLabel(density int) string {
	switch density {
	case 1:
		return "All points"
	case 2:
		return "Every 2nd point"
	case 3:
		return "Every 3rd point"
	default:
		return fmt.Sprintf("Every %dth point", density)
	}
}

func FormatXTick(v float64) string {
	return fmt.Sprintf("$%.1f", v)
}

func FormatYTick(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.1fk", v/1000)
	}
	return strconv.FormatFloat(math.Round(v), 'f', -1, 64)
}

// FormatMoney renders v as dollars and cents, or "N/A" when missing.
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

// FormatValue renders a metric value the way the tooltip shows it.
func FormatValue(m MetricSpec, v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	if m.Currency {
		return FormatMoney(v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
