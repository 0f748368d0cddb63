package models

// Advice is the merchandising recommendation attached to a predicted product.
type Advice string

const (
	AdvicePush    Advice = "Push"
	AdviceClear   Advice = "Clear"
	AdviceRegular Advice = "Regular"
)

// staleRecencyDays marks products whose last sale is old enough to clear.
const staleRecencyDays = 60

// DeriveAdvice classifies a product when the source carries no advice column.
func DeriveAdvice(recency, frequency, avgPrice float64) Advice {
	if recency > staleRecencyDays {
		return AdviceClear
	}
	if frequency > 20 && avgPrice > 20 {
		return AdvicePush
	}
	return AdviceRegular
}

// ParseAdvice maps a raw advice value; ok is false for anything unknown.
func ParseAdvice(s string) (Advice, bool) {
	switch Advice(s) {
	case AdvicePush, AdviceClear, AdviceRegular:
		return Advice(s), true
	}
	return "", false
}

func (a Advice) Label() string {
	switch a {
	case AdvicePush:
		return "Push Bestseller"
	case AdviceClear:
		return "Clear Inventory"
	case AdviceRegular:
		return "Regular Attention"
	}
	return string(a)
}

func (a Advice) Explanation() string {
	switch a {
	case AdvicePush:
		return "Strongly recommend focusing and promoting this product."
	case AdviceClear:
		return "Inventory is aging or sales are stale. Recommend clearance."
	case AdviceRegular:
		return "No special attention needed, maintain regular operations."
	}
	return ""
}

type Prediction struct {
	StockCode    string
	Description  string
	AvgPrice     float64
	PredictedQty float64
	Recency      float64
	Frequency    float64
	Advice       Advice
}
