// Package datasource reads the three dashboard tables: product metrics,
// predicted sales and the monthly trend.
package datasource

import (
	"context"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"retail-dashboard/internal/models"
)

// Source yields the dashboard tables in load order.
type Source interface {
	Products(ctx context.Context) ([]models.Record, error)
	Predictions(ctx context.Context) ([]models.Prediction, error)
	Trend(ctx context.Context) ([]models.TrendPoint, error)
	Close()
}

// FileBacked is implemented by sources whose product table is a local file,
// which lets callers cache the parsed records next to it.
type FileBacked interface {
	ProductsFile() string
}

// rowReader walks a table row by row. Next returns io.EOF after the last row.
type rowReader interface {
	Header() []string
	Next() ([]string, error)
}

// table resolves column names case-insensitively.
type table struct {
	cols map[string]int
}

func newTable(header []string) table {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return table{cols: cols}
}

func (t table) text(fields []string, col string) string {
	i, ok := t.cols[strings.ToLower(col)]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// number parses a numeric column. Missing, malformed and infinite values
// are NaN.
func (t table) number(fields []string, col string) float64 {
	s := t.text(fields, col)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

func description(s string) string {
	if s == "" {
		return models.MissingDescription
	}
	return s
}

func readAll[T any](ctx context.Context, rr rowReader, parse func(table, []string) (T, bool)) ([]T, error) {
	t := newTable(rr.Header())
	out := make([]T, 0)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fields, err := rr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if v, ok := parse(t, fields); ok {
			out = append(out, v)
		}
	}
}

func parseProduct(t table, f []string) (models.Record, bool) {
	return models.NewRecord(models.Record{
		StockCode:       t.text(f, "StockCode"),
		Description:     description(t.text(f, "Description")),
		AvgPrice:        t.number(f, "avgPrice"),
		TotalQty:        t.number(f, "totalQty"),
		TotalSales:      t.number(f, "totalSales"),
		Country:         t.text(f, "mainCountry"),
		Recency:         t.number(f, "Recency"),
		Frequency:       t.number(f, "frequency"),
		Monetary:        t.number(f, "Monetary"),
		FirstPurchase:   t.text(f, "firstPurchase"),
		LastPurchase:    t.text(f, "lastPurchase"),
		UniqueCustomers: t.number(f, "uniqueCustomers"),
	}), true
}

func parsePrediction(t table, f []string) (models.Prediction, bool) {
	p := models.Prediction{
		StockCode:    t.text(f, "StockCode"),
		Description:  description(t.text(f, "Description")),
		AvgPrice:     t.number(f, "avgPrice"),
		PredictedQty: t.number(f, "predictedQty"),
		Recency:      t.number(f, "recency"),
		Frequency:    t.number(f, "freq"),
	}
	advice, ok := models.ParseAdvice(t.text(f, "advice"))
	if !ok {
		advice = models.DeriveAdvice(p.Recency, p.Frequency, p.AvgPrice)
	}
	p.Advice = advice
	return p, true
}

var monthLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00", "2006-01"}

func parseMonth(s string) (time.Time, bool) {
	for _, layout := range monthLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseTrendPoint drops rows whose month cannot be placed on a time axis.
func parseTrendPoint(t table, f []string) (models.TrendPoint, bool) {
	month, ok := parseMonth(t.text(f, "InvoiceMonth"))
	if !ok {
		return models.TrendPoint{}, false
	}
	return models.TrendPoint{
		StockCode:   t.text(f, "StockCode"),
		Description: description(t.text(f, "Description")),
		Month:       month,
		Quantity:    t.number(f, "Quantity"),
		TotalPrice:  t.number(f, "TotalPrice"),
	}, true
}
