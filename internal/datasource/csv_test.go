package datasource

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"retail-dashboard/internal/models"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

const productsCSV = `StockCode,Description,avgPrice,totalQty,totalSales,mainCountry,Recency,frequency,Monetary,firstPurchase,lastPurchase,uniqueCustomers
85123A,WHITE HANGING HEART T-LIGHT HOLDER,2.95,35006,91419.53,United Kingdom,0,2270,91419.53,2010-12-01 08:26:00,2011-12-09 11:34:00,856
22423,,12.75,12980,164762.19,United Kingdom,1,2200,164762.19,2010-12-01 08:34:00,2011-12-08 19:59:00,881
POST,POSTAGE,abc,3120,,France,5,1256,77803.96,2010-12-01 08:45:00,2011-12-09 12:50:00,
`

func TestCSVSource_Products(t *testing.T) {
	path := writeTempCSV(t, "products.csv", productsCSV)
	src := NewCSVSource(path, "", "", testLogger())

	records, err := src.Products(context.Background())
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Products() returned %d records, want 3", len(records))
	}

	first := records[0]
	if first.StockCode != "85123A" || first.Country != "United Kingdom" {
		t.Errorf("first record = %+v", first)
	}
	if first.AvgPrice != 2.95 || first.TotalQty != 35006 || first.UniqueCustomers != 856 {
		t.Errorf("first record numbers = %v/%v/%v", first.AvgPrice, first.TotalQty, first.UniqueCustomers)
	}
	if first.PriceCategory != models.PriceMid {
		t.Errorf("first record price category = %q, want %q", first.PriceCategory, models.PriceMid)
	}

	if records[1].Description != models.MissingDescription {
		t.Errorf("missing description = %q, want %q", records[1].Description, models.MissingDescription)
	}
	if records[1].PriceCategory != models.PriceHigh {
		t.Errorf("second record price category = %q", records[1].PriceCategory)
	}

	third := records[2]
	if !math.IsNaN(third.AvgPrice) || !math.IsNaN(third.TotalSales) || !math.IsNaN(third.UniqueCustomers) {
		t.Errorf("malformed and empty numbers should be NaN, got %v/%v/%v", third.AvgPrice, third.TotalSales, third.UniqueCustomers)
	}
	if third.PriceCategory != "" {
		t.Errorf("record without a price should have no category, got %q", third.PriceCategory)
	}
	if third.Frequency != 1256 {
		t.Errorf("third record frequency = %v, want 1256", third.Frequency)
	}
}

func TestCSVSource_ProductsEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		want    int
		wantErr bool
	}{
		{"empty file", "", 0, true},
		{"header only", "StockCode,Description,avgPrice\n", 0, false},
		{"short row", "StockCode,Description,avgPrice,totalQty\nA1,Mug\n", 1, false},
		{"reordered columns", "mainCountry,avgPrice,StockCode\nEIRE,4.5,B2\n", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempCSV(t, "products.csv", tt.csv)
			records, err := NewCSVSource(path, "", "", testLogger()).Products(context.Background())

			if (err != nil) != tt.wantErr {
				t.Fatalf("Products() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(records) != tt.want {
				t.Errorf("Products() returned %d records, want %d", len(records), tt.want)
			}
		})
	}
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), "", "", testLogger())
	if _, err := src.Products(context.Background()); err == nil {
		t.Error("Products() should fail for a missing file")
	}
}

func TestCSVSource_CancelledContext(t *testing.T) {
	path := writeTempCSV(t, "products.csv", productsCSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewCSVSource(path, "", "", testLogger()).Products(ctx); err == nil {
		t.Error("Products() should stop on a cancelled context")
	}
}

func TestCSVSource_Predictions(t *testing.T) {
	content := `StockCode,Description,avgPrice,recency,freq,predictedQty,advice
23084,RABBIT NIGHT LIGHT,2.08,0,45,2750.4,Push
22197,POPCORN HOLDER,0.85,75,30,1900,
84879,ASSORTED COLOUR BIRD ORNAMENT,25.5,3,40,1500,Unknown
`
	path := writeTempCSV(t, "predictions.csv", content)
	preds, err := NewCSVSource("", path, "", testLogger()).Predictions(context.Background())
	if err != nil {
		t.Fatalf("Predictions() error = %v", err)
	}
	if len(preds) != 3 {
		t.Fatalf("Predictions() returned %d rows, want 3", len(preds))
	}

	want := []models.Advice{models.AdvicePush, models.AdviceClear, models.AdvicePush}
	for i, p := range preds {
		if p.Advice != want[i] {
			t.Errorf("prediction %s advice = %q, want %q", p.StockCode, p.Advice, want[i])
		}
	}
	if preds[0].PredictedQty != 2750.4 || preds[0].Frequency != 45 {
		t.Errorf("first prediction = %+v", preds[0])
	}
}

func TestCSVSource_Trend(t *testing.T) {
	content := `StockCode,Description,InvoiceMonth,Quantity,TotalPrice
85123A,WHITE HANGING HEART,2011-01-01,1200,3540
85123A,WHITE HANGING HEART,2011-02-15 10:00:00,900,2655
22423,REGENCY CAKESTAND,not-a-date,10,127.5
22423,REGENCY CAKESTAND,2011-02,15,191.25
`
	path := writeTempCSV(t, "trend.csv", content)
	points, err := NewCSVSource("", "", path, testLogger()).Trend(context.Background())
	if err != nil {
		t.Fatalf("Trend() error = %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("Trend() returned %d points, want 3 (bad month dropped)", len(points))
	}

	feb := time.Date(2011, 2, 1, 0, 0, 0, 0, time.UTC)
	if !points[1].Month.Equal(feb) {
		t.Errorf("second point month = %v, want %v", points[1].Month, feb)
	}
	if points[2].SKU() != "22423 - REGENCY CAKESTAND" {
		t.Errorf("SKU() = %q", points[2].SKU())
	}
}

func TestTableLookup(t *testing.T) {
	tbl := newTable([]string{"\ufeffStockCode", " Description ", "AVGPRICE"})
	fields := []string{" X1 ", "Thing", "3.5"}

	if got := tbl.text(fields, "stockcode"); got != "X1" {
		t.Errorf("text(stockcode) = %q", got)
	}
	if got := tbl.number(fields, "avgPrice"); got != 3.5 {
		t.Errorf("number(avgPrice) = %v", got)
	}
	if got := tbl.number(fields, "totalQty"); !math.IsNaN(got) {
		t.Errorf("number(missing column) = %v, want NaN", got)
	}
}

func TestTableNumber(t *testing.T) {
	tbl := newTable([]string{"AvgPrice"})

	tests := []struct {
		cell    string
		want    float64
		missing bool
	}{
		{"2.95", 2.95, false},
		{"-1.5", -1.5, false},
		{"", 0, true},
		{"n/a", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"-inf", 0, true},
		{"infinity", 0, true},
		{"1e400", 0, true},
	}
	for _, tt := range tests {
		got := tbl.number([]string{tt.cell}, "AvgPrice")
		if tt.missing {
			if !math.IsNaN(got) {
				t.Errorf("number(%q) = %v, want NaN", tt.cell, got)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("number(%q) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}
