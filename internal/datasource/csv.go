package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"retail-dashboard/internal/models"
)

// CSVSource reads the tables from three CSV files with header rows.
type CSVSource struct {
	ProductsPath    string
	PredictionsPath string
	TrendPath       string
	logger          *slog.Logger
}

func NewCSVSource(products, predictions, trend string, logger *slog.Logger) *CSVSource {
	return &CSVSource{
		ProductsPath:    products,
		PredictionsPath: predictions,
		TrendPath:       trend,
		logger:          logger,
	}
}

func (s *CSVSource) ProductsFile() string {
	return s.ProductsPath
}

func (s *CSVSource) Products(ctx context.Context) ([]models.Record, error) {
	return readCSV(ctx, s.ProductsPath, parseProduct)
}

func (s *CSVSource) Predictions(ctx context.Context) ([]models.Prediction, error) {
	return readCSV(ctx, s.PredictionsPath, parsePrediction)
}

func (s *CSVSource) Trend(ctx context.Context) ([]models.TrendPoint, error) {
	points, err := readCSV(ctx, s.TrendPath, parseTrendPoint)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("trend loaded", "file", s.TrendPath, "points", len(points))
	return points, nil
}

func (s *CSVSource) Close() {}

func readCSV[T any](ctx context.Context, path string, parse func(table, []string) (T, bool)) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	rr, err := newCSVRows(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	rows, err := readAll(ctx, rr, parse)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

type csvRows struct {
	r      *csv.Reader
	header []string
}

func newCSVRows(r io.Reader) (*csvRows, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	return &csvRows{r: cr, header: header}, nil
}

func (c *csvRows) Header() []string {
	return c.header
}

func (c *csvRows) Next() ([]string, error) {
	return c.r.Read()
}
