package datasource

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"retail-dashboard/internal/models"
)

// Tables names the relations a PostgresSource reads.
type Tables struct {
	Products    string
	Predictions string
	Trend       string
}

// PostgresSource reads the tables from a Postgres database. Column names
// match the CSV headers, case-insensitively.
type PostgresSource struct {
	pool   *pgxpool.Pool
	tables Tables
}

func NewPostgresSource(ctx context.Context, dsn string, tables Tables) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresSource{pool: pool, tables: tables}, nil
}

func (s *PostgresSource) Products(ctx context.Context) ([]models.Record, error) {
	return queryTable(ctx, s.pool, s.tables.Products, parseProduct)
}

func (s *PostgresSource) Predictions(ctx context.Context) ([]models.Prediction, error) {
	return queryTable(ctx, s.pool, s.tables.Predictions, parsePrediction)
}

func (s *PostgresSource) Trend(ctx context.Context) ([]models.TrendPoint, error) {
	return queryTable(ctx, s.pool, s.tables.Trend, parseTrendPoint)
}

func (s *PostgresSource) Close() {
	s.pool.Close()
}

func queryTable[T any](ctx context.Context, pool *pgxpool.Pool, name string, parse func(table, []string) (T, bool)) ([]T, error) {
	rows, err := pool.Query(ctx, "SELECT * FROM "+pgx.Identifier{name}.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	out, err := readAll(ctx, newPGRows(rows), parse)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	return out, nil
}

type pgRows struct {
	rows   pgx.Rows
	header []string
}

func newPGRows(rows pgx.Rows) *pgRows {
	fds := rows.FieldDescriptions()
	header := make([]string, len(fds))
	for i, fd := range fds {
		header[i] = fd.Name
	}
	return &pgRows{rows: rows, header: header}
}

func (p *pgRows) Header() []string {
	return p.header
}

func (p *pgRows) Next() ([]string, error) {
	if !p.rows.Next() {
		if err := p.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	values, err := p.rows.Values()
	if err != nil {
		return nil, err
	}
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = textValue(v)
	}
	return fields, nil
}

// textValue renders a decoded column the way it would appear in a CSV cell.
// NULL becomes the empty string, which the parsers treat as missing.
func textValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return ""
		}
		return strconv.FormatFloat(f.Float64, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
