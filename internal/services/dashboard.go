package services

import (
	"cmp"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"retail-dashboard/internal/datasource"
	"retail-dashboard/internal/models"
)

const (
	cacheVersion          = "v2"
	DefaultMaxPredictions = 30
)

// ProductSnapshot is the gob-encoded product cache.
type ProductSnapshot struct {
	Products     []models.Record
	LastModified time.Time
}

type Dashboard struct {
	mu          sync.RWMutex
	products    []models.Record
	countries   []string
	predictions []models.Prediction
	trend       []models.TrendPoint
	skus        []string
	loadedAt    time.Time
	loadTime    time.Duration

	source         datasource.Source
	cacheDir       string
	maxPredictions int
	loads          atomic.Int64
	logger         *slog.Logger
}

func NewDashboard(source datasource.Source, cacheDir string, maxPredictions int, logger *slog.Logger) *Dashboard {
	if maxPredictions <= 0 {
		maxPredictions = DefaultMaxPredictions
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		products:       []models.Record{},
		countries:      []string{},
		predictions:    []models.Prediction{},
		trend:          []models.TrendPoint{},
		skus:           []string{},
		source:         source,
		cacheDir:       cacheDir,
		maxPredictions: maxPredictions,
		logger:         logger,
	}
}

// SetData replaces every table at once.
func (d *Dashboard) SetData(products []models.Record, predictions []models.Prediction, trend []models.TrendPoint) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.products = products
	d.countries = observedCountries(products)
	d.predictions = predictions
	d.trend = trend
	d.skus = skuOptions(trend)
	d.loadedAt = time.Now()
}

// Load reads all three tables concurrently. A products failure is returned;
// predictions and trend failures leave those tables empty.
func (d *Dashboard) Load(ctx context.Context) error {
	if d.source == nil {
		return fmt.Errorf("no data source configured")
	}

	start := time.Now()
	var (
		products    []models.Record
		predictions = []models.Prediction{}
		trend       = []models.TrendPoint{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := d.loadProducts(gctx)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		products = p
		return nil
	})
	g.Go(func() error {
		p, err := d.source.Predictions(gctx)
		if err != nil {
			d.logger.Warn("predictions unavailable", "error", err)
			return nil
		}
		predictions = p
		return nil
	})
	g.Go(func() error {
		t, err := d.source.Trend(gctx)
		if err != nil {
			d.logger.Warn("trend unavailable", "error", err)
			return nil
		}
		trend = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	d.SetData(products, predictions, trend)

	duration := time.Since(start)
	d.mu.Lock()
	d.loadTime = duration
	d.mu.Unlock()
	d.loads.Add(1)

	d.logger.Info("dashboard data loaded",
		"products", len(products),
		"predictions", len(predictions),
		"trend_points", len(trend),
		"duration", duration)
	return nil
}

func (d *Dashboard) loadProducts(ctx context.Context) ([]models.Record, error) {
	fb, cacheable := d.source.(datasource.FileBacked)
	cacheable = cacheable && d.cacheDir != ""

	if cacheable {
		if cached, err := d.loadFromCache(fb.ProductsFile()); err == nil {
			info, err := os.Stat(fb.ProductsFile())
			if err == nil && info.ModTime().Before(cached.LastModified) {
				d.logger.Info("products loaded from cache", "records", len(cached.Products))
				return cached.Products, nil
			}
		}
	}

	products, err := d.source.Products(ctx)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := d.saveToCache(fb.ProductsFile(), products); err != nil {
			d.logger.Warn("failed to save cache", "error", err)
		}
	}
	return products, nil
}

func (d *Dashboard) cacheFilename(path string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(path)
	return filepath.Join(d.cacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (d *Dashboard) saveToCache(path string, products []models.Record) error {
	if err := os.MkdirAll(d.cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(d.cacheFilename(path))
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(ProductSnapshot{
		Products:     products,
		LastModified: time.Now(),
	})
}

func (d *Dashboard) loadFromCache(path string) (*ProductSnapshot, error) {
	file, err := os.Open(d.cacheFilename(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap ProductSnapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Products is the base record set. Callers must not modify it.
func (d *Dashboard) Products() []models.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.products
}

// Countries lists every non-empty country in the base set, sorted.
func (d *Dashboard) Countries() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.countries
}

func (d *Dashboard) Predictions() []models.Prediction {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.predictions) <= d.maxPredictions {
		return d.predictions
	}
	return d.predictions[:d.maxPredictions]
}

// SKUs lists the trend selector options, sorted.
func (d *Dashboard) SKUs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.skus
}

// TrendSeries returns one SKU's points in month order.
func (d *Dashboard) TrendSeries(sku string) ([]models.TrendPoint, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := slices.BinarySearch(d.skus, sku); !ok {
		return nil, false
	}

	points := make([]models.TrendPoint, 0)
	for _, p := range d.trend {
		if p.SKU() == sku {
			points = append(points, p)
		}
	}
	slices.SortStableFunc(points, func(a, b models.TrendPoint) int {
		return a.Month.Compare(b.Month)
	})
	return points, true
}

// MonthlyTotals sums quantity per month and description for the stacked view,
// ordered by month then description.
func (d *Dashboard) MonthlyTotals() []models.MonthlyTotal {
	d.mu.RLock()
	defer d.mu.RUnlock()

	type key struct {
		month       time.Time
		description string
	}
	groups := make(map[key]float64)
	for _, p := range d.trend {
		groups[key{p.Month, p.Description}] += p.Quantity
	}

	totals := make([]models.MonthlyTotal, 0, len(groups))
	for k, qty := range groups {
		totals = append(totals, models.MonthlyTotal{Month: k.month, Description: k.description, Quantity: qty})
	}
	slices.SortFunc(totals, func(a, b models.MonthlyTotal) int {
		if c := a.Month.Compare(b.Month); c != 0 {
			return c
		}
		return cmp.Compare(a.Description, b.Description)
	})
	return totals
}

func observedCountries(products []models.Record) []string {
	seen := make(map[string]struct{})
	countries := make([]string, 0)
	for _, r := range products {
		if r.Country == "" {
			continue
		}
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		countries = append(countries, r.Country)
	}
	slices.Sort(countries)
	return countries
}

func skuOptions(trend []models.TrendPoint) []string {
	skus := make([]string, 0)
	for _, p := range trend {
		skus = append(skus, p.SKU())
	}
	slices.Sort(skus)
	return slices.Compact(skus)
}

// Utility method for monitoring
func (d *Dashboard) Stats() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return map[string]any{
		"products":      len(d.products),
		"countries":     len(d.countries),
		"predictions":   len(d.predictions),
		"trend_points":  len(d.trend),
		"skus":          len(d.skus),
		"last_loaded":   d.loadedAt,
		"load_duration": d.loadTime.String(),
		"loads":         d.loads.Load(),
	}
}
