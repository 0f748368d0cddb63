package observability

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatencyMicros = 1
	maxLatencyMicros = int64(60 * time.Second / time.Microsecond)
	sigFigs          = 3
)

// RouteLatency summarises one route's recorded latencies in milliseconds.
type RouteLatency struct {
	Route string  `json:"route"`
	Count int64   `json:"count"`
	P50   float64 `json:"p50_ms"`
	P95   float64 `json:"p95_ms"`
	P99   float64 `json:"p99_ms"`
	Max   float64 `json:"max_ms"`
}

// LatencyRecorder keeps one histogram per route.
type LatencyRecorder struct {
	mu     sync.Mutex
	routes map[string]*hdrhistogram.Histogram
}

func NewLatencyRecorder() *LatencyRecorder {
	return &LatencyRecorder{routes: make(map[string]*hdrhistogram.Histogram)}
}

// Record adds d to route's histogram. Durations past a minute are capped.
func (l *LatencyRecorder) Record(route string, d time.Duration) {
	v := d.Microseconds()
	if v < minLatencyMicros {
		v = minLatencyMicros
	}
	if v > maxLatencyMicros {
		v = maxLatencyMicros
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.routes[route]
	if !ok {
		h = hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigs)
		l.routes[route] = h
	}
	_ = h.RecordValue(v)
}

// Snapshot returns every route's summary ordered by route.
func (l *LatencyRecorder) Snapshot() []RouteLatency {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]RouteLatency, 0, len(l.routes))
	for route, h := range l.routes {
		out = append(out, RouteLatency{
			Route: route,
			Count: h.TotalCount(),
			P50:   microsToMillis(h.ValueAtQuantile(50)),
			P95:   microsToMillis(h.ValueAtQuantile(95)),
			P99:   microsToMillis(h.ValueAtQuantile(99)),
			Max:   microsToMillis(h.Max()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

func microsToMillis(v int64) float64 {
	return float64(v) / 1000
}
