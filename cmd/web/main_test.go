package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"retail-dashboard/internal/handlers"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/pipeline"
	"retail-dashboard/internal/server"
	"retail-dashboard/internal/services"
	"retail-dashboard/internal/session"
)

// Test helper to create a dashboard with test data
func newTestDashboard() *services.Dashboard {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	d := services.NewDashboard(nil, "", 0, logger)

	products := []models.Record{
		models.NewRecord(models.Record{StockCode: "85123A", Description: "WHITE HANGING HEART T-LIGHT HOLDER", AvgPrice: 2.95, TotalQty: 2300, TotalSales: 6785, Country: "United Kingdom", Recency: 3, Frequency: 120, Monetary: 6785}),
		models.NewRecord(models.Record{StockCode: "22423", Description: "REGENCY CAKESTAND 3 TIER", AvgPrice: 12.75, TotalQty: 880, TotalSales: 11220, Country: "United Kingdom", Recency: 1, Frequency: 95, Monetary: 11220}),
		models.NewRecord(models.Record{StockCode: "POST", Description: "POSTAGE", AvgPrice: 18, TotalQty: 300, TotalSales: 5400, Country: "France", Recency: 8, Frequency: 40, Monetary: 5400}),
		models.NewRecord(models.Record{StockCode: "21212", Description: "PACK OF 72 RETRO SPOT CAKE CASES", AvgPrice: 0.55, TotalQty: 4000, TotalSales: 2200, Country: "Germany", Recency: 15, Frequency: 60, Monetary: 2200}),
	}
	predictions := []models.Prediction{
		{StockCode: "22423", Description: "REGENCY CAKESTAND 3 TIER", AvgPrice: 12.75, PredictedQty: 140, Recency: 1, Frequency: 95, Advice: models.AdvicePush},
		{StockCode: "21212", Description: "PACK OF 72 RETRO SPOT CAKE CASES", AvgPrice: 0.55, PredictedQty: 90, Recency: 75, Frequency: 60, Advice: models.AdviceClear},
	}
	trend := []models.TrendPoint{
		{StockCode: "22423", Description: "REGENCY CAKESTAND 3 TIER", Month: time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), Quantity: 70, TotalPrice: 892.5},
		{StockCode: "22423", Description: "REGENCY CAKESTAND 3 TIER", Month: time.Date(2011, 2, 1, 0, 0, 0, 0, time.UTC), Quantity: 85, TotalPrice: 1083.75},
	}
	d.SetData(products, predictions, trend)
	return d
}

func newTestServer() *server.Server {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	catalog := pipeline.DefaultCatalog()
	defaults := func() pipeline.ViewState { return pipeline.DefaultViewState(catalog, 1) }

	opts := handlers.Options{
		Catalog:        catalog,
		Sessions:       session.NewManager(session.NewMemoryStore(time.Hour), "", time.Hour, defaults, logger),
		Latency:        observability.NewLatencyRecorder(),
		Dims:           pipeline.DefaultDimensions,
		DefaultDensity: 1,
		MaxDensity:     10,
	}
	return server.NewServer(newTestDashboard(), opts, logger)
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/api/filters", http.StatusOK, "application/json"},
		{"/api/products", http.StatusOK, "application/json"},
		{"/api/products?metric=sales&country=United+Kingdom", http.StatusOK, "application/json"},
		{"/api/selection?x0=-10&y0=-10&x1=1200&y1=700", http.StatusOK, "application/json"},
		{"/api/predictions", http.StatusOK, "application/json"},
		{"/api/trend?sku=22423+-+REGENCY+CAKESTAND+3+TIER", http.StatusOK, "application/json"},
		{"/api/trend?all=true", http.StatusOK, "application/json"},
		{"/charts/scatter.svg", http.StatusOK, "image/svg+xml"},
		{"/charts/predictions.svg", http.StatusOK, "image/svg+xml"},
		{"/charts/trend.svg", http.StatusOK, "image/svg+xml"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			// Validate JSON responses
			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

// Test JSON API responses
func TestServer_JSONResponse(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/products?country=United+Kingdom", nil)
	srv.ServeHTTP(w, r)

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response")
	}

	if count, _ := data["count"].(float64); count != 2 {
		t.Errorf("count = %v, want 2", data["count"])
	}

	points, ok := data["points"].([]any)
	if !ok || len(points) == 0 {
		t.Fatal("expected points in response")
	}

	// Verify structure of first item
	if item, ok := points[0].(map[string]any); ok {
		if code, _ := item["stock_code"].(string); code != "85123A" {
			t.Errorf("first point stock_code = %v, want 85123A", item["stock_code"])
		}
		if country, _ := item["country"].(string); country != "United Kingdom" {
			t.Errorf("first point country = %v, want United Kingdom", item["country"])
		}
	} else {
		t.Error("invalid point structure")
	}
}

// Test Server-Sent Events routes
func TestServer_SSERoutes(t *testing.T) {
	srv := newTestServer()

	signals := url.QueryEscape(`{"metric":"quantity","country":"ALL","price":"ALL","density":1,"sku":"","all":true}`)
	sseRoutes := []string{
		"/sse/action/clear-selection?datastar=" + signals,
		"/sse/action/change-metric?datastar=" + signals,
		"/sse/predictions",
		"/sse/trend?datastar=" + signals,
		"/sse/refresh-all",
	}

	for _, route := range sseRoutes {
		t.Run(route, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", route, nil)

			srv.ServeHTTP(w, r)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}

			// Check for SSE headers
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("content-type = %q, should contain 'text/event-stream'", ct)
			}

			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("cache-control = %q, want 'no-cache'", cc)
			}
		})
	}
}

// Test health endpoint
func TestServer_HandleHealth(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode health JSON: %v", err)
	}

	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	healthData, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected health data in response")
	}

	if status, ok := healthData["status"].(string); !ok || status != "healthy" {
		t.Errorf("health status = %v, want 'healthy'", healthData["status"])
	}

	if _, ok := healthData["timestamp"]; !ok {
		t.Error("health response should include timestamp")
	}

	if products, _ := healthData["products"].(float64); products != 4 {
		t.Errorf("products = %v, want 4", healthData["products"])
	}
}

// Test error handling for invalid methods and requests
func TestServer_ErrorHandling(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"POST", "/api/products", http.StatusMethodNotAllowed},
		{"PUT", "/", http.StatusMethodNotAllowed},
		{"DELETE", "/health", http.StatusMethodNotAllowed},
		{"PATCH", "/charts/scatter.svg", http.StatusMethodNotAllowed},
		{"GET", "/missing", http.StatusNotFound},
		{"GET", "/sse/action/explode", http.StatusNotFound},
		{"GET", "/api/products?metric=unknown", http.StatusBadRequest},
		{"GET", "/api/products?density=many", http.StatusBadRequest},
		{"GET", "/api/selection?x0=1", http.StatusBadRequest},
		{"GET", "/api/trend", http.StatusBadRequest},
		{"GET", "/api/trend?sku=nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, nil)

			srv.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

// Test dashboard template rendering
func TestDashboardTemplate(t *testing.T) {
	srv := newTestServer()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	srv.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Retail Product Analytics") {
		t.Error("dashboard should contain title")
	}

	// Check for key dashboard components
	expectedComponents := []string{
		`id="scatter-panel"`,
		`id="selection-info"`,
		`id="analytical-notes"`,
		"Predicted Top Products",
		"Monthly Sales Trend",
		"Price-Quantity Analysis",
	}

	for _, component := range expectedComponents {
		if !strings.Contains(body, component) {
			t.Errorf("dashboard should contain '%s'", component)
		}
	}

	if cookies := w.Result().Cookies(); len(cookies) == 0 || cookies[0].Name != session.DefaultCookieName {
		t.Error("dashboard should set a session cookie")
	}
}
