package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"retail-dashboard/internal/pipeline"
)

type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Dashboard DashboardConfig
	Session   SessionConfig
	Logger    LoggerConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DataConfig struct {
	Source           string
	ProductsCSV      string
	PredictionsCSV   string
	TrendCSV         string
	PostgresDSN      string
	ProductsTable    string
	PredictionsTable string
	TrendTable       string
	CacheDir         string
	LoadTimeout      time.Duration
}

// DashboardConfig is the metric and filter set the page offers. It can be
// loaded from a YAML file named by DASHBOARD_CONFIG; env vars win over it.
type DashboardConfig struct {
	Metrics        []string `yaml:"metrics"`
	PriceFilter    bool     `yaml:"price_filter"`
	DefaultDensity int      `yaml:"default_density"`
	MaxDensity     int      `yaml:"max_density"`
	MaxPredictions int      `yaml:"max_predictions"`
	PlotWidth      float64  `yaml:"plot_width"`
	PlotHeight     float64  `yaml:"plot_height"`
}

type SessionConfig struct {
	RedisURL   string
	TTL        time.Duration
	CookieName string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

func defaultDashboard() DashboardConfig {
	return DashboardConfig{
		Metrics:        pipeline.AllMetrics(),
		PriceFilter:    true,
		DefaultDensity: 3,
		MaxDensity:     10,
		MaxPredictions: 30,
		PlotWidth:      pipeline.DefaultDimensions.Width,
		PlotHeight:     pipeline.DefaultDimensions.Height,
	}
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	dashboard := defaultDashboard()
	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		if err := loadDashboardFile(path, &dashboard); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			Source:           getEnvString("DATA_SOURCE", "csv"),
			ProductsCSV:      getEnvString("PRODUCTS_CSV", "data/processed_retail_data.csv"),
			PredictionsCSV:   getEnvString("PREDICTIONS_CSV", "data/predicted_top_products.csv"),
			TrendCSV:         getEnvString("TREND_CSV", "data/monthly_trend.csv"),
			PostgresDSN:      getEnvString("DATABASE_URL", ""),
			ProductsTable:    getEnvString("PRODUCTS_TABLE", "processed_retail_data"),
			PredictionsTable: getEnvString("PREDICTIONS_TABLE", "predicted_top_products"),
			TrendTable:       getEnvString("TREND_TABLE", "monthly_trend"),
			CacheDir:         getEnvString("CACHE_DIR", ".cache"),
			LoadTimeout:      getEnvDuration("DATA_LOAD_TIMEOUT", 30*time.Second),
		},
		Dashboard: DashboardConfig{
			Metrics:        getEnvStringSlice("DASHBOARD_METRICS", dashboard.Metrics),
			PriceFilter:    getEnvBool("DASHBOARD_PRICE_FILTER", dashboard.PriceFilter),
			DefaultDensity: getEnvInt("DASHBOARD_DEFAULT_DENSITY", dashboard.DefaultDensity),
			MaxDensity:     getEnvInt("DASHBOARD_MAX_DENSITY", dashboard.MaxDensity),
			MaxPredictions: getEnvInt("DASHBOARD_MAX_PREDICTIONS", dashboard.MaxPredictions),
			PlotWidth:      dashboard.PlotWidth,
			PlotHeight:     dashboard.PlotHeight,
		},
		Session: SessionConfig{
			RedisURL:   getEnvString("REDIS_URL", ""),
			TTL:        getEnvDuration("SESSION_TTL", 12*time.Hour),
			CookieName: getEnvString("SESSION_COOKIE", "dashboard_session"),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadDashboardFile(path string, into *DashboardConfig) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read dashboard config: %w", err)
	}
	if err := yaml.Unmarshal(file, into); err != nil {
		return fmt.Errorf("parse dashboard config %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	switch c.Data.Source {
	case "csv":
		if c.Data.ProductsCSV == "" {
			return fmt.Errorf("products CSV path cannot be empty")
		}
	case "postgres":
		if c.Data.PostgresDSN == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("invalid data source %q, must be one of: csv, postgres", c.Data.Source)
	}

	if _, err := c.Catalog(); err != nil {
		return err
	}

	if c.Dashboard.MaxDensity < 1 {
		return fmt.Errorf("max density must be positive")
	}

	if c.Dashboard.DefaultDensity < 1 || c.Dashboard.DefaultDensity > c.Dashboard.MaxDensity {
		return fmt.Errorf("default density must be between 1 and %d, got %d", c.Dashboard.MaxDensity, c.Dashboard.DefaultDensity)
	}

	if c.Dashboard.PlotWidth <= 0 || c.Dashboard.PlotHeight <= 0 {
		return fmt.Errorf("plot dimensions must be positive")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

// Catalog builds the metric catalog the dashboard offers.
func (c *Config) Catalog() (*pipeline.Catalog, error) {
	return pipeline.NewCatalog(c.Dashboard.Metrics, c.Dashboard.PriceFilter)
}

func (c *Config) Dimensions() pipeline.Dimensions {
	return pipeline.Dimensions{Width: c.Dashboard.PlotWidth, Height: c.Dashboard.PlotHeight}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
