package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Mappings      MappingsConfig
	Database      DatabaseConfig
	Storage       StorageConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Worker        WorkerConfig
	PDF           PDFConfig
}

// Mapping store backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type MappingsConfig struct {
	Dir     string
	Backend string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type StorageConfig struct {
	LocalPath string
	OutputDir string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

type WorkerConfig struct {
	Schedule string
}

type PDFConfig struct {
	HeaderWindow    int
	MinSimilarity   float64
	DefaultCurrency string
}

// Load reads configuration from environment variables, after a .env file in
// the working directory when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Mappings: MappingsConfig{
			Dir:     getEnv("MAPPINGS_DIR", "./config"),
			Backend: strings.ToLower(getEnv("MAPPINGS_BACKEND", BackendFile)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "statements"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Storage: StorageConfig{
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./data"),
			OutputDir: getEnv("OUTPUT_DIR", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", false),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Worker: WorkerConfig{
			Schedule: getEnv("WORKER_SCHEDULE", "*/15 * * * *"),
		},
		PDF: PDFConfig{
			HeaderWindow:    getEnvAsInt("PDF_HEADER_WINDOW", 25),
			MinSimilarity:   getEnvAsFloat("PDF_MIN_SIMILARITY", 0.70),
			DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
		},
	}

	switch cfg.Mappings.Backend {
	case BackendFile, BackendPostgres:
	default:
		return nil, fmt.Errorf("MAPPINGS_BACKEND must be %q or %q, got %q", BackendFile, BackendPostgres, cfg.Mappings.Backend)
	}
	if cfg.PDF.MinSimilarity <= 0 || cfg.PDF.MinSimilarity > 1 {
		return nil, fmt.Errorf("PDF_MIN_SIMILARITY must be in (0, 1], got %v", cfg.PDF.MinSimilarity)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// MetricsAddr is the listen address of the metrics endpoint.
func (c *ObservabilityConfig) MetricsAddr() string {
	return fmt.Sprintf(":%d", c.MetricsPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
