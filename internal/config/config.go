package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	AdLibrary   AdLibraryConfig
	Performance PerformanceConfig
	Export      ExportConfig
	Logging     LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCPort      string
	ServerTimeout time.Duration
	MaxBatchItems int
}

// AdLibraryConfig holds the search endpoint and the session values sent
// with every request. The session values are opaque and not validated.
type AdLibraryConfig struct {
	Endpoint  string
	SessionID string
	Cookie    string
	Version   string
	LSD       string
	ASBDID    string
	UserAgent string
	Country   string
}

// PerformanceConfig holds pacing and timeout configuration
type PerformanceConfig struct {
	PageDelay   time.Duration
	HTTPTimeout time.Duration
	PageSize    int
}

// ExportConfig holds spreadsheet export configuration
type ExportConfig struct {
	Filename string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string
	Format      string
	Development bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			GRPCPort:      getEnv("GRPC_SERVER_PORT", "50051"),
			ServerTimeout: getDurationEnv("SERVER_TIMEOUT_SEC", 600) * time.Second,
			MaxBatchItems: getIntEnv("MAX_BATCH_ITEMS", 50),
		},
		AdLibrary: AdLibraryConfig{
			Endpoint:  getEnv("AD_LIBRARY_ENDPOINT", "https://www.facebook.com/ads/library/async/search_ads/"),
			SessionID: getEnv("AD_LIBRARY_SESSION_ID", ""),
			Cookie:    getEnv("AD_LIBRARY_COOKIE", ""),
			Version:   getEnv("AD_LIBRARY_VERSION", "2c4a00"),
			LSD:       getEnv("AD_LIBRARY_LSD", ""),
			ASBDID:    getEnv("AD_LIBRARY_ASBD_ID", "129477"),
			UserAgent: getEnv("AD_LIBRARY_USER_AGENT", ""),
			Country:   getEnv("AD_LIBRARY_COUNTRY", "US"),
		},
		Performance: PerformanceConfig{
			PageDelay:   getDurationEnv("PAGE_DELAY_MS", 1000) * time.Millisecond,
			HTTPTimeout: getDurationEnv("HTTP_TIMEOUT_SEC", 30) * time.Second,
			PageSize:    getIntEnv("PAGE_SIZE", 30),
		},
		Export: ExportConfig{
			Filename: getEnv("EXPORT_FILENAME", "ad_details_sorted_by_collation_count.xlsx"),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Format:      getEnv("LOG_FORMAT", "json"),
			Development: getBoolEnv("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.AdLibrary.Endpoint, "http://") && !strings.HasPrefix(c.AdLibrary.Endpoint, "https://") {
		return fmt.Errorf("AD_LIBRARY_ENDPOINT must be an http(s) URL, got %q", c.AdLibrary.Endpoint)
	}

	if c.Performance.PageDelay < 0 {
		return fmt.Errorf("PAGE_DELAY_MS cannot be negative")
	}

	if c.Performance.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.Performance.PageSize)
	}

	if c.Server.MaxBatchItems <= 0 {
		return fmt.Errorf("MAX_BATCH_ITEMS must be positive, got %d", c.Server.MaxBatchItems)
	}

	// Session values are optional here; requests can also carry them
	if c.AdLibrary.Cookie == "" {
		log.Println("WARNING: AD_LIBRARY_COOKIE not set. Requests without a session cookie are usually rejected")
	}

	if c.AdLibrary.SessionID == "" {
		log.Println("WARNING: AD_LIBRARY_SESSION_ID not set")
	}

	return nil
}

// Helper functions to get environment variables with defaults

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("WARNING: Invalid integer value for %s: %s. Using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("WARNING: Invalid boolean value for %s: %s. Using default: %t", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return time.Duration(defaultValue)
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("WARNING: Invalid duration value for %s: %s. Using default: %d", key, valueStr, defaultValue)
		return time.Duration(defaultValue)
	}

	return time.Duration(value)
}
