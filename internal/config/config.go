package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"findash/internal/core"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

var validBackends = []string{BackendMemory, BackendFile, BackendSheets, BackendSQLite}

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	ReloadPerMinute int

	LogLevel string

	// Data source
	DataBackend  string
	DataFile     string
	LayoutFile   string
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// AMQP, disabled when the URL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Cron spec, empty disables scheduled reloads
	ReloadSchedule string

	// SVG cache
	SVGCacheSize int
	SVGCacheTTL  time.Duration

	// Presentation
	Currency string
	Locale   string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		ReloadPerMinute: getEnvInt("RELOAD_RATE_LIMIT", 6),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", BackendMemory)),
		DataFile:     getEnv("DATA_FILE", ""),
		LayoutFile:   getEnv("LAYOUT_FILE", ""),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/findash.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "findash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", ""),

		ReloadSchedule: getEnv("RELOAD_SCHEDULE", ""),

		SVGCacheSize: getEnvInt("SVG_CACHE_SIZE", 256),
		SVGCacheTTL:  getEnvDuration("SVG_CACHE_TTL", 10*time.Minute),

		Currency: getEnv("CURRENCY", "грн"),
		Locale:   strings.ToLower(getEnv("LOCALE", "en")),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendFile:
		if c.DataFile == "" {
			errors = append(errors, "DATA_FILE is required when using file backend")
		} else if _, err := os.Stat(c.DataFile); err != nil {
			errors = append(errors, fmt.Sprintf("data file is not readable: %v", err))
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.LayoutFile != "" {
		if _, err := os.Stat(c.LayoutFile); err != nil {
			errors = append(errors, fmt.Sprintf("layout file is not readable: %v", err))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ReloadSchedule != "" {
		if _, err := cron.ParseStandard(c.ReloadSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid reload schedule '%s': %v", c.ReloadSchedule, err))
		}
	}

	if c.ReloadPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid reload rate limit %d: must be at least 1", c.ReloadPerMinute))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}
	if c.SVGCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid SVG cache size %d: must be at least 1", c.SVGCacheSize))
	}
	if c.SVGCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid SVG cache TTL %v: must be positive", c.SVGCacheTTL))
	}

	if strings.TrimSpace(c.Currency) == "" {
		errors = append(errors, "currency cannot be empty")
	}
	if !core.SupportedLocale(c.Locale) {
		errors = append(errors, fmt.Sprintf("unsupported locale '%s': must be one of en, ru, it", c.Locale))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
