// Package cli provides common CLI initialization utilities shared by
// cmd/findash and cmd/findash-import.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"findash/internal/config"
	applog "findash/internal/log"
	"findash/internal/sheets"
)

// SetupLogger builds the application logger at the given LOG_LEVEL and
// installs it as the slog default.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// EnvFiles are tried in order. Variables already set in the environment
// always win, and earlier files win over later ones.
func EnvFiles() []string {
	return []string{
		".env",
		filepath.Join(xdg.ConfigHome, sheets.DefaultLayoutParentDir, "findash.env"),
	}
}

// LoadEnvFile loads the .env files for local development. Missing files are
// fine; the loaded paths are returned for logging.
func LoadEnvFile() ([]string, error) {
	var loaded []string
	for _, f := range EnvFiles() {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, err
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. Once it is
// done, default signal handling is restored so a second signal kills the
// process.
func SignalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}
