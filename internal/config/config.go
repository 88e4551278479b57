// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Location         *time.Location
	DatabasePath     string
	CatalogPath      string
	ListenAddr       string
	RemoteURL        string
	LogLevel         string
	LogFile          string
	RefreshInterval  time.Duration
	SpendingAlertUSD float64
	RetentionDays    int
}

// Default values
const (
	defaultListenAddr      = ":7865"
	defaultRefreshInterval = 5 * time.Second
	defaultLogLevel        = "info"
	appDirName             = "inspectro"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	loc, err := loadLocation(getEnvString("TIMEZONE", ""))
	if err != nil {
		return nil, err
	}

	alert, err := getEnvFloat("SPENDING_ALERT_USD", 0)
	if err != nil {
		return nil, err
	}
	if alert < 0 {
		return nil, fmt.Errorf("SPENDING_ALERT_USD must not be negative, got %v", alert)
	}

	cfg := &Config{
		Location:         loc,
		DatabasePath:     getEnvString("DATABASE_PATH", defaultPath("usage.db")),
		CatalogPath:      getEnvString("LLM_CONFIG_PATH", defaultPath("llm.yaml")),
		ListenAddr:       getEnvString("LISTEN_ADDR", defaultListenAddr),
		RemoteURL:        getEnvString("USAGE_API_URL", ""),
		LogLevel:         getEnvString("LOG_LEVEL", defaultLogLevel),
		LogFile:          getEnvString("LOG_FILE", defaultPath("inspectro.log")),
		RefreshInterval:  getEnvDuration("USAGE_REFRESH_INTERVAL", defaultRefreshInterval),
		SpendingAlertUSD: alert,
		RetentionDays:    getEnvInt("USAGE_RETENTION_DAYS", 0),
	}

	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}

	for _, p := range []string{cfg.DatabasePath, cfg.CatalogPath, cfg.LogFile} {
		if err := ensureDir(filepath.Dir(p)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", appDirName, ".env"),
			filepath.Join(home, "."+appDirName, ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// defaultPath returns name inside the per-user config directory, or name
// itself when the home directory is unknown.
func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", appDirName, name)
}

func loadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
