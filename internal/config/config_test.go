package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points HOME and the working directory at an empty temp dir so no
// real .env file is picked up, and points every path at it.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("HOME", tmpDir)
	t.Setenv("DATABASE_PATH", filepath.Join(tmpDir, "db", "usage.db"))
	t.Setenv("LLM_CONFIG_PATH", filepath.Join(tmpDir, "llm.yaml"))
	t.Setenv("LOG_FILE", filepath.Join(tmpDir, "logs", "inspectro.log"))
	for _, key := range []string{
		"LISTEN_ADDR", "USAGE_API_URL", "USAGE_REFRESH_INTERVAL", "TIMEZONE",
		"LOG_LEVEL", "SPENDING_ALERT_USD", "USAGE_RETENTION_DAYS",
	} {
		t.Setenv(key, "")
	}
	return tmpDir
}

func TestGetEnvString(t *testing.T) {
	key := "TEST_ENV_STRING"
	t.Setenv(key, "test_value")

	if got := getEnvString(key, "default"); got != "test_value" {
		t.Errorf("getEnvString() = %q, want %q", got, "test_value")
	}

	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_ENV_DURATION"

	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.envVal)

			if got := getEnvDuration(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	key := "TEST_ENV_FLOAT"

	t.Setenv(key, "12.5")
	if got, err := getEnvFloat(key, 0); err != nil || got != 12.5 {
		t.Errorf("getEnvFloat() = %v, %v", got, err)
	}

	t.Setenv(key, "lots")
	if _, err := getEnvFloat(key, 0); err == nil {
		t.Error("getEnvFloat() should fail on garbage")
	}
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestDefaultPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Skipping test because user home dir cannot be found")
	}

	want := filepath.Join(home, ".config", "inspectro", "usage.db")
	if got := defaultPath("usage.db"); got != want {
		t.Errorf("defaultPath() = %q, want %q", got, want)
	}
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Fatal("getEnvPaths() returned empty list")
	}

	cwd, _ := os.Getwd()
	if paths[0] != filepath.Join(cwd, ".env") {
		t.Errorf("getEnvPaths()[0] = %q, want current directory .env", paths[0])
	}
}

func TestLoad_Defaults(t *testing.T) {
	tmpDir := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ListenAddr != defaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, defaultListenAddr)
	}
	if cfg.RefreshInterval != defaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.RefreshInterval, defaultRefreshInterval)
	}
	if cfg.Location != time.Local {
		t.Errorf("Location = %v, want Local", cfg.Location)
	}
	if cfg.SpendingAlertUSD != 0 || cfg.RetentionDays != 0 || cfg.RemoteURL != "" {
		t.Errorf("unexpected optional values: %+v", cfg)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "db")); err != nil {
		t.Errorf("database directory not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "logs")); err != nil {
		t.Errorf("log directory not created: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	isolate(t)
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("USAGE_REFRESH_INTERVAL", "30")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SPENDING_ALERT_USD", "25")
	t.Setenv("USAGE_RETENTION_DAYS", "90")
	t.Setenv("USAGE_API_URL", "http://localhost:7865")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.RefreshInterval != 30*time.Second {
		t.Errorf("RefreshInterval = %v, want 30s", cfg.RefreshInterval)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location)
	}
	if cfg.SpendingAlertUSD != 25 {
		t.Errorf("SpendingAlertUSD = %v, want 25", cfg.SpendingAlertUSD)
	}
	if cfg.RetentionDays != 90 {
		t.Errorf("RetentionDays = %d, want 90", cfg.RetentionDays)
	}
	if cfg.RemoteURL != "http://localhost:7865" {
		t.Errorf("RemoteURL = %q", cfg.RemoteURL)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"Timezone", "TIMEZONE", "Mars/Olympus_Mons"},
		{"AlertGarbage", "SPENDING_ALERT_USD", "much"},
		{"AlertNegative", "SPENDING_ALERT_USD", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() should fail for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_WithEnvFile(t *testing.T) {
	tmpDir := isolate(t)
	os.Unsetenv("LISTEN_ADDR")
	content := "LISTEN_ADDR=:8123\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("LISTEN_ADDR") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ListenAddr != ":8123" {
		t.Errorf("ListenAddr = %q, want :8123", cfg.ListenAddr)
	}
}
