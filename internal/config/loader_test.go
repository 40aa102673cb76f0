package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/shift-scheduler/internal/logging"
)

var allKeys = []string{
	"BIND_ADDR",
	"DATABASE_DRIVER",
	"DATABASE_URL",
	"JWT_SECRET",
	"CORS_ORIGIN",
	"STATIC_DIR",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"SHUTDOWN_TIMEOUT",
}

// clearEnv unsets every key for the duration of the test. t.Setenv records
// the original value so it is restored afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func noEnvFile(t *testing.T) Options {
	return Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "super-secret")

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.BindAddr != DefaultBindAddr {
		t.Fatalf("expected default bind address, got %q", cfg.BindAddr)
	}
	if cfg.DatabaseDriver != "sqlite" || cfg.DatabaseURL != DefaultSQLiteURL {
		t.Fatalf("expected sqlite defaults, got %q %q", cfg.DatabaseDriver, cfg.DatabaseURL)
	}
	if cfg.JWTSecret != "super-secret" {
		t.Fatalf("unexpected secret %q", cfg.JWTSecret)
	}
	if cfg.CORSOrigin != "" || cfg.StaticDir != "web" {
		t.Fatalf("unexpected cors/static defaults %q %q", cfg.CORSOrigin, cfg.StaticDir)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != logging.FormatJSON {
		t.Fatalf("unexpected logging defaults %v %q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout %s", cfg.ShutdownTimeout)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("BIND_ADDR", "127.0.0.1:9090")
	t.Setenv("DATABASE_DRIVER", "PGX")
	t.Setenv("DATABASE_URL", "postgres://localhost/shifts")
	t.Setenv("CORS_ORIGIN", "http://localhost:3000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BindAddr != "127.0.0.1:9090" || cfg.DatabaseDriver != "pgx" || cfg.DatabaseURL != "postgres://localhost/shifts" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.CORSOrigin != "http://localhost:3000" || cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != logging.FormatText {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingBeforeInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("BIND_ADDR", "8080")

	_, err := Load(noEnvFile(t))
	if err == nil {
		t.Fatalf("expected error when required values are missing")
	}
	if got := err.Error(); got != "missing required configuration: JWT_SECRET, DATABASE_URL" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("BIND_ADDR", "localhost:http")
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")

	_, err := Load(noEnvFile(t))
	if err == nil {
		t.Fatalf("expected error for invalid values")
	}
	want := "invalid configuration values: DATABASE_DRIVER, BIND_ADDR, LOG_LEVEL, LOG_FORMAT, SHUTDOWN_TIMEOUT"
	if err.Error() != want {
		t.Fatalf("unexpected error message: %q", err.Error())
	}
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "JWT_SECRET=from-file\nSTATIC_DIR=public\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("STATIC_DIR", "assets")
	// godotenv sets variables directly; make sure they are removed afterwards.
	t.Setenv("JWT_SECRET", "")
	if err := os.Unsetenv("JWT_SECRET"); err != nil {
		t.Fatalf("unset: %v", err)
	}

	cfg, err := Load(Options{EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.JWTSecret != "from-file" {
		t.Fatalf("expected secret from .env, got %q", cfg.JWTSecret)
	}
	if cfg.StaticDir != "assets" {
		t.Fatalf("expected process environment to win, got %q", cfg.StaticDir)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "scheduler.yaml")
	content := strings.Join([]string{
		"jwt_secret: file-secret",
		"bind_addr: 127.0.0.1:7000",
		"log_format: text",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BIND_ADDR", "127.0.0.1:7001")

	opts := noEnvFile(t)
	opts.ConfigFile = path
	cfg, err := Load(opts)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.JWTSecret != "file-secret" || cfg.LogFormat != logging.FormatText {
		t.Fatalf("expected values from config file, got %+v", cfg)
	}
	if cfg.BindAddr != "127.0.0.1:7001" {
		t.Fatalf("expected environment to override the file, got %q", cfg.BindAddr)
	}

	opts.ConfigFile = filepath.Join(t.TempDir(), "absent.yaml")
	if _, err := Load(opts); err == nil {
		t.Fatalf("expected an explicit but missing config file to fail")
	}
}
