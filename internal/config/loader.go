// Package config resolves service settings from defaults, an optional config
// file, a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/shift-scheduler/internal/logging"
)

// Keys double as environment variable names once upper-cased.
const (
	KeyBindAddr        = "bind_addr"
	KeyDatabaseDriver  = "database_driver"
	KeyDatabaseURL     = "database_url"
	KeyJWTSecret       = "jwt_secret"
	KeyCORSOrigin      = "cors_origin"
	KeyStaticDir       = "static_dir"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyShutdownTimeout = "shutdown_timeout"
)

const (
	DefaultBindAddr        = "0.0.0.0:8080"
	DefaultDatabaseDriver  = "sqlite"
	DefaultSQLiteURL       = "file:shift-scheduler.db"
	DefaultStaticDir       = "web"
	DefaultShutdownTimeout = 10 * time.Second
)

var knownDrivers = map[string]bool{"sqlite": true, "pgx": true, "postgres": true}

// Config captures the settings of the scheduler service.
type Config struct {
	BindAddr        string
	DatabaseDriver  string
	DatabaseURL     string
	JWTSecret       string
	CORSOrigin      string // empty allows any origin
	StaticDir       string
	LogLevel        slog.Level
	LogFormat       logging.Format
	ShutdownTimeout time.Duration
}

// Options locates the optional inputs to Load.
type Options struct {
	// ConfigFile is read when set; its absence is then an error.
	ConfigFile string
	// EnvFile defaults to ".env"; a missing file is ignored.
	EnvFile string
}

// Load resolves configuration. Precedence, highest first: process
// environment, .env file, config file, defaults. Missing required keys are
// reported before invalid ones, each list naming every offending key.
func Load(opts Options) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetDefault(KeyBindAddr, DefaultBindAddr)
	v.SetDefault(KeyDatabaseDriver, DefaultDatabaseDriver)
	v.SetDefault(KeyStaticDir, DefaultStaticDir)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, string(logging.FormatJSON))
	v.SetDefault(KeyShutdownTimeout, DefaultShutdownTimeout.String())
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	get := func(key string) string { return strings.TrimSpace(v.GetString(key)) }

	cfg := Config{
		BindAddr:       get(KeyBindAddr),
		DatabaseDriver: strings.ToLower(get(KeyDatabaseDriver)),
		DatabaseURL:    get(KeyDatabaseURL),
		JWTSecret:      get(KeyJWTSecret),
		CORSOrigin:     get(KeyCORSOrigin),
		StaticDir:      get(KeyStaticDir),
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if cfg.JWTSecret == "" {
		missing = append(missing, envName(KeyJWTSecret))
	}

	if !knownDrivers[cfg.DatabaseDriver] {
		invalid = append(invalid, envName(KeyDatabaseDriver))
	} else if cfg.DatabaseURL == "" {
		if cfg.DatabaseDriver == "sqlite" {
			cfg.DatabaseURL = DefaultSQLiteURL
		} else {
			missing = append(missing, envName(KeyDatabaseURL))
		}
	}

	if !validHostPort(cfg.BindAddr) {
		invalid = append(invalid, envName(KeyBindAddr))
	}

	level, err := logging.ParseLevel(get(KeyLogLevel))
	if err != nil {
		invalid = append(invalid, envName(KeyLogLevel))
	}
	cfg.LogLevel = level

	format, err := logging.ParseFormat(get(KeyLogFormat))
	if err != nil {
		invalid = append(invalid, envName(KeyLogFormat))
	}
	cfg.LogFormat = format

	timeout, err := time.ParseDuration(get(KeyShutdownTimeout))
	if err != nil || timeout <= 0 {
		invalid = append(invalid, envName(KeyShutdownTimeout))
	}
	cfg.ShutdownTimeout = timeout

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func envName(key string) string {
	return strings.ToUpper(key)
}

func validHostPort(addr string) bool {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 0 && n <= 65535
}
