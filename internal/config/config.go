// Package config loads the service configuration.
//
// Values are layered, later layers winning: built-in defaults, an optional
// YAML file, MUSICSHOP_* environment variables (a .env file in the working
// directory is loaded first) and finally explicit overrides such as
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the environment variable holding a config file path.
const ConfigPathEnvVar = "MUSICSHOP_CONFIG"

// DefaultConfigFile is read when present and no other file is named.
const DefaultConfigFile = "musicshop.yaml"

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Log       LogConfig       `koanf:"log"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// AuthConfig configures accounts and session tokens.
type AuthConfig struct {
	AdminUser string        `koanf:"admin_user"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// RateLimitConfig limits login attempts per client address.
type RateLimitConfig struct {
	LoginRequests int           `koanf:"login_requests"`
	LoginWindow   time.Duration `koanf:"login_window"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
		Database: DatabaseConfig{Path: "musicshop.sqlite3"},
		Auth: AuthConfig{
			AdminUser: "Admin",
			TokenTTL:  7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		CORS: CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: RateLimitConfig{
			LoginRequests: 10,
			LoginWindow:   time.Minute,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// envKeys maps environment variable names to configuration keys.
var envKeys = map[string]string{
	"MUSICSHOP_ADDR":                "server.addr",
	"MUSICSHOP_READ_HEADER_TIMEOUT": "server.read_header_timeout",
	"MUSICSHOP_READ_TIMEOUT":        "server.read_timeout",
	"MUSICSHOP_WRITE_TIMEOUT":       "server.write_timeout",
	"MUSICSHOP_IDLE_TIMEOUT":        "server.idle_timeout",
	"MUSICSHOP_SHUTDOWN_TIMEOUT":    "server.shutdown_timeout",
	"MUSICSHOP_DB":                  "database.path",
	"MUSICSHOP_ADMIN_USER":          "auth.admin_user",
	"MUSICSHOP_TOKEN_TTL":           "auth.token_ttl",
	"MUSICSHOP_LOG_LEVEL":           "log.level",
	"MUSICSHOP_LOG_FORMAT":          "log.format",
	"MUSICSHOP_LOG_FILE":            "log.file",
	"MUSICSHOP_LOG_MAX_SIZE_MB":     "log.max_size_mb",
	"MUSICSHOP_LOG_MAX_BACKUPS":     "log.max_backups",
	"MUSICSHOP_LOG_MAX_AGE_DAYS":    "log.max_age_days",
	"MUSICSHOP_CORS_ORIGINS":        "cors.allowed_origins",
	"MUSICSHOP_LOGIN_RATE_LIMIT":    "rate_limit.login_requests",
	"MUSICSHOP_LOGIN_RATE_WINDOW":   "rate_limit.login_window",
	"MUSICSHOP_METRICS_ENABLED":     "metrics.enabled",
}

func envKey(name string) string {
	return envKeys[name]
}

// Options control where Load looks for configuration.
type Options struct {
	// File is an explicit config file path. It must exist when set.
	File string
	// EnvFile is a dotenv file to load. Empty means ".env", which may be missing.
	EnvFile string
	// Overrides are applied last, keyed like "server.addr".
	Overrides map[string]any
}

// Load builds the configuration from every layer and validates it.
func Load(opts Options) (*Config, error) {
	if err := loadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	path, err := configFile(opts.File)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("MUSICSHOP_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	for key, value := range opts.Overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting %s: %w", key, err)
		}
	}

	if err := splitList(k, "cors.allowed_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func configFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config file from %s: %w", ConfigPathEnvVar, err)
		}
		return p, nil
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	}
	return "", nil
}

// splitList turns a comma-separated string value into a list.
func splitList(k *koanf.Koanf, key string) error {
	s, ok := k.Get(key).(string)
	if !ok {
		return nil
	}
	var items []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return k.Set(key, items)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Auth.AdminUser == "" {
		errs = append(errs, errors.New("auth.admin_user is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	for name, d := range map[string]time.Duration{
		"server.read_header_timeout": c.Server.ReadHeaderTimeout,
		"server.read_timeout":        c.Server.ReadTimeout,
		"server.write_timeout":       c.Server.WriteTimeout,
		"server.idle_timeout":        c.Server.IdleTimeout,
		"server.shutdown_timeout":    c.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of trace, debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or console", c.Log.Format))
	}
	if c.RateLimit.LoginRequests <= 0 || c.RateLimit.LoginWindow <= 0 {
		errs = append(errs, errors.New("rate_limit.login_requests and rate_limit.login_window must be positive"))
	}
	return errors.Join(errs...)
}
