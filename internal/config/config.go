// Package config loads planetzero settings from ~/.planetzero/config.yaml,
// applies PLANETZERO_* environment overrides and merges an optional
// project-local overlay.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	// DefaultBaselineDailyKg is the India per-capita daily average, about
	// 1.9 t CO2e a year.
	DefaultBaselineDailyKg = 5.2
	DefaultLeaderboardSize = 10
	DefaultServerAddr      = "127.0.0.1:8080"
	DefaultTokenTTL        = 24 * time.Hour
	DefaultIssuer          = "planetzero"

	outputTypeFile = "file"
)

// Valid enumerations for Validate.
//
//nolint:gochecknoglobals // Lookup tables.
var (
	validOutputFormats = []string{"table", "json"}
	validLogLevels     = []string{"trace", "debug", "info", "warn", "error"}
	validLogFormats    = []string{"json", "console", "text"}
	validStoreDrivers  = []string{"sqlite", "file", "memory"}
	validPeriods       = []string{"weekly", "monthly", "all_time"}
	validUnits         = []string{"g", "kg", "t", "lb"}
)

// ErrInvalidConfig wraps every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full configuration document.
type Config struct {
	Output      OutputConfig      `yaml:"output"      json:"output"`
	Logging     LoggingConfig     `yaml:"logging"     json:"logging"`
	Store       StoreConfig       `yaml:"store"       json:"store"`
	Emissions   EmissionsConfig   `yaml:"emissions"   json:"emissions"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard" json:"leaderboard"`
	Server      ServerConfig      `yaml:"server"      json:"server"`
	Identity    IdentityConfig    `yaml:"identity"    json:"identity"`

	configPath string
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Unit          string `yaml:"unit"           json:"unit"`
}

// LoggingConfig controls diagnostic and audit logging.
type LoggingConfig struct {
	Level  string      `yaml:"level"  json:"level"`
	Format string      `yaml:"format" json:"format"`
	File   string      `yaml:"file"   json:"file"`
	Audit  AuditConfig `yaml:"audit"  json:"audit"`
}

// AuditConfig enables the JSON-lines audit trail of mutating commands.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	File    string `yaml:"file"    json:"file"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver"`
	Path   string `yaml:"path"   json:"path"`
}

// EmissionsConfig holds regional comparison settings.
type EmissionsConfig struct {
	BaselineDailyKg float64 `yaml:"baseline_daily_kg" json:"baseline_daily_kg"`
}

// LeaderboardConfig holds leaderboard defaults.
type LeaderboardConfig struct {
	DefaultLimit  int    `yaml:"default_limit"  json:"default_limit"`
	DefaultPeriod string `yaml:"default_period" json:"default_period"`
}

// ServerConfig configures `planetzero serve`.
type ServerConfig struct {
	Addr      string        `yaml:"addr"       json:"addr"`
	JWTSecret string        `yaml:"jwt_secret" json:"-"`
	Issuer    string        `yaml:"issuer"     json:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"  json:"token_ttl"`
}

// IdentityConfig names the local CLI user.
type IdentityConfig struct {
	User string `yaml:"user" json:"user"`
	Name string `yaml:"name" json:"name"`
}

// Defaults returns a Config holding only built-in defaults.
func Defaults() *Config {
	return &Config{
		Output: OutputConfig{
			DefaultFormat: "table",
			Unit:          "kg",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Emissions: EmissionsConfig{
			BaselineDailyKg: DefaultBaselineDailyKg,
		},
		Leaderboard: LeaderboardConfig{
			DefaultLimit:  DefaultLeaderboardSize,
			DefaultPeriod: "monthly",
		},
		Server: ServerConfig{
			Addr:     DefaultServerAddr,
			Issuer:   DefaultIssuer,
			TokenTTL: DefaultTokenTTL,
		},
	}
}

// New returns defaults overlaid with the global config file (when present)
// and environment overrides. A malformed file is ignored in favor of
// defaults; use Load to surface the error.
func New() *Config {
	path := defaultConfigPath()
	cfg, err := Load(path)
	if err != nil {
		cfg = Defaults()
		cfg.configPath = path
		cfg.ApplyEnv()
	}
	return cfg
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile reads path over the defaults without environment overrides, so
// the result can be edited and saved back. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	cfg.configPath = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return cfg, nil
}

func defaultConfigPath() string {
	dir, err := GetConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "config.yaml")
}

// ConfigPath returns where Save writes.
func (c *Config) ConfigPath() string {
	if c.configPath == "" {
		c.configPath = defaultConfigPath()
	}
	return c.configPath
}

// SetConfigPath changes where Save writes.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save() error {
	path := c.ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// Validate checks every section. All problems are reported together.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(slices.Contains(validOutputFormats, c.Output.DefaultFormat),
		"output.default_format %q must be one of %s", c.Output.DefaultFormat, strings.Join(validOutputFormats, ", "))
	check(slices.Contains(validUnits, c.Output.Unit),
		"output.unit %q must be one of %s", c.Output.Unit, strings.Join(validUnits, ", "))
	check(slices.Contains(validLogLevels, c.Logging.Level),
		"logging.level %q must be one of %s", c.Logging.Level, strings.Join(validLogLevels, ", "))
	check(slices.Contains(validLogFormats, c.Logging.Format),
		"logging.format %q must be one of %s", c.Logging.Format, strings.Join(validLogFormats, ", "))
	check(slices.Contains(validStoreDrivers, c.Store.Driver),
		"store.driver %q must be one of %s", c.Store.Driver, strings.Join(validStoreDrivers, ", "))
	check(c.Emissions.BaselineDailyKg >= 0,
		"emissions.baseline_daily_kg must not be negative")
	check(c.Leaderboard.DefaultLimit >= 5 && c.Leaderboard.DefaultLimit <= 100,
		"leaderboard.default_limit %d must be between 5 and 100", c.Leaderboard.DefaultLimit)
	check(slices.Contains(validPeriods, c.Leaderboard.DefaultPeriod),
		"leaderboard.default_period %q must be one of %s", c.Leaderboard.DefaultPeriod, strings.Join(validPeriods, ", "))
	check(c.Server.TokenTTL > 0, "server.token_ttl must be positive")

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ValidateServer additionally requires what `serve` and `token` need.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.JWTSecret == "" {
		return fmt.Errorf("%w: server.jwt_secret is required (or set PLANETZERO_JWT_SECRET)", ErrInvalidConfig)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	return nil
}
