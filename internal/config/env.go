package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables that override file values.
const (
	EnvHome        = "PLANETZERO_HOME"
	EnvProjectDir  = "PLANETZERO_PROJECT_DIR"
	EnvLogLevel    = "PLANETZERO_LOG_LEVEL"
	EnvLogFormat   = "PLANETZERO_LOG_FORMAT"
	EnvLogFile     = "PLANETZERO_LOG_FILE"
	EnvStoreDriver = "PLANETZERO_STORE_DRIVER"
	EnvStorePath   = "PLANETZERO_STORE_PATH"
	EnvUser        = "PLANETZERO_USER"
	EnvJWTSecret   = "PLANETZERO_JWT_SECRET"
	EnvServerAddr  = "PLANETZERO_SERVER_ADDR"
	EnvBaseline    = "PLANETZERO_BASELINE_DAILY_KG"
	EnvTokenTTL    = "PLANETZERO_TOKEN_TTL"
)

// ApplyEnv overlays PLANETZERO_* variables. Unparseable numeric values are
// ignored.
func (c *Config) ApplyEnv() {
	setString := func(env string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	setString(EnvLogLevel, &c.Logging.Level)
	setString(EnvLogFormat, &c.Logging.Format)
	setString(EnvLogFile, &c.Logging.File)
	setString(EnvStoreDriver, &c.Store.Driver)
	setString(EnvStorePath, &c.Store.Path)
	setString(EnvUser, &c.Identity.User)
	setString(EnvJWTSecret, &c.Server.JWTSecret)
	setString(EnvServerAddr, &c.Server.Addr)

	if v := os.Getenv(EnvBaseline); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Emissions.BaselineDailyKg = f
		}
	}
	if v := os.Getenv(EnvTokenTTL); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Server.TokenTTL = d
		}
	}
}
