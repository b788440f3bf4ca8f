package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// ErrUnknownKey is returned by Get and Set for an unrecognized dotted key.
var ErrUnknownKey = errors.New("unknown config key")

type keyAccessor struct {
	get    func(c *Config) string
	set    func(c *Config, v string) error
	secret bool
}

func stringKey(field func(c *Config) *string) keyAccessor {
	return keyAccessor{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

//nolint:gochecknoglobals // Key table.
var keys = map[string]keyAccessor{
	"output.default_format":      stringKey(func(c *Config) *string { return &c.Output.DefaultFormat }),
	"output.unit":                stringKey(func(c *Config) *string { return &c.Output.Unit }),
	"logging.level":              stringKey(func(c *Config) *string { return &c.Logging.Level }),
	"logging.format":             stringKey(func(c *Config) *string { return &c.Logging.Format }),
	"logging.file":               stringKey(func(c *Config) *string { return &c.Logging.File }),
	"logging.audit.file":         stringKey(func(c *Config) *string { return &c.Logging.Audit.File }),
	"store.driver":               stringKey(func(c *Config) *string { return &c.Store.Driver }),
	"store.path":                 stringKey(func(c *Config) *string { return &c.Store.Path }),
	"leaderboard.default_period": stringKey(func(c *Config) *string { return &c.Leaderboard.DefaultPeriod }),
	"server.addr":                stringKey(func(c *Config) *string { return &c.Server.Addr }),
	"server.issuer":              stringKey(func(c *Config) *string { return &c.Server.Issuer }),
	"identity.user":              stringKey(func(c *Config) *string { return &c.Identity.User }),
	"identity.name":              stringKey(func(c *Config) *string { return &c.Identity.Name }),
	"server.jwt_secret": {
		get:    func(c *Config) string { return c.Server.JWTSecret },
		set:    func(c *Config, v string) error { c.Server.JWTSecret = v; return nil },
		secret: true,
	},
	"logging.audit.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Logging.Audit.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("expected true or false: %w", err)
			}
			c.Logging.Audit.Enabled = b
			return nil
		},
	},
	"emissions.baseline_daily_kg": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Emissions.BaselineDailyKg, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("expected a number: %w", err)
			}
			c.Emissions.BaselineDailyKg = f
			return nil
		},
	},
	"leaderboard.default_limit": {
		get: func(c *Config) string { return strconv.Itoa(c.Leaderboard.DefaultLimit) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("expected an integer: %w", err)
			}
			c.Leaderboard.DefaultLimit = n
			return nil
		},
	},
	"server.token_ttl": {
		get: func(c *Config) string { return c.Server.TokenTTL.String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("expected a duration such as 24h: %w", err)
			}
			c.Server.TokenTTL = d
			return nil
		},
	},
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Get returns the value at a dotted key.
func (c *Config) Get(key string) (string, error) {
	acc, ok := keys[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return acc.get(c), nil
}

// Set parses and stores value at a dotted key. It does not validate the
// resulting configuration.
func (c *Config) Set(key, value string) error {
	acc, ok := keys[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err := acc.set(c, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// IsSecret reports whether key should be masked when listed.
func IsSecret(key string) bool {
	return keys[key].secret
}
