package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/logging"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown store driver")

// Options selects and locates a backend.
type Options struct {
	Driver string
	Path   string
}

// Drivers returns the supported driver names.
func Drivers() []string {
	return []string{DriverSQLite, DriverFile, DriverMemory}
}

// DefaultPath returns the default data file for driver under ~/.planetzero.
func DefaultPath(driver string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	name := "planetzero.db"
	if driver == DriverFile {
		name = "planetzero.json"
	}
	return filepath.Join(home, ".planetzero", name), nil
}

// Open returns the backend named by opts.Driver. An empty driver means sqlite
// and an empty path means DefaultPath.
func Open(ctx context.Context, opts Options) (engine.Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	path := opts.Path
	if path == "" && driver != DriverMemory {
		p, err := DefaultPath(driver)
		if err != nil {
			return nil, err
		}
		path = p
	}

	logging.FromContext(ctx).Debug().
		Str("component", "store").
		Str("driver", driver).
		Str("path", path).
		Msg("opening store")

	switch driver {
	case DriverSQLite:
		return OpenSQLite(ctx, path)
	case DriverMemory:
		return OpenSQLite(ctx, ":memory:")
	case DriverFile:
		return OpenFile(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
