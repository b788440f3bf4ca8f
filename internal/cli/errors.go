package cli

import (
	"errors"

	"github.com/rshade/planetzero/internal/config"
	"github.com/rshade/planetzero/internal/engine"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitValidation = 2
	ExitConflict   = 3
	ExitNotFound   = 4
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, engine.ErrValidation), errors.Is(err, config.ErrInvalidConfig):
		return ExitValidation
	case errors.Is(err, engine.ErrConflict):
		return ExitConflict
	case errors.Is(err, engine.ErrNotFound):
		return ExitNotFound
	default:
		return ExitFailure
	}
}
