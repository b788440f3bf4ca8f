package pagination

import (
	"fmt"
	"strings"

	"github.com/rshade/planetzero/internal/engine"
)

// Sort orders and defaults.
const (
	DefaultSortField = ""
	DefaultSortOrder = "asc"
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
)

// Common validation errors. All of them match engine.ErrValidation so the CLI
// maps them to the usage exit code.
var (
	ErrInvalidLimit      = fmt.Errorf("%w: limit out of range", engine.ErrValidation)
	ErrInvalidSortOrder  = fmt.Errorf("%w: sort order must be 'asc' or 'desc'", engine.ErrValidation)
	ErrInvalidSortFormat = fmt.Errorf(
		"%w: invalid sort format: use 'field' or 'field:order' (e.g., 'total:desc')", engine.ErrValidation)
	ErrEmptySortField   = fmt.Errorf("%w: sort field cannot be empty", engine.ErrValidation)
	ErrInvalidSortField = fmt.Errorf("%w: invalid sort field", engine.ErrValidation)
)

// Bounds is the accepted range of a --limit flag. Zero selects Default.
type Bounds struct {
	Min     int
	Max     int
	Default int
}

// HistoryBounds and LeaderboardBounds mirror the engine limits so flag errors
// surface before any store access.
var (
	HistoryBounds = Bounds{ //nolint:gochecknoglobals // Read-only limit table.
		Min: engine.MinHistoryLimit, Max: engine.MaxHistoryLimit, Default: engine.DefaultHistoryLimit,
	}
	LeaderboardBounds = Bounds{ //nolint:gochecknoglobals // Read-only limit table.
		Min: engine.MinLeaderboardLimit, Max: engine.MaxLeaderboardLimit, Default: engine.DefaultLeaderboardLimit,
	}
)

// Params holds the list flags of one command.
type Params struct {
	// Limit is the maximum number of results; 0 means the bounds default.
	Limit int

	// SortField is the field name to sort by (e.g., "total", "savings").
	SortField string

	// SortOrder is the sort direction: "asc" or "desc".
	SortOrder string
}

// NewParams parses the raw --limit and --sort flag values.
func NewParams(limit int, sortExpr string) (Params, error) {
	field, order, err := ParseSort(sortExpr)
	if err != nil {
		return Params{}, err
	}
	return Params{Limit: limit, SortField: field, SortOrder: order}, nil
}

// EffectiveLimit validates p.Limit against b and resolves the default.
func (p Params) EffectiveLimit(b Bounds) (int, error) {
	if p.Limit == 0 {
		return b.Default, nil
	}
	if p.Limit < b.Min || p.Limit > b.Max {
		return 0, fmt.Errorf("%w: must be between %d and %d, got %d", ErrInvalidLimit, b.Min, b.Max, p.Limit)
	}
	return p.Limit, nil
}

// HasSort reports whether a sort field was requested.
func (p Params) HasSort() bool {
	return p.SortField != ""
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses a sort string in the format "field" or "field:order".
// Examples: "total", "savings:desc", "date:asc"
// Returns the field name and order, or an error if invalid.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	if sortStr == "" {
		return DefaultSortField, DefaultSortOrder, nil
	}

	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}

	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}

	return field, order, nil
}

