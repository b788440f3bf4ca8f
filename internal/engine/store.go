package engine

import "context"

// RecordStore persists emission records keyed by (user ID, date).
//
// Implementations must make UpsertRecord's read-modify-write atomic per key
// and return errors wrapping ErrNotFound and ErrConflict where documented.
type RecordStore interface {
	// GetRecord returns the record for (userID, date) or an error wrapping
	// ErrNotFound.
	GetRecord(ctx context.Context, userID, date string) (*EmissionRecord, error)

	// ListRecords returns one user's records matching q, ordered by date.
	ListRecords(ctx context.Context, userID string, q RecordQuery) ([]EmissionRecord, error)

	// AggregateByUser sums total emissions and counts records per user over
	// r, or over every record when r is nil. Results are ordered by user ID.
	AggregateByUser(ctx context.Context, r *DateRange) ([]UserAggregate, error)

	// UpsertRecord stores rec. An existing record for the same key keeps its
	// ID and CreatedAt under ModeUpsert and fails with ErrConflict under
	// ModeCreate. The bool reports whether a new record was created.
	UpsertRecord(ctx context.Context, rec EmissionRecord, mode WriteMode) (EmissionRecord, bool, error)
}

// UserStore persists identity records.
type UserStore interface {
	// GetUser returns the user or an error wrapping ErrNotFound.
	GetUser(ctx context.Context, id string) (*User, error)

	// UsersByID returns the users that exist among ids.
	UsersByID(ctx context.Context, ids []string) (map[string]User, error)

	// PutUser creates or replaces a user.
	PutUser(ctx context.Context, u User) error
}

// Store is a backend holding both records and users.
type Store interface {
	RecordStore
	UserStore
	Close() error
}
