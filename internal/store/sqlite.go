package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/greenops"
	"github.com/rshade/planetzero/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	date TEXT NOT NULL,
	activity TEXT NOT NULL,
	transport REAL NOT NULL,
	electricity REAL NOT NULL,
	food REAL NOT NULL,
	lifestyle REAL NOT NULL,
	total REAL NOT NULL,
	highest_category TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_records_user_date ON records(user_id, date);
CREATE INDEX IF NOT EXISTS idx_records_date ON records(date);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	age INTEGER,
	gender TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	household_size INTEGER,
	transport_mode TEXT NOT NULL DEFAULT '',
	diet_type TEXT NOT NULL DEFAULT '',
	energy_source TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

const recordColumns = `id, user_id, date, activity, transport, electricity, food, lifestyle,
	total, highest_category, created_at, updated_at`

const userColumns = `id, name, email, age, gender, country, city, household_size,
	transport_mode, diet_type, energy_source, created_at, updated_at`

// SQLiteStore is an engine.Store on a sqlite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// One connection serializes writers and keeps a :memory: database alive.
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logging.FromContext(ctx).Debug().
		Str("component", "store").
		Str("driver", DriverSQLite).
		Str("path", path).
		Msg("sqlite store ready")

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (engine.EmissionRecord, error) {
	var (
		rec                  engine.EmissionRecord
		activity, highest    string
		createdAt, updatedAt string
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Date, &activity,
		&rec.Transport, &rec.Electricity, &rec.Food, &rec.Lifestyle,
		&rec.Total, &highest, &createdAt, &updatedAt)
	if err != nil {
		return rec, err
	}
	if err = json.Unmarshal([]byte(activity), &rec.Activity); err != nil {
		return rec, fmt.Errorf("decoding activity for record %s: %w", rec.ID, err)
	}
	rec.HighestCategory = greenops.Category(highest)
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return rec, err
	}
	rec.UpdatedAt, err = parseTime(updatedAt)
	return rec, err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored timestamp %q: %w", s, err)
	}
	return t, nil
}

// GetRecord implements engine.RecordStore.
func (s *SQLiteStore) GetRecord(ctx context.Context, userID, date string) (*engine.EmissionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE user_id = ? AND date = ?`, userID, date)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s/%s: %w", userID, date, engine.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading record %s/%s: %w", userID, date, err)
	}
	return &rec, nil
}

// ListRecords implements engine.RecordStore.
func (s *SQLiteStore) ListRecords(ctx context.Context, userID string, q engine.RecordQuery) ([]engine.EmissionRecord, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + recordColumns + ` FROM records WHERE user_id = ?`)
	args := []any{userID}
	if q.Start != "" {
		b.WriteString(` AND date >= ?`)
		args = append(args, q.Start)
	}
	if q.End != "" {
		b.WriteString(` AND date <= ?`)
		args = append(args, q.End)
	}
	if q.Descending {
		b.WriteString(` ORDER BY date DESC`)
	} else {
		b.WriteString(` ORDER BY date ASC`)
	}
	if q.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []engine.EmissionRecord
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning record: %w", scanErr)
		}
		out = append(out, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

// AggregateByUser implements engine.RecordStore.
func (s *SQLiteStore) AggregateByUser(ctx context.Context, r *engine.DateRange) ([]engine.UserAggregate, error) {
	query := `SELECT user_id, SUM(total), COUNT(*) FROM records`
	var args []any
	if r != nil {
		query += ` WHERE date >= ? AND date <= ?`
		args = append(args, r.Start, r.End)
	}
	query += ` GROUP BY user_id ORDER BY user_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregating records: %w", err)
	}
	defer rows.Close()

	var out []engine.UserAggregate
	for rows.Next() {
		var a engine.UserAggregate
		if err = rows.Scan(&a.UserID, &a.TotalKg, &a.LogCount); err != nil {
			return nil, fmt.Errorf("scanning aggregate: %w", err)
		}
		out = append(out, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating aggregates: %w", err)
	}
	return out, nil
}

// UpsertRecord implements engine.RecordStore. The existence check and the
// write share one transaction.
func (s *SQLiteStore) UpsertRecord(
	ctx context.Context, rec engine.EmissionRecord, mode engine.WriteMode,
) (engine.EmissionRecord, bool, error) {
	activity, err := json.Marshal(rec.Activity)
	if err != nil {
		return engine.EmissionRecord{}, false, fmt.Errorf("encoding activity: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return engine.EmissionRecord{}, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingID, existingCreated string
	err = tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM records WHERE user_id = ? AND date = ?`,
		rec.UserID, rec.Date).Scan(&existingID, &existingCreated)
	created := errors.Is(err, sql.ErrNoRows)
	if err != nil && !created {
		return engine.EmissionRecord{}, false, fmt.Errorf("checking existing record: %w", err)
	}

	if created {
		_, err = tx.ExecContext(ctx, `INSERT INTO records (`+recordColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.UserID, rec.Date, string(activity),
			rec.Transport, rec.Electricity, rec.Food, rec.Lifestyle,
			rec.Total, string(rec.HighestCategory), formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
		if err != nil {
			return engine.EmissionRecord{}, false, fmt.Errorf("inserting record: %w", err)
		}
	} else {
		if mode == engine.ModeCreate {
			return engine.EmissionRecord{}, false,
				fmt.Errorf("record %s/%s: %w", rec.UserID, rec.Date, engine.ErrConflict)
		}
		rec.ID = existingID
		if rec.CreatedAt, err = parseTime(existingCreated); err != nil {
			return engine.EmissionRecord{}, false, err
		}
		_, err = tx.ExecContext(ctx, `UPDATE records SET activity = ?, transport = ?, electricity = ?,
			food = ?, lifestyle = ?, total = ?, highest_category = ?, updated_at = ?
			WHERE id = ?`,
			string(activity), rec.Transport, rec.Electricity, rec.Food, rec.Lifestyle,
			rec.Total, string(rec.HighestCategory), formatTime(rec.UpdatedAt), rec.ID)
		if err != nil {
			return engine.EmissionRecord{}, false, fmt.Errorf("updating record: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return engine.EmissionRecord{}, false, fmt.Errorf("committing record: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, created, nil
}

func scanUser(row rowScanner) (engine.User, error) {
	var (
		u                    engine.User
		age, household       sql.NullInt64
		createdAt, updatedAt string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &age, &u.Gender, &u.Country, &u.City,
		&household, &u.TransportMode, &u.DietType, &u.EnergySource, &createdAt, &updatedAt)
	if err != nil {
		return u, err
	}
	if age.Valid {
		v := int(age.Int64)
		u.Age = &v
	}
	if household.Valid {
		v := int(household.Int64)
		u.HouseholdSize = &v
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return u, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	return u, err
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// GetUser implements engine.UserStore.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*engine.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading user %s: %w", id, err)
	}
	return &u, nil
}

// UsersByID implements engine.UserStore.
func (s *SQLiteStore) UsersByID(ctx context.Context, ids []string) (map[string]engine.User, error) {
	out := make(map[string]engine.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning user: %w", scanErr)
		}
		out[u.ID] = u
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return out, nil
}

// PutUser implements engine.UserStore.
func (s *SQLiteStore) PutUser(ctx context.Context, u engine.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, email = excluded.email, age = excluded.age,
			gender = excluded.gender, country = excluded.country, city = excluded.city,
			household_size = excluded.household_size, transport_mode = excluded.transport_mode,
			diet_type = excluded.diet_type, energy_source = excluded.energy_source,
			updated_at = excluded.updated_at`,
		u.ID, u.Name, u.Email, nullInt(u.Age), u.Gender, u.Country, u.City,
		nullInt(u.HouseholdSize), u.TransportMode, u.DietType, u.EnergySource,
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	if err != nil {
		return fmt.Errorf("storing user %s: %w", u.ID, err)
	}
	return nil
}

var _ engine.Store = (*SQLiteStore)(nil)
