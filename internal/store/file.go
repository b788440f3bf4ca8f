package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/logging"
)

// FileSchemaVersion is written to new data files.
const FileSchemaVersion = "1.0.0"

// fileSchemaConstraint accepts any data file this build can read.
const fileSchemaConstraint = "^1.0.0"

// ErrStoreCorrupted means the data file exists but cannot be used.
var ErrStoreCorrupted = errors.New("data file corrupted")

type fileData struct {
	SchemaVersion string                  `json:"schema_version"`
	Records       []engine.EmissionRecord `json:"records"`
	Users         []engine.User           `json:"users"`
}

// FileStore is an engine.Store persisted as one JSON document. Every write
// takes the lockfile, reloads the document, applies the change and rewrites
// the file, so several processes may share a path.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	records map[string]engine.EmissionRecord
	users   map[string]engine.User
}

// OpenFile loads path, starting empty when it does not exist.
func OpenFile(ctx context.Context, path string) (*FileStore, error) {
	s := &FileStore{path: path}
	unlock, err := acquireFileLock(path)
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()

	if err = s.load(); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug().
		Str("component", "store").
		Str("driver", DriverFile).
		Str("path", path).
		Int("records", len(s.records)).
		Int("users", len(s.users)).
		Msg("file store loaded")
	return s, nil
}

func fileKey(userID, date string) string { return userID + "\x00" + date }

// load replaces the in-memory state with the file contents. Callers hold the
// lockfile.
func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]engine.EmissionRecord)
	s.users = make(map[string]engine.User)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading data file: %w", err)
	}

	var doc fileData
	if err = json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreCorrupted, err)
	}
	if err = checkSchemaVersion(doc.SchemaVersion); err != nil {
		return err
	}
	for _, rec := range doc.Records {
		s.records[fileKey(rec.UserID, rec.Date)] = rec
	}
	for _, u := range doc.Users {
		s.users[u.ID] = u
	}
	return nil
}

func checkSchemaVersion(v string) error {
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: schema version %q: %w", ErrStoreCorrupted, v, err)
	}
	constraint, err := semver.NewConstraint(fileSchemaConstraint)
	if err != nil {
		return fmt.Errorf("parsing schema constraint: %w", err)
	}
	if !constraint.Check(version) {
		return fmt.Errorf("%w: unsupported schema version %s (want %s)",
			ErrStoreCorrupted, version, fileSchemaConstraint)
	}
	return nil
}

// save writes the in-memory state. Callers hold the lockfile.
func (s *FileStore) save() error {
	s.mu.RLock()
	doc := fileData{
		SchemaVersion: FileSchemaVersion,
		Records:       make([]engine.EmissionRecord, 0, len(s.records)),
		Users:         make([]engine.User, 0, len(s.users)),
	}
	for _, rec := range s.records {
		doc.Records = append(doc.Records, rec)
	}
	for _, u := range s.users {
		doc.Users = append(doc.Users, u)
	}
	s.mu.RUnlock()

	slices.SortFunc(doc.Records, func(a, b engine.EmissionRecord) int {
		return cmp.Or(cmp.Compare(a.UserID, b.UserID), cmp.Compare(a.Date, b.Date))
	})
	slices.SortFunc(doc.Users, func(a, b engine.User) int { return cmp.Compare(a.ID, b.ID) })

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling data file: %w", err)
	}
	return writeAtomic(s.path, data)
}

// mutate runs fn between a reload and a save under the lockfile. When fn or
// the save fails the in-memory state is restored to what is on disk.
func (s *FileStore) mutate(fn func() error) error {
	unlock, err := acquireFileLock(s.path)
	if err != nil {
		return fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()

	if err = s.load(); err != nil {
		return err
	}
	s.mu.Lock()
	records, users := maps.Clone(s.records), maps.Clone(s.users)
	err = fn()
	s.mu.Unlock()
	if err == nil {
		err = s.save()
	}
	if err != nil {
		s.mu.Lock()
		s.records, s.users = records, users
		s.mu.Unlock()
		return err
	}
	return nil
}

// Close is a no-op; every write is already on disk.
func (s *FileStore) Close() error { return nil }

// GetRecord implements engine.RecordStore.
func (s *FileStore) GetRecord(_ context.Context, userID, date string) (*engine.EmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[fileKey(userID, date)]
	if !ok {
		return nil, fmt.Errorf("record %s/%s: %w", userID, date, engine.ErrNotFound)
	}
	return &rec, nil
}

// ListRecords implements engine.RecordStore.
func (s *FileStore) ListRecords(_ context.Context, userID string, q engine.RecordQuery) ([]engine.EmissionRecord, error) {
	s.mu.RLock()
	var out []engine.EmissionRecord
	for _, rec := range s.records {
		if rec.UserID == userID && q.Matches(rec.Date) {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b engine.EmissionRecord) int {
		if q.Descending {
			return cmp.Compare(b.Date, a.Date)
		}
		return cmp.Compare(a.Date, b.Date)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// AggregateByUser implements engine.RecordStore.
func (s *FileStore) AggregateByUser(_ context.Context, r *engine.DateRange) ([]engine.UserAggregate, error) {
	s.mu.RLock()
	byUser := make(map[string]*engine.UserAggregate)
	for _, rec := range s.records {
		if !r.Contains(rec.Date) {
			continue
		}
		a, ok := byUser[rec.UserID]
		if !ok {
			a = &engine.UserAggregate{UserID: rec.UserID}
			byUser[rec.UserID] = a
		}
		a.TotalKg += rec.Total
		a.LogCount++
	}
	s.mu.RUnlock()

	out := make([]engine.UserAggregate, 0, len(byUser))
	for _, a := range byUser {
		out = append(out, *a)
	}
	slices.SortFunc(out, func(a, b engine.UserAggregate) int { return cmp.Compare(a.UserID, b.UserID) })
	return out, nil
}

// UpsertRecord implements engine.RecordStore.
func (s *FileStore) UpsertRecord(
	_ context.Context, rec engine.EmissionRecord, mode engine.WriteMode,
) (engine.EmissionRecord, bool, error) {
	var created bool
	err := s.mutate(func() error {
		key := fileKey(rec.UserID, rec.Date)
		existing, ok := s.records[key]
		if ok {
			if mode == engine.ModeCreate {
				return fmt.Errorf("record %s/%s: %w", rec.UserID, rec.Date, engine.ErrConflict)
			}
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
		}
		created = !ok
		s.records[key] = rec
		return nil
	})
	if err != nil {
		return engine.EmissionRecord{}, false, err
	}
	return rec, created, nil
}

// GetUser implements engine.UserStore.
func (s *FileStore) GetUser(_ context.Context, id string) (*engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, engine.ErrNotFound)
	}
	return &u, nil
}

// UsersByID implements engine.UserStore.
func (s *FileStore) UsersByID(_ context.Context, ids []string) (map[string]engine.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]engine.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// PutUser implements engine.UserStore. An existing user keeps CreatedAt.
func (s *FileStore) PutUser(_ context.Context, u engine.User) error {
	return s.mutate(func() error {
		if existing, ok := s.users[u.ID]; ok {
			u.CreatedAt = existing.CreatedAt
		}
		s.users[u.ID] = u
		return nil
	})
}

var _ engine.Store = (*FileStore)(nil)
