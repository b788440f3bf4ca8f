package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
)

// memStore is an in-memory Store for engine tests.
type memStore struct {
	mu      sync.Mutex
	records map[string]EmissionRecord
	users   map[string]User
	failErr error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]EmissionRecord{}, users: map[string]User{}}
}

func recordKey(userID, date string) string { return userID + "|" + date }

func (m *memStore) GetRecord(_ context.Context, userID, date string) (*EmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	rec, ok := m.records[recordKey(userID, date)]
	if !ok {
		return nil, fmt.Errorf("record %s/%s: %w", userID, date, ErrNotFound)
	}
	return &rec, nil
}

func (m *memStore) ListRecords(_ context.Context, userID string, q RecordQuery) ([]EmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []EmissionRecord
	for _, rec := range m.records {
		if rec.UserID == userID && q.Matches(rec.Date) {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b EmissionRecord) int {
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

func (m *memStore) AggregateByUser(_ context.Context, r *DateRange) ([]UserAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	byUser := map[string]*UserAggregate{}
	for _, rec := range m.records {
		if !r.Contains(rec.Date) {
			continue
		}
		a, ok := byUser[rec.UserID]
		if !ok {
			a = &UserAggregate{UserID: rec.UserID}
			byUser[rec.UserID] = a
		}
		a.TotalKg += rec.Total
		a.LogCount++
	}
	out := make([]UserAggregate, 0, len(byUser))
	for _, a := range byUser {
		out = append(out, *a)
	}
	slices.SortFunc(out, func(a, b UserAggregate) int { return cmp.Compare(a.UserID, b.UserID) })
	return out, nil
}

func (m *memStore) UpsertRecord(_ context.Context, rec EmissionRecord, mode WriteMode) (EmissionRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return EmissionRecord{}, false, m.failErr
	}
	key := recordKey(rec.UserID, rec.Date)
	existing, ok := m.records[key]
	if ok {
		if mode == ModeCreate {
			return EmissionRecord{}, false, fmt.Errorf("record %s: %w", key, ErrConflict)
		}
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	}
	m.records[key] = rec
	return rec, !ok, nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &u, nil
}

func (m *memStore) UsersByID(_ context.Context, ids []string) (map[string]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *memStore) PutUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memStore) Close() error { return nil }

var _ Store = (*memStore)(nil)
