package store_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/greenops"
	"github.com/rshade/planetzero/internal/store"
)

var t0 = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func sampleActivity() greenops.Activity {
	return greenops.Activity{
		Transportation: []greenops.TransportEntry{{Mode: greenops.ModeCarPetrol, DistanceKm: 20}},
		ElectricityKwh: 10,
		Food:           []greenops.FoodEntry{{MealType: greenops.MealVeg, MealsCount: 2}},
		Lifestyle:      []greenops.LifestyleEntry{{Category: greenops.LifestyleClothing, ItemsCount: 1}},
	}
}

func newRecord(id, userID, date string, at time.Time) engine.EmissionRecord {
	a := sampleActivity()
	return engine.EmissionRecord{
		ID:        id,
		UserID:    userID,
		Date:      date,
		Activity:  a,
		Emissions: greenops.CalculateEmissions(a),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

type backend struct {
	name string
	open func(t *testing.T) engine.Store
}

func backends() []backend {
	return []backend{
		{"sqlite", func(t *testing.T) engine.Store {
			s, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "pz.db"))
			require.NoError(t, err)
			return s
		}},
		{"memory", func(t *testing.T) engine.Store {
			s, err := store.Open(context.Background(), store.Options{Driver: store.DriverMemory})
			require.NoError(t, err)
			return s
		}},
		{"file", func(t *testing.T) engine.Store {
			s, err := store.OpenFile(context.Background(), filepath.Join(t.TempDir(), "pz.json"))
			require.NoError(t, err)
			return s
		}},
	}
}

func TestStore_UpsertAndGet(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			defer s.Close()

			first := newRecord("01A", "alice", "2026-01-04", t0)
			got, created, err := s.UpsertRecord(ctx, first, engine.ModeUpsert)
			require.NoError(t, err)
			assert.True(t, created)
			assert.Equal(t, "01A", got.ID)

			later := t0.Add(time.Hour)
			second := newRecord("01B", "alice", "2026-01-04", later)
			second.Activity.ElectricityKwh = 20
			second.Emissions = greenops.CalculateEmissions(second.Activity)

			got, created, err = s.UpsertRecord(ctx, second, engine.ModeUpsert)
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, "01A", got.ID, "replacement keeps the original id")
			assert.True(t, got.CreatedAt.Equal(t0), "replacement keeps creation time")

			stored, err := s.GetRecord(ctx, "alice", "2026-01-04")
			require.NoError(t, err)
			assert.Equal(t, "01A", stored.ID)
			assert.InDelta(t, second.Total, stored.Total, 1e-9)
			assert.InDelta(t, 20.0, stored.Activity.ElectricityKwh, 1e-9)
			assert.Equal(t, second.Activity.Transportation, stored.Activity.Transportation)
			assert.Equal(t, second.HighestCategory, stored.HighestCategory)
			assert.True(t, stored.CreatedAt.Equal(t0))
			assert.True(t, stored.UpdatedAt.Equal(later))
		})
	}
}

func TestStore_CreateModeConflict(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			defer s.Close()

			_, _, err := s.UpsertRecord(ctx, newRecord("01A", "alice", "2026-01-04", t0), engine.ModeCreate)
			require.NoError(t, err)

			_, _, err = s.UpsertRecord(ctx, newRecord("01B", "alice", "2026-01-04", t0), engine.ModeCreate)
			require.ErrorIs(t, err, engine.ErrConflict)

			stored, err := s.GetRecord(ctx, "alice", "2026-01-04")
			require.NoError(t, err)
			assert.Equal(t, "01A", stored.ID)
		})
	}
}

func TestStore_GetRecordNotFound(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()
			_, err := s.GetRecord(context.Background(), "alice", "2026-01-04")
			assert.ErrorIs(t, err, engine.ErrNotFound)
		})
	}
}

func TestStore_ListRecords(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			defer s.Close()

			for i, date := range []string{"2026-01-03", "2026-01-01", "2026-01-05", "2026-01-02"} {
				_, _, err := s.UpsertRecord(ctx, newRecord(string(rune('a'+i)), "alice", date, t0), engine.ModeUpsert)
				require.NoError(t, err)
			}
			_, _, err := s.UpsertRecord(ctx, newRecord("z", "bob", "2026-01-03", t0), engine.ModeUpsert)
			require.NoError(t, err)

			tests := []struct {
				name  string
				q     engine.RecordQuery
				dates []string
			}{
				{"all ascending", engine.RecordQuery{}, []string{"2026-01-01", "2026-01-02", "2026-01-03", "2026-01-05"}},
				{"descending limited", engine.RecordQuery{Descending: true, Limit: 2}, []string{"2026-01-05", "2026-01-03"}},
				{"bounded", engine.RecordQuery{Start: "2026-01-02", End: "2026-01-03"}, []string{"2026-01-02", "2026-01-03"}},
				{"empty range", engine.RecordQuery{Start: "2026-02-01"}, nil},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					recs, err := s.ListRecords(ctx, "alice", tt.q)
					require.NoError(t, err)
					var dates []string
					for _, r := range recs {
						assert.Equal(t, "alice", r.UserID)
						dates = append(dates, r.Date)
					}
					assert.Equal(t, tt.dates, dates)
				})
			}
		})
	}
}

func TestStore_AggregateByUser(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			defer s.Close()

			rows := []engine.EmissionRecord{
				newRecord("1", "carol", "2026-01-01", t0),
				newRecord("2", "alice", "2026-01-01", t0),
				newRecord("3", "alice", "2026-01-02", t0),
				newRecord("4", "bob", "2025-12-01", t0),
			}
			for _, r := range rows {
				_, _, err := s.UpsertRecord(ctx, r, engine.ModeUpsert)
				require.NoError(t, err)
			}
			total := rows[0].Total

			all, err := s.AggregateByUser(ctx, nil)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"alice", "bob", "carol"},
				[]string{all[0].UserID, all[1].UserID, all[2].UserID})
			assert.Equal(t, 2, all[0].LogCount)
			assert.InDelta(t, 2*total, all[0].TotalKg, 1e-9)

			jan, err := s.AggregateByUser(ctx, &engine.DateRange{Start: "2026-01-01", End: "2026-01-31"})
			require.NoError(t, err)
			require.Len(t, jan, 2)
			assert.Equal(t, "alice", jan[0].UserID)
			assert.Equal(t, "carol", jan[1].UserID)
		})
	}
}

func TestStore_Users(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t)
			defer s.Close()

			age := 30
			require.NoError(t, s.PutUser(ctx, engine.User{ID: "alice", Name: "Alice", Age: &age, CreatedAt: t0, UpdatedAt: t0}))
			require.NoError(t, s.PutUser(ctx, engine.User{ID: "bob", Name: "Bob", CreatedAt: t0, UpdatedAt: t0}))

			later := t0.Add(time.Hour)
			require.NoError(t, s.PutUser(ctx, engine.User{
				ID: "alice", Name: "Alice A", Age: &age, Country: "India", City: "Pune",
				CreatedAt: later, UpdatedAt: later,
			}))

			u, err := s.GetUser(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, "Alice A", u.Name)
			require.NotNil(t, u.Age)
			assert.Equal(t, 30, *u.Age)
			assert.Nil(t, u.HouseholdSize)
			assert.True(t, u.OnboardingCompleted())
			assert.True(t, u.CreatedAt.Equal(t0), "replacement keeps creation time")
			assert.True(t, u.UpdatedAt.Equal(later))

			_, err = s.GetUser(ctx, "nobody")
			require.ErrorIs(t, err, engine.ErrNotFound)

			byID, err := s.UsersByID(ctx, []string{"bob", "nobody", "alice"})
			require.NoError(t, err)
			assert.Len(t, byID, 2)
			assert.Equal(t, "Bob", byID["bob"].Name)

			empty, err := s.UsersByID(ctx, nil)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "pz.db")

	s, err := store.OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, _, err = s.UpsertRecord(ctx, newRecord("01A", "alice", "2026-01-04", t0), engine.ModeUpsert)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	rec, err := s.GetRecord(ctx, "alice", "2026-01-04")
	require.NoError(t, err)
	assert.Equal(t, "01A", rec.ID)
}

func TestFileStore_SharedPath(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pz.json")

	a, err := store.OpenFile(ctx, path)
	require.NoError(t, err)
	b, err := store.OpenFile(ctx, path)
	require.NoError(t, err)

	_, _, err = a.UpsertRecord(ctx, newRecord("01A", "alice", "2026-01-04", t0), engine.ModeUpsert)
	require.NoError(t, err)
	_, _, err = b.UpsertRecord(ctx, newRecord("01B", "bob", "2026-01-04", t0), engine.ModeUpsert)
	require.NoError(t, err)

	c, err := store.OpenFile(ctx, path)
	require.NoError(t, err)
	aggs, err := c.AggregateByUser(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, aggs, 2, "second writer reloads before saving")

	_, err = os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(err), "lock released")
}

func TestFileStore_FailedSaveLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pz.json")
	s, err := store.OpenFile(ctx, path)
	require.NoError(t, err)

	_, _, err = s.UpsertRecord(ctx, newRecord("01A", "alice", "2026-01-04", t0), engine.ModeUpsert)
	require.NoError(t, err)

	// A directory where the temp file goes makes every save fail.
	require.NoError(t, os.Mkdir(path+".tmp", 0o750))

	_, _, err = s.UpsertRecord(ctx, newRecord("01B", "bob", "2026-01-04", t0), engine.ModeUpsert)
	require.Error(t, err)
	_, err = s.GetRecord(ctx, "bob", "2026-01-04")
	require.ErrorIs(t, err, engine.ErrNotFound)

	replacement := newRecord("01C", "alice", "2026-01-04", t0.Add(time.Hour))
	replacement.Total = 99
	_, _, err = s.UpsertRecord(ctx, replacement, engine.ModeUpsert)
	require.Error(t, err)
	rec, err := s.GetRecord(ctx, "alice", "2026-01-04")
	require.NoError(t, err)
	assert.InDelta(t, 22.04, rec.Total, 1e-9)

	require.Error(t, s.PutUser(ctx, engine.User{ID: "bob", Name: "Bob", CreatedAt: t0}))
	_, err = s.GetUser(ctx, "bob")
	require.ErrorIs(t, err, engine.ErrNotFound)

	aggs, err := s.AggregateByUser(ctx, nil)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, "alice", aggs[0].UserID)
}

func TestFileStore_RejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{{"},
		{"future major", `{"schema_version":"2.0.0","records":[],"users":[]}`},
		{"missing version", `{"records":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pz.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			_, err := store.OpenFile(context.Background(), path)
			assert.ErrorIs(t, err, store.ErrStoreCorrupted)
		})
	}
}

func TestFileStore_AcceptsMinorVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pz.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version":"1.2.0","records":[],"users":[]}`), 0o600))
	_, err := store.OpenFile(context.Background(), path)
	assert.NoError(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), store.Options{Driver: "mongo"})
	assert.ErrorIs(t, err, store.ErrUnknownDriver)
}

func TestEngineOnSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	clock := func() time.Time { return t0 }
	e := engine.New(s, s, engine.WithClock(clock))

	_, err = e.RegisterUser(ctx, engine.User{ID: "alice", Name: "Alice"})
	require.NoError(t, err)

	res, err := e.LogActivity(ctx, "alice", "2026-01-10", sampleActivity(), engine.ModeUpsert)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.InDelta(t, 22.04, res.Record.Total, 1e-9)

	res, err = e.LogActivity(ctx, "alice", "2026-01-10", sampleActivity(), engine.ModeUpsert)
	require.NoError(t, err)
	assert.False(t, res.Created)

	board, err := e.Leaderboard(ctx, "alice", engine.PeriodWeekly, 0)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "Alice", board.Entries[0].UserName)
	require.NotNil(t, board.UserRank)
	assert.Equal(t, 1, *board.UserRank)
}

func TestEngineOnSQLite_RejectsOverflowingActivity(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	e := engine.New(s, s, engine.WithClock(func() time.Time { return t0 }))

	_, err = e.LogActivity(ctx, "alice", "2026-01-10", sampleActivity(), engine.ModeUpsert)
	require.NoError(t, err)

	trips := make([]greenops.TransportEntry, 10)
	for i := range trips {
		trips[i] = greenops.TransportEntry{Mode: greenops.ModeCarPetrol, DistanceKm: 1e308}
	}
	_, err = e.LogActivity(ctx, "mallory", "2026-01-10", greenops.Activity{Transportation: trips}, engine.ModeUpsert)
	require.ErrorIs(t, err, engine.ErrValidation)

	board, err := e.Leaderboard(ctx, "alice", engine.PeriodAllTime, 10)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	_, err = json.Marshal(board)
	assert.NoError(t, err)
}
