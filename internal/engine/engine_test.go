package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/planetzero/internal/engine/batch"
	"github.com/rshade/planetzero/internal/greenops"
)

// fakeClock returns a settable clock starting at 2026-01-10 09:00 UTC.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func referenceDay() greenops.Activity {
	return greenops.Activity{
		Transportation: []greenops.TransportEntry{{Mode: greenops.ModeCarPetrol, DistanceKm: 20}},
		ElectricityKwh: 10,
		Food:           []greenops.FoodEntry{{MealType: greenops.MealVeg, MealsCount: 2}},
	}
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memStore, *fakeClock) {
	t.Helper()
	store := newMemStore()
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(store, store, opts...), store, clock
}

func TestLogActivity(t *testing.T) {
	ctx := context.Background()

	t.Run("calculates and stores", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		res, err := e.LogActivity(ctx, "u1", "2026-01-04", referenceDay(), ModeUpsert)
		require.NoError(t, err)
		assert.True(t, res.Created)

		r := res.Record
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, "u1", r.UserID)
		assert.Equal(t, "2026-01-04", r.Date)
		assert.InDelta(t, 3.84, r.Transport, 1e-9)
		assert.InDelta(t, 8.2, r.Electricity, 1e-9)
		assert.InDelta(t, 4.0, r.Food, 1e-9)
		assert.InDelta(t, 0.0, r.Lifestyle, 1e-9)
		assert.InDelta(t, 16.04, r.Total, 1e-9)
		assert.Equal(t, greenops.CategoryElectricity, r.HighestCategory)
		assert.Equal(t, referenceDay(), r.Activity)
	})

	t.Run("upsert keeps creation time", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		first, err := e.LogActivity(ctx, "u1", "2026-01-04", referenceDay(), ModeUpsert)
		require.NoError(t, err)

		clock.Advance(time.Hour)
		second := greenops.Activity{Lifestyle: []greenops.LifestyleEntry{{Category: greenops.LifestyleClothing, ItemsCount: 1}}}
		res, err := e.LogActivity(ctx, "u1", "2026-01-04", second, ModeUpsert)
		require.NoError(t, err)
		assert.False(t, res.Created)

		stored, err := e.GetLog(ctx, "u1", "2026-01-04")
		require.NoError(t, err)
		assert.Equal(t, first.Record.ID, stored.ID)
		assert.Equal(t, first.Record.CreatedAt, stored.CreatedAt)
		assert.Equal(t, clock.Now(), stored.UpdatedAt)
		assert.Equal(t, greenops.CalculateEmissions(second), stored.Emissions)

		recs, err := e.History(ctx, "u1", HistoryQuery{})
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})

	t.Run("create only conflicts", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		_, err := e.LogActivity(ctx, "u1", "2026-01-04", referenceDay(), ModeCreate)
		require.NoError(t, err)
		_, err = e.LogActivity(ctx, "u1", "2026-01-04", referenceDay(), ModeCreate)
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("validation", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		tests := []struct {
			name     string
			user     string
			date     string
			activity greenops.Activity
		}{
			{"missing user", "", "2026-01-04", referenceDay()},
			{"bad date", "u1", "2026-13-01", referenceDay()},
			{"unknown mode", "u1", "2026-01-04", greenops.Activity{
				Transportation: []greenops.TransportEntry{{Mode: "hovercraft", DistanceKm: 1}},
			}},
			{"negative kwh", "u1", "2026-01-04", greenops.Activity{ElectricityKwh: -1}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := e.LogActivity(ctx, tt.user, tt.date, tt.activity, ModeUpsert)
				require.ErrorIs(t, err, ErrValidation)
			})
		}
		assert.Empty(t, store.records)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		store.failErr = errors.New("disk on fire")
		_, err := e.LogActivity(ctx, "u1", "2026-01-04", referenceDay(), ModeUpsert)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk on fire")
		assert.False(t, errors.Is(err, ErrValidation))
	})
}

func TestGetLog(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.GetLog(context.Background(), "u1", "2026-01-04")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = e.GetLog(context.Background(), "u1", "yesterday")
	require.ErrorIs(t, err, ErrValidation)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)
	for day := 1; day <= 9; day++ {
		_, err := e.LogActivity(ctx, "u1", fmt.Sprintf("2026-01-%02d", day),
			greenops.Activity{ElectricityKwh: float64(day)}, ModeUpsert)
		require.NoError(t, err)
	}
	_, err := e.LogActivity(ctx, "u2", "2026-01-05", referenceDay(), ModeUpsert)
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		recs, err := e.History(ctx, "u1", HistoryQuery{Limit: 3})
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, "2026-01-09", recs[0].Date)
		assert.Equal(t, "2026-01-07", recs[2].Date)
	})

	t.Run("date bounds", func(t *testing.T) {
		recs, err := e.History(ctx, "u1", HistoryQuery{Start: "2026-01-03", End: "2026-01-05"})
		require.NoError(t, err)
		require.Len(t, recs, 3)
		for _, r := range recs {
			assert.Equal(t, "u1", r.UserID)
		}
	})

	t.Run("empty is not nil", func(t *testing.T) {
		recs, err := e.History(ctx, "nobody", HistoryQuery{})
		require.NoError(t, err)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
	})

	t.Run("invalid queries", func(t *testing.T) {
		for _, q := range []HistoryQuery{
			{Limit: 366},
			{Limit: -1},
			{Start: "2026/01/01"},
			{Start: "2026-01-05", End: "2026-01-01"},
		} {
			_, err := e.History(ctx, "u1", q)
			assert.ErrorIs(t, err, ErrValidation, "%+v", q)
		}
	})
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, WithBaseline(16))

	// Today is 2026-01-10. Totals 10, 20, 30 inside the week; 100 outside it.
	for date, kwh := range map[string]float64{
		"2026-01-10": 10 / greenops.FactorGridElectricity,
		"2026-01-08": 20 / greenops.FactorGridElectricity,
		"2026-01-05": 30 / greenops.FactorGridElectricity,
		"2025-12-20": 100 / greenops.FactorGridElectricity,
	} {
		_, err := e.LogActivity(ctx, "u1", date, greenops.Activity{ElectricityKwh: kwh}, ModeUpsert)
		require.NoError(t, err)
	}

	d, err := e.Dashboard(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, WindowToday, d.Today.Period)
	assert.Equal(t, 1, d.Today.LoggedDays)
	assert.InDelta(t, 10.0, d.Today.TotalKg, 1e-9)

	assert.Equal(t, WindowWeekly, d.Weekly.Period)
	assert.Equal(t, 3, d.Weekly.LoggedDays)
	assert.InDelta(t, 60.0, d.Weekly.TotalKg, 1e-9)
	assert.InDelta(t, 20.0, d.Weekly.AverageDailyKg, 1e-9)
	assert.Equal(t, greenops.CategoryElectricity, d.Weekly.HighestCategory)
	require.NotNil(t, d.Weekly.ComparisonToAverage)
	assert.InDelta(t, 25.0, *d.Weekly.ComparisonToAverage, 1e-9)
	require.NotNil(t, d.Weekly.Equivalencies)
	assert.Contains(t, d.Weekly.Equivalencies.DisplayText, "miles")

	assert.Equal(t, 4, d.Monthly.LoggedDays)
	assert.InDelta(t, 40.0, d.Monthly.AverageDailyKg, 1e-9)

	empty, err := e.Dashboard(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, greenops.CategoryNone, empty.Monthly.HighestCategory)
	assert.Nil(t, empty.Monthly.ComparisonToAverage)
	assert.Nil(t, empty.Monthly.Equivalencies)
}

func TestSummary(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.Summary(context.Background(), "u1", WindowCustom, DateRange{Start: "2026-01-09", End: "2026-01-01"})
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	e, store, _ := newTestEngine(t)

	daily := func(user, date string, kg float64) {
		t.Helper()
		_, err := e.LogActivity(ctx, user, date,
			greenops.Activity{ElectricityKwh: kg / greenops.FactorGridElectricity}, ModeUpsert)
		require.NoError(t, err)
	}
	for i := range 7 {
		user := fmt.Sprintf("user%d", i)
		require.NoError(t, store.PutUser(ctx, User{ID: user, Name: "Name " + user}))
		daily(user, "2026-01-09", float64(10+i))
	}
	// Only in the all-time window.
	daily("old", "2025-06-01", 1)

	t.Run("weekly top five", func(t *testing.T) {
		res, err := e.Leaderboard(ctx, "user6", PeriodWeekly, 5)
		require.NoError(t, err)
		require.Len(t, res.Entries, 5)
		assert.Equal(t, "user0", res.Entries[0].UserID)
		assert.Equal(t, "Name user0", res.Entries[0].UserName)
		assert.InDelta(t, 10.0, res.Entries[0].AverageDailyKg, 1e-9)
		require.NotNil(t, res.UserRank)
		assert.Equal(t, 7, *res.UserRank)
		assert.InDelta(t, 16.0, *res.UserAverageKg, 1e-9)
	})

	t.Run("all time includes older users", func(t *testing.T) {
		res, err := e.Leaderboard(ctx, "old", PeriodAllTime, 0)
		require.NoError(t, err)
		require.Len(t, res.Entries, 8)
		assert.Equal(t, "old", res.Entries[0].UserID)
		assert.Equal(t, UnknownUserName, res.Entries[0].UserName)
		assert.Equal(t, 1, *res.UserRank)
	})

	t.Run("caller absent", func(t *testing.T) {
		res, err := e.Leaderboard(ctx, "old", PeriodWeekly, 10)
		require.NoError(t, err)
		assert.Nil(t, res.UserRank)
		assert.Nil(t, res.UserAverageKg)
	})

	t.Run("limit bounds", func(t *testing.T) {
		_, err := e.Leaderboard(ctx, "u", PeriodWeekly, 4)
		require.ErrorIs(t, err, ErrValidation)
		_, err = e.Leaderboard(ctx, "u", PeriodWeekly, 101)
		require.ErrorIs(t, err, ErrValidation)
		_, err = e.Leaderboard(ctx, "u", Period(42), 10)
		require.ErrorIs(t, err, ErrInvalidPeriod)
	})
}

func TestRecommendations(t *testing.T) {
	ctx := context.Background()

	t.Run("no data gives general set", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		set, err := e.Recommendations(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, set.HasData)
		assert.Equal(t, greenops.CategoryNone, set.DominantCategory)
		require.Len(t, set.Recommendations, 3)
		assert.Equal(t, greenops.CategoryGeneral, set.Recommendations[0].Category)
		assert.Zero(t, set.TotalPotentialSavingsKg)
	})

	t.Run("monthly averages drive the rules", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		for _, date := range []string{"2026-01-09", "2026-01-10"} {
			_, err := e.LogActivity(ctx, "u1", date, greenops.Activity{
				Transportation: []greenops.TransportEntry{{Mode: greenops.ModeCarPetrol, DistanceKm: 100}},
			}, ModeUpsert)
			require.NoError(t, err)
		}
		// Outside the 30-day window.
		_, err := e.LogActivity(ctx, "u1", "2025-11-01", greenops.Activity{
			Lifestyle: []greenops.LifestyleEntry{{Category: greenops.LifestyleElectronics, ItemsCount: 5}},
		}, ModeUpsert)
		require.NoError(t, err)

		set, err := e.Recommendations(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, set.HasData)
		assert.Equal(t, greenops.CategoryTransportation, set.DominantCategory)
		require.Len(t, set.Recommendations, 3)
		assert.Equal(t, "Carpool or Bike", set.Recommendations[0].Title)
		assert.InDelta(t, 9.6, set.Recommendations[0].PotentialSavingsKg, 1e-9)
		assert.InDelta(t, 24.0, set.TotalPotentialSavingsKg, 1e-9)
	})
}

func TestUsersAndProfile(t *testing.T) {
	ctx := context.Background()
	e, _, clock := newTestEngine(t)

	u, err := e.RegisterUser(ctx, User{ID: " u1 ", Name: "Asha"})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, clock.Now(), u.CreatedAt)

	_, err = e.RegisterUser(ctx, User{ID: "u1", Name: "Again"})
	require.ErrorIs(t, err, ErrConflict)
	_, err = e.RegisterUser(ctx, User{ID: "u2"})
	require.ErrorIs(t, err, ErrValidation)

	p, err := e.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, p.TotalLogs)
	assert.False(t, p.OnboardingCompleted)

	clock.Advance(time.Minute)
	u, err = e.Onboard(ctx, "u1", OnboardingFields{
		Country:       ptr("India"),
		City:          ptr(" Pune "),
		HouseholdSize: ptr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "Pune", u.City)
	assert.Equal(t, "Asha", u.Name)
	require.NotNil(t, u.HouseholdSize)
	assert.Equal(t, 3, *u.HouseholdSize)
	assert.Equal(t, clock.Now(), u.UpdatedAt)

	_, err = e.Onboard(ctx, "u1", OnboardingFields{Age: ptr(0)})
	require.ErrorIs(t, err, ErrValidation)
	_, err = e.Onboard(ctx, "ghost", OnboardingFields{})
	require.ErrorIs(t, err, ErrNotFound)

	for _, date := range []string{"2026-01-01", "2026-01-02"} {
		_, err = e.LogActivity(ctx, "u1", date, referenceDay(), ModeUpsert)
		require.NoError(t, err)
	}
	p, err = e.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.TotalLogs)
	assert.InDelta(t, 32.08, p.TotalKg, 1e-9)
	assert.InDelta(t, 16.04, p.AverageDailyKg, 1e-9)
	assert.True(t, p.OnboardingCompleted)

	_, err = e.Profile(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureUser(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	u, err := e.EnsureUser(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.Name)

	again, err := e.EnsureUser(ctx, "u1", "Other Name")
	require.NoError(t, err)
	assert.Equal(t, u, again)
}

func TestImportLogs(t *testing.T) {
	ctx := context.Background()

	t.Run("imports every day", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		_, err := e.LogActivity(ctx, "u1", "2026-01-02", greenops.Activity{}, ModeUpsert)
		require.NoError(t, err)

		days := make([]DayLog, 0, 5)
		for d := 1; d <= 5; d++ {
			days = append(days, DayLog{Date: fmt.Sprintf("2026-01-%02d", d), Activity: referenceDay()})
		}
		var last batch.ProgressSnapshot
		res, err := e.ImportLogs(ctx, "u1", days, ImportOptions{
			BatchSize:   2,
			Concurrency: 1,
			OnProgress:  func(s batch.ProgressSnapshot) { last = s },
		})
		require.NoError(t, err)
		assert.Equal(t, ImportResult{Days: 5, Created: 4, Updated: 1, TotalKg: 80.2}, res)
		assert.True(t, last.IsComplete())
		assert.Equal(t, 3, last.TotalBatches)

		recs, err := e.History(ctx, "u1", HistoryQuery{})
		require.NoError(t, err)
		assert.Len(t, recs, 5)
	})

	t.Run("default batch size, concurrent batches", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		days := make([]DayLog, 0, 120)
		start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
		for d := range 120 {
			days = append(days, DayLog{Date: start.AddDate(0, 0, d).Format(DateLayout), Activity: referenceDay()})
		}
		var (
			mu    sync.Mutex
			snaps []batch.ProgressSnapshot
		)
		res, err := e.ImportLogs(ctx, "u1", days, ImportOptions{
			Concurrency: 3,
			OnProgress: func(s batch.ProgressSnapshot) {
				mu.Lock()
				snaps = append(snaps, s)
				mu.Unlock()
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 120, res.Created)
		assert.InDelta(t, 120*16.04, res.TotalKg, 1e-6)
		require.Len(t, snaps, 3, "120 days in batches of %d", batch.DefaultBatchSize)
		for _, s := range snaps {
			assert.Equal(t, batch.DefaultBatchSize, s.BatchSize)
		}
	})

	t.Run("invalid day rejects everything", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		_, err := e.ImportLogs(ctx, "u1", []DayLog{
			{Date: "2026-01-01", Activity: referenceDay()},
			{Date: "2026-01-02", Activity: greenops.Activity{ElectricityKwh: -5}},
		}, ImportOptions{})
		require.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, store.records)
	})

	t.Run("bad batch size", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		_, err := e.ImportLogs(ctx, "u1", []DayLog{{Date: "2026-01-01"}}, ImportOptions{BatchSize: 5000})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("store failure stops import", func(t *testing.T) {
		e, store, _ := newTestEngine(t)
		store.failErr = errors.New("locked")
		_, err := e.ImportLogs(ctx, "u1", []DayLog{{Date: "2026-01-01"}}, ImportOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "locked")
	})
}
