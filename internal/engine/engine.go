// Package engine implements the planetzero emission pipeline: logging a
// day's activity as an emission record, and deriving dashboards, history,
// leaderboards and recommendations from stored records.
//
// The Engine owns no storage. It is constructed with a RecordStore and a
// UserStore opened at process start and closed at shutdown.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/planetzero/internal/engine/batch"
	"github.com/rshade/planetzero/internal/greenops"
	"github.com/rshade/planetzero/internal/logging"
)

// History limit bounds.
const (
	DefaultHistoryLimit = 30
	MinHistoryLimit     = 1
	MaxHistoryLimit     = 365
)

// Engine runs the emission operations against a store.
type Engine struct {
	records  RecordStore
	users    UserStore
	now      func() time.Time
	baseline float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now. Window boundaries are computed from the UTC
// date of the returned time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithBaseline sets the regional average daily kg CO2e that summaries are
// compared against. Zero disables the comparison.
func WithBaseline(kg float64) Option {
	return func(e *Engine) { e.baseline = kg }
}

// New creates an Engine over the given stores.
func New(records RecordStore, users UserStore, opts ...Option) *Engine {
	e := &Engine{records: records, users: users, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the engine clock's current UTC date.
func (e *Engine) Today() string {
	return Today(e.now())
}

func (e *Engine) logger(ctx context.Context, operation string) zerolog.Logger {
	return logging.FromContext(ctx).With().
		Str("component", "engine").
		Str("operation", operation).
		Logger()
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	return nil
}

// LogActivity validates one day of activity, calculates its emissions and
// stores the record under (userID, date).
//
// Under ModeUpsert an existing record is replaced in place and keeps its
// creation time; under ModeCreate an existing record fails with ErrConflict.
func (e *Engine) LogActivity(
	ctx context.Context,
	userID, date string,
	activity greenops.Activity,
	mode WriteMode,
) (LogResult, error) {
	log := e.logger(ctx, "LogActivity")

	if err := requireUser(userID); err != nil {
		return LogResult{}, err
	}
	if _, err := ParseDate(date); err != nil {
		return LogResult{}, err
	}
	if err := ValidateActivity(activity); err != nil {
		log.Warn().Str("user_id", userID).Str("date", date).Err(err).Msg("activity rejected")
		return LogResult{}, err
	}

	now := e.now().UTC()
	rec := EmissionRecord{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Date:      date,
		Activity:  activity,
		Emissions: greenops.CalculateEmissions(activity),
		CreatedAt: now,
		UpdatedAt: now,
	}

	stored, created, err := e.records.UpsertRecord(ctx, rec, mode)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			log.Warn().Str("user_id", userID).Str("date", date).Msg("record already exists")
		} else {
			log.Error().Str("user_id", userID).Str("date", date).Err(err).Msg("storing record failed")
		}
		return LogResult{}, fmt.Errorf("storing record for %s: %w", date, err)
	}

	log.Debug().
		Str("user_id", userID).
		Str("date", date).
		Str("mode", mode.String()).
		Bool("created", created).
		Float64("total_kg", stored.Total).
		Msg("activity logged")
	return LogResult{Record: stored, Created: created}, nil
}

// GetLog returns the record for one day. A missing record is ErrNotFound.
func (e *Engine) GetLog(ctx context.Context, userID, date string) (*EmissionRecord, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	rec, err := e.records.GetRecord(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("loading record for %s: %w", date, err)
	}
	return rec, nil
}

// History returns the user's records newest first, bounded by the optional
// inclusive dates in q and at most q.Limit entries.
func (e *Engine) History(ctx context.Context, userID string, q HistoryQuery) ([]EmissionRecord, error) {
	log := e.logger(ctx, "History")

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit < MinHistoryLimit || limit > MaxHistoryLimit {
		return nil, fmt.Errorf("%w: limit must be between %d and %d, got %d",
			ErrValidation, MinHistoryLimit, MaxHistoryLimit, limit)
	}
	for _, d := range []string{q.Start, q.End} {
		if d == "" {
			continue
		}
		if _, err := ParseDate(d); err != nil {
			return nil, err
		}
	}
	if q.Start != "" && q.End != "" && q.Start > q.End {
		return nil, fmt.Errorf("%w (%s > %s)", ErrInvalidRange, q.Start, q.End)
	}

	recs, err := e.records.ListRecords(ctx, userID, RecordQuery{
		Start:      q.Start,
		End:        q.End,
		Limit:      limit,
		Descending: true,
	})
	if err != nil {
		log.Error().Err(err).Msg("listing records failed")
		return nil, fmt.Errorf("listing records: %w", err)
	}
	if recs == nil {
		recs = []EmissionRecord{}
	}
	log.Debug().Str("user_id", userID).Int("count", len(recs)).Msg("history loaded")
	return recs, nil
}

// Summary aggregates the user's records over r. The summary carries a
// comparison to the configured baseline and real-world equivalencies of its
// total when the window has data.
func (e *Engine) Summary(ctx context.Context, userID, label string, r DateRange) (PeriodSummary, error) {
	if err := requireUser(userID); err != nil {
		return PeriodSummary{}, err
	}
	if err := r.Validate(); err != nil {
		return PeriodSummary{}, err
	}

	recs, err := e.records.ListRecords(ctx, userID, RecordQuery{Start: r.Start, End: r.End})
	if err != nil {
		return PeriodSummary{}, fmt.Errorf("listing records for %s: %w", label, err)
	}
	summary, err := Summarize(label, r, recs)
	if err != nil {
		return PeriodSummary{}, err
	}
	if summary.LoggedDays > 0 {
		summary.ComparisonToAverage = ComparisonToAverage(summary.AverageDailyKg, e.baseline)
		if eq := greenops.EquivalenciesForKg(summary.TotalKg); !eq.IsEmpty {
			summary.Equivalencies = &eq
		}
	}
	return summary, nil
}

// Dashboard computes the today, weekly and monthly summaries concurrently.
// Any window failing fails the whole dashboard.
func (e *Engine) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	log := e.logger(ctx, "Dashboard")

	if err := requireUser(userID); err != nil {
		return Dashboard{}, err
	}

	windows := StandardWindows(e.now())
	summaries := make([]PeriodSummary, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range windows {
		g.Go(func() error {
			s, err := e.Summary(gctx, userID, w.Label, w.Range)
			if err != nil {
				return err
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Str("user_id", userID).Err(err).Msg("dashboard failed")
		return Dashboard{}, err
	}

	log.Debug().Str("user_id", userID).Msg("dashboard computed")
	return Dashboard{
		UserID:  userID,
		Today:   summaries[0],
		Weekly:  summaries[1],
		Monthly: summaries[2],
	}, nil
}

// Leaderboard ranks every user with records in the period by average daily
// emissions, lowest first, and returns the top limit entries plus the
// caller's own rank. A zero limit means DefaultLeaderboardLimit.
func (e *Engine) Leaderboard(ctx context.Context, userID string, period Period, limit int) (LeaderboardResult, error) {
	log := e.logger(ctx, "Leaderboard")

	if limit == 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit < MinLeaderboardLimit || limit > MaxLeaderboardLimit {
		return LeaderboardResult{}, fmt.Errorf("%w: limit must be between %d and %d, got %d",
			ErrValidation, MinLeaderboardLimit, MaxLeaderboardLimit, limit)
	}
	if period < PeriodMonthly || period > PeriodAllTime {
		return LeaderboardResult{}, fmt.Errorf("%w %s", ErrInvalidPeriod, period)
	}

	aggs, err := e.records.AggregateByUser(ctx, PeriodRange(period, e.now()))
	if err != nil {
		log.Error().Err(err).Msg("aggregating records failed")
		return LeaderboardResult{}, fmt.Errorf("aggregating records: %w", err)
	}
	ranked := RankAggregates(aggs)

	ids := make([]string, 0, min(limit, len(ranked)))
	for _, a := range ranked[:min(limit, len(ranked))] {
		ids = append(ids, a.UserID)
	}
	names, err := e.users.UsersByID(ctx, ids)
	if err != nil {
		return LeaderboardResult{}, fmt.Errorf("loading users: %w", err)
	}

	result := BuildLeaderboard(period, ranked, names, userID, limit)
	log.Debug().
		Str("period", period.String()).
		Int("ranked_users", len(ranked)).
		Int("entries", len(result.Entries)).
		Msg("leaderboard computed")
	return result, nil
}

// Recommendations derives suggestions from the user's per-category daily
// averages over the monthly window. Without data the general set is returned
// and HasData is false.
func (e *Engine) Recommendations(ctx context.Context, userID string) (RecommendationSet, error) {
	log := e.logger(ctx, "Recommendations")

	if err := requireUser(userID); err != nil {
		return RecommendationSet{}, err
	}

	r := StandardWindows(e.now())[2].Range
	recs, err := e.records.ListRecords(ctx, userID, RecordQuery{Start: r.Start, End: r.End})
	if err != nil {
		return RecommendationSet{}, fmt.Errorf("listing records: %w", err)
	}

	avg, days := AverageByCategory(&r, recs)
	dominant := avg.Dominant()
	list := Recommend(avg, dominant)

	log.Debug().
		Str("user_id", userID).
		Int("logged_days", days).
		Str("dominant", string(dominant)).
		Int("count", len(list)).
		Msg("recommendations computed")
	return RecommendationSet{
		Recommendations:         list,
		DominantCategory:        dominant,
		TotalPotentialSavingsKg: TotalSavings(list),
		HasData:                 days > 0,
	}, nil
}

// Profile returns the user's identity record and lifetime statistics.
func (e *Engine) Profile(ctx context.Context, userID string) (Profile, error) {
	if err := requireUser(userID); err != nil {
		return Profile{}, err
	}
	u, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("loading user %s: %w", userID, err)
	}
	recs, err := e.records.ListRecords(ctx, userID, RecordQuery{})
	if err != nil {
		return Profile{}, fmt.Errorf("listing records: %w", err)
	}

	var total float64
	for _, r := range recs {
		total += r.Total
	}
	p := Profile{
		User:                *u,
		TotalLogs:           len(recs),
		TotalKg:             greenops.Round3(total),
		OnboardingCompleted: u.OnboardingCompleted(),
	}
	if len(recs) > 0 {
		p.AverageDailyKg = greenops.Round3(total / float64(len(recs)))
	}
	return p, nil
}

// RegisterUser creates an identity record. An existing ID is ErrConflict.
func (e *Engine) RegisterUser(ctx context.Context, u User) (User, error) {
	log := e.logger(ctx, "RegisterUser")

	u.ID = strings.TrimSpace(u.ID)
	u.Name = strings.TrimSpace(u.Name)
	if err := requireUser(u.ID); err != nil {
		return User{}, err
	}
	if u.Name == "" {
		return User{}, fmt.Errorf("%w: name is required", ErrValidation)
	}

	_, err := e.users.GetUser(ctx, u.ID)
	switch {
	case err == nil:
		return User{}, fmt.Errorf("%w: user %s already exists", ErrConflict, u.ID)
	case !errors.Is(err, ErrNotFound):
		return User{}, fmt.Errorf("loading user %s: %w", u.ID, err)
	}

	now := e.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if err := e.users.PutUser(ctx, u); err != nil {
		log.Error().Str("user_id", u.ID).Err(err).Msg("storing user failed")
		return User{}, fmt.Errorf("storing user %s: %w", u.ID, err)
	}
	log.Debug().Str("user_id", u.ID).Msg("user registered")
	return u, nil
}

// EnsureUser returns the identity record for id, creating it with name when
// it does not exist yet. The HTTP surface calls it for every authenticated
// identity so leaderboard names resolve.
func (e *Engine) EnsureUser(ctx context.Context, id, name string) (User, error) {
	u, err := e.users.GetUser(ctx, id)
	if err == nil {
		return *u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("loading user %s: %w", id, err)
	}
	if strings.TrimSpace(name) == "" {
		name = id
	}
	created, err := e.RegisterUser(ctx, User{ID: id, Name: name})
	if errors.Is(err, ErrConflict) {
		// Registered concurrently by another request.
		u, err = e.users.GetUser(ctx, id)
		if err != nil {
			return User{}, fmt.Errorf("loading user %s: %w", id, err)
		}
		return *u, nil
	}
	return created, err
}

// Onboard applies the set onboarding fields to an existing user.
func (e *Engine) Onboard(ctx context.Context, userID string, f OnboardingFields) (User, error) {
	log := e.logger(ctx, "Onboard")

	if err := requireUser(userID); err != nil {
		return User{}, err
	}
	if err := ValidateOnboarding(f); err != nil {
		log.Warn().Str("user_id", userID).Err(err).Msg("onboarding rejected")
		return User{}, err
	}
	u, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return User{}, fmt.Errorf("loading user %s: %w", userID, err)
	}

	applyOnboarding(u, f)
	u.UpdatedAt = e.now().UTC()
	if err := e.users.PutUser(ctx, *u); err != nil {
		return User{}, fmt.Errorf("storing user %s: %w", userID, err)
	}
	log.Debug().Str("user_id", userID).Bool("completed", u.OnboardingCompleted()).Msg("onboarding saved")
	return *u, nil
}

func applyOnboarding(u *User, f OnboardingFields) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setString(&u.Name, f.Name)
	setString(&u.Gender, f.Gender)
	setString(&u.Country, f.Country)
	setString(&u.City, f.City)
	setString(&u.TransportMode, f.TransportMode)
	setString(&u.DietType, f.DietType)
	setString(&u.EnergySource, f.EnergySource)
	if f.Age != nil {
		age := *f.Age
		u.Age = &age
	}
	if f.HouseholdSize != nil {
		size := *f.HouseholdSize
		u.HouseholdSize = &size
	}
}

// DayLog is one day of activity in a bulk import.
type DayLog struct {
	Date     string            `json:"date"     yaml:"date"`
	Activity greenops.Activity `json:"activity" yaml:"activity"`
}

// ImportOptions tune ImportLogs.
type ImportOptions struct {
	BatchSize   int
	Concurrency int
	OnProgress  batch.ProgressCallback
}

// ImportLogs upserts many days for one user. Every day is validated before
// anything is written; a single invalid day rejects the whole import with a
// ValidationError naming each problem. Writes then run through the batch
// processor and stop at the first store failure, which may leave earlier
// batches written.
func (e *Engine) ImportLogs(ctx context.Context, userID string, days []DayLog, opts ImportOptions) (ImportResult, error) {
	log := e.logger(ctx, "ImportLogs")

	if err := requireUser(userID); err != nil {
		return ImportResult{}, err
	}
	if err := ValidateDays(days); err != nil {
		log.Warn().Str("user_id", userID).Err(err).Msg("import rejected")
		return ImportResult{}, err
	}

	proc := batch.NewProcessorWithDefaults[DayLog]()
	if opts.BatchSize != 0 {
		var err error
		if proc, err = batch.NewProcessor[DayLog](opts.BatchSize); err != nil {
			return ImportResult{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	if opts.OnProgress != nil {
		proc.WithProgressCallback(opts.OnProgress)
	}

	results := make([]LogResult, len(days))
	write := func(ctx context.Context, items []DayLog, batchIndex int) error {
		offset := batchIndex * proc.BatchSize()
		for i, d := range items {
			res, logErr := e.LogActivity(ctx, userID, d.Date, d.Activity, ModeUpsert)
			if logErr != nil {
				return logErr
			}
			results[offset+i] = res
		}
		return nil
	}

	var err error
	if opts.Concurrency > 1 {
		err = proc.ProcessConcurrent(ctx, days, write, opts.Concurrency)
	} else {
		err = proc.Process(ctx, days, write)
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("importing logs: %w", err)
	}

	out := ImportResult{Days: len(days)}
	var total float64
	for _, r := range results {
		if r.Created {
			out.Created++
		} else {
			out.Updated++
		}
		total += r.Record.Total
	}
	out.TotalKg = greenops.Round3(total)
	log.Info().
		Str("user_id", userID).
		Int("days", out.Days).
		Int("created", out.Created).
		Int("updated", out.Updated).
		Msg("import complete")
	return out, nil
}

// ValidateDays validates every day of an import and rejects empty imports
// and duplicate dates.
func ValidateDays(days []DayLog) error {
	verr := &ValidationError{}
	if len(days) == 0 {
		verr.add("days", "at least one day is required")
	}
	seen := make(map[string]int, len(days))
	for i, d := range days {
		prefix := fmt.Sprintf("days[%d]", i)
		if _, err := ParseDate(d.Date); err != nil {
			verr.add(prefix+".date", "invalid date %q, use YYYY-MM-DD", d.Date)
		} else if first, dup := seen[d.Date]; dup {
			verr.add(prefix+".date", "duplicate of days[%d]", first)
		} else {
			seen[d.Date] = i
		}
		var ve *ValidationError
		if err := ValidateActivity(d.Activity); errors.As(err, &ve) {
			for _, fe := range ve.Errors {
				verr.add(prefix+"."+fe.Field, "%s", fe.Message)
			}
		}
	}
	return verr.orNil()
}
