package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rshade/planetzero/internal/greenops"
)

// DateLayout is the ISO 8601 calendar date format used for record keys.
const DateLayout = "2006-01-02"

// UnknownUserName is shown on the leaderboard for users without an identity record.
const UnknownUserName = "Unknown User"

// Sentinel errors. Callers compare with errors.Is; ErrInvalidRange and
// ErrInvalidPeriod also match ErrValidation.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidRange  = fmt.Errorf("%w: start date is after end date", ErrValidation)
	ErrInvalidPeriod = fmt.Errorf("%w: unknown period", ErrValidation)
)

// EmissionRecord is one user's calculated emissions for one day. The natural
// key is (UserID, Date).
type EmissionRecord struct {
	ID       string            `json:"id"`
	UserID   string            `json:"user_id"`
	Date     string            `json:"date"`
	Activity greenops.Activity `json:"activity"`
	greenops.Emissions
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WriteMode controls how UpsertRecord treats an existing record.
//
//nolint:recvcheck // UnmarshalText requires pointer receiver.
type WriteMode int

const (
	// ModeUpsert replaces an existing record, keeping its creation time.
	ModeUpsert WriteMode = iota
	// ModeCreate fails with ErrConflict when a record already exists.
	ModeCreate
)

// String returns the flag spelling of the mode.
func (m WriteMode) String() string {
	switch m {
	case ModeUpsert:
		return "upsert"
	case ModeCreate:
		return "create"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseWriteMode parses "upsert" or "create". The empty string is ModeUpsert.
func ParseWriteMode(s string) (WriteMode, error) {
	switch s {
	case "", "upsert":
		return ModeUpsert, nil
	case "create":
		return ModeCreate, nil
	default:
		return ModeUpsert, fmt.Errorf("%w: write mode %q", ErrValidation, s)
	}
}

// DateRange is an inclusive range of calendar dates in DateLayout form.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate checks both bounds parse and Start is not after End.
func (r DateRange) Validate() error {
	start, err := ParseDate(r.Start)
	if err != nil {
		return err
	}
	end, err := ParseDate(r.End)
	if err != nil {
		return err
	}
	if start.After(end) {
		return fmt.Errorf("%w (%s > %s)", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Contains reports whether date falls inside the range. A nil range contains
// every date.
func (r *DateRange) Contains(date string) bool {
	if r == nil {
		return true
	}
	return date >= r.Start && date <= r.End
}

// ParseDate parses a YYYY-MM-DD date, wrapping failures in ErrValidation.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", ErrValidation, s)
	}
	return t, nil
}

// RecordQuery selects one user's records. Start and End are optional
// inclusive bounds; Limit <= 0 means no limit.
type RecordQuery struct {
	Start      string
	End        string
	Limit      int
	Descending bool
}

// Matches reports whether date satisfies the query bounds.
func (q RecordQuery) Matches(date string) bool {
	if q.Start != "" && date < q.Start {
		return false
	}
	if q.End != "" && date > q.End {
		return false
	}
	return true
}

// UserAggregate is a per-user sum over a set of records.
type UserAggregate struct {
	UserID   string  `json:"user_id"`
	TotalKg  float64 `json:"total_emissions"`
	LogCount int     `json:"log_count"`
}

// Average returns TotalKg / LogCount, or 0 without logs.
func (a UserAggregate) Average() float64 {
	if a.LogCount == 0 {
		return 0
	}
	return a.TotalKg / float64(a.LogCount)
}

// Period names a leaderboard window.
//
//nolint:recvcheck // UnmarshalJSON requires pointer receiver.
type Period int

const (
	PeriodMonthly Period = iota
	PeriodWeekly
	PeriodAllTime
)

// String returns the wire label for the period.
func (p Period) String() string {
	switch p {
	case PeriodWeekly:
		return "weekly"
	case PeriodMonthly:
		return "monthly"
	case PeriodAllTime:
		return "all_time"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParsePeriod parses a period label. The empty string is PeriodMonthly.
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "", "monthly":
		return PeriodMonthly, nil
	case "weekly":
		return PeriodWeekly, nil
	case "all_time":
		return PeriodAllTime, nil
	default:
		return PeriodMonthly, fmt.Errorf("%w %q (want weekly, monthly or all_time)", ErrInvalidPeriod, s)
	}
}

// MarshalJSON outputs the period label.
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON parses a period label.
func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing period: %w", err)
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PeriodSummary aggregates one user's records over a window. It is derived
// on every request and never stored.
type PeriodSummary struct {
	Period              string                      `json:"period"`
	Start               string                      `json:"start_date"`
	End                 string                      `json:"end_date"`
	TotalKg             float64                     `json:"total_emissions"`
	TransportKg         float64                     `json:"transport_emissions"`
	ElectricityKg       float64                     `json:"electricity_emissions"`
	FoodKg              float64                     `json:"food_emissions"`
	LifestyleKg         float64                     `json:"lifestyle_emissions"`
	AverageDailyKg      float64                     `json:"average_daily_emissions"`
	LoggedDays          int                         `json:"logged_days"`
	HighestCategory     greenops.Category           `json:"highest_category"`
	ComparisonToAverage *float64                    `json:"comparison_to_average,omitempty"`
	Equivalencies       *greenops.EquivalencyOutput `json:"equivalencies,omitempty"`
}

// Dashboard is the today/weekly/monthly view for one user.
type Dashboard struct {
	UserID  string        `json:"user_id"`
	Today   PeriodSummary `json:"today"`
	Weekly  PeriodSummary `json:"weekly"`
	Monthly PeriodSummary `json:"monthly"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	UserID         string  `json:"user_id"`
	UserName       string  `json:"user_name"`
	TotalKg        float64 `json:"total_emissions"`
	AverageDailyKg float64 `json:"average_daily_emissions"`
}

// LeaderboardResult is the top-N page plus the caller's own standing. UserRank
// and UserAverageKg are nil when the caller has no records in the period.
type LeaderboardResult struct {
	Period        Period             `json:"period"`
	Entries       []LeaderboardEntry `json:"entries"`
	UserRank      *int               `json:"user_rank"`
	UserAverageKg *float64           `json:"user_emissions"`
}

// Recommendation is one suggested change with an estimated daily saving.
type Recommendation struct {
	Category           greenops.Category `json:"category"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	PotentialSavingsKg float64           `json:"potential_savings_kg"`
}

// RecommendationSet is the recommendation output for one user.
type RecommendationSet struct {
	Recommendations         []Recommendation  `json:"recommendations"`
	DominantCategory        greenops.Category `json:"highest_emission_category"`
	TotalPotentialSavingsKg float64           `json:"total_potential_savings"`
	HasData                 bool              `json:"has_data"`
}

// HistoryQuery bounds a History call. Empty dates are unbounded; Limit 0
// means the default.
type HistoryQuery struct {
	Start string
	End   string
	Limit int
}

// User is an identity record plus onboarding answers.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Age           *int      `json:"age,omitempty"`
	Gender        string    `json:"gender,omitempty"`
	Country       string    `json:"country,omitempty"`
	City          string    `json:"city,omitempty"`
	HouseholdSize *int      `json:"household_size,omitempty"`
	TransportMode string    `json:"transport_mode,omitempty"`
	DietType      string    `json:"diet_type,omitempty"`
	EnergySource  string    `json:"energy_source,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OnboardingCompleted reports whether the user has set country and city.
func (u User) OnboardingCompleted() bool {
	return u.Country != "" && u.City != ""
}

// OnboardingFields are the optional answers a user may submit. Nil fields
// leave the stored value unchanged.
type OnboardingFields struct {
	Name          *string `json:"name,omitempty"           yaml:"name,omitempty"`
	Age           *int    `json:"age,omitempty"            yaml:"age,omitempty"`
	Gender        *string `json:"gender,omitempty"         yaml:"gender,omitempty"`
	Country       *string `json:"country,omitempty"        yaml:"country,omitempty"`
	City          *string `json:"city,omitempty"           yaml:"city,omitempty"`
	HouseholdSize *int    `json:"household_size,omitempty" yaml:"household_size,omitempty"`
	TransportMode *string `json:"transport_mode,omitempty" yaml:"transport_mode,omitempty"`
	DietType      *string `json:"diet_type,omitempty"      yaml:"diet_type,omitempty"`
	EnergySource  *string `json:"energy_source,omitempty"  yaml:"energy_source,omitempty"`
}

// Profile summarizes a user's identity and lifetime statistics.
type Profile struct {
	User                User    `json:"user"`
	TotalLogs           int     `json:"total_logs"`
	TotalKg             float64 `json:"total_emissions"`
	AverageDailyKg      float64 `json:"average_daily_emissions"`
	OnboardingCompleted bool    `json:"onboarding_completed"`
}

// LogResult is returned by LogActivity.
type LogResult struct {
	Record  EmissionRecord `json:"record"`
	Created bool           `json:"created"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Days    int     `json:"days"`
	Created int     `json:"created"`
	Updated int     `json:"updated"`
	TotalKg float64 `json:"total_emissions"`
}
