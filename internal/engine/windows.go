package engine

import "time"

// Window labels used on dashboard summaries.
const (
	WindowToday   = "today"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
	WindowCustom  = "custom"
)

// Rolling window lengths in days, today included.
const (
	weeklyDays  = 7
	monthlyDays = 30
)

// Window is a labeled date range.
type Window struct {
	Label string
	Range DateRange
}

// Today returns the UTC calendar date of now in DateLayout form.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// trailing returns the range covering the last days days, ending today.
func trailing(now time.Time, days int) DateRange {
	today := now.UTC()
	return DateRange{
		Start: today.AddDate(0, 0, -(days - 1)).Format(DateLayout),
		End:   today.Format(DateLayout),
	}
}

// StandardWindows returns the today, weekly and monthly windows ending at now.
func StandardWindows(now time.Time) []Window {
	return []Window{
		{Label: WindowToday, Range: trailing(now, 1)},
		{Label: WindowWeekly, Range: trailing(now, weeklyDays)},
		{Label: WindowMonthly, Range: trailing(now, monthlyDays)},
	}
}

// PeriodRange returns the date range for a leaderboard period. PeriodAllTime
// returns nil: no date filter.
func PeriodRange(p Period, now time.Time) *DateRange {
	switch p {
	case PeriodWeekly:
		r := trailing(now, weeklyDays)
		return &r
	case PeriodMonthly:
		r := trailing(now, monthlyDays)
		return &r
	default:
		return nil
	}
}
