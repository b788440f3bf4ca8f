package engine

import (
	"math"

	"github.com/rshade/planetzero/internal/greenops"
)

// categoryTotals are unrounded per-category sums over a set of records.
type categoryTotals struct {
	transport   float64
	electricity float64
	food        float64
	lifestyle   float64
	days        int
}

func (t categoryTotals) total() float64 {
	return t.transport + t.electricity + t.food + t.lifestyle
}

func sumRecords(r *DateRange, records []EmissionRecord) categoryTotals {
	var t categoryTotals
	for _, rec := range records {
		if !r.Contains(rec.Date) {
			continue
		}
		t.transport += rec.Transport
		t.electricity += rec.Electricity
		t.food += rec.Food
		t.lifestyle += rec.Lifestyle
		t.days++
	}
	return t
}

// Summarize reduces one user's records over r into a PeriodSummary. Records
// outside r are ignored. No records yields an all-zero summary with highest
// category "none". The average divides by the number of logged days, not the
// window length.
func Summarize(label string, r DateRange, records []EmissionRecord) (PeriodSummary, error) {
	if err := r.Validate(); err != nil {
		return PeriodSummary{}, err
	}

	t := sumRecords(&r, records)
	summary := PeriodSummary{
		Period:          label,
		Start:           r.Start,
		End:             r.End,
		TotalKg:         greenops.Round3(t.total()),
		TransportKg:     greenops.Round3(t.transport),
		ElectricityKg:   greenops.Round3(t.electricity),
		FoodKg:          greenops.Round3(t.food),
		LifestyleKg:     greenops.Round3(t.lifestyle),
		LoggedDays:      t.days,
		HighestCategory: greenops.DominantCategory(t.transport, t.electricity, t.food, t.lifestyle),
	}
	if t.days > 0 {
		summary.AverageDailyKg = greenops.Round3(t.total() / float64(t.days))
	}
	return summary, nil
}

// CategoryAverages are per-category average daily emissions.
type CategoryAverages struct {
	Transport   float64 `json:"transport"`
	Electricity float64 `json:"electricity"`
	Food        float64 `json:"food"`
	Lifestyle   float64 `json:"lifestyle"`
}

// AverageByCategory returns per-category daily averages of the records in r
// and the number of logged days they cover.
func AverageByCategory(r *DateRange, records []EmissionRecord) (CategoryAverages, int) {
	t := sumRecords(r, records)
	if t.days == 0 {
		return CategoryAverages{}, 0
	}
	n := float64(t.days)
	return CategoryAverages{
		Transport:   t.transport / n,
		Electricity: t.electricity / n,
		Food:        t.food / n,
		Lifestyle:   t.lifestyle / n,
	}, t.days
}

// Get returns the average for an emission category.
func (a CategoryAverages) Get(c greenops.Category) float64 {
	switch c {
	case greenops.CategoryTransportation:
		return a.Transport
	case greenops.CategoryElectricity:
		return a.Electricity
	case greenops.CategoryFood:
		return a.Food
	case greenops.CategoryLifestyle:
		return a.Lifestyle
	default:
		return 0
	}
}

// Dominant returns the category with the highest average, or "none" when all
// are zero.
func (a CategoryAverages) Dominant() greenops.Category {
	return greenops.DominantCategory(a.Transport, a.Electricity, a.Food, a.Lifestyle)
}

// ComparisonToAverage returns the percent difference of avg from baseline,
// rounded to 1 decimal. Positive means above the baseline. It returns nil
// when there is no baseline.
func ComparisonToAverage(avg, baseline float64) *float64 {
	if baseline <= 0 {
		return nil
	}
	pct := math.Round((avg-baseline)/baseline*1000) / 10 //nolint:mnd // percent at 1 decimal
	return &pct
}
