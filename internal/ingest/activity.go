package ingest

import (
	"context"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/greenops"
)

// DailyLog is a single-day submission: a date plus the activity fields at
// the top level.
type DailyLog struct {
	Date              string `json:"date" yaml:"date"`
	greenops.Activity `yaml:",inline"`
}

// ImportFile is the bulk import document.
type ImportFile struct {
	Days []DailyLog `json:"days" yaml:"days"`
}

// ParseActivity decodes a bare activity document.
func ParseActivity(ctx context.Context, data []byte, f Format) (greenops.Activity, error) {
	var a greenops.Activity
	if err := decodeStrict(ctx, "activity", data, f, &a); err != nil {
		return greenops.Activity{}, err
	}
	return a, nil
}

// LoadActivity reads and decodes an activity file; "-" reads stdin.
func LoadActivity(ctx context.Context, path string) (greenops.Activity, error) {
	data, err := readFile(path)
	if err != nil {
		return greenops.Activity{}, err
	}
	return ParseActivity(ctx, data, FormatFromPath(path))
}

// ParseDailyLog decodes a dated submission.
func ParseDailyLog(ctx context.Context, data []byte, f Format) (DailyLog, error) {
	var d DailyLog
	if err := decodeStrict(ctx, "daily log", data, f, &d); err != nil {
		return DailyLog{}, err
	}
	return d, nil
}

// LoadDailyLog reads and decodes a dated submission file.
func LoadDailyLog(ctx context.Context, path string) (DailyLog, error) {
	data, err := readFile(path)
	if err != nil {
		return DailyLog{}, err
	}
	return ParseDailyLog(ctx, data, FormatFromPath(path))
}

// ParseImport decodes a bulk import document into engine day logs.
func ParseImport(ctx context.Context, data []byte, f Format) ([]engine.DayLog, error) {
	var file ImportFile
	if err := decodeStrict(ctx, "import file", data, f, &file); err != nil {
		return nil, err
	}
	days := make([]engine.DayLog, 0, len(file.Days))
	for _, d := range file.Days {
		days = append(days, engine.DayLog{Date: d.Date, Activity: d.Activity})
	}
	return days, nil
}

// LoadImport reads and decodes a bulk import file.
func LoadImport(ctx context.Context, path string) ([]engine.DayLog, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImport(ctx, data, FormatFromPath(path))
}

// ParseOnboarding decodes onboarding answers.
func ParseOnboarding(ctx context.Context, data []byte, f Format) (engine.OnboardingFields, error) {
	var o engine.OnboardingFields
	if err := decodeStrict(ctx, "onboarding", data, f, &o); err != nil {
		return engine.OnboardingFields{}, err
	}
	return o, nil
}

// LoadOnboarding reads and decodes an onboarding file.
func LoadOnboarding(ctx context.Context, path string) (engine.OnboardingFields, error) {
	data, err := readFile(path)
	if err != nil {
		return engine.OnboardingFields{}, err
	}
	return ParseOnboarding(ctx, data, FormatFromPath(path))
}
