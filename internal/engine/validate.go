package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/rshade/planetzero/internal/greenops"
)

// Onboarding bounds.
const (
	minAge           = 1
	maxAge           = 150
	minHouseholdSize = 1
	maxHouseholdSize = 50
)

// MaxDailyEmissionsKg bounds each category and the total of one day's
// record, keeping sums over many records finite.
const MaxDailyEmissionsKg = 1e9

// FieldError is one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem found in one input. It
// matches ErrValidation under errors.Is.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap exposes ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// ValidateActivity rejects negative or non-finite quantities, zero counts,
// unknown enum values and activity whose emissions exceed
// MaxDailyEmissionsKg. It returns a *ValidationError listing every problem.
func ValidateActivity(a greenops.Activity) error {
	verr := &ValidationError{}

	for i, t := range a.Transportation {
		field := fmt.Sprintf("transportation[%d]", i)
		if _, ok := greenops.TransportFactor(t.Mode); !ok {
			verr.add(field+".mode", "unknown transport mode %q", t.Mode)
		}
		if !validQuantity(t.DistanceKm) {
			verr.add(field+".distance_km", "must be a non-negative number")
		}
	}

	if !validQuantity(a.ElectricityKwh) {
		verr.add("electricity_kwh", "must be a non-negative number")
	}

	for i, f := range a.Food {
		field := fmt.Sprintf("food[%d]", i)
		if _, ok := greenops.MealFactor(f.MealType); !ok {
			verr.add(field+".meal_type", "unknown meal type %q", f.MealType)
		}
		if f.MealsCount < 1 {
			verr.add(field+".meals_count", "must be at least 1")
		}
	}

	for i, l := range a.Lifestyle {
		field := fmt.Sprintf("lifestyle[%d]", i)
		if _, ok := greenops.LifestyleFactor(l.Category); !ok {
			verr.add(field+".category", "unknown lifestyle category %q", l.Category)
		}
		if l.ItemsCount < 1 {
			verr.add(field+".items_count", "must be at least 1")
		}
	}

	if len(verr.Errors) == 0 {
		checkEmissions(verr, greenops.CalculateEmissions(a))
	}
	return verr.orNil()
}

// checkEmissions rejects calculated values that overflowed or are too large
// to aggregate.
func checkEmissions(verr *ValidationError, e greenops.Emissions) {
	fields := []struct {
		name  string
		value float64
	}{
		{"transportation", e.Transport},
		{"electricity_kwh", e.Electricity},
		{"food", e.Food},
		{"lifestyle", e.Lifestyle},
		{"total", e.Total},
	}
	for _, f := range fields {
		if !validQuantity(f.value) || f.value > MaxDailyEmissionsKg {
			verr.add(f.name, "emissions exceed %g kg CO2e per day", MaxDailyEmissionsKg)
		}
	}
}

func validQuantity(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// EnergySources lists the accepted onboarding energy_source values.
func EnergySources() []string {
	return []string{"grid", "solar", "wind", "mixed"}
}

// CommuteModes lists the accepted onboarding transport_mode values.
func CommuteModes() []string {
	modes := make([]string, 0, len(greenops.TransportModes())+2) //nolint:mnd // walk and bicycle
	for _, m := range greenops.TransportModes() {
		modes = append(modes, string(m))
	}
	return append(modes, "walk", "bicycle")
}

// ValidateOnboarding checks the optional onboarding answers that are set.
func ValidateOnboarding(f OnboardingFields) error {
	verr := &ValidationError{}

	for field, v := range map[string]*string{"name": f.Name, "country": f.Country, "city": f.City} {
		if v != nil && strings.TrimSpace(*v) == "" {
			verr.add(field, "must not be empty")
		}
	}
	if f.Age != nil && (*f.Age < minAge || *f.Age > maxAge) {
		verr.add("age", "must be between %d and %d", minAge, maxAge)
	}
	if f.HouseholdSize != nil && (*f.HouseholdSize < minHouseholdSize || *f.HouseholdSize > maxHouseholdSize) {
		verr.add("household_size", "must be between %d and %d", minHouseholdSize, maxHouseholdSize)
	}
	if f.TransportMode != nil && !oneOf(*f.TransportMode, CommuteModes()) {
		verr.add("transport_mode", "must be one of %s", strings.Join(CommuteModes(), ", "))
	}
	if f.DietType != nil {
		diets := make([]string, 0, len(greenops.MealTypes()))
		for _, m := range greenops.MealTypes() {
			diets = append(diets, string(m))
		}
		if !oneOf(*f.DietType, diets) {
			verr.add("diet_type", "must be one of %s", strings.Join(diets, ", "))
		}
	}
	if f.EnergySource != nil && !oneOf(*f.EnergySource, EnergySources()) {
		verr.add("energy_source", "must be one of %s", strings.Join(EnergySources(), ", "))
	}

	// Map iteration order is random; keep messages stable.
	sortFieldErrors(verr.Errors)
	return verr.orNil()
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func sortFieldErrors(errs []FieldError) {
	slices.SortStableFunc(errs, func(a, b FieldError) int {
		return cmp.Compare(a.Field, b.Field)
	})
}
