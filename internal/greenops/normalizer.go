package greenops

import (
	"math"
	"strings"
)

// unitFactor returns the multiplier that converts unit to kilograms.
// Matching is case-insensitive and accepts a "CO2e" suffix.
func unitFactor(unit string) (float64, bool) {
	switch strings.TrimSuffix(strings.ToLower(unit), "co2e") {
	case "g":
		return GramsToKg, true
	case "kg":
		return KgToKg, true
	case "t":
		return TonsToKg, true
	case "lb":
		return PoundsToKg, true
	default:
		return 0, false
	}
}

// NormalizeToKg converts a carbon amount in unit to kilograms.
func NormalizeToKg(value float64, unit string) (float64, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, ErrCalculationOverflow
	}
	if value < 0 {
		return 0, ErrNegativeValue
	}
	factor, ok := unitFactor(unit)
	if !ok {
		return 0, ErrInvalidUnit
	}
	result := value * factor
	if math.IsInf(result, 0) {
		return 0, ErrCalculationOverflow
	}
	return result, nil
}

// ConvertFromKg expresses kg in the display unit. Used by renderers when the
// output unit is configured to something other than kg.
func ConvertFromKg(kg float64, unit string) (float64, error) {
	factor, ok := unitFactor(unit)
	if !ok {
		return 0, ErrInvalidUnit
	}
	return kg / factor, nil
}

// IsRecognizedUnit reports whether unit is a supported carbon unit.
func IsRecognizedUnit(unit string) bool {
	_, ok := unitFactor(unit)
	return ok
}
