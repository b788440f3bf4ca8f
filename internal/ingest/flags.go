package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rshade/planetzero/internal/engine"
	"github.com/rshade/planetzero/internal/greenops"
)

// splitPair splits "kind:quantity".
func splitPair(flag, value string) (string, string, error) {
	kind, qty, ok := strings.Cut(value, ":")
	if !ok || kind == "" || qty == "" {
		return "", "", fmt.Errorf("%w: --%s %q must look like kind:quantity", engine.ErrValidation, flag, value)
	}
	return strings.TrimSpace(kind), strings.TrimSpace(qty), nil
}

// ParseTransportFlags parses values like "car_petrol:20".
func ParseTransportFlags(values []string) ([]greenops.TransportEntry, error) {
	out := make([]greenops.TransportEntry, 0, len(values))
	for _, v := range values {
		mode, qty, err := splitPair("transport", v)
		if err != nil {
			return nil, err
		}
		km, err := strconv.ParseFloat(qty, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: --transport %q: distance must be a number", engine.ErrValidation, v)
		}
		out = append(out, greenops.TransportEntry{Mode: greenops.TransportMode(mode), DistanceKm: km})
	}
	return out, nil
}

// ParseMealFlags parses values like "veg:2".
func ParseMealFlags(values []string) ([]greenops.FoodEntry, error) {
	out := make([]greenops.FoodEntry, 0, len(values))
	for _, v := range values {
		meal, qty, err := splitPair("meal", v)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(qty)
		if err != nil {
			return nil, fmt.Errorf("%w: --meal %q: count must be an integer", engine.ErrValidation, v)
		}
		out = append(out, greenops.FoodEntry{MealType: greenops.MealType(meal), MealsCount: n})
	}
	return out, nil
}

// ParseItemFlags parses values like "clothing:1".
func ParseItemFlags(values []string) ([]greenops.LifestyleEntry, error) {
	out := make([]greenops.LifestyleEntry, 0, len(values))
	for _, v := range values {
		kind, qty, err := splitPair("item", v)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(qty)
		if err != nil {
			return nil, fmt.Errorf("%w: --item %q: count must be an integer", engine.ErrValidation, v)
		}
		out = append(out, greenops.LifestyleEntry{Category: greenops.LifestyleKind(kind), ItemsCount: n})
	}
	return out, nil
}

// ActivityFromFlags assembles an activity from repeated CLI flag values.
func ActivityFromFlags(transport, meals, items []string, kwh float64) (greenops.Activity, error) {
	t, err := ParseTransportFlags(transport)
	if err != nil {
		return greenops.Activity{}, err
	}
	m, err := ParseMealFlags(meals)
	if err != nil {
		return greenops.Activity{}, err
	}
	i, err := ParseItemFlags(items)
	if err != nil {
		return greenops.Activity{}, err
	}
	return greenops.Activity{Transportation: t, ElectricityKwh: kwh, Food: m, Lifestyle: i}, nil
}
