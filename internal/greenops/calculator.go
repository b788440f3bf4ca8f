package greenops

import "math"

// Round3 rounds to 3 decimal places, the precision of every persisted value.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Round2 rounds to 2 decimal places, used for savings estimates.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculateEmissions converts one day of activity into per-category and total
// kg CO2e. It does no validation: unknown enum values contribute 0, so inputs
// must be checked at the boundary first. The result depends only on a.
func CalculateEmissions(a Activity) Emissions {
	var transport float64
	for _, t := range a.Transportation {
		f, _ := TransportFactor(t.Mode)
		transport += t.DistanceKm * f
	}

	electricity := a.ElectricityKwh * FactorGridElectricity

	var food float64
	for _, m := range a.Food {
		f, _ := MealFactor(m.MealType)
		food += float64(m.MealsCount) * f
	}

	var lifestyle float64
	for _, l := range a.Lifestyle {
		f, _ := LifestyleFactor(l.Category)
		lifestyle += float64(l.ItemsCount) * f
	}

	e := Emissions{
		Transport:   Round3(transport),
		Electricity: Round3(electricity),
		Food:        Round3(food),
		Lifestyle:   Round3(lifestyle),
	}
	e.Total = Round3(e.Transport + e.Electricity + e.Food + e.Lifestyle)
	e.HighestCategory = HighestCategory(e.Transport, e.Electricity, e.Food, e.Lifestyle)
	return e
}

// HighestCategory returns the category with the largest value. Ties go to the
// earliest category in transportation, electricity, food, lifestyle order, so
// all-zero input yields transportation.
func HighestCategory(transport, electricity, food, lifestyle float64) Category {
	values := [...]float64{transport, electricity, food, lifestyle}
	cats := EmissionCategories()
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return cats[best]
}

// DominantCategory is HighestCategory for aggregated totals: it returns
// CategoryNone when every value is zero.
func DominantCategory(transport, electricity, food, lifestyle float64) Category {
	if transport <= 0 && electricity <= 0 && food <= 0 && lifestyle <= 0 {
		return CategoryNone
	}
	return HighestCategory(transport, electricity, food, lifestyle)
}
