package greenops

import (
	"fmt"
	"math"
)

// Equivalencies expresses a carbon amount as miles driven and smartphones
// charged, plus tree seedlings once the amount is large enough to need one.
//
// Inputs below MinEquivalencyThresholdKg return an empty output with InputKg
// set and no error.
func Equivalencies(input CarbonInput) (EquivalencyOutput, error) {
	kg, err := NormalizeToKg(input.Value, input.Unit)
	if err != nil {
		return EquivalencyOutput{IsEmpty: true}, err
	}
	if kg < MinEquivalencyThresholdKg {
		return EquivalencyOutput{InputKg: kg, IsEmpty: true}, nil
	}

	miles := kg / EPAMilesDrivenFactor
	phones := kg / EPASmartphoneChargeFactor
	if math.IsInf(miles, 0) || math.IsInf(phones, 0) {
		return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
	}

	milesText := formatEquivalencyValue(miles)
	phonesText := formatEquivalencyValue(phones)
	results := []EquivalencyResult{
		{Type: EquivalencyMilesDriven, Value: miles, FormattedValue: milesText, Label: "miles driven"},
		{Type: EquivalencySmartphonesCharged, Value: phones, FormattedValue: phonesText, Label: "smartphones charged"},
	}
	if kg >= TreeSeedlingThresholdKg {
		trees := kg / EPATreeSeedlingFactor
		results = append(results, EquivalencyResult{
			Type:           EquivalencyTreeSeedlings,
			Value:          trees,
			FormattedValue: formatEquivalencyValue(trees),
			Label:          "tree seedlings grown for 10 years",
		})
	}

	return EquivalencyOutput{
		InputKg: kg,
		Results: results,
		DisplayText: fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones",
			milesText, phonesText),
		CompactText: fmt.Sprintf("(≈ %s mi, %s phones)", milesText, phonesText),
	}, nil
}

// EquivalenciesForKg is Equivalencies for a value already in kilograms. Errors
// collapse to an empty output since kg totals from the calculator are never
// negative.
func EquivalenciesForKg(kg float64) EquivalencyOutput {
	out, err := Equivalencies(CarbonInput{Value: kg, Unit: "kg"})
	if err != nil {
		return EquivalencyOutput{IsEmpty: true}
	}
	return out
}

func formatEquivalencyValue(v float64) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
