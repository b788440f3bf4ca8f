package greenops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquivalencies(t *testing.T) {
	tests := []struct {
		name        string
		input       CarbonInput
		wantMiles   float64
		wantPhones  float64
		wantTrees   bool
		wantIsEmpty bool
		wantErr     error
	}{
		{
			name:       "150kg reference value",
			input:      CarbonInput{Value: 150.0, Unit: "kg"},
			wantMiles:  781.25,
			wantPhones: 18248.18,
			wantTrees:  true,
		},
		{
			name:       "grams normalized",
			input:      CarbonInput{Value: 150000.0, Unit: "g"},
			wantMiles:  781.25,
			wantPhones: 18248.18,
			wantTrees:  true,
		},
		{
			name:       "one day of emissions",
			input:      CarbonInput{Value: 16.04, Unit: "kgCO2e"},
			wantMiles:  83.54,
			wantPhones: 1951.34,
		},
		{
			name:        "below threshold",
			input:       CarbonInput{Value: 0.5, Unit: "kg"},
			wantIsEmpty: true,
		},
		{
			name:        "negative value",
			input:       CarbonInput{Value: -1, Unit: "kg"},
			wantIsEmpty: true,
			wantErr:     ErrNegativeValue,
		},
		{
			name:        "invalid unit",
			input:       CarbonInput{Value: 10, Unit: "stone"},
			wantIsEmpty: true,
			wantErr:     ErrInvalidUnit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Equivalencies(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantIsEmpty, out.IsEmpty)
			if tt.wantIsEmpty {
				assert.Empty(t, out.Results)
				return
			}

			require.GreaterOrEqual(t, len(out.Results), 2)
			assert.InEpsilon(t, tt.wantMiles, out.Results[0].Value, 0.01)
			assert.InEpsilon(t, tt.wantPhones, out.Results[1].Value, 0.01)
			assert.Equal(t, tt.wantTrees, len(out.Results) == 3)
			assert.Contains(t, out.DisplayText, "Equivalent to driving")
			assert.Contains(t, out.CompactText, "mi")
		})
	}
}

func TestEquivalenciesForKg(t *testing.T) {
	out := EquivalenciesForKg(16.04)
	require.False(t, out.IsEmpty)
	assert.Equal(t, "Equivalent to driving ~84 miles or charging ~1,951 smartphones", out.DisplayText)
	assert.Equal(t, "(≈ 84 mi, 1,951 phones)", out.CompactText)

	assert.True(t, EquivalenciesForKg(0).IsEmpty)
	assert.True(t, EquivalenciesForKg(-3).IsEmpty)
}

func TestEquivalencyTypeString(t *testing.T) {
	assert.Equal(t, "MilesDriven", EquivalencyMilesDriven.String())
	assert.Equal(t, "TreeSeedlings", EquivalencyTreeSeedlings.String())
	assert.Equal(t, "EquivalencyType(9)", EquivalencyType(9).String())
}
