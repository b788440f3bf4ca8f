package greenops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateEmissions(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		want     Emissions
	}{
		{
			name: "reference day",
			activity: Activity{
				Transportation: []TransportEntry{{Mode: ModeCarPetrol, DistanceKm: 20}},
				ElectricityKwh: 10,
				Food:           []FoodEntry{{MealType: MealVeg, MealsCount: 2}},
			},
			want: Emissions{
				Transport: 3.84, Electricity: 8.2, Food: 4.0, Lifestyle: 0,
				Total: 16.04, HighestCategory: CategoryElectricity,
			},
		},
		{
			name:     "empty day defaults to transportation",
			activity: Activity{},
			want:     Emissions{HighestCategory: CategoryTransportation},
		},
		{
			name: "multiple trips and items",
			activity: Activity{
				Transportation: []TransportEntry{
					{Mode: ModeBus, DistanceKm: 10},
					{Mode: ModeFlight, DistanceKm: 100},
				},
				Lifestyle: []LifestyleEntry{
					{Category: LifestyleClothing, ItemsCount: 2},
					{Category: LifestyleElectronics, ItemsCount: 1},
				},
			},
			want: Emissions{
				Transport: 26.39, Lifestyle: 62,
				Total: 88.39, HighestCategory: CategoryLifestyle,
			},
		},
		{
			name: "unknown mode contributes nothing",
			activity: Activity{
				Transportation: []TransportEntry{{Mode: "rocket", DistanceKm: 1000}},
				Food:           []FoodEntry{{MealType: MealNonVeg, MealsCount: 1}},
			},
			want: Emissions{Food: 5.5, Total: 5.5, HighestCategory: CategoryFood},
		},
		{
			name: "tie goes to earlier category",
			activity: Activity{
				Food:      []FoodEntry{{MealType: MealVeg, MealsCount: 3}},
				Lifestyle: []LifestyleEntry{{Category: LifestyleClothing, ItemsCount: 1}},
			},
			want: Emissions{Food: 6, Lifestyle: 6, Total: 12, HighestCategory: CategoryFood},
		},
		{
			name: "rounded to three decimals",
			activity: Activity{
				Transportation: []TransportEntry{{Mode: ModeTrain, DistanceKm: 1.2345}},
			},
			want: Emissions{Transport: 0.051, Total: 0.051, HighestCategory: CategoryTransportation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateEmissions(tt.activity)
			assert.InDelta(t, tt.want.Transport, got.Transport, 1e-9)
			assert.InDelta(t, tt.want.Electricity, got.Electricity, 1e-9)
			assert.InDelta(t, tt.want.Food, got.Food, 1e-9)
			assert.InDelta(t, tt.want.Lifestyle, got.Lifestyle, 1e-9)
			assert.InDelta(t, tt.want.Total, got.Total, 1e-9)
			assert.Equal(t, tt.want.HighestCategory, got.HighestCategory)
		})
	}
}

func TestCalculateEmissions_Properties(t *testing.T) {
	a := Activity{
		Transportation: []TransportEntry{{Mode: ModeCarDiesel, DistanceKm: 37.7}},
		ElectricityKwh: 4.333,
		Food:           []FoodEntry{{MealType: MealVegan, MealsCount: 3}},
		Lifestyle:      []LifestyleEntry{{Category: LifestyleClothing, ItemsCount: 1}},
	}

	first := CalculateEmissions(a)
	second := CalculateEmissions(a)
	assert.Equal(t, first, second, "recalculation must be identical")

	assert.Equal(t, Round3(first.Transport+first.Electricity+first.Food+first.Lifestyle), first.Total)
	for _, c := range EmissionCategories() {
		v := first.ByCategory(c)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Equal(t, Round3(v), v, "category %s not at 3 decimals", c)
	}
}

func TestHighestCategory(t *testing.T) {
	assert.Equal(t, CategoryTransportation, HighestCategory(0, 0, 0, 0))
	assert.Equal(t, CategoryElectricity, HighestCategory(1, 2, 2, 2))
	assert.Equal(t, CategoryLifestyle, HighestCategory(1, 2, 3, 4))
}

func TestDominantCategory(t *testing.T) {
	assert.Equal(t, CategoryNone, DominantCategory(0, 0, 0, 0))
	assert.Equal(t, CategoryFood, DominantCategory(0, 1, 5, 1))
	assert.Equal(t, CategoryTransportation, DominantCategory(3, 3, 0, 0))
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 1.235, Round3(1.23456), 1e-12)
	assert.InDelta(t, 1.23, Round2(1.23456), 1e-12)
	assert.InDelta(t, 0.0, Round3(0.0004), 1e-12)
}
