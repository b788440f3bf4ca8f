// Package greenops holds the carbon arithmetic of planetzero.
//
// It owns the immutable emission factor table, the pure calculator that turns
// one day of raw activity into per-category kg CO2e, and the presentation
// helpers that express a kg CO2e figure as relatable real-world equivalencies
// like "miles driven" or "smartphones charged".
package greenops

import "fmt"

// Category is an emission category as reported on records and summaries.
type Category string

// Categories in tie-break order. CategoryNone and CategoryGeneral never label
// an emission total; they appear on empty summaries and fallback advice.
const (
	CategoryTransportation Category = "transportation"
	CategoryElectricity    Category = "electricity"
	CategoryFood           Category = "food"
	CategoryLifestyle      Category = "lifestyle"

	CategoryNone    Category = "none"
	CategoryGeneral Category = "general"
)

// EmissionCategories lists the four emission categories in tie-break order.
func EmissionCategories() []Category {
	return []Category{CategoryTransportation, CategoryElectricity, CategoryFood, CategoryLifestyle}
}

// TransportMode is a mode of travel with a per-km factor.
type TransportMode string

// Supported transport modes.
const (
	ModeCarPetrol TransportMode = "car_petrol"
	ModeCarDiesel TransportMode = "car_diesel"
	ModeBus       TransportMode = "bus"
	ModeTrain     TransportMode = "train"
	ModeFlight    TransportMode = "flight"
)

// MealType is a kind of meal with a per-meal factor.
type MealType string

// Supported meal types.
const (
	MealVeg    MealType = "veg"
	MealNonVeg MealType = "non_veg"
	MealVegan  MealType = "vegan"
)

// LifestyleKind is a purchased item category with a per-item factor.
type LifestyleKind string

// Supported lifestyle item categories.
const (
	LifestyleClothing    LifestyleKind = "clothing"
	LifestyleElectronics LifestyleKind = "electronics"
)

// TransportEntry is one trip.
type TransportEntry struct {
	Mode       TransportMode `json:"mode"        yaml:"mode"`
	DistanceKm float64       `json:"distance_km" yaml:"distance_km"`
}

// FoodEntry is a number of meals of one type.
type FoodEntry struct {
	MealType   MealType `json:"meal_type"   yaml:"meal_type"`
	MealsCount int      `json:"meals_count" yaml:"meals_count"`
}

// LifestyleEntry is a number of purchased items of one category.
type LifestyleEntry struct {
	Category   LifestyleKind `json:"category"    yaml:"category"`
	ItemsCount int           `json:"items_count" yaml:"items_count"`
}

// Activity is one user's raw activity for one day.
type Activity struct {
	Transportation []TransportEntry `json:"transportation"  yaml:"transportation"`
	ElectricityKwh float64          `json:"electricity_kwh" yaml:"electricity_kwh"`
	Food           []FoodEntry      `json:"food"            yaml:"food"`
	Lifestyle      []LifestyleEntry `json:"lifestyle"       yaml:"lifestyle"`
}

// Emissions is the calculator output for one Activity. All values are kg CO2e
// rounded to 3 decimals.
type Emissions struct {
	Transport       float64  `json:"transport_emissions"`
	Electricity     float64  `json:"electricity_emissions"`
	Food            float64  `json:"food_emissions"`
	Lifestyle       float64  `json:"lifestyle_emissions"`
	Total           float64  `json:"total_emissions"`
	HighestCategory Category `json:"highest_category"`
}

// ByCategory returns the emission value for an emission category, or 0.
func (e Emissions) ByCategory(c Category) float64 {
	switch c {
	case CategoryTransportation:
		return e.Transport
	case CategoryElectricity:
		return e.Electricity
	case CategoryFood:
		return e.Food
	case CategoryLifestyle:
		return e.Lifestyle
	default:
		return 0
	}
}

// EquivalencyType represents a category of carbon emission equivalency.
type EquivalencyType int

const (
	// EquivalencyMilesDriven converts CO2e to miles driven in an average passenger vehicle.
	EquivalencyMilesDriven EquivalencyType = iota

	// EquivalencySmartphonesCharged converts CO2e to smartphone full charges.
	EquivalencySmartphonesCharged

	// EquivalencyTreeSeedlings converts CO2e to tree seedlings grown for 10 years.
	EquivalencyTreeSeedlings
)

// String returns a human-readable representation of the EquivalencyType.
func (e EquivalencyType) String() string {
	switch e {
	case EquivalencyMilesDriven:
		return "MilesDriven"
	case EquivalencySmartphonesCharged:
		return "SmartphonesCharged"
	case EquivalencyTreeSeedlings:
		return "TreeSeedlings"
	default:
		return fmt.Sprintf("EquivalencyType(%d)", e)
	}
}

// MarshalText renders the type by name in JSON output.
func (e EquivalencyType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// CarbonInput is a carbon amount in any recognized unit.
type CarbonInput struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// EquivalencyResult represents a single calculated equivalency.
type EquivalencyResult struct {
	Type           EquivalencyType `json:"type"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formatted_value"`
	Label          string          `json:"label"`
}

// EquivalencyOutput contains all equivalency results for one carbon amount.
type EquivalencyOutput struct {
	// InputKg is the normalized input value in kilograms CO2e.
	InputKg float64 `json:"input_kg"`

	// Results contains calculated equivalencies in display order.
	Results []EquivalencyResult `json:"results,omitempty"`

	// DisplayText is the prose form, e.g.
	// "Equivalent to driving ~84 miles or charging ~1,951 smartphones".
	DisplayText string `json:"display_text,omitempty"`

	// CompactText is the abbreviated form for table cells, e.g. "(≈ 84 mi, 1,951 phones)".
	CompactText string `json:"compact_text,omitempty"`

	IsEmpty bool `json:"is_empty"`
}
