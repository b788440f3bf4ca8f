package greenops

import "fmt"

// Factor table categories. These name the table rows and differ from the
// Category labels on records ("transport" vs "transportation").
const (
	FactorCategoryTransport   = "transport"
	FactorCategoryElectricity = "electricity"
	FactorCategoryFood        = "food"
	FactorCategoryLifestyle   = "lifestyle"
)

// EmissionFactor is one row of the reference table.
type EmissionFactor struct {
	Category string  `json:"category"`
	Subtype  string  `json:"subtype"`
	Unit     string  `json:"unit"`
	Factor   float64 `json:"factor"`
	Region   string  `json:"region"`
	Source   string  `json:"source"`
}

// Factors returns a copy of the emission factor table in category order.
func Factors() []EmissionFactor {
	return []EmissionFactor{
		{FactorCategoryTransport, string(ModeCarPetrol), "km", FactorCarPetrol, RegionIndia, SourceIPCC},
		{FactorCategoryTransport, string(ModeCarDiesel), "km", FactorCarDiesel, RegionIndia, SourceIPCC},
		{FactorCategoryTransport, string(ModeBus), "km", FactorBus, RegionIndia, SourceIPCC},
		{FactorCategoryTransport, string(ModeTrain), "km", FactorTrain, RegionIndia, SourceIPCC},
		{FactorCategoryTransport, string(ModeFlight), "km", FactorFlight, RegionGlobal, SourceIPCC},
		{FactorCategoryElectricity, "grid", "kWh", FactorGridElectricity, RegionIndia, SourceCEA},
		{FactorCategoryFood, string(MealVeg), "meal", FactorMealVeg, RegionGlobal, SourceOWID},
		{FactorCategoryFood, string(MealNonVeg), "meal", FactorMealNonVeg, RegionGlobal, SourceOWID},
		{FactorCategoryFood, string(MealVegan), "meal", FactorMealVegan, RegionGlobal, SourceOWID},
		{FactorCategoryLifestyle, string(LifestyleClothing), "item", FactorClothing, RegionGlobal, SourceOWID},
		{FactorCategoryLifestyle, string(LifestyleElectronics), "item", FactorElectronics, RegionGlobal, SourceOWID},
	}
}

// LookupFactor returns the factor row for a category and subtype.
func LookupFactor(category, subtype string) (EmissionFactor, error) {
	for _, f := range Factors() {
		if f.Category == category && f.Subtype == subtype {
			return f, nil
		}
	}
	return EmissionFactor{}, fmt.Errorf("%w: %s/%s", ErrUnknownFactor, category, subtype)
}

// SelectFactors narrows the table to one category, or to one row when
// subtype is also set. Empty arguments select the whole table; a subtype
// needs a category.
func SelectFactors(category, subtype string) ([]EmissionFactor, error) {
	switch {
	case category == "" && subtype == "":
		return Factors(), nil
	case category == "":
		return nil, fmt.Errorf("%w: subtype %q given without a category", ErrUnknownFactor, subtype)
	case subtype != "":
		f, err := LookupFactor(category, subtype)
		if err != nil {
			return nil, err
		}
		return []EmissionFactor{f}, nil
	}

	var out []EmissionFactor
	for _, f := range Factors() {
		if f.Category == category {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: category %q", ErrUnknownFactor, category)
	}
	return out, nil
}

// TransportFactor returns kg CO2e per km for mode. Unknown modes return
// (0, false).
func TransportFactor(mode TransportMode) (float64, bool) {
	switch mode {
	case ModeCarPetrol:
		return FactorCarPetrol, true
	case ModeCarDiesel:
		return FactorCarDiesel, true
	case ModeBus:
		return FactorBus, true
	case ModeTrain:
		return FactorTrain, true
	case ModeFlight:
		return FactorFlight, true
	default:
		return 0, false
	}
}

// MealFactor returns kg CO2e per meal of type t.
func MealFactor(t MealType) (float64, bool) {
	switch t {
	case MealVeg:
		return FactorMealVeg, true
	case MealNonVeg:
		return FactorMealNonVeg, true
	case MealVegan:
		return FactorMealVegan, true
	default:
		return 0, false
	}
}

// LifestyleFactor returns kg CO2e per item of kind k.
func LifestyleFactor(k LifestyleKind) (float64, bool) {
	switch k {
	case LifestyleClothing:
		return FactorClothing, true
	case LifestyleElectronics:
		return FactorElectronics, true
	default:
		return 0, false
	}
}

// TransportModes lists the supported transport modes.
func TransportModes() []TransportMode {
	return []TransportMode{ModeCarPetrol, ModeCarDiesel, ModeBus, ModeTrain, ModeFlight}
}

// MealTypes lists the supported meal types.
func MealTypes() []MealType {
	return []MealType{MealVeg, MealNonVeg, MealVegan}
}

// LifestyleKinds lists the supported lifestyle item categories.
func LifestyleKinds() []LifestyleKind {
	return []LifestyleKind{LifestyleClothing, LifestyleElectronics}
}
