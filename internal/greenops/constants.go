package greenops

// Transport factors, kg CO2e per passenger-km.
const (
	FactorCarPetrol = 0.192
	FactorCarDiesel = 0.171
	FactorBus       = 0.089
	FactorTrain     = 0.041
	// FactorFlight is a short-haul average.
	FactorFlight = 0.255
)

// FactorGridElectricity is kg CO2e per kWh for the India grid average.
const FactorGridElectricity = 0.82

// Food factors, kg CO2e per meal.
const (
	FactorMealVeg    = 2.0
	FactorMealNonVeg = 5.5
	FactorMealVegan  = 1.5
)

// Lifestyle factors, kg CO2e per item purchased.
const (
	FactorClothing    = 6.0
	FactorElectronics = 50.0
)

// Regions and sources cited by the factor table.
const (
	RegionIndia  = "India"
	RegionGlobal = "Global"

	SourceIPCC = "IPCC 2023 Guidelines"
	SourceCEA  = "Central Electricity Authority 2023"
	SourceOWID = "Our World in Data 2023"
)

// EPA Formula Constants (2024 Edition)
// Source: https://www.epa.gov/energy/greenhouse-gas-equivalencies-calculator
//
//	equivalency = kg_CO2e / factor
const (
	// EPAMilesDrivenFactor is kg CO2e per mile for average passenger vehicle.
	EPAMilesDrivenFactor = 0.192

	// EPASmartphoneChargeFactor is kg CO2e per smartphone charge.
	EPASmartphoneChargeFactor = 0.00822

	// EPATreeSeedlingFactor is kg CO2e absorbed per tree seedling over 10 years.
	EPATreeSeedlingFactor = 60.0
)

// Unit conversion factors to kilograms.
const (
	GramsToKg  = 0.001
	KgToKg     = 1.0
	TonsToKg   = 1000.0
	PoundsToKg = 0.453592
)

// Display thresholds.
const (
	// MinEquivalencyThresholdKg is the smallest total that gets equivalencies.
	// Below it the figures are meaninglessly small.
	MinEquivalencyThresholdKg = 1.0

	// TreeSeedlingThresholdKg is the smallest total that lists tree seedlings.
	TreeSeedlingThresholdKg = EPATreeSeedlingFactor

	// LargeNumberThreshold switches display to "~X.X million".
	LargeNumberThreshold = 1_000_000

	// BillionThreshold switches display to "~X.X billion".
	BillionThreshold = 1_000_000_000
)

// Decimal places used for persisted and reported values.
const (
	EmissionPrecision = 3
	SavingsPrecision  = 2
)
