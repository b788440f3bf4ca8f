package greenops

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors, comparable with errors.Is.
var (
	// ErrInvalidUnit indicates an unrecognized carbon unit.
	ErrInvalidUnit = constError("invalid carbon unit")

	// ErrNegativeValue indicates a negative carbon value.
	ErrNegativeValue = constError("negative carbon value")

	// ErrCalculationOverflow indicates an infinite or NaN intermediate value.
	ErrCalculationOverflow = constError("calculation overflow")

	// ErrUnknownFactor indicates a (category, subtype) pair with no factor.
	ErrUnknownFactor = constError("unknown emission factor")
)
