// Package units provides shared constants and conversions for speed units
package units

// Unit constants
const (
	MPS   = "mps"
	KMPH  = "kmph"
	KPH   = "kph"
	KNOTS = "knots"
)

// KnotsPerMps converts meters per second to nautical knots. NMEA sentences
// carry ground speed in knots.
const KnotsPerMps = 1.943844492

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, KMPH, KPH, KNOTS}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, kmph, kph, knots"
}

// KmhToMps converts kilometres per hour to meters per second.
func KmhToMps(kmh float64) float64 {
	return kmh / 3.6
}

// MpsToKmh converts meters per second to kilometres per hour.
func MpsToKmh(mps float64) float64 {
	return mps * 3.6
}

// MpsToKnots converts meters per second to knots.
func MpsToKnots(mps float64) float64 {
	return mps * KnotsPerMps
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Motion plans and telemetry store speeds in m/s (meters per second).
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case KMPH, KPH:
		return MpsToKmh(speedMPS)
	case KNOTS:
		return MpsToKnots(speedMPS)
	case MPS:
		return speedMPS // no conversion needed
	default:
		return speedMPS // default to m/s if unknown unit
	}
}
