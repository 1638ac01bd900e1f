// Package units provides shared constants and conversion for distance units.
package units

// Unit constants
const (
	CM = "cm"
	M  = "m"
	MM = "mm"
	FT = "ft"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{CM, M, MM, FT}

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
	return "cm, m, mm, ft"
}

// ConvertDistance converts a depth from centimetres to the target units.
// Detector depth estimates arrive in centimetres.
func ConvertDistance(distanceCM float64, targetUnits string) float64 {
	switch targetUnits {
	case M:
		return distanceCM / 100
	case MM:
		return distanceCM * 10
	case FT:
		return distanceCM / 30.48
	case CM:
		return distanceCM
	default:
		return distanceCM // default to cm if unknown unit
	}
}
