package units

// MetersPerSecondToKnots is the fixed conversion factor between m/s and knots.
const MetersPerSecondToKnots = 1.943844

// ToKnots converts a wind speed from metres per second to knots.
func ToKnots(ms float64) float64 {
	return ms * MetersPerSecondToKnots
}

// ToMS converts a wind speed from knots to metres per second.
func ToMS(knots float64) float64 {
	return knots / MetersPerSecondToKnots
}
