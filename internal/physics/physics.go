package physics

import "math"

// Constants
const (
	MetersToFeetFactor = 3.28084  // Feet per meter
	FeetToMetersFactor = 0.3048   // Meters per foot
	NMToMetersFactor   = 1852.0   // Meters per nautical mile
	KnotsToMs          = 0.514444 // Conversion factor from Knots to m/s

	// Feet per minute of descent per knot of ground speed per unit of tan(angle):
	// 1 kt = 6076.12 ft/h = 101.27 ft/min
	FtPerMinPerKnot = 6076.12 / 60
)

// MetersToFeet converts meters to feet
func MetersToFeet(m float64) float64 {
	return m * MetersToFeetFactor
}

// FeetToMeters converts feet to meters
func FeetToMeters(ft float64) float64 {
	return ft * FeetToMetersFactor
}

// KmToNM converts kilometers to nautical miles
func KmToNM(km float64) float64 {
	return km * 1000 / NMToMetersFactor
}

// NMToKm converts nautical miles to kilometers
func NMToKm(nm float64) float64 {
	return nm * NMToMetersFactor / 1000
}

// KnotsToMetersPerSecond converts a speed in knots to m/s
func KnotsToMetersPerSecond(kts float64) float64 {
	return kts * KnotsToMs
}

// DegreesToRadians converts an angle in degrees to radians
func DegreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ------------------------------------------------------------------------------------------------
// DESCENT PROFILE
// ------------------------------------------------------------------------------------------------

// DescentGradientPercent returns the climb/descent gradient of a path at the given angle, in percent
func DescentGradientPercent(angleDeg float64) float64 {
	return math.Tan(DegreesToRadians(angleDeg)) * 100
}

// DescentGradientFtPerNM returns the height lost per nautical mile along a path at the given angle
// e.g. ~318 ft/NM for a 3 degree glide slope
func DescentGradientFtPerNM(angleDeg float64) float64 {
	return math.Tan(DegreesToRadians(angleDeg)) * NMToMetersFactor * MetersToFeetFactor
}

// RateOfDescent returns the vertical speed (ft/min) needed to hold a path at the given
// angle for a ground speed in knots
func RateOfDescent(groundSpeedKts float64, angleDeg float64) float64 {
	if groundSpeedKts <= 0 {
		return 0
	}
	return groundSpeedKts * FtPerMinPerKnot * math.Tan(DegreesToRadians(angleDeg))
}
