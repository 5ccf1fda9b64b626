// Package geo provides great-circle math for route geometry: distances,
// bearings and interpolation between waypoints. All angles are degrees,
// distances are meters.
package geo

import "math"

// EarthRadiusM is the mean Earth radius used for haversine distances.
const EarthRadiusM = 6371000.0

// HaversineM returns the great-circle distance in meters between two
// lat/lon points.
func HaversineM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// InitialBearingDeg returns the initial great-circle bearing from point 1
// toward point 2, normalised to [0, 360).
func InitialBearingDeg(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	theta := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(theta+360, 360)
}

// Interpolate returns the point a fraction frac of the way from point 1 to
// point 2. Linear interpolation is fine at the segment lengths routes use;
// segments long enough for great-circle curvature to matter should be split.
func Interpolate(lat1, lon1, lat2, lon2, frac float64) (lat, lon float64) {
	return lat1 + (lat2-lat1)*frac, lon1 + (lon2-lon1)*frac
}

// SignedDeltaDeg returns the shortest signed angular difference from one
// bearing to another in [-180, 180). Positive means a clockwise turn.
func SignedDeltaDeg(fromDeg, toDeg float64) float64 {
	d := math.Mod(toDeg-fromDeg+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}

// TurnAngleDeg returns the unsigned turn magnitude between two bearings,
// in [0, 180].
func TurnAngleDeg(fromDeg, toDeg float64) float64 {
	return math.Abs(SignedDeltaDeg(fromDeg, toDeg))
}

// NormalizeBearingDeg wraps an arbitrary bearing into [0, 360).
func NormalizeBearingDeg(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}
