package service

import "math"

// GRS80 ellipsoid.
const (
	semiMajorAxis = 6378137.0
	semiMinorAxis = 6356752.314140
)

var eccentricitySq = (semiMajorAxis*semiMajorAxis - semiMinorAxis*semiMinorAxis) / (semiMajorAxis * semiMajorAxis)

// DistanceKm returns the surface distance in kilometres between two points using
// the Hubeny approximation. It is tuned for short regional separations and does
// not validate its inputs.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := toRad(lat1), toRad(lat2)
	dPhi := phi1 - phi2
	dLambda := toRad(lon1) - toRad(lon2)
	meanPhi := (phi1 + phi2) / 2

	sinMean := math.Sin(meanPhi)
	w2 := 1 - eccentricitySq*sinMean*sinMean
	w := math.Sqrt(w2)

	m := semiMajorAxis * (1 - eccentricitySq) / (w2 * w)
	n := semiMajorAxis / w

	ns := m * dPhi
	ew := n * math.Cos(meanPhi) * dLambda
	return math.Sqrt(ns*ns+ew*ew) / 1000
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
