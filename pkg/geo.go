package pkg

import "math"

// Geometry constants shared by coverage accumulation and synthesis.
const (
	// MetersPerDegree is the meridional meters-per-degree constant. The
	// error against the true local value stays under 1% at the scales
	// coverage boxes reach.
	MetersPerDegree = 111225.0
	// MinCosine floors the latitude cosine so east-west conversions stay
	// finite near the poles.
	MinCosine = 0.01
)

// LatitudeCosine returns cos(lat) floored at MinCosine.
func LatitudeCosine(latitude float64) float64 {
	c := math.Cos(latitude * math.Pi / 180)
	if c < MinCosine {
		c = MinCosine
	}
	return c
}

// ApproxDistance returns the planar approximate distance in meters between
// two coordinates: Δlat and Δlon·cos(lat), scaled by MetersPerDegree. Good
// to well under 1% at coverage-box scales; not valid across the antimeridian.
func ApproxDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat1 - lat2) * MetersPerDegree
	dLon := (lon1 - lon2) * MetersPerDegree * LatitudeCosine((lat1+lat2)/2)
	return math.Hypot(dLat, dLon)
}
