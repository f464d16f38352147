package geo

import (
	"math"

	"geocalendar/models"
)

// EarthRadiusMeters is the mean Earth radius used for all distance maths.
const EarthRadiusMeters = 6371008.8

// MetersPerDegree is the length of one degree of latitude on the sphere.
const MetersPerDegree = EarthRadiusMeters * math.Pi / 180

// Distance returns the great-circle distance between a and b in metres.
func Distance(a, b models.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
