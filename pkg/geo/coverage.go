package geo

import (
	"math"

	"geocalendar/models"
)

// coverageMargin widens the distance test slightly. The nearest point of a
// cell is approximated by clamping the centre into the cell, which overshoots
// the true great-circle minimum by a small poleward bulge.
const coverageMargin = 1.01

// minCos bounds the longitude scale near the poles.
const minCos = 1e-6

// Coverage enumerates the buckets a circular query must visit.
//
// Radii are expected to be small compared to the Earth: queries are not
// wrapped across the antimeridian and latitude is clamped at the poles.
type Coverage struct {
	q Quantizer
}

// NewCoverage returns a Coverage over the cells of q.
func NewCoverage(q Quantizer) Coverage {
	return Coverage{q: q}
}

// Cells returns every bucket whose cell could hold a point within
// radiusMeters of center, ordered by latitude then longitude. The result is
// never empty and always holds the bucket of center itself. A negative or NaN
// radius is treated as zero. Growing the radius never removes a bucket.
func (c Coverage) Cells(center models.Coordinates, radiusMeters float64) []BucketKey {
	if !(radiusMeters > 0) {
		radiusMeters = 0
	}
	home := c.q.Quantize(center)
	if radiusMeters == 0 {
		return []BucketKey{home}
	}

	dLat := radiusMeters / MetersPerDegree
	latLo := clamp(center.Lat-dLat, -90, 90)
	latHi := clamp(center.Lat+dLat, -90, 90)

	// A degree of longitude is shortest at the latitude furthest from the
	// equator, so that latitude decides how far east and west to look.
	widest := math.Max(math.Abs(latLo), math.Abs(latHi))
	cos := math.Max(math.Cos(widest*math.Pi/180), minCos)
	dLon := math.Min(radiusMeters/(MetersPerDegree*cos), 180)

	iLatLo, iLatHi := c.q.index(latLo), c.q.index(latHi)
	iLonLo, iLonHi := c.q.index(center.Lon-dLon), c.q.index(center.Lon+dLon)

	limit := radiusMeters * coverageMargin
	var keys []BucketKey
	sawHome := false
	for i := iLatLo; i <= iLatHi; i++ {
		for j := iLonLo; j <= iLonHi; j++ {
			k := BucketKey{Lat: c.q.value(i), Lon: c.q.value(j)}
			if k == home {
				sawHome = true
				keys = append(keys, k)
				continue
			}
			if c.nearest(center, i, j) <= limit {
				keys = append(keys, k)
			}
		}
	}
	if !sawHome {
		// Only reachable when center lies outside the clamped latitude range.
		keys = append([]BucketKey{home}, keys...)
	}
	return keys
}

// nearest approximates the distance from p to the closest point of cell (i, j).
func (c Coverage) nearest(p models.Coordinates, i, j float64) float64 {
	latLo, latHi := c.q.bounds(i)
	lonLo, lonHi := c.q.bounds(j)
	return Distance(p, models.Coordinates{
		Lat: clamp(p.Lat, latLo, latHi),
		Lon: clamp(p.Lon, lonLo, lonHi),
	})
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
