package geo

import (
	"math"
	"strconv"

	"geocalendar/models"
)

// DefaultPrecision is the number of decimal digits kept in a bucket key.
// Every process sharing a network must use the same value.
const DefaultPrecision = 3

// maxPrecision keeps scaled coordinates well inside the exact integer range
// of a float64.
const maxPrecision = 9

// BucketKey is a quantized position. Two positions share a bucket iff they
// quantize to the same key.
type BucketKey models.Coordinates

// Coordinates returns the key as a plain position (the centre of its cell).
func (k BucketKey) Coordinates() models.Coordinates { return models.Coordinates(k) }

func (k BucketKey) String() string { return models.Coordinates(k).String() }

// Quantizer rounds positions to a fixed decimal precision.
type Quantizer struct {
	digits int
	scale  float64
}

// NewQuantizer returns a quantizer keeping digits decimal places. Values
// outside [0, 9] are clamped.
func NewQuantizer(digits int) Quantizer {
	digits = min(max(digits, 0), maxPrecision)
	return Quantizer{digits: digits, scale: math.Pow10(digits)}
}

// DefaultQuantizer returns a quantizer with DefaultPrecision digits.
func DefaultQuantizer() Quantizer { return NewQuantizer(DefaultPrecision) }

// Digits reports the number of decimal places kept.
func (q Quantizer) Digits() int { return q.digits }

// Step is the width of one cell in degrees.
func (q Quantizer) Step() float64 { return 1 / q.scale }

// Quantize returns the bucket key for c.
func (q Quantizer) Quantize(c models.Coordinates) BucketKey {
	return BucketKey{
		Lat: q.value(q.index(c.Lat)),
		Lon: q.value(q.index(c.Lon)),
	}
}

// Cell returns the south-west and north-east corners of the cell named by k.
// Both edges are inclusive, so positions exactly on an edge are also
// reported by the neighbouring cell.
func (q Quantizer) Cell(k BucketKey) (sw, ne models.Coordinates) {
	half := q.Step() / 2
	return models.Coordinates{Lat: k.Lat - half, Lon: k.Lon - half},
		models.Coordinates{Lat: k.Lat + half, Lon: k.Lon + half}
}

// index returns the integral cell number holding v. Halfway values round away
// from zero. Rounding happens on the shortest decimal form of the scaled value
// so that a half step written in decimal (10.0005) is not pulled below the
// boundary by its binary representation.
func (q Quantizer) index(v float64) float64 {
	scaled := v * q.scale
	if trimmed, err := strconv.ParseFloat(strconv.FormatFloat(scaled, 'g', 15, 64), 64); err == nil {
		scaled = trimmed
	}
	return math.Round(scaled)
}

// value converts a cell number back to degrees.
func (q Quantizer) value(i float64) float64 {
	v := i / q.scale
	if v == 0 {
		// -0 and +0 must format identically.
		return 0
	}
	return v
}

// bounds returns the closed interval of degrees covered by cell i.
func (q Quantizer) bounds(i float64) (lo, hi float64) {
	return (i - 0.5) / q.scale, (i + 0.5) / q.scale
}
