package geo

import (
	"testing"

	"geocalendar/models"
)

func TestQuantize(t *testing.T) {
	q := DefaultQuantizer()
	cases := []struct {
		name     string
		input    models.Coordinates
		expected BucketKey
	}{
		{"below half step", models.Coordinates{Lat: 10.0004, Lon: 20.0004}, BucketKey{Lat: 10, Lon: 20}},
		{"same cell", models.Coordinates{Lat: 10.00044, Lon: 20.00041}, BucketKey{Lat: 10, Lon: 20}},
		{"half step rounds up", models.Coordinates{Lat: 10.0005, Lon: 20.0005}, BucketKey{Lat: 10.001, Lon: 20.001}},
		{"above half step", models.Coordinates{Lat: 10.0006, Lon: 20.0009}, BucketKey{Lat: 10.001, Lon: 20.001}},
		{"negative half step away from zero", models.Coordinates{Lat: -10.0005, Lon: -0.0005}, BucketKey{Lat: -10.001, Lon: -0.001}},
		{"negative below half step", models.Coordinates{Lat: -10.0004, Lon: -20.0001}, BucketKey{Lat: -10, Lon: -20}},
		{"already quantized", models.Coordinates{Lat: 45.406, Lon: 11.877}, BucketKey{Lat: 45.406, Lon: 11.877}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := q.Quantize(tc.input); got != tc.expected {
				t.Fatalf("Quantize(%v) = %v; want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestQuantizeDeterministic(t *testing.T) {
	q := DefaultQuantizer()
	c := models.Coordinates{Lat: 45.40649, Lon: 11.87681}
	first := q.Quantize(c)
	for i := 0; i < 100; i++ {
		if got := q.Quantize(c); got != first {
			t.Fatalf("iteration %d: Quantize(%v) = %v; want %v", i, c, got, first)
		}
	}
	if got := NewQuantizer(DefaultPrecision).Quantize(c); got != first {
		t.Fatalf("fresh quantizer produced %v; want %v", got, first)
	}
}

func TestQuantizeNegativeZero(t *testing.T) {
	q := DefaultQuantizer()
	k := q.Quantize(models.Coordinates{Lat: -0.0001, Lon: 0.0001})
	if k.String() != "0,0" {
		t.Fatalf("String() = %q; want %q", k.String(), "0,0")
	}
}

func TestNewQuantizerPrecision(t *testing.T) {
	cases := []struct {
		name     string
		digits   int
		input    float64
		expected float64
		want     int
	}{
		{"zero digits", 0, 2.5, 3, 0},
		{"one digit", 1, 2.25, 2.3, 1},
		{"negative clamps to zero", -2, 7.5, 8, 0},
		{"large clamps to max", 30, 1.5, 1.5, maxPrecision},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := NewQuantizer(tc.digits)
			if q.Digits() != tc.want {
				t.Fatalf("Digits() = %d; want %d", q.Digits(), tc.want)
			}
			got := q.Quantize(models.Coordinates{Lat: tc.input}).Lat
			if got != tc.expected {
				t.Fatalf("Quantize(%v).Lat = %v; want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestBucketKeyIsComparable(t *testing.T) {
	q := DefaultQuantizer()
	seen := map[BucketKey]int{}
	seen[q.Quantize(models.Coordinates{Lat: 1.0001, Lon: 2.0001})]++
	seen[q.Quantize(models.Coordinates{Lat: 1.0002, Lon: 2.0002})]++
	if len(seen) != 1 {
		t.Fatalf("expected one bucket, got %d: %v", len(seen), seen)
	}
}

func TestQuantizerCell(t *testing.T) {
	q := DefaultQuantizer()
	k := BucketKey{Lat: 45.406, Lon: -11.877}
	sw, ne := q.Cell(k)

	for _, c := range []models.Coordinates{{Lat: 45.4064, Lon: -11.8774}, {Lat: 45.4058, Lon: -11.8768}} {
		if got := q.Quantize(c); got != k {
			t.Fatalf("Quantize(%v) = %v; want %v", c, got, k)
		}
		if c.Lat < sw.Lat || c.Lat > ne.Lat || c.Lon < sw.Lon || c.Lon > ne.Lon {
			t.Fatalf("%v outside cell [%v, %v]", c, sw, ne)
		}
	}
	if d := ne.Lat - sw.Lat; d < q.Step()*0.999 || d > q.Step()*1.001 {
		t.Fatalf("cell height %v; want %v", d, q.Step())
	}
}
