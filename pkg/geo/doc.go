// Package geo maps continuous positions onto the discrete bucket keys used by
// the event network.
//
// A Quantizer rounds latitude and longitude to a fixed number of decimal
// digits, half-up away from zero. Every rounded pair is a BucketKey and names
// one cell of roughly 10^-digits degrees on each side. Coverage enumerates the
// cells a circular query has to visit.
//
// Everything in this package is pure and safe for concurrent use.
package geo
