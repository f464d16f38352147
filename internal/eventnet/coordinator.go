package eventnet

import (
	"geocalendar/internal/network"
	"geocalendar/models"
	"geocalendar/pkg/geo"
)

// Positioned is anything anchored at exactly one position.
type Positioned interface {
	Position() models.Coordinates
}

// CoverageFunc returns the buckets a query of radiusMeters around center has
// to visit.
type CoverageFunc func(center models.Coordinates, radiusMeters float64) []geo.BucketKey

// StoreResult is the outcome of one StoreEvent call. On success Key is the
// bucket the event landed in.
type StoreResult[E Positioned] struct {
	Key   geo.BucketKey
	Event E
	Err   error
}

// Reason is the FailReason of a failed store, or "" on success.
func (r StoreResult[E]) Reason() network.FailReason { return network.ReasonOf(r.Err) }

// QueryResult is the outcome of one GetEvents call.
type QueryResult[E Positioned] struct {
	Center models.Coordinates
	Events []E
	Err    error
}

// Reason is the FailReason of a failed query, or "" on success.
func (r QueryResult[E]) Reason() network.FailReason { return network.ReasonOf(r.Err) }

type config struct {
	quantizer geo.Quantizer
	cover     CoverageFunc
}

// Option customises a Coordinator.
type Option func(*config)

// WithQuantizer sets the bucket precision. Every coordinator sharing a
// network must use the same one.
func WithQuantizer(q geo.Quantizer) Option {
	return func(c *config) { c.quantizer = q }
}

// WithCoverage replaces the default cell enumeration of queries.
func WithCoverage(fn CoverageFunc) Option {
	return func(c *config) { c.cover = fn }
}

// Coordinator stores and queries events of type E over a network mapping
// bucket keys to the events in the bucket. It holds no per-call state and is
// safe for concurrent use.
type Coordinator[E Positioned] struct {
	net       network.ResourceNetwork[geo.BucketKey, []E]
	quantizer geo.Quantizer
	cover     CoverageFunc
}

// New returns a Coordinator over net using the default quantizer and
// geo.Coverage unless overridden.
func New[E Positioned](net network.ResourceNetwork[geo.BucketKey, []E], opts ...Option) *Coordinator[E] {
	cfg := config{quantizer: geo.DefaultQuantizer()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cover == nil {
		cfg.cover = geo.NewCoverage(cfg.quantizer).Cells
	}
	return &Coordinator[E]{
		net:       net,
		quantizer: cfg.quantizer,
		cover:     cfg.cover,
	}
}

// BucketOf returns the bucket an event at pos is stored in.
func (c *Coordinator[E]) BucketOf(pos models.Coordinates) geo.BucketKey {
	return c.quantizer.Quantize(pos)
}
