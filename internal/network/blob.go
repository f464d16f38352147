package network

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/semaphore"

	"geocalendar/internal/storage"
)

// DefaultMaxInFlight bounds concurrent store operations when BlobConfig
// leaves MaxInFlight unset.
const DefaultMaxInFlight = 64

// BlobConfig tunes a BlobNetwork.
type BlobConfig struct {
	// MaxInFlight bounds the number of store operations running at once.
	// Calls beyond the bound wait for a slot (or for ctx).
	MaxInFlight int64
	// MissingAsEmpty makes a get of an absent key succeed with the zero value
	// instead of failing with NotFound.
	MissingAsEmpty bool
	// FailFast makes calls beyond MaxInFlight fail with Unavailable instead
	// of waiting.
	FailFast bool
	// Timeout, when positive, caps every single store operation.
	Timeout time.Duration
	// Metrics is optional.
	Metrics *Metrics
}

var errBusy = errors.New("too many operations in flight")

// BlobNetwork is a ResourceNetwork that keeps each value as one encoded object
// in a storage.BlobStore. Each call runs on its own goroutine.
type BlobNetwork[K comparable, V any] struct {
	store     storage.BlobStore
	codec     Codec[V]
	objectKey func(K) string
	sem       *semaphore.Weighted
	cfg       BlobConfig
}

// NewBlobNetwork returns a network storing values of type V under the object
// key objectKey(k) of store.
func NewBlobNetwork[K comparable, V any](store storage.BlobStore, codec Codec[V], objectKey func(K) string, cfg BlobConfig) *BlobNetwork[K, V] {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}
	return &BlobNetwork[K, V]{
		store:     store,
		codec:     codec,
		objectKey: objectKey,
		sem:       semaphore.NewWeighted(cfg.MaxInFlight),
		cfg:       cfg,
	}
}

func (n *BlobNetwork[K, V]) GetResource(ctx context.Context, key K, done func(GetResult[K, V])) {
	go func() {
		start := time.Now()
		value, err := n.get(ctx, key)
		n.cfg.Metrics.observe("get", err, time.Since(start))
		done(GetResult[K, V]{Key: key, Value: value, Err: err})
	}()
}

func (n *BlobNetwork[K, V]) SetResource(ctx context.Context, key K, value V, done func(SetResult[K, V])) {
	go func() {
		start := time.Now()
		err := n.set(ctx, key, value)
		n.cfg.Metrics.observe("set", err, time.Since(start))
		done(SetResult[K, V]{Key: key, Value: value, Err: err})
	}()
}

func (n *BlobNetwork[K, V]) get(ctx context.Context, key K) (V, error) {
	var zero V
	objectKey := n.objectKey(key)

	ctx, release, err := n.acquire(ctx)
	if err != nil {
		return zero, n.fail("get", objectKey, err)
	}
	defer release()

	data, err := n.store.Get(ctx, objectKey)
	if errors.Is(err, storage.ErrNotFound) && n.cfg.MissingAsEmpty {
		return zero, nil
	}
	if err != nil {
		return zero, n.fail("get", objectKey, err)
	}

	value, err := n.codec.Decode(data)
	if err != nil {
		log.Printf("Malformed value under %s: %v", objectKey, err)
		return zero, Fail("get", objectKey, Malformed, err)
	}
	return value, nil
}

func (n *BlobNetwork[K, V]) set(ctx context.Context, key K, value V) error {
	objectKey := n.objectKey(key)

	data, err := n.codec.Encode(value)
	if err != nil {
		return Fail("set", objectKey, Malformed, err)
	}

	ctx, release, err := n.acquire(ctx)
	if err != nil {
		return n.fail("set", objectKey, err)
	}
	defer release()

	if err := n.store.Put(ctx, objectKey, data); err != nil {
		return n.fail("set", objectKey, err)
	}
	return nil
}

// acquire takes an in-flight slot and applies the per-operation timeout.
func (n *BlobNetwork[K, V]) acquire(ctx context.Context) (context.Context, func(), error) {
	if n.cfg.FailFast {
		if !n.sem.TryAcquire(1) {
			return ctx, nil, errBusy
		}
	} else if err := n.sem.Acquire(ctx, 1); err != nil {
		return ctx, nil, fmt.Errorf("waiting for a free slot: %w", err)
	}
	cancel := context.CancelFunc(func() {})
	if n.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
	}
	return ctx, func() {
		cancel()
		n.sem.Release(1)
	}, nil
}

// fail classifies a store error into a Failure.
func (n *BlobNetwork[K, V]) fail(op, objectKey string, err error) *Failure {
	reason := Transport
	switch {
	case errors.Is(err, storage.ErrNotFound):
		reason = NotFound
	case errors.Is(err, errBusy):
		reason = Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		reason = Timeout
	case errors.Is(err, context.Canceled):
		reason = Canceled
	}
	return Fail(op, objectKey, reason, err)
}
