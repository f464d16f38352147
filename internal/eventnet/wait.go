package eventnet

import (
	"context"

	"geocalendar/internal/network"
	"geocalendar/models"
)

// Store is StoreEvent for callers that want to wait. If ctx ends first the
// result carries Canceled or Timeout; the store itself keeps running and may
// still land.
func (c *Coordinator[E]) Store(ctx context.Context, event E) StoreResult[E] {
	ch := make(chan StoreResult[E], 1)
	c.StoreEvent(ctx, event, func(r StoreResult[E]) { ch <- r })

	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		key := c.BucketOf(event.Position())
		return StoreResult[E]{
			Key:   key,
			Event: event,
			Err:   network.Fail("store", key.String(), network.ReasonOf(ctx.Err()), ctx.Err()),
		}
	}
}

// Query is GetEvents for callers that want to wait.
func (c *Coordinator[E]) Query(ctx context.Context, center models.Coordinates, radiusMeters float64) QueryResult[E] {
	ch := make(chan QueryResult[E], 1)
	c.GetEvents(ctx, center, radiusMeters, func(r QueryResult[E]) { ch <- r })

	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		return QueryResult[E]{
			Center: center,
			Err:    network.Fail("query", center.String(), network.ReasonOf(ctx.Err()), ctx.Err()),
		}
	}
}
