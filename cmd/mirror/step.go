package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"geocalendar/internal/eventdb"
	"geocalendar/internal/pipeline"
	"geocalendar/internal/service"
	"geocalendar/models"
	"geocalendar/pkg/geo"
)

// mirrorItem carries one bucket update through the pipeline.
type mirrorItem struct {
	Update *service.BucketUpdate

	mu      sync.Mutex
	saved   int
	removed int
}

func newMirrorItem(u *service.BucketUpdate) *mirrorItem {
	return &mirrorItem{Update: u}
}

// syncBucket makes the database hold exactly the events of the updated
// bucket: events that left the bucket are removed, the rest are upserted.
func syncBucket(db eventdb.EventDatabase, q geo.Quantizer) pipeline.Step[mirrorItem] {
	return func(ctx context.Context, item *mirrorItem) error {
		u := item.Update
		sw, ne := q.Cell(u.Key)
		saved, err := db.EventsInArea(ctx, sw, ne)
		if err != nil {
			return fmt.Errorf("bucket %s: %w", u.Key, err)
		}

		current := make(map[string]struct{}, len(u.Events))
		for _, e := range u.Events {
			current[e.ID] = struct{}{}
		}
		var stale []models.Event
		for _, e := range saved {
			// The area includes the cell edges shared with neighbours.
			if q.Quantize(e.Position()) != u.Key {
				continue
			}
			if _, ok := current[e.ID]; !ok {
				stale = append(stale, e)
			}
		}

		removed := 0
		if len(stale) > 0 {
			gone, err := db.RemoveEvents(ctx, stale)
			if err != nil {
				return fmt.Errorf("bucket %s: %w", u.Key, err)
			}
			for _, ok := range gone {
				if ok {
					removed++
				}
			}
		}
		if err := db.SaveEvents(ctx, u.Events); err != nil {
			return fmt.Errorf("bucket %s: %w", u.Key, err)
		}

		item.mu.Lock()
		item.saved += len(u.Events)
		item.removed += removed
		item.mu.Unlock()
		return nil
	}
}

// mirror runs every update from it through p until the updates end. The first
// update with a failed step stops the mirror with its offset uncommitted, so
// a restart replays it. The returned error is that failure, nil otherwise.
func mirror(ctx context.Context, it *service.BucketIterator, p *pipeline.Pipeline[mirrorItem]) error {
	items := make(chan *mirrorItem)
	go func() {
		defer close(items)
		for u := range it.Updates(ctx) {
			select {
			case items <- newMirrorItem(u):
			case <-ctx.Done():
				return
			}
		}
	}()

	p.OnDone(func(item *mirrorItem, failed int) {
		u := item.Update
		if failed > 0 {
			it.Fail(u, fmt.Errorf("%d step(s) failed", failed))
			return
		}
		log.Printf("Mirrored bucket %s: saved=%d removed=%d", u.ObjectKey, item.saved, item.removed)
		it.Done(u)
	})
	p.Process(ctx, items)
	return it.Err()
}
