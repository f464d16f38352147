package eventnet

import (
	"context"
	"errors"
	"log"
	"sync"

	"geocalendar/internal/network"
	"geocalendar/models"
	"geocalendar/pkg/geo"
)

var errNoCoverage = errors.New("coverage returned no buckets")

// GetEvents collects the events of every bucket covering radiusMeters around
// center and reports them to done as one list, or reports the first failed
// bucket read. done runs exactly once, normally from a network goroutine.
func (c *Coordinator[E]) GetEvents(ctx context.Context, center models.Coordinates, radiusMeters float64, done func(QueryResult[E])) {
	keys := c.cover(center, radiusMeters)
	if len(keys) == 0 {
		log.Printf("Query around %s (r=%.0fm) has no buckets to visit", center, radiusMeters)
		done(QueryResult[E]{
			Center: center,
			Err:    network.Fail("query", center.String(), network.GenericFail, errNoCoverage),
		})
		return
	}

	j := newJoin(center, keys, done)
	for _, k := range j.keys {
		c.net.GetResource(ctx, k, j.collect)
	}
}

// join gathers the bucket reads of one query. All fields below mu are only
// touched with mu held.
type join[E Positioned] struct {
	center models.Coordinates
	keys   []geo.BucketKey
	done   func(QueryResult[E])

	mu        sync.Mutex
	pending   map[geo.BucketKey]struct{}
	events    []E
	delivered bool
}

func newJoin[E Positioned](center models.Coordinates, keys []geo.BucketKey, done func(QueryResult[E])) *join[E] {
	j := &join[E]{
		center:  center,
		done:    done,
		pending: make(map[geo.BucketKey]struct{}, len(keys)),
		events:  []E{},
	}
	for _, k := range keys {
		if _, dup := j.pending[k]; dup {
			continue
		}
		j.pending[k] = struct{}{}
		j.keys = append(j.keys, k)
	}
	return j
}

// collect is the callback of every bucket read.
func (j *join[E]) collect(res network.GetResult[geo.BucketKey, []E]) {
	if out, ok := j.record(res); ok {
		j.done(out)
	}
}

// record folds one read into the join and reports whether it completed the
// query. Only the call that flips delivered gets ok == true.
func (j *join[E]) record(res network.GetResult[geo.BucketKey, []E]) (QueryResult[E], bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.delivered {
		return QueryResult[E]{}, false
	}
	if res.Err != nil {
		j.delivered = true
		log.Printf("Query around %s failed on bucket %s: %v", j.center, res.Key, res.Err)
		return QueryResult[E]{Center: j.center, Err: res.Err}, true
	}
	if _, ok := j.pending[res.Key]; !ok {
		return QueryResult[E]{}, false
	}

	delete(j.pending, res.Key)
	j.events = append(j.events, res.Value...)
	if len(j.pending) > 0 {
		return QueryResult[E]{}, false
	}
	j.delivered = true
	return QueryResult[E]{Center: j.center, Events: j.events}, true
}
