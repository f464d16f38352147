package eventnet

import (
	"context"
	"sync"
	"testing"
	"time"

	"geocalendar/internal/network"
	"geocalendar/models"
	"geocalendar/pkg/geo"
)

type bucketGet = network.GetResult[geo.BucketKey, []models.Event]
type bucketSet = network.SetResult[geo.BucketKey, []models.Event]

// pendingCall is one network operation held until the test completes it.
type pendingCall struct {
	op    string
	key   geo.BucketKey
	value []models.Event
	onGet func(bucketGet)
	onSet func(bucketSet)
}

// manualNetwork queues every operation and lets the test decide when, in
// which order and how each one completes. Completed sets are applied to data.
type manualNetwork struct {
	calls chan *pendingCall

	mu   sync.Mutex
	data map[geo.BucketKey][]models.Event
}

func newManualNetwork() *manualNetwork {
	return &manualNetwork{
		calls: make(chan *pendingCall, 128),
		data:  make(map[geo.BucketKey][]models.Event),
	}
}

func (n *manualNetwork) GetResource(_ context.Context, key geo.BucketKey, done func(bucketGet)) {
	n.calls <- &pendingCall{op: "get", key: key, onGet: done}
}

func (n *manualNetwork) SetResource(_ context.Context, key geo.BucketKey, value []models.Event, done func(bucketSet)) {
	n.calls <- &pendingCall{op: "set", key: key, value: value, onSet: done}
}

func (n *manualNetwork) bucket(key geo.BucketKey) []models.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Event(nil), n.data[key]...)
}

func (n *manualNetwork) put(key geo.BucketKey, events ...models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.data[key] = events
}

// next returns the next queued call, failing the test if none arrives.
func (n *manualNetwork) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case c := <-n.calls:
		return c
	case <-time.After(2 * time.Second):
	}
	t.Fatal("timed out waiting for a network call")
	return nil
}

func (n *manualNetwork) expectIdle(t *testing.T) {
	t.Helper()
	select {
	case c := <-n.calls:
		t.Fatalf("unexpected %s of %v", c.op, c.key)
	case <-time.After(20 * time.Millisecond):
	}
}

// succeed completes the call against the network's data.
func (c *pendingCall) succeed(n *manualNetwork) {
	switch c.op {
	case "get":
		c.onGet(bucketGet{Key: c.key, Value: n.bucket(c.key)})
	case "set":
		n.put(c.key, c.value...)
		c.onSet(bucketSet{Key: c.key, Value: c.value})
	}
}

func (c *pendingCall) fail(reason network.FailReason) {
	err := network.Fail(c.op, c.key.String(), reason, nil)
	switch c.op {
	case "get":
		c.onGet(bucketGet{Key: c.key, Err: err})
	case "set":
		c.onSet(bucketSet{Key: c.key, Value: c.value, Err: err})
	}
}

// recorder captures callback invocations.
type recorder[T any] struct {
	mu      sync.Mutex
	results []T
	signal  chan struct{}
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{signal: make(chan struct{}, 128)}
}

func (r *recorder[T]) record(v T) {
	r.mu.Lock()
	r.results = append(r.results, v)
	r.mu.Unlock()
	r.signal <- struct{}{}
}

func (r *recorder[T]) all() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.results...)
}

func (r *recorder[T]) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

func eventAt(title string, lat, lon float64) models.Event {
	return models.NewEvent(title, "", models.Coordinates{Lat: lat, Lon: lon}, time.Time{})
}
