package eventnet

import (
	"context"
	"log"

	"geocalendar/internal/network"
	"geocalendar/pkg/geo"
)

// StoreEvent appends event to the bucket of its position and reports the
// outcome to done, exactly once, from a network goroutine. It never blocks.
//
// A failed read of the bucket is reported as network.GenericFail and no
// write is attempted. A failed write is reported with the network's reason.
func (c *Coordinator[E]) StoreEvent(ctx context.Context, event E, done func(StoreResult[E])) {
	op := &storeOp[E]{
		net:   c.net,
		ctx:   ctx,
		key:   c.quantizer.Quantize(event.Position()),
		event: event,
		done:  done,
	}
	op.readBucket()
}

// storeOp is the get -> append -> set continuation of one StoreEvent call.
type storeOp[E Positioned] struct {
	net   network.ResourceNetwork[geo.BucketKey, []E]
	ctx   context.Context
	key   geo.BucketKey
	event E
	done  func(StoreResult[E])
}

func (op *storeOp[E]) readBucket() {
	op.net.GetResource(op.ctx, op.key, op.appendAndWrite)
}

func (op *storeOp[E]) appendAndWrite(res network.GetResult[geo.BucketKey, []E]) {
	if res.Err != nil {
		log.Printf("Store into bucket %s aborted, read failed: %v", op.key, res.Err)
		op.done(StoreResult[E]{
			Key:   op.key,
			Event: op.event,
			Err:   network.Fail("store", op.key.String(), network.GenericFail, res.Err),
		})
		return
	}

	// The network owns res.Value; write a fresh copy.
	bucket := make([]E, 0, len(res.Value)+1)
	bucket = append(bucket, res.Value...)
	bucket = append(bucket, op.event)

	op.net.SetResource(op.ctx, op.key, bucket, op.finish)
}

func (op *storeOp[E]) finish(res network.SetResult[geo.BucketKey, []E]) {
	if res.Err != nil {
		log.Printf("Store into bucket %s failed on write: %v", op.key, res.Err)
		op.done(StoreResult[E]{Key: op.key, Event: op.event, Err: res.Err})
		return
	}
	op.done(StoreResult[E]{Key: op.key, Event: op.event})
}
