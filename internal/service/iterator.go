// Package service turns object store notifications into bucket updates.
//
// MinIO publishes a notification.Info document to Kafka for every change in
// the events bucket. BucketIterator decodes those documents, keeps the ones
// naming a bucket object and loads the bucket's current events.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/segmentio/kafka-go"

	"geocalendar/internal/keys"
)

// BucketIterator handles one message at a time. Kafka commits are cumulative
// per partition, so a message is committed only once every update decoded
// from it has been acknowledged, and the next message is not read before
// that. A failed load or a failed update stops the iterator without
// committing, leaving the message to be replayed after a restart.
type BucketIterator struct {
	msgIterator MessageIterator
	loader      LoaderFunc

	mu  sync.Mutex
	err error
}

func NewBucketIterator(iterator MessageIterator, loader LoaderFunc) *BucketIterator {
	return &BucketIterator{msgIterator: iterator, loader: loader}
}

// Updates streams bucket updates until the message source closes, ctx is done
// or a bucket could not be handled. Every update received must be passed to
// Done or Fail. Messages that cannot be decoded, or only name objects outside
// the bucket namespace, are logged, committed and skipped.
func (it *BucketIterator) Updates(ctx context.Context) <-chan *BucketUpdate {
	out := make(chan *BucketUpdate)
	go func() {
		defer close(out)

		for {
			var (
				msg kafka.Message
				ok  bool
			)
			select {
			case <-ctx.Done():
				return
			case msg, ok = <-it.msgIterator.Messages():
				if !ok {
					return
				}
			}

			updates, err := it.decode(ctx, msg)
			if err != nil {
				it.stop(err)
				return
			}
			for _, u := range updates {
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
				select {
				case err := <-u.ack:
					if err != nil {
						it.stop(fmt.Errorf("bucket %s: %w", u.ObjectKey, err))
						return
					}
				case <-ctx.Done():
					return
				}
			}
			it.commit(ctx, msg)
		}
	}()
	return out
}

// Done acknowledges u as handled.
func (it *BucketIterator) Done(u *BucketUpdate) { u.ack <- nil }

// Fail reports that u could not be handled. The iterator stops and the
// message carrying u stays uncommitted.
func (it *BucketIterator) Fail(u *BucketUpdate, err error) { u.ack <- err }

// Err returns the reason the iterator stopped early, once the Updates channel
// is closed. It is nil after a clean end or a canceled ctx.
func (it *BucketIterator) Err() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.err
}

func (it *BucketIterator) stop(err error) {
	log.Printf("Bucket iterator stopping, offset left uncommitted: %v", err)
	it.mu.Lock()
	it.err = err
	it.mu.Unlock()
}

func (it *BucketIterator) commit(ctx context.Context, msg kafka.Message) {
	if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
		log.Printf("Failed to commit offset partition=%d offset=%d: %v", msg.Partition, msg.Offset, err)
	}
}

// decode returns the updates carried by msg, loading the events of every
// bucket that still exists. Undecodable messages yield no updates.
func (it *BucketIterator) decode(ctx context.Context, msg kafka.Message) ([]*BucketUpdate, error) {
	var info notification.Info
	if err := json.Unmarshal(msg.Value, &info); err != nil {
		log.Printf("Error unmarshalling notification offset=%d: %v", msg.Offset, err)
		return nil, nil
	}

	var updates []*BucketUpdate
	for _, record := range info.Records {
		objectKey, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			log.Printf("Error decoding object key %q: %v", record.S3.Object.Key, err)
			continue
		}
		key, err := keys.ParseBucket(objectKey)
		if err != nil {
			log.Printf("Skipping object key=%s: %v", objectKey, err)
			continue
		}
		u := &BucketUpdate{
			Key:       key,
			Bucket:    record.S3.Bucket.Name,
			ObjectKey: objectKey,
			EventName: record.EventName,
			Removed:   strings.HasPrefix(record.EventName, "s3:ObjectRemoved"),
			ack:       make(chan error, 1),
		}
		if !u.Removed {
			events, err := it.loader(ctx, u.Bucket, objectKey)
			if err != nil {
				return nil, fmt.Errorf("load bucket %s offset=%d: %w", objectKey, msg.Offset, err)
			}
			u.Events = events
		}
		updates = append(updates, u)
	}
	return updates, nil
}
