package service

import (
	"context"

	"github.com/segmentio/kafka-go"

	"geocalendar/models"
	"geocalendar/pkg/geo"
)

// MessageIterator is a source of Kafka messages with manual commits.
// *kafkaclient.KafkaConsumer implements it.
type MessageIterator interface {
	// Messages is closed when the source stops.
	Messages() <-chan kafka.Message
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc reads the events stored in one bucket object.
type LoaderFunc func(ctx context.Context, bucket, objectKey string) ([]models.Event, error)

// BucketUpdate is one changed bucket object, with its events as of the load.
type BucketUpdate struct {
	Key       geo.BucketKey
	Bucket    string
	ObjectKey string
	EventName string
	// Removed is set when the object was deleted. Events is then empty.
	Removed bool
	Events  []models.Event

	ack chan error
}
