// Package kafkaclient wraps a kafka-go reader into a channel of messages with
// manual offset commits.
package kafkaclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaReader is the subset of *kafka.Reader used by KafkaConsumer.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Broker  string
	Topic   string
	GroupID string
	// RetryBackoff is the pause after a failed read. Defaults to one second.
	RetryBackoff time.Duration
}

// KafkaConsumer reads messages on its own goroutine and hands them out through
// Messages. Offsets are only committed through CommitOffset.
type KafkaConsumer struct {
	reader   KafkaReader
	backoff  time.Duration
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	messages chan kafka.Message
}

func NewKafkaConsumer(cfg Config) (*KafkaConsumer, error) {
	if cfg.Broker == "" || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka consumer needs broker, topic and group id, got %+v", cfg)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Broker},
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
		// Offsets are committed explicitly once a bucket has been mirrored.
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
	return newConsumer(reader, cfg.RetryBackoff), nil
}

func newConsumer(reader KafkaReader, backoff time.Duration) *KafkaConsumer {
	if backoff <= 0 {
		backoff = time.Second
	}
	return &KafkaConsumer{
		reader:   reader,
		backoff:  backoff,
		done:     make(chan struct{}),
		messages: make(chan kafka.Message),
	}
}

// Messages is closed once the consumer loop exits.
func (kc *KafkaConsumer) Messages() <-chan kafka.Message {
	return kc.messages
}

func (kc *KafkaConsumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	log.Printf("Committing offset topic=%s partition=%d offset=%d", msg.Topic, msg.Partition, msg.Offset)
	return kc.reader.CommitMessages(ctx, msg)
}

// StartConsuming runs the read loop until ctx is done, Stop is called or the
// reader is closed.
func (kc *KafkaConsumer) StartConsuming(ctx context.Context) {
	kc.wg.Add(1)
	go func() {
		defer kc.wg.Done()
		defer close(kc.messages)

		log.Println("Starting Kafka consumer loop...")
		for {
			select {
			case <-ctx.Done():
				log.Println("Context canceled, stopping consumer loop.")
				return
			case <-kc.done:
				log.Println("Shutdown signal received, stopping consumer loop.")
				return
			default:
			}

			msg, err := kc.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil || kc.stopping() {
					log.Printf("Kafka reader finished: %v", err)
					return
				}
				log.Printf("Error reading message: %v", err)
				select {
				case <-time.After(kc.backoff):
				case <-ctx.Done():
				case <-kc.done:
				}
				continue
			}

			select {
			case kc.messages <- msg:
				log.Printf("Message received topic=%s partition=%d offset=%d", msg.Topic, msg.Partition, msg.Offset)
			case <-ctx.Done():
				return
			case <-kc.done:
				return
			}
		}
	}()
}

func (kc *KafkaConsumer) stopping() bool {
	select {
	case <-kc.done:
		return true
	default:
		return false
	}
}

// Stop ends the read loop and closes the reader. It is safe to call twice
// and does not need the consuming ctx to be canceled first: closing the
// reader unblocks a pending ReadMessage.
func (kc *KafkaConsumer) Stop() {
	kc.stopOnce.Do(func() {
		log.Println("Stopping Kafka consumer...")
		close(kc.done)
		if err := kc.reader.Close(); err != nil {
			log.Printf("Failed to close Kafka reader: %v", err)
		}
		kc.wg.Wait()
		log.Println("Kafka consumer stopped.")
	})
}
