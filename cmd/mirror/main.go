package main

import (
	"context"
	"log"

	"geocalendar/internal/env"
	"geocalendar/internal/eventdb"
	"geocalendar/internal/pipeline"
	"geocalendar/internal/service"
	"geocalendar/internal/storage"
	"geocalendar/pkg/geo"
	"geocalendar/pkg/graceful"
	"geocalendar/pkg/kafkaclient"
)

func main() {
	env.LoadEnv()
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	cfg, err := env.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.RequireS3(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var db eventdb.EventDatabase
	if cfg.DatabaseURL != "" {
		pg, err := eventdb.NewPostgresDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open event database: %v", err)
		}
		defer pg.Close()
		db = pg
	} else {
		log.Println("DATABASE_URL not set, mirroring into memory.")
		db = eventdb.NewMemoryDatabase()
	}

	store, err := storage.NewS3Store(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to create S3 store: %v", err)
	}

	log.Printf("Connecting to Kafka broker: %s on topic: %s with group ID: %s", cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaGroupID)
	consumer, err := kafkaclient.NewKafkaConsumer(kafkaclient.Config{
		Broker:  cfg.KafkaBroker,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroupID,
	})
	if err != nil {
		log.Fatalf("Failed to create kafka consumer: %v", err)
	}
	consumer.StartConsuming(ctx)

	iterator := service.NewBucketIterator(consumer, service.StoreLoader(store.Bucket(), store))
	p := pipeline.New(
		pipeline.NewStage("sync", syncBucket(db, geo.NewQuantizer(cfg.Precision))),
	)
	err = mirror(ctx, iterator, p)
	consumer.Stop()
	if err != nil {
		// Exit non-zero so the supervisor restarts us from the last commit.
		log.Fatalf("Mirror stopped: %v", err)
	}
	log.Println("Mirror finished, application exiting.")
}
