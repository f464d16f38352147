package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"geocalendar/internal/env"
	"geocalendar/internal/eventnet"
	"geocalendar/internal/keys"
	"geocalendar/internal/network"
	"geocalendar/internal/storage"
	"geocalendar/models"
	"geocalendar/pkg/geo"
	"geocalendar/pkg/graceful"
	"geocalendar/pkg/location"
)

const requestTimeout = 10 * time.Second

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

	store, err := storage.NewS3Store(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to create S3 store: %v", err)
	}
	if err := store.EnsureBucket(ctx, cfg.S3.Region); err != nil {
		log.Fatalf("Failed to prepare bucket %s: %v", store.Bucket(), err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := network.NewMetrics(reg)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	net := network.NewBlobNetwork[geo.BucketKey, []models.Event](
		store,
		network.JSONCodec[[]models.Event]{},
		keys.Bucket,
		network.BlobConfig{
			MaxInFlight:    int64(cfg.MaxInFlight),
			MissingAsEmpty: true,
			Timeout:        requestTimeout,
			Metrics:        metrics,
		},
	)
	quantizer := geo.NewQuantizer(cfg.Precision)
	coord := eventnet.New[models.Event](net, eventnet.WithQuantizer(quantizer))

	srv := &server{
		coord:    coord,
		places:   location.NewGeocoder(cfg.NominatimURL),
		gatherer: reg,
		timeout:  requestTimeout,
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("Event node listening on %s, bucket=%s precision=%d", cfg.Addr, store.Bucket(), quantizer.Digits())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server: %v", err)
	}
	log.Println("Event node stopped.")
}
