package env

import (
	"fmt"
	"strconv"

	"geocalendar/internal/network"
	"geocalendar/internal/storage"
	"geocalendar/pkg/geo"
)

const (
	DefaultBucketName   = "events"
	DefaultAddr         = ":8080"
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
)

// Config is the runtime configuration shared by the binaries under cmd/.
type Config struct {
	S3          storage.S3Config
	Precision   int
	MaxInFlight int
	Addr        string

	DatabaseURL string

	KafkaBroker  string
	KafkaTopic   string
	KafkaGroupID string

	NominatimURL string
}

// FromEnv assembles a Config from the environment. Missing optional values
// fall back to defaults; malformed numbers and booleans are errors.
func FromEnv() (Config, error) {
	cfg := Config{
		S3: storage.S3Config{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("EVENTS_BUCKET_NAME", DefaultBucketName),
		},
		Addr:         getEnv("EVENTNODE_ADDR", DefaultAddr),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		KafkaBroker:  getEnv("KAFKA_BROKER", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", ""),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", ""),
		NominatimURL: getEnv("NOMINATIM_URL", DefaultNominatimURL),
	}

	var err error
	if cfg.S3.UseSSL, err = strconv.ParseBool(getEnv("MINIO_USE_SSL", "false")); err != nil {
		return Config{}, fmt.Errorf("MINIO_USE_SSL: %w", err)
	}
	if cfg.Precision, err = strconv.Atoi(getEnv("EVENTS_PRECISION", strconv.Itoa(geo.DefaultPrecision))); err != nil {
		return Config{}, fmt.Errorf("EVENTS_PRECISION: %w", err)
	}
	if cfg.Precision < 0 {
		return Config{}, fmt.Errorf("EVENTS_PRECISION: must not be negative, got %d", cfg.Precision)
	}
	if cfg.MaxInFlight, err = strconv.Atoi(getEnv("EVENTS_MAX_INFLIGHT", strconv.Itoa(network.DefaultMaxInFlight))); err != nil {
		return Config{}, fmt.Errorf("EVENTS_MAX_INFLIGHT: %w", err)
	}
	if cfg.MaxInFlight <= 0 {
		return Config{}, fmt.Errorf("EVENTS_MAX_INFLIGHT: must be positive, got %d", cfg.MaxInFlight)
	}
	return cfg, nil
}

// RequireS3 reports an error when the object store settings are incomplete.
func (c Config) RequireS3() error {
	switch {
	case c.S3.Endpoint == "":
		return fmt.Errorf("MINIO_ENDPOINT not set")
	case c.S3.AccessKey == "":
		return fmt.Errorf("MINIO_ACCESS_KEY not set")
	case c.S3.SecretKey == "":
		return fmt.Errorf("MINIO_SECRET_KEY not set")
	}
	return nil
}
