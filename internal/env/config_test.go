package env

import (
	"os"
	"path/filepath"
	"testing"

	"geocalendar/internal/network"
	"geocalendar/pkg/geo"
)

var configKeys = []string{
	"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_USE_SSL",
	"EVENTS_BUCKET_NAME", "EVENTS_PRECISION", "EVENTS_MAX_INFLIGHT", "EVENTNODE_ADDR",
	"DATABASE_URL", "KAFKA_BROKER", "KAFKA_TOPIC", "KAFKA_GROUP_ID", "NOMINATIM_URL",
}

func clearConfig(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearConfig(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Precision != geo.DefaultPrecision {
		t.Errorf("Precision = %d, want %d", cfg.Precision, geo.DefaultPrecision)
	}
	if cfg.MaxInFlight != network.DefaultMaxInFlight {
		t.Errorf("MaxInFlight = %d, want %d", cfg.MaxInFlight, network.DefaultMaxInFlight)
	}
	if cfg.S3.Bucket != DefaultBucketName || cfg.Addr != DefaultAddr || cfg.NominatimURL != DefaultNominatimURL {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.S3.UseSSL {
		t.Error("UseSSL should default to false")
	}
	if err := cfg.RequireS3(); err == nil {
		t.Error("RequireS3 should fail without an endpoint")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearConfig(t)
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "access")
	t.Setenv("MINIO_SECRET_KEY", "secret")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("EVENTS_BUCKET_NAME", "padova")
	t.Setenv("EVENTS_PRECISION", "4")
	t.Setenv("EVENTS_MAX_INFLIGHT", "8")
	t.Setenv("KAFKA_TOPIC", "bucket-events")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if err := cfg.RequireS3(); err != nil {
		t.Errorf("RequireS3: %v", err)
	}
	if !cfg.S3.UseSSL || cfg.S3.Bucket != "padova" || cfg.Precision != 4 || cfg.MaxInFlight != 8 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.KafkaTopic != "bucket-events" {
		t.Errorf("KafkaTopic = %q", cfg.KafkaTopic)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"ssl not a bool", "MINIO_USE_SSL", "maybe"},
		{"precision not a number", "EVENTS_PRECISION", "three"},
		{"negative precision", "EVENTS_PRECISION", "-1"},
		{"zero in flight", "EVENTS_MAX_INFLIGHT", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfig(t)
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearConfig(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("KAFKA_GROUP_ID=mirror\nEVENTS_PRECISION=2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set, even to "".
	os.Unsetenv("KAFKA_GROUP_ID")
	os.Unsetenv("EVENTS_PRECISION")
	t.Cleanup(func() {
		os.Unsetenv("KAFKA_GROUP_ID")
		os.Unsetenv("EVENTS_PRECISION")
	})

	LoadEnv(path)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.KafkaGroupID != "mirror" || cfg.Precision != 2 {
		t.Errorf("values from .env not loaded: %+v", cfg)
	}
}
