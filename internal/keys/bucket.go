package keys

import (
	"fmt"
	"strconv"
	"strings"

	"geocalendar/pkg/geo"
)

// BucketPrefix is the object key prefix shared by all event buckets.
const BucketPrefix = "buckets/"

const bucketSuffix = ".json"

// Bucket returns the canonical object key holding the events of k,
// e.g. "buckets/45.406_11.877.json".
func Bucket(k geo.BucketKey) string {
	return BucketPrefix +
		strconv.FormatFloat(k.Lat, 'f', -1, 64) + "_" +
		strconv.FormatFloat(k.Lon, 'f', -1, 64) +
		bucketSuffix
}

// ParseBucket reverses Bucket. Keys outside the bucket namespace are rejected.
func ParseBucket(objectKey string) (geo.BucketKey, error) {
	name, ok := strings.CutPrefix(objectKey, BucketPrefix)
	if !ok {
		return geo.BucketKey{}, fmt.Errorf("object key %q is not under %q", objectKey, BucketPrefix)
	}
	name, ok = strings.CutSuffix(name, bucketSuffix)
	if !ok {
		return geo.BucketKey{}, fmt.Errorf("object key %q has no %q suffix", objectKey, bucketSuffix)
	}
	latText, lonText, ok := strings.Cut(name, "_")
	if !ok {
		return geo.BucketKey{}, fmt.Errorf("object key %q is not <lat>_<lon>", objectKey)
	}
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return geo.BucketKey{}, fmt.Errorf("object key %q: latitude: %w", objectKey, err)
	}
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil {
		return geo.BucketKey{}, fmt.Errorf("object key %q: longitude: %w", objectKey, err)
	}
	return geo.BucketKey{Lat: lat, Lon: lon}, nil
}
