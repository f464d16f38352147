package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"geocalendar/internal/storage"
	"geocalendar/models"
)

// StoreLoader loads bucket objects of the named object store bucket from
// store. An object that no longer exists loads as an empty bucket.
func StoreLoader(bucket string, store storage.BlobStore) LoaderFunc {
	return func(ctx context.Context, name, objectKey string) ([]models.Event, error) {
		if name != bucket {
			return nil, fmt.Errorf("notification for bucket %q, serving %q", name, bucket)
		}
		data, err := store.Get(ctx, objectKey)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", objectKey, err)
		}
		var events []models.Event
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, fmt.Errorf("decode %s: %w", objectKey, err)
		}
		return events, nil
	}
}
