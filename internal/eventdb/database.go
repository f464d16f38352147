// Package eventdb keeps a local copy of events, independent of the network.
package eventdb

import (
	"context"

	"geocalendar/models"
)

// EventDatabase stores events by ID. Saving an event whose ID is already
// present replaces it.
type EventDatabase interface {
	SaveEvent(ctx context.Context, e models.Event) error
	SaveEvents(ctx context.Context, events []models.Event) error
	// RemoveEvent reports whether the event was present and has been removed.
	RemoveEvent(ctx context.Context, e models.Event) (bool, error)
	// RemoveEvents reports, per event ID, whether it was present and removed.
	RemoveEvents(ctx context.Context, events []models.Event) (map[string]bool, error)
	// SavedEvents returns every saved event, oldest first.
	SavedEvents(ctx context.Context) ([]models.Event, error)
	// EventsInArea returns the saved events inside the box spanned by sw and
	// ne, edges included, oldest first.
	EventsInArea(ctx context.Context, sw, ne models.Coordinates) ([]models.Event, error)
}
