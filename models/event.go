package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a calendar entry anchored to a single geographic position.
type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Location    Coordinates `json:"location"`
	StartsAt    time.Time   `json:"starts_at,omitzero"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewEvent returns an event with a fresh random ID.
func NewEvent(title, description string, at Coordinates, startsAt time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Location:    at,
		StartsAt:    startsAt,
		CreatedAt:   time.Now().UTC(),
	}
}

// Position reports where the event takes place.
func (e Event) Position() Coordinates { return e.Location }
