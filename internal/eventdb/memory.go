package eventdb

import (
	"context"
	"sort"
	"sync"

	"geocalendar/models"
)

// MemoryDatabase is an EventDatabase held in process memory.
type MemoryDatabase struct {
	mu     sync.RWMutex
	events map[string]models.Event
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{events: make(map[string]models.Event)}
}

func (m *MemoryDatabase) SaveEvent(ctx context.Context, e models.Event) error {
	return m.SaveEvents(ctx, []models.Event{e})
}

func (m *MemoryDatabase) SaveEvents(ctx context.Context, events []models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range events {
		m.events[e.ID] = e
	}
	return nil
}

func (m *MemoryDatabase) RemoveEvent(ctx context.Context, e models.Event) (bool, error) {
	removed, err := m.RemoveEvents(ctx, []models.Event{e})
	if err != nil {
		return false, err
	}
	return removed[e.ID], nil
}

func (m *MemoryDatabase) RemoveEvents(ctx context.Context, events []models.Event) (map[string]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := make(map[string]bool, len(events))
	for _, e := range events {
		_, ok := m.events[e.ID]
		delete(m.events, e.ID)
		removed[e.ID] = removed[e.ID] || ok
	}
	return removed, nil
}

func (m *MemoryDatabase) SavedEvents(ctx context.Context) ([]models.Event, error) {
	return m.filter(ctx, func(models.Event) bool { return true })
}

func (m *MemoryDatabase) EventsInArea(ctx context.Context, sw, ne models.Coordinates) ([]models.Event, error) {
	return m.filter(ctx, func(e models.Event) bool {
		p := e.Location
		return p.Lat >= sw.Lat && p.Lat <= ne.Lat && p.Lon >= sw.Lon && p.Lon <= ne.Lon
	})
}

func (m *MemoryDatabase) filter(ctx context.Context, keep func(models.Event) bool) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Event, 0, len(m.events))
	for _, e := range m.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
