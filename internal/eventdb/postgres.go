package eventdb

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geocalendar/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	lat         DOUBLE PRECISION NOT NULL,
	lon         DOUBLE PRECISION NOT NULL,
	starts_at   TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL
)`

const areaIndex = `CREATE INDEX IF NOT EXISTS events_lat_lon ON events (lat, lon)`

const upsertEvent = `
INSERT INTO events (id, title, description, lat, lon, starts_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	lat = EXCLUDED.lat,
	lon = EXCLUDED.lon,
	starts_at = EXCLUDED.starts_at,
	created_at = EXCLUDED.created_at`

// PostgresDatabase is an EventDatabase on a PostgreSQL table.
type PostgresDatabase struct {
	pool *pgxpool.Pool
}

// NewPostgresDatabase connects to the database at url and creates the
// events table if needed.
func NewPostgresDatabase(ctx context.Context, url string) (*PostgresDatabase, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	db := &PostgresDatabase{pool: pool}
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Println("Connected to postgres event database")
	return db, nil
}

// Migrate creates the events table and its position index if missing.
func (p *PostgresDatabase) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	if _, err := p.pool.Exec(ctx, areaIndex); err != nil {
		return fmt.Errorf("create events index: %w", err)
	}
	return nil
}

func (p *PostgresDatabase) Close() { p.pool.Close() }

func (p *PostgresDatabase) SaveEvent(ctx context.Context, e models.Event) error {
	if _, err := p.pool.Exec(ctx, upsertEvent, eventArgs(e)...); err != nil {
		return fmt.Errorf("save event %s: %w", e.ID, err)
	}
	return nil
}

// SaveEvents upserts all events in one round trip.
func (p *PostgresDatabase) SaveEvents(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(upsertEvent, eventArgs(e)...)
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save %d events: %w", len(events), err)
	}
	return nil
}

func (p *PostgresDatabase) RemoveEvent(ctx context.Context, e models.Event) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, e.ID)
	if err != nil {
		return false, fmt.Errorf("remove event %s: %w", e.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveEvents deletes the events in one transaction.
func (p *PostgresDatabase) RemoveEvents(ctx context.Context, events []models.Event) (map[string]bool, error) {
	removed := make(map[string]bool, len(events))
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, e := range events {
			tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, e.ID)
			if err != nil {
				return fmt.Errorf("remove event %s: %w", e.ID, err)
			}
			removed[e.ID] = removed[e.ID] || tag.RowsAffected() > 0
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (p *PostgresDatabase) SavedEvents(ctx context.Context) ([]models.Event, error) {
	return p.query(ctx, selectEvents+` ORDER BY created_at, id`)
}

func (p *PostgresDatabase) EventsInArea(ctx context.Context, sw, ne models.Coordinates) ([]models.Event, error) {
	return p.query(ctx, selectEvents+`
WHERE lat BETWEEN $1 AND $2 AND lon BETWEEN $3 AND $4
ORDER BY created_at, id`, sw.Lat, ne.Lat, sw.Lon, ne.Lon)
}

const selectEvents = `
SELECT id, title, description, lat, lon, starts_at, created_at
FROM events`

func (p *PostgresDatabase) query(ctx context.Context, sql string, args ...any) ([]models.Event, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Event, error) {
		var (
			e        models.Event
			startsAt *time.Time
		)
		err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location.Lat, &e.Location.Lon, &startsAt, &e.CreatedAt)
		if startsAt != nil {
			e.StartsAt = *startsAt
		}
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return events, nil
}

func eventArgs(e models.Event) []any {
	var startsAt *time.Time
	if !e.StartsAt.IsZero() {
		startsAt = &e.StartsAt
	}
	return []any{e.ID, e.Title, e.Description, e.Location.Lat, e.Location.Lon, startsAt, e.CreatedAt}
}
