package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/volunteer-bot/internal/persistence"
	"github.com/example/volunteer-bot/internal/persistence/sqlite/pool"
)

const (
	eventColumns    = `id, event_date, event_time, description`
	eventDateLayout = "2006-01-02"
	eventTimeLayout = "15:04"
)

// EventRepository implements persistence.EventRepository using SQLite
type EventRepository struct {
	storage *Storage
}

var _ persistence.EventRepository = (*EventRepository)(nil)

// NewEventRepository creates an event repository backed by s.
func NewEventRepository(s *Storage) *EventRepository {
	return &EventRepository{storage: s}
}

func splitSchedule(startsAt time.Time) (string, string) {
	utc := startsAt.UTC()
	return utc.Format(eventDateLayout), utc.Format(eventTimeLayout)
}

// CreateEvent inserts an event and returns its generated id.
func (r *EventRepository) CreateEvent(ctx context.Context, startsAt time.Time, description string) (int64, error) {
	if startsAt.IsZero() {
		return 0, persistence.ErrConstraintViolation
	}
	date, clock := splitSchedule(startsAt)

	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) (int64, error) {
		var id int64
		err := conn.QueryRowContext(ctx,
			`INSERT INTO Event (event_date, event_time, description) VALUES (?, ?, ?) RETURNING id`,
			date, clock, description,
		).Scan(&id)
		if err != nil {
			return 0, r.storage.mapper.MapError(err)
		}
		return id, nil
	})
}

// GetEvent retrieves an event by id
func (r *EventRepository) GetEvent(ctx context.Context, id int64) (persistence.Event, error) {
	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) (persistence.Event, error) {
		row := conn.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM Event WHERE id = ?`, id)
		return r.scan(row)
	})
}

// FindEventByDate returns the earliest event scheduled on the calendar day
// of date, in UTC.
func (r *EventRepository) FindEventByDate(ctx context.Context, date time.Time) (persistence.Event, error) {
	day, _ := splitSchedule(date)
	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) (persistence.Event, error) {
		row := conn.QueryRowContext(ctx,
			`SELECT `+eventColumns+` FROM Event WHERE event_date = ? ORDER BY event_time, id LIMIT 1`, day)
		return r.scan(row)
	})
}

// ListEvents returns every event in schedule order
func (r *EventRepository) ListEvents(ctx context.Context) ([]persistence.Event, error) {
	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) ([]persistence.Event, error) {
		rows, err := conn.QueryContext(ctx,
			`SELECT `+eventColumns+` FROM Event ORDER BY event_date, event_time, id`)
		if err != nil {
			return nil, r.storage.mapper.MapError(err)
		}
		defer rows.Close()

		var events []persistence.Event
		for rows.Next() {
			event, err := r.scan(rows)
			if err != nil {
				return nil, err
			}
			events = append(events, event)
		}
		if err := rows.Err(); err != nil {
			return nil, r.storage.mapper.MapError(err)
		}
		return events, nil
	})
}

// UpdateEvent overwrites the schedule and description of an existing event.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID <= 0 || event.StartsAt.IsZero() {
		return persistence.ErrConstraintViolation
	}
	date, clock := splitSchedule(event.StartsAt)

	return r.storage.run(ctx, func(ctx context.Context, conn *pool.Conn) error {
		result, err := conn.ExecContext(ctx,
			`UPDATE Event SET event_date = ?, event_time = ?, description = ? WHERE id = ?`,
			date, clock, event.Description, event.ID,
		)
		if err != nil {
			return r.storage.mapper.MapError(err)
		}
		return requireAffected(result.RowsAffected())
	})
}

// DeleteEvent removes an event and, by cascade, its volunteer assignments.
func (r *EventRepository) DeleteEvent(ctx context.Context, id int64) error {
	return r.storage.run(ctx, func(ctx context.Context, conn *pool.Conn) error {
		result, err := conn.ExecContext(ctx, `DELETE FROM Event WHERE id = ?`, id)
		if err != nil {
			return r.storage.mapper.MapError(err)
		}
		return requireAffected(result.RowsAffected())
	})
}

func (r *EventRepository) scan(row rowScanner) (persistence.Event, error) {
	var (
		event       persistence.Event
		date, clock string
	)
	if err := row.Scan(&event.ID, &date, &clock, &event.Description); err != nil {
		return persistence.Event{}, r.storage.mapper.MapError(err)
	}

	startsAt, err := time.ParseInLocation(eventDateLayout+" "+eventTimeLayout, date+" "+clock, time.UTC)
	if err != nil {
		return persistence.Event{}, fmt.Errorf("event %d has an invalid schedule %q %q: %w", event.ID, date, clock, err)
	}
	event.StartsAt = startsAt
	return event, nil
}
