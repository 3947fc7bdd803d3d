package sqlite

import (
	"context"

	"github.com/example/volunteer-bot/internal/persistence"
	"github.com/example/volunteer-bot/internal/persistence/sqlite/pool"
)

const volunteerColumns = `event_id, role_id, participant_id`

// VolunteerRepository implements persistence.VolunteerRepository using SQLite
type VolunteerRepository struct {
	storage *Storage
}

var _ persistence.VolunteerRepository = (*VolunteerRepository)(nil)

// NewVolunteerRepository creates a volunteer repository backed by s.
func NewVolunteerRepository(s *Storage) *VolunteerRepository {
	return &VolunteerRepository{storage: s}
}

// AssignVolunteer records a participant for a role at an event. A role that
// already has a volunteer yields ErrDuplicate; an unknown event, role or
// participant yields ErrForeignKeyViolation.
func (r *VolunteerRepository) AssignVolunteer(ctx context.Context, volunteer persistence.Volunteer) error {
	return r.storage.run(ctx, func(ctx context.Context, conn *pool.Conn) error {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO Volunteer (event_id, role_id, participant_id) VALUES (?, ?, ?)`,
			volunteer.EventID, volunteer.RoleID, volunteer.ParticipantID,
		)
		return r.storage.mapper.MapError(err)
	})
}

// GetVolunteer returns the assignment for a role at an event
func (r *VolunteerRepository) GetVolunteer(ctx context.Context, eventID, roleID int64) (persistence.Volunteer, error) {
	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) (persistence.Volunteer, error) {
		var v persistence.Volunteer
		err := conn.QueryRowContext(ctx,
			`SELECT `+volunteerColumns+` FROM Volunteer WHERE event_id = ? AND role_id = ?`, eventID, roleID,
		).Scan(&v.EventID, &v.RoleID, &v.ParticipantID)
		if err != nil {
			return persistence.Volunteer{}, r.storage.mapper.MapError(err)
		}
		return v, nil
	})
}

// ListVolunteers returns every assignment ordered by event and role
func (r *VolunteerRepository) ListVolunteers(ctx context.Context) ([]persistence.Volunteer, error) {
	return r.list(ctx, `SELECT `+volunteerColumns+` FROM Volunteer ORDER BY event_id, role_id`)
}

// ListEventVolunteers returns the assignments of one event ordered by role
func (r *VolunteerRepository) ListEventVolunteers(ctx context.Context, eventID int64) ([]persistence.Volunteer, error) {
	return r.list(ctx, `SELECT `+volunteerColumns+` FROM Volunteer WHERE event_id = ? ORDER BY role_id`, eventID)
}

// UpdateVolunteer hands an existing assignment to another participant.
func (r *VolunteerRepository) UpdateVolunteer(ctx context.Context, volunteer persistence.Volunteer) error {
	return r.storage.run(ctx, func(ctx context.Context, conn *pool.Conn) error {
		result, err := conn.ExecContext(ctx,
			`UPDATE Volunteer SET participant_id = ? WHERE event_id = ? AND role_id = ?`,
			volunteer.ParticipantID, volunteer.EventID, volunteer.RoleID,
		)
		if err != nil {
			return r.storage.mapper.MapError(err)
		}
		return requireAffected(result.RowsAffected())
	})
}

// DeleteVolunteer removes the assignment for a role at an event
func (r *VolunteerRepository) DeleteVolunteer(ctx context.Context, eventID, roleID int64) error {
	return r.storage.run(ctx, func(ctx context.Context, conn *pool.Conn) error {
		result, err := conn.ExecContext(ctx,
			`DELETE FROM Volunteer WHERE event_id = ? AND role_id = ?`, eventID, roleID)
		if err != nil {
			return r.storage.mapper.MapError(err)
		}
		return requireAffected(result.RowsAffected())
	})
}

func (r *VolunteerRepository) list(ctx context.Context, query string, args ...any) ([]persistence.Volunteer, error) {
	return runValue(ctx, r.storage, func(ctx context.Context, conn *pool.Conn) ([]persistence.Volunteer, error) {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, r.storage.mapper.MapError(err)
		}
		defer rows.Close()

		var volunteers []persistence.Volunteer
		for rows.Next() {
			var v persistence.Volunteer
			if err := rows.Scan(&v.EventID, &v.RoleID, &v.ParticipantID); err != nil {
				return nil, r.storage.mapper.MapError(err)
			}
			volunteers = append(volunteers, v)
		}
		if err := rows.Err(); err != nil {
			return nil, r.storage.mapper.MapError(err)
		}
		return volunteers, nil
	})
}
