package persistence

import (
	"context"
	"time"
)

// ParticipantRepository stores volunteers.
type ParticipantRepository interface {
	RegisterParticipant(ctx context.Context, id int64, nickname string) (int64, error)
	GetParticipant(ctx context.Context, id int64) (Participant, error)
	FindParticipantByNickname(ctx context.Context, nickname string) (Participant, error)
	ListParticipants(ctx context.Context) ([]Participant, error)
	UpdateParticipant(ctx context.Context, participant Participant) error
}

// RoleRepository stores volunteer roles.
type RoleRepository interface {
	CreateRole(ctx context.Context, name, emoji string) (int64, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, role Role) error
	DeleteRole(ctx context.Context, id int64) error
}

// EventRepository stores scheduled runs.
type EventRepository interface {
	CreateEvent(ctx context.Context, startsAt time.Time, description string) (int64, error)
	GetEvent(ctx context.Context, id int64) (Event, error)
	FindEventByDate(ctx context.Context, date time.Time) (Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	UpdateEvent(ctx context.Context, event Event) error
	DeleteEvent(ctx context.Context, id int64) error
}

// VolunteerRepository stores role assignments at events.
type VolunteerRepository interface {
	AssignVolunteer(ctx context.Context, volunteer Volunteer) error
	GetVolunteer(ctx context.Context, eventID, roleID int64) (Volunteer, error)
	ListVolunteers(ctx context.Context) ([]Volunteer, error)
	ListEventVolunteers(ctx context.Context, eventID int64) ([]Volunteer, error)
	UpdateVolunteer(ctx context.Context, volunteer Volunteer) error
	DeleteVolunteer(ctx context.Context, eventID, roleID int64) error
}
