package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/volunteer-bot/internal/persistence"
)

var (
	participantCounter int64
	roleCounter        int64
	eventCounter       int64
)

var referenceTime = time.Date(2023, time.November, 11, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ParticipantFixture is a deterministic participant record.
type ParticipantFixture struct {
	ID               int64
	TelegramNickname string
	Name             string
	Surname          string
	Age              int
	IsAdmin          bool
	VerstID          int64
}

// ParticipantOption configures the generated participant fixture.
type ParticipantOption func(*ParticipantFixture)

// NewParticipantFixture returns a participant with unique id and nickname.
func NewParticipantFixture(opts ...ParticipantOption) ParticipantFixture {
	idx := atomic.AddInt64(&participantCounter, 1)
	fixture := ParticipantFixture{
		ID:               defaultBaseID + idx,
		TelegramNickname: fmt.Sprintf("participant_%03d", idx),
		Name:             fmt.Sprintf("Name%03d", idx),
		Surname:          fmt.Sprintf("Surname%03d", idx),
		Age:              30,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithParticipantID overrides the generated Telegram id.
func WithParticipantID(id int64) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.ID = id
	}
}

// WithParticipantNickname overrides the generated nickname.
func WithParticipantNickname(nickname string) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.TelegramNickname = nickname
	}
}

// WithParticipantName sets the name and surname.
func WithParticipantName(name, surname string) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.Name = name
		f.Surname = surname
	}
}

// WithParticipantAge sets the age.
func WithParticipantAge(age int) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.Age = age
	}
}

// WithParticipantAdmin sets the admin flag.
func WithParticipantAdmin(isAdmin bool) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.IsAdmin = isAdmin
	}
}

// WithParticipantVerstID sets the 5 verst id.
func WithParticipantVerstID(id int64) ParticipantOption {
	return func(f *ParticipantFixture) {
		f.VerstID = id
	}
}

// Persistence returns the fixture as a persistence.Participant value.
func (f ParticipantFixture) Persistence() persistence.Participant {
	return persistence.Participant{
		ID:               f.ID,
		TelegramNickname: f.TelegramNickname,
		Name:             f.Name,
		Surname:          f.Surname,
		Age:              f.Age,
		IsAdmin:          f.IsAdmin,
		VerstID:          f.VerstID,
	}
}

// RoleFixture is a deterministic role record. ID is assigned by the database.
type RoleFixture struct {
	Name      string
	Emoji     string
	IsDefault bool
}

// RoleOption configures the generated role fixture.
type RoleOption func(*RoleFixture)

// NewRoleFixture returns a role with a unique name.
func NewRoleFixture(opts ...RoleOption) RoleFixture {
	idx := atomic.AddInt64(&roleCounter, 1)
	fixture := RoleFixture{
		Name:  fmt.Sprintf("role-%03d", idx),
		Emoji: "🙂",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoleName overrides the generated name.
func WithRoleName(name string) RoleOption {
	return func(f *RoleFixture) {
		f.Name = name
	}
}

// WithRoleEmoji overrides the emoji.
func WithRoleEmoji(emoji string) RoleOption {
	return func(f *RoleFixture) {
		f.Emoji = emoji
	}
}

// WithRoleDefault sets the default flag.
func WithRoleDefault(isDefault bool) RoleOption {
	return func(f *RoleFixture) {
		f.IsDefault = isDefault
	}
}

// Persistence returns the fixture as a persistence.Role with the given id.
func (f RoleFixture) Persistence(id int64) persistence.Role {
	return persistence.Role{
		ID:        id,
		Name:      f.Name,
		Emoji:     f.Emoji,
		IsDefault: f.IsDefault,
	}
}

// EventFixture is a deterministic event record. ID is assigned by the database.
type EventFixture struct {
	StartsAt    time.Time
	Description string
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns an event one week after the previous fixture,
// starting from ReferenceTime.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddInt64(&eventCounter, 1)
	fixture := EventFixture{
		StartsAt:    referenceTime.AddDate(0, 0, 7*int(idx)),
		Description: fmt.Sprintf("Run #%d", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventStart overrides the start time.
func WithEventStart(startsAt time.Time) EventOption {
	return func(f *EventFixture) {
		f.StartsAt = startsAt
	}
}

// WithEventDescription overrides the description.
func WithEventDescription(description string) EventOption {
	return func(f *EventFixture) {
		f.Description = description
	}
}

// Persistence returns the fixture as a persistence.Event with the given id.
func (f EventFixture) Persistence(id int64) persistence.Event {
	return persistence.Event{
		ID:          id,
		StartsAt:    f.StartsAt.UTC().Truncate(time.Minute),
		Description: f.Description,
	}
}
