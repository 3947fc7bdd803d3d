package persistence

import "time"

// Participant is a volunteer known to the bot. ID is the Telegram user id.
type Participant struct {
	ID               int64
	TelegramNickname string
	Name             string
	Surname          string
	Age              int
	IsAdmin          bool
	VerstID          int64 // 0 when the participant has no 5 verst id
}

// Role is a volunteer position that can be assigned at an event.
type Role struct {
	ID        int64
	Name      string
	Emoji     string
	IsDefault bool
}

// Event is one scheduled run. StartsAt is stored as separate date and
// time-of-day columns at minute precision, in UTC.
type Event struct {
	ID          int64
	StartsAt    time.Time
	Description string
}

// Volunteer assigns a participant to a role at an event. An event has at
// most one volunteer per role.
type Volunteer struct {
	EventID       int64
	RoleID        int64
	ParticipantID int64
}
