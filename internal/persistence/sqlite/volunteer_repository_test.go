package sqlite_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/example/volunteer-bot/internal/persistence"
	"github.com/example/volunteer-bot/internal/testfixtures"
)

type volunteerSetup struct {
	harness      *testfixtures.SQLiteHarness
	eventID      int64
	roleIDs      []int64
	participants []int64
}

func newVolunteerSetup(t *testing.T) volunteerSetup {
	t.Helper()
	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	event := testfixtures.NewEventFixture()
	eventID, err := harness.Events.CreateEvent(ctx, event.StartsAt, event.Description)
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	setup := volunteerSetup{harness: harness, eventID: eventID}
	for range 2 {
		role := testfixtures.NewRoleFixture()
		id, err := harness.Roles.CreateRole(ctx, role.Name, role.Emoji)
		if err != nil {
			t.Fatalf("CreateRole failed: %v", err)
		}
		setup.roleIDs = append(setup.roleIDs, id)

		participant := testfixtures.NewParticipantFixture()
		if _, err := harness.Participants.RegisterParticipant(ctx, participant.ID, participant.TelegramNickname); err != nil {
			t.Fatalf("RegisterParticipant failed: %v", err)
		}
		setup.participants = append(setup.participants, participant.ID)
	}
	return setup
}

func TestVolunteerRepository(t *testing.T) {
	t.Parallel()

	t.Run("assigns, reassigns and removes volunteers", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newVolunteerSetup(t)
		repo := s.harness.Volunteers

		assignments := []persistence.Volunteer{
			{EventID: s.eventID, RoleID: s.roleIDs[1], ParticipantID: s.participants[0]},
			{EventID: s.eventID, RoleID: s.roleIDs[0], ParticipantID: s.participants[1]},
		}
		for _, v := range assignments {
			if err := repo.AssignVolunteer(ctx, v); err != nil {
				t.Fatalf("AssignVolunteer failed: %v", err)
			}
		}

		got, err := repo.GetVolunteer(ctx, s.eventID, s.roleIDs[1])
		if err != nil {
			t.Fatalf("GetVolunteer failed: %v", err)
		}
		if got != assignments[0] {
			t.Fatalf("expected %#v, got %#v", assignments[0], got)
		}

		listed, err := repo.ListEventVolunteers(ctx, s.eventID)
		if err != nil {
			t.Fatalf("ListEventVolunteers failed: %v", err)
		}
		want := []persistence.Volunteer{assignments[1], assignments[0]}
		if !reflect.DeepEqual(listed, want) {
			t.Fatalf("expected %#v ordered by role, got %#v", want, listed)
		}

		reassigned := assignments[0]
		reassigned.ParticipantID = s.participants[1]
		if err := repo.UpdateVolunteer(ctx, reassigned); err != nil {
			t.Fatalf("UpdateVolunteer failed: %v", err)
		}
		if got, err = repo.GetVolunteer(ctx, s.eventID, s.roleIDs[1]); err != nil || got != reassigned {
			t.Fatalf("unexpected volunteer after update: %#v (%v)", got, err)
		}

		if err := repo.DeleteVolunteer(ctx, s.eventID, s.roleIDs[1]); err != nil {
			t.Fatalf("DeleteVolunteer failed: %v", err)
		}
		if err := repo.DeleteVolunteer(ctx, s.eventID, s.roleIDs[1]); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
		all, err := repo.ListVolunteers(ctx)
		if err != nil {
			t.Fatalf("ListVolunteers failed: %v", err)
		}
		if !reflect.DeepEqual(all, []persistence.Volunteer{assignments[1]}) {
			t.Fatalf("unexpected remaining volunteers: %#v", all)
		}
	})

	t.Run("allows one volunteer per role", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newVolunteerSetup(t)
		repo := s.harness.Volunteers

		first := persistence.Volunteer{EventID: s.eventID, RoleID: s.roleIDs[0], ParticipantID: s.participants[0]}
		if err := repo.AssignVolunteer(ctx, first); err != nil {
			t.Fatalf("AssignVolunteer failed: %v", err)
		}
		second := first
		second.ParticipantID = s.participants[1]
		if err := repo.AssignVolunteer(ctx, second); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
		if err := repo.UpdateVolunteer(ctx, persistence.Volunteer{EventID: s.eventID, RoleID: s.roleIDs[1], ParticipantID: s.participants[0]}); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for an unassigned role, got %v", err)
		}
	})

	t.Run("enforces references", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		s := newVolunteerSetup(t)
		repo := s.harness.Volunteers

		invalid := []persistence.Volunteer{
			{EventID: 999, RoleID: s.roleIDs[0], ParticipantID: s.participants[0]},
			{EventID: s.eventID, RoleID: 999, ParticipantID: s.participants[0]},
			{EventID: s.eventID, RoleID: s.roleIDs[0], ParticipantID: 999},
		}
		for _, v := range invalid {
			if err := repo.AssignVolunteer(ctx, v); !errors.Is(err, persistence.ErrForeignKeyViolation) {
				t.Fatalf("AssignVolunteer(%#v): expected ErrForeignKeyViolation, got %v", v, err)
			}
		}

		assigned := persistence.Volunteer{EventID: s.eventID, RoleID: s.roleIDs[0], ParticipantID: s.participants[0]}
		if err := repo.AssignVolunteer(ctx, assigned); err != nil {
			t.Fatalf("AssignVolunteer failed: %v", err)
		}
		if err := s.harness.Roles.DeleteRole(ctx, s.roleIDs[0]); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation deleting an assigned role, got %v", err)
		}

		if err := s.harness.Events.DeleteEvent(ctx, s.eventID); err != nil {
			t.Fatalf("DeleteEvent failed: %v", err)
		}
		remaining, err := repo.ListVolunteers(ctx)
		if err != nil {
			t.Fatalf("ListVolunteers failed: %v", err)
		}
		if len(remaining) != 0 {
			t.Fatalf("expected assignments to cascade with the event, got %#v", remaining)
		}
	})
}
