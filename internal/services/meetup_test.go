package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/HelieAriane/Clanimo/internal/models"
)

func meetupRow(id uuid.UUID, title, createdBy string) Row {
	now := time.Now()
	return rowFromValues(id, title, "", "", "", "", (*float64)(nil), (*float64)(nil), now, createdBy, now, now)
}

func inviteRow(id, meetupID uuid.UUID, from, to string, status models.InviteStatus) Row {
	now := time.Now()
	return rowFromValues(id, meetupID, from, to, status, now, now)
}

func TestCreateMeetupAddsCreatorAsParticipant(t *testing.T) {
	meetupID := uuid.New()
	var participantInsert []any
	tx := &fakeTx{
		QueryRowFunc: func(_ context.Context, sql string, _ ...any) Row {
			if strings.Contains(sql, "INSERT INTO meetups") {
				return meetupRow(meetupID, "Park walk", "alice")
			}
			t.Fatalf("unexpected query: %s", sql)
			return nil
		},
		ExecFunc: func(_ context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "INSERT INTO meetup_participants") {
				t.Fatalf("unexpected exec: %s", sql)
			}
			participantInsert = args
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	db := &fakeDB{
		BeginFunc: func(_ context.Context) (Tx, error) {
			return tx, nil
		},
	}
	service := NewMeetupService(db)

	meetup, err := service.Create(context.Background(), "alice", models.CreateMeetupParams{
		Title: "Park walk",
		Date:  time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.committed {
		t.Error("expected transaction commit")
	}
	if len(participantInsert) != 2 || participantInsert[1] != "alice" {
		t.Errorf("expected creator participant insert, got %v", participantInsert)
	}
	if len(meetup.Participants) != 1 || meetup.Participants[0] != "alice" {
		t.Errorf("expected creator on roster, got %v", meetup.Participants)
	}
}

func TestUpdateMeetupNotOwner(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(_ context.Context, sql string, _ ...any) Row {
			switch {
			case strings.Contains(sql, "UPDATE meetups"):
				return noRow()
			case strings.Contains(sql, "SELECT EXISTS"):
				return boolRow(true)
			}
			t.Fatalf("unexpected query: %s", sql)
			return nil
		},
	}
	service := NewMeetupService(db)

	_, err := service.Update(context.Background(), uuid.New(), "mallory", models.UpdateMeetupParams{})
	if !errors.Is(err, ErrNotMeetupOwner) {
		t.Fatalf("expected ErrNotMeetupOwner, got %v", err)
	}
}

func TestUpdateMeetupMissing(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(_ context.Context, sql string, _ ...any) Row {
			switch {
			case strings.Contains(sql, "UPDATE meetups"):
				return noRow()
			case strings.Contains(sql, "SELECT EXISTS"):
				return boolRow(false)
			}
			t.Fatalf("unexpected query: %s", sql)
			return nil
		},
	}
	service := NewMeetupService(db)

	_, err := service.Update(context.Background(), uuid.New(), "alice", models.UpdateMeetupParams{})
	if !errors.Is(err, ErrMeetupNotFound) {
		t.Fatalf("expected ErrMeetupNotFound, got %v", err)
	}
}

func TestInviteRequiresParticipant(t *testing.T) {
	meetupID := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(_ context.Context, sql string, args ...any) Row {
			switch {
			case strings.Contains(sql, "SELECT title"):
				return rowFromValues("Park walk")
			case strings.Contains(sql, "FROM meetup_participants"):
				return boolRow(false)
			}
			t.Fatalf("unexpected query: %s %v", sql, args)
			return nil
		},
	}
	service := NewMeetupService(db)

	_, _, err := service.Invite(context.Background(), meetupID, "outsider", "bob")
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestInviteAlreadyParticipant(t *testing.T) {
	meetupID := uuid.New()
	participantChecks := 0
	db := &fakeDB{
		QueryRowFunc: func(_ context.Context, sql string, _ ...any) Row {
			switch {
			case strings.Contains(sql, "SELECT title"):
				return rowFromValues("Park walk")
			case strings.Contains(sql, "FROM meetup_participants"):
				participantChecks++
				// Inviter and invitee are both on the roster.
				return boolRow(true)
			case strings.Contains(sql, "FROM users"):
				return boolRow(true)
			}
			t.Fatalf("unexpected query: %s", sql)
			return nil
		},
	}
	service := NewMeetupService(db)

	_, _, err := service.Invite(context.Background(), meetupID, "alice", "bob")
	conflict, ok := AsConflict(err)
	if !ok || conflict.Reason != "already_participant" {
		t.Fatalf("expected already_participant conflict, got %v", err)
	}
	if participantChecks != 2 {
		t.Errorf("expected both roster checks, got %d", participantChecks)
	}
}

func TestInviteDuplicatePending(t *testing.T) {
	meetupID := uuid.New()
	participantChecks := 0
	db := &fakeDB{
		QueryRowFunc: func(_ context.Context, sql string, _ ...any) Row {
			switch {
			case strings.Contains(sql, "SELECT title"):
				return rowFromValues("Park walk")
			case strings.Contains(sql, "FROM meetup_participants"):
				participantChecks++
				return boolRow(participantChecks == 1)
			case strings.Contains(sql, "FROM users"):
				return boolRow(true)
			case strings.Contains(sql, "INSERT INTO meetup_invites"):
				return uniqueViolationRow()
			}
			t.Fatalf("unexpected query: %s", sql)
			return nil
		},
	}
	service := NewMeetupService(db)

	_, _, err := service.Invite(context.Background(), meetupID, "alice", "bob")
	conflict, ok := AsConflict(err)
	if !ok || conflict.Reason != "already_invited" {
		t.Fatalf("expected already_invited conflict, got %v", err)
	}
}

func TestInviteEmitsEvent(t *testing.T) {
	meetupID := uuid.New()
	inviteID := uuid.New()
	participantChecks := 0
	db := &fakeDB{
		QueryRowFunc: func(_ context.Context, sql string, _ ...any) Row {
			switch {
			case strings.Contains(sql, "SELECT title"):
				return rowFromValues("Park walk")
			case strings.Contains(sql, "FROM meetup_participants"):
				participantChecks++
				return boolRow(participantChecks == 1)
			case strings.Contains(sql, "FROM users"):
				return boolRow(true)
			case strings.Contains(sql, "INSERT INTO meetup_invites"):
				return inviteRow(inviteID, meetupID, "alice", "bob", models.InviteStatusPending)
			}
			t.Fatalf("unexpected query: %s", sql)
			return nil
		},
	}
	service := NewMeetupService(db)

	invite, event, err := service.Invite(context.Background(), meetupID, "alice", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invite.Status != models.InviteStatusPending {
		t.Errorf("expected pending invite, got %s", invite.Status)
	}
	if event == nil || event.Recipient != "bob" || event.Kind != models.NotificationKindMeetupInvite {
		t.Fatalf("expected meetup_invite event to bob, got %+v", event)
	}
	if event.MeetupTitle != "Park walk" {
		t.Errorf("expected meetup title on event, got %q", event.MeetupTitle)
	}
}

func TestAcceptInviteAddsParticipant(t *testing.T) {
	meetupID := uuid.New()
	inviteID := uuid.New()
	var participantInsert []any
	db := &fakeDB{
		QueryRowFunc: func(_ context.Context, sql string, _ ...any) Row {
			switch {
			case strings.Contains(sql, "UPDATE meetup_invites"):
				return inviteRow(inviteID, meetupID, "alice", "bob", models.InviteStatusAccepted)
			case strings.Contains(sql, "SELECT title"):
				return rowFromValues("Park walk")
			}
			t.Fatalf("unexpected query: %s", sql)
			return nil
		},
		ExecFunc: func(_ context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "INSERT INTO meetup_participants") {
				t.Fatalf("unexpected exec: %s", sql)
			}
			participantInsert = args
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	service := NewMeetupService(db)

	invite, event, err := service.AcceptInvite(context.Background(), inviteID, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invite.Status != models.InviteStatusAccepted {
		t.Errorf("expected accepted invite, got %s", invite.Status)
	}
	if len(participantInsert) != 2 || participantInsert[1] != "bob" {
		t.Errorf("expected bob added to roster, got %v", participantInsert)
	}
	if event == nil || event.Recipient != "alice" || event.Kind != models.NotificationKindMeetupAccept {
		t.Errorf("expected meetup_accept event to alice, got %+v", event)
	}
}

func TestAcceptInviteNotInvitee(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(_ context.Context, _ string, _ ...any) Row {
			return noRow()
		},
	}
	service := NewMeetupService(db)

	_, _, err := service.AcceptInvite(context.Background(), uuid.New(), "mallory")
	if !errors.Is(err, ErrInviteNotFound) {
		t.Fatalf("expected ErrInviteNotFound, got %v", err)
	}
}

func TestDeclineInviteByInviterIsSilent(t *testing.T) {
	meetupID := uuid.New()
	inviteID := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(_ context.Context, sql string, _ ...any) Row {
			if strings.Contains(sql, "UPDATE meetup_invites") {
				return inviteRow(inviteID, meetupID, "alice", "bob", models.InviteStatusDeclined)
			}
			t.Fatalf("unexpected query: %s", sql)
			return nil
		},
	}
	service := NewMeetupService(db)

	_, event, err := service.DeclineInvite(context.Background(), inviteID, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event != nil {
		t.Errorf("inviter withdrawing should not notify, got %+v", event)
	}
}

func TestLeaveMeetupCreatorRefused(t *testing.T) {
	meetupID := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(_ context.Context, sql string, _ ...any) Row {
			if strings.Contains(sql, "SELECT created_by") {
				return rowFromValues("alice")
			}
			t.Fatalf("unexpected query: %s", sql)
			return nil
		},
	}
	service := NewMeetupService(db)

	err := service.Leave(context.Background(), meetupID, "alice")
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant for creator leave, got %v", err)
	}
}

func TestCountPendingInvites(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(_ context.Context, sql string, _ ...any) Row {
			if strings.Contains(sql, "FROM meetup_invites") {
				return rowFromValues(3, 2)
			}
			t.Fatalf("unexpected query: %s", sql)
			return nil
		},
	}
	service := NewMeetupService(db)

	counts, err := service.CountPendingInvites(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Incoming != 3 || counts.Outgoing != 2 || counts.Sent != 2 || counts.Total != 5 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}
