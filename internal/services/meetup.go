package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HelieAriane/Clanimo/internal/models"
)

type MeetupService struct {
	db DB
}

func NewMeetupService(db DB) *MeetupService {
	return &MeetupService{db: db}
}

// Create inserts the meetup and the creator's participant row in one
// transaction so a meetup never exists without its creator on the roster.
func (s *MeetupService) Create(ctx context.Context, createdBy string, params models.CreateMeetupParams) (*models.Meetup, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	meetup := &models.Meetup{}
	err = tx.QueryRow(ctx,
		`INSERT INTO meetups (title, description, district, location_text, image_url, latitude, longitude, date, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, title, description, district, location_text, image_url, latitude, longitude, date, created_by, created_at, updated_at`,
		params.Title, params.Description, params.District, params.LocationText,
		params.ImageURL, params.Latitude, params.Longitude, params.Date, createdBy,
	).Scan(&meetup.ID, &meetup.Title, &meetup.Description, &meetup.District,
		&meetup.LocationText, &meetup.ImageURL, &meetup.Latitude, &meetup.Longitude,
		&meetup.Date, &meetup.CreatedBy, &meetup.CreatedAt, &meetup.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating meetup: %w", err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO meetup_participants (meetup_id, user_id) VALUES ($1, $2)",
		meetup.ID, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("adding creator as participant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing meetup: %w", err)
	}

	meetup.Participants = []string{createdBy}
	return meetup, nil
}

func (s *MeetupService) GetByID(ctx context.Context, id uuid.UUID) (*models.Meetup, error) {
	meetup := &models.Meetup{}
	err := s.db.QueryRow(ctx,
		`SELECT id, title, description, district, location_text, image_url, latitude, longitude, date, created_by, created_at, updated_at
		 FROM meetups WHERE id = $1`,
		id,
	).Scan(&meetup.ID, &meetup.Title, &meetup.Description, &meetup.District,
		&meetup.LocationText, &meetup.ImageURL, &meetup.Latitude, &meetup.Longitude,
		&meetup.Date, &meetup.CreatedBy, &meetup.CreatedAt, &meetup.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMeetupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting meetup: %w", err)
	}

	participants, err := s.Participants(ctx, id)
	if err != nil {
		return nil, err
	}
	meetup.Participants = participants
	return meetup, nil
}

// List returns meetups matching the filter, soonest first. Participant rosters
// are filled with one aggregate query over the page rather than a query per
// meetup.
func (s *MeetupService) List(ctx context.Context, filter models.MeetupListFilter) ([]models.Meetup, error) {
	query := `SELECT m.id, m.title, m.description, m.district, m.location_text, m.image_url,
	                 m.latitude, m.longitude, m.date, m.created_by, m.created_at, m.updated_at
	          FROM meetups m`
	var args []any
	var conds []string

	if filter.Participant != "" {
		args = append(args, filter.Participant)
		query += " JOIN meetup_participants mp ON mp.meetup_id = m.id AND mp.user_id = $" + strconv.Itoa(len(args))
	}
	if filter.District != "" {
		args = append(args, filter.District)
		conds = append(conds, "m.district = $"+strconv.Itoa(len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conds = append(conds, "m.created_by = $"+strconv.Itoa(len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conds = append(conds, "m.date >= $"+strconv.Itoa(len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conds = append(conds, "m.date <= $"+strconv.Itoa(len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY m.date ASC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing meetups: %w", err)
	}
	defer rows.Close()

	meetups := []models.Meetup{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var m models.Meetup
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.District,
			&m.LocationText, &m.ImageURL, &m.Latitude, &m.Longitude,
			&m.Date, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning meetup: %w", err)
		}
		m.Participants = []string{}
		index[m.ID] = len(meetups)
		meetups = append(meetups, m)
	}
	if len(meetups) == 0 {
		return meetups, nil
	}

	ids := make([]uuid.UUID, 0, len(meetups))
	for _, m := range meetups {
		ids = append(ids, m.ID)
	}
	prows, err := s.db.Query(ctx,
		"SELECT meetup_id, user_id FROM meetup_participants WHERE meetup_id = ANY($1) ORDER BY joined_at",
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var meetupID uuid.UUID
		var userID string
		if err := prows.Scan(&meetupID, &userID); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		if i, ok := index[meetupID]; ok {
			meetups[i].Participants = append(meetups[i].Participants, userID)
		}
	}
	return meetups, nil
}

// Update applies the provided fields. Only the creator may update; a
// mismatched owner reads as not-found so callers cannot probe for foreign
// meetup ids.
func (s *MeetupService) Update(ctx context.Context, id uuid.UUID, by string, params models.UpdateMeetupParams) (*models.Meetup, error) {
	meetup := &models.Meetup{}
	err := s.db.QueryRow(ctx,
		`UPDATE meetups
		 SET title         = COALESCE($3, title),
		     description   = COALESCE($4, description),
		     district      = COALESCE($5, district),
		     location_text = COALESCE($6, location_text),
		     image_url     = COALESCE($7, image_url),
		     latitude      = COALESCE($8, latitude),
		     longitude     = COALESCE($9, longitude),
		     date          = COALESCE($10, date),
		     updated_at    = NOW()
		 WHERE id = $1 AND created_by = $2
		 RETURNING id, title, description, district, location_text, image_url, latitude, longitude, date, created_by, created_at, updated_at`,
		id, by, params.Title, params.Description, params.District, params.LocationText,
		params.ImageURL, params.Latitude, params.Longitude, params.Date,
	).Scan(&meetup.ID, &meetup.Title, &meetup.Description, &meetup.District,
		&meetup.LocationText, &meetup.ImageURL, &meetup.Latitude, &meetup.Longitude,
		&meetup.Date, &meetup.CreatedBy, &meetup.CreatedAt, &meetup.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.ownerError(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("updating meetup: %w", err)
	}

	participants, err := s.Participants(ctx, id)
	if err != nil {
		return nil, err
	}
	meetup.Participants = participants
	return meetup, nil
}

// Delete removes the meetup; participants and invites cascade.
func (s *MeetupService) Delete(ctx context.Context, id uuid.UUID, by string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM meetups WHERE id = $1 AND created_by = $2", id, by)
	if err != nil {
		return fmt.Errorf("deleting meetup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.ownerError(ctx, id)
	}
	return nil
}

// ownerError distinguishes a missing meetup from one owned by someone else.
func (s *MeetupService) ownerError(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM meetups WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("checking meetup: %w", err)
	}
	if exists {
		return ErrNotMeetupOwner
	}
	return ErrMeetupNotFound
}

// Invite asks another user to join. The inviter must already be on the
// roster. The partial unique index on (meetup_id, to_user_id) makes a
// duplicate pending invite a unique violation even under concurrent sends.
func (s *MeetupService) Invite(ctx context.Context, meetupID uuid.UUID, from, to string) (*models.MeetupInvite, *Event, error) {
	var title string
	err := s.db.QueryRow(ctx, "SELECT title FROM meetups WHERE id = $1", meetupID).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrMeetupNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("getting meetup: %w", err)
	}

	fromParticipant, err := s.isParticipant(ctx, meetupID, from)
	if err != nil {
		return nil, nil, err
	}
	if !fromParticipant {
		return nil, nil, ErrNotParticipant
	}

	var toExists bool
	if err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", to).Scan(&toExists); err != nil {
		return nil, nil, fmt.Errorf("checking invitee: %w", err)
	}
	if !toExists {
		return nil, nil, ErrUserNotFound
	}

	toParticipant, err := s.isParticipant(ctx, meetupID, to)
	if err != nil {
		return nil, nil, err
	}
	if toParticipant {
		return nil, nil, ErrAlreadyParticipant
	}

	invite := &models.MeetupInvite{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO meetup_invites (meetup_id, from_user_id, to_user_id, status)
		 VALUES ($1, $2, $3, 'pending')
		 RETURNING id, meetup_id, from_user_id, to_user_id, status, created_at, updated_at`,
		meetupID, from, to,
	).Scan(&invite.ID, &invite.MeetupID, &invite.FromUserID, &invite.ToUserID,
		&invite.Status, &invite.CreatedAt, &invite.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, nil, ErrAlreadyInvited
	}
	if err != nil {
		return nil, nil, fmt.Errorf("creating invite: %w", err)
	}

	event := &Event{
		Recipient:   to,
		Actor:       from,
		Kind:        models.NotificationKindMeetupInvite,
		MeetupTitle: title,
		Data: map[string]string{
			"meetupId": meetupID.String(),
			"inviteId": invite.ID.String(),
		},
	}
	return invite, event, nil
}

// AcceptInvite flips the invite to accepted and puts the invitee on the
// roster. The conditional update is the sole gate: once a writer wins it, the
// participant insert is an idempotent follow-up.
func (s *MeetupService) AcceptInvite(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, *Event, error) {
	invite := &models.MeetupInvite{}
	err := s.db.QueryRow(ctx,
		`UPDATE meetup_invites
		 SET status = 'accepted', updated_at = NOW()
		 WHERE id = $1 AND to_user_id = $2 AND status = 'pending'
		 RETURNING id, meetup_id, from_user_id, to_user_id, status, created_at, updated_at`,
		inviteID, by,
	).Scan(&invite.ID, &invite.MeetupID, &invite.FromUserID, &invite.ToUserID,
		&invite.Status, &invite.CreatedAt, &invite.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("accepting invite: %w", err)
	}

	_, err = s.db.Exec(ctx,
		"INSERT INTO meetup_participants (meetup_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		invite.MeetupID, by,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("adding participant: %w", err)
	}

	var title string
	if err := s.db.QueryRow(ctx, "SELECT title FROM meetups WHERE id = $1", invite.MeetupID).Scan(&title); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("getting meetup: %w", err)
	}

	event := &Event{
		Recipient:   invite.FromUserID,
		Actor:       by,
		Kind:        models.NotificationKindMeetupAccept,
		MeetupTitle: title,
		Data: map[string]string{
			"meetupId": invite.MeetupID.String(),
		},
	}
	return invite, event, nil
}

// DeclineInvite closes a pending invite. The invitee declining notifies the
// inviter; the inviter declining their own invite is a silent withdrawal.
func (s *MeetupService) DeclineInvite(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, *Event, error) {
	invite := &models.MeetupInvite{}
	err := s.db.QueryRow(ctx,
		`UPDATE meetup_invites
		 SET status = 'declined', updated_at = NOW()
		 WHERE id = $1 AND (to_user_id = $2 OR from_user_id = $2) AND status = 'pending'
		 RETURNING id, meetup_id, from_user_id, to_user_id, status, created_at, updated_at`,
		inviteID, by,
	).Scan(&invite.ID, &invite.MeetupID, &invite.FromUserID, &invite.ToUserID,
		&invite.Status, &invite.CreatedAt, &invite.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("declining invite: %w", err)
	}

	if by == invite.FromUserID {
		return invite, nil, nil
	}

	var title string
	if err := s.db.QueryRow(ctx, "SELECT title FROM meetups WHERE id = $1", invite.MeetupID).Scan(&title); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("getting meetup: %w", err)
	}

	event := &Event{
		Recipient:   invite.FromUserID,
		Actor:       by,
		Kind:        models.NotificationKindMeetupDecline,
		MeetupTitle: title,
		Data: map[string]string{
			"meetupId": invite.MeetupID.String(),
		},
	}
	return invite, event, nil
}

// CancelInvite withdraws a pending invite. Only the inviter may cancel.
func (s *MeetupService) CancelInvite(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, error) {
	invite := &models.MeetupInvite{}
	err := s.db.QueryRow(ctx,
		`UPDATE meetup_invites
		 SET status = 'canceled', updated_at = NOW()
		 WHERE id = $1 AND from_user_id = $2 AND status = 'pending'
		 RETURNING id, meetup_id, from_user_id, to_user_id, status, created_at, updated_at`,
		inviteID, by,
	).Scan(&invite.ID, &invite.MeetupID, &invite.FromUserID, &invite.ToUserID,
		&invite.Status, &invite.CreatedAt, &invite.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("canceling invite: %w", err)
	}
	return invite, nil
}

// Join adds the caller to the roster. Joining twice is a no-op.
func (s *MeetupService) Join(ctx context.Context, meetupID uuid.UUID, userID string) error {
	var exists bool
	if err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM meetups WHERE id = $1)", meetupID).Scan(&exists); err != nil {
		return fmt.Errorf("checking meetup: %w", err)
	}
	if !exists {
		return ErrMeetupNotFound
	}
	_, err := s.db.Exec(ctx,
		"INSERT INTO meetup_participants (meetup_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		meetupID, userID,
	)
	if err != nil {
		return fmt.Errorf("joining meetup: %w", err)
	}
	return nil
}

// Leave removes the caller from the roster. The creator stays on the roster;
// deleting the meetup is how the creator walks away.
func (s *MeetupService) Leave(ctx context.Context, meetupID uuid.UUID, userID string) error {
	var createdBy string
	err := s.db.QueryRow(ctx, "SELECT created_by FROM meetups WHERE id = $1", meetupID).Scan(&createdBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMeetupNotFound
	}
	if err != nil {
		return fmt.Errorf("checking meetup: %w", err)
	}
	if createdBy == userID {
		return ErrNotParticipant
	}
	_, err = s.db.Exec(ctx,
		"DELETE FROM meetup_participants WHERE meetup_id = $1 AND user_id = $2",
		meetupID, userID,
	)
	if err != nil {
		return fmt.Errorf("leaving meetup: %w", err)
	}
	return nil
}

func (s *MeetupService) Participants(ctx context.Context, meetupID uuid.UUID) ([]string, error) {
	rows, err := s.db.Query(ctx,
		"SELECT user_id FROM meetup_participants WHERE meetup_id = $1 ORDER BY joined_at",
		meetupID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	participants := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		participants = append(participants, userID)
	}
	return participants, nil
}

func (s *MeetupService) ListIncomingInvites(ctx context.Context, userID string) ([]models.MeetupInviteSummary, error) {
	return s.listInvites(ctx,
		`SELECT i.id, i.meetup_id, i.from_user_id, i.to_user_id, i.status, i.created_at, i.updated_at, m.title, m.date
		 FROM meetup_invites i
		 JOIN meetups m ON m.id = i.meetup_id
		 WHERE i.to_user_id = $1 AND i.status = 'pending'
		 ORDER BY i.created_at DESC`,
		userID,
	)
}

func (s *MeetupService) ListOutgoingInvites(ctx context.Context, userID string) ([]models.MeetupInviteSummary, error) {
	return s.listInvites(ctx,
		`SELECT i.id, i.meetup_id, i.from_user_id, i.to_user_id, i.status, i.created_at, i.updated_at, m.title, m.date
		 FROM meetup_invites i
		 JOIN meetups m ON m.id = i.meetup_id
		 WHERE i.from_user_id = $1 AND i.status = 'pending'
		 ORDER BY i.created_at DESC`,
		userID,
	)
}

func (s *MeetupService) listInvites(ctx context.Context, query, userID string) ([]models.MeetupInviteSummary, error) {
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing invites: %w", err)
	}
	defer rows.Close()

	invites := []models.MeetupInviteSummary{}
	for rows.Next() {
		var inv models.MeetupInviteSummary
		if err := rows.Scan(&inv.ID, &inv.MeetupID, &inv.FromUserID, &inv.ToUserID,
			&inv.Status, &inv.CreatedAt, &inv.UpdatedAt, &inv.MeetupTitle, &inv.MeetupDate); err != nil {
			return nil, fmt.Errorf("scanning invite: %w", err)
		}
		invites = append(invites, inv)
	}
	return invites, nil
}

// CountPendingInvites tallies pending invites touching the user from both
// sides, for inbox badges.
func (s *MeetupService) CountPendingInvites(ctx context.Context, userID string) (*models.InviteCounts, error) {
	counts := &models.InviteCounts{}
	err := s.db.QueryRow(ctx,
		`SELECT
		   COUNT(*) FILTER (WHERE to_user_id = $1),
		   COUNT(*) FILTER (WHERE from_user_id = $1)
		 FROM meetup_invites
		 WHERE status = 'pending' AND (to_user_id = $1 OR from_user_id = $1)`,
		userID,
	).Scan(&counts.Incoming, &counts.Outgoing)
	if err != nil {
		return nil, fmt.Errorf("counting invites: %w", err)
	}
	counts.Sent = counts.Outgoing
	counts.Total = counts.Incoming + counts.Outgoing
	return counts, nil
}

func (s *MeetupService) isParticipant(ctx context.Context, meetupID uuid.UUID, userID string) (bool, error) {
	var participant bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM meetup_participants WHERE meetup_id = $1 AND user_id = $2)",
		meetupID, userID,
	).Scan(&participant)
	if err != nil {
		return false, fmt.Errorf("checking participant: %w", err)
	}
	return participant, nil
}
