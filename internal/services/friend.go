package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HelieAriane/Clanimo/internal/models"
)

type FriendService struct {
	db DBConn
}

func NewFriendService(db DBConn) *FriendService {
	return &FriendService{db: db}
}

// SendRequestResult carries the request row, whether an old terminal row was
// reactivated, and the notification event for the recipient.
type SendRequestResult struct {
	Request     *models.FriendRequest
	Reactivated bool
	Event       *Event
}

// SendRequest creates or reactivates the friend request between two
// identities. The partial unique index on the unordered pair enforces "at
// most one pending per pair"; a unique violation from a racing writer is
// surfaced as ErrRequestExists, never as a fatal error.
func (s *FriendService) SendRequest(ctx context.Context, from, to string) (*SendRequestResult, error) {
	if from == to {
		return nil, ErrSelfFriendRequest
	}

	var targetExists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", to).Scan(&targetExists)
	if err != nil {
		return nil, fmt.Errorf("checking recipient: %w", err)
	}
	if !targetExists {
		return nil, ErrUserNotFound
	}

	var alreadyFriends bool
	err = s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)",
		from, to,
	).Scan(&alreadyFriends)
	if err != nil {
		return nil, fmt.Errorf("checking friendship: %w", err)
	}
	if alreadyFriends {
		return nil, ErrAlreadyFriends
	}

	// One row per pair is reused across the whole lifecycle, so look it up in
	// both directions regardless of status.
	existing := &models.FriendRequest{}
	err = s.db.QueryRow(ctx,
		`SELECT id, from_user_id, to_user_id, status, created_at, updated_at
		 FROM friend_requests
		 WHERE (from_user_id = $1 AND to_user_id = $2)
		    OR (from_user_id = $2 AND to_user_id = $1)
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		from, to,
	).Scan(&existing.ID, &existing.FromUserID, &existing.ToUserID, &existing.Status, &existing.CreatedAt, &existing.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return s.insertRequest(ctx, from, to)
	case err != nil:
		return nil, fmt.Errorf("looking up existing request: %w", err)
	}

	if existing.Status == models.FriendRequestStatusPending {
		if existing.FromUserID == from {
			return nil, ErrRequestExists
		}
		// The counterparty already asked; the caller should accept instead.
		return nil, ErrInverseRequestPending
	}

	return s.reactivateRequest(ctx, existing.ID, from, to)
}

func (s *FriendService) insertRequest(ctx context.Context, from, to string) (*SendRequestResult, error) {
	request := &models.FriendRequest{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO friend_requests (from_user_id, to_user_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING id, from_user_id, to_user_id, status, created_at, updated_at`,
		from, to,
	).Scan(&request.ID, &request.FromUserID, &request.ToUserID, &request.Status, &request.CreatedAt, &request.UpdatedAt)
	if isUniqueViolation(err) {
		// Lost the race to a concurrent request for the same pair.
		return nil, ErrRequestExists
	}
	if err != nil {
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	return &SendRequestResult{
		Request: request,
		Event:   friendRequestEvent(request),
	}, nil
}

// reactivateRequest flips a terminal row back to pending, overwriting the
// direction to the new requester. The status guard keeps the update atomic:
// if another writer reactivated first, zero rows match.
func (s *FriendService) reactivateRequest(ctx context.Context, id uuid.UUID, from, to string) (*SendRequestResult, error) {
	request := &models.FriendRequest{}
	err := s.db.QueryRow(ctx,
		`UPDATE friend_requests
		 SET from_user_id = $2, to_user_id = $3, status = 'pending', updated_at = NOW()
		 WHERE id = $1 AND status <> 'pending'
		 RETURNING id, from_user_id, to_user_id, status, created_at, updated_at`,
		id, from, to,
	).Scan(&request.ID, &request.FromUserID, &request.ToUserID, &request.Status, &request.CreatedAt, &request.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return nil, ErrRequestExists
	}
	if err != nil {
		return nil, fmt.Errorf("reactivating friend request: %w", err)
	}

	return &SendRequestResult{
		Request:     request,
		Reactivated: true,
		Event:       friendRequestEvent(request),
	}, nil
}

// AcceptRequest transitions a pending request to accepted and inserts the
// symmetric friendship edge. The transition is a single conditional update
// gated on id, recipient and pending status; an empty match is uniformly
// not-found so callers cannot tell a foreign row from a missing one.
func (s *FriendService) AcceptRequest(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, *Event, error) {
	request := &models.FriendRequest{}
	err := s.db.QueryRow(ctx,
		`UPDATE friend_requests
		 SET status = 'accepted', updated_at = NOW()
		 WHERE id = $1 AND to_user_id = $2 AND status = 'pending'
		 RETURNING id, from_user_id, to_user_id, status, created_at, updated_at`,
		requestID, by,
	).Scan(&request.ID, &request.FromUserID, &request.ToUserID, &request.Status, &request.CreatedAt, &request.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("accepting friend request: %w", err)
	}

	// Two independent single-row writes, intentionally not one transaction.
	// A crash in between leaves an asymmetric edge that the next accept or
	// removal repairs; the inserts themselves are idempotent.
	if err := s.insertEdge(ctx, request.FromUserID, request.ToUserID); err != nil {
		return nil, nil, err
	}
	if err := s.insertEdge(ctx, request.ToUserID, request.FromUserID); err != nil {
		return nil, nil, err
	}

	event := &Event{
		Recipient: request.FromUserID,
		Actor:     request.ToUserID,
		Kind:      models.NotificationKindFriendAccept,
		Data: map[string]string{
			"fromUserId": request.FromUserID,
			"toUserId":   request.ToUserID,
		},
	}
	return request, event, nil
}

// DeclineRequest moves a pending request to declined. Either party may
// decline; the recipient turning someone down and the sender withdrawing via
// decline are both allowed, matching the one-row-per-pair lifecycle.
func (s *FriendService) DeclineRequest(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, *Event, error) {
	request, err := s.closeRequest(ctx, requestID, by, models.FriendRequestStatusDeclined)
	if err != nil {
		return nil, nil, err
	}

	event := &Event{
		Recipient: request.FromUserID,
		Actor:     request.ToUserID,
		Kind:      models.NotificationKindFriendDecline,
		Data: map[string]string{
			"fromUserId": request.FromUserID,
			"toUserId":   request.ToUserID,
		},
	}
	// Declining your own request notifies nobody.
	if by == request.FromUserID {
		event = nil
	}
	return request, event, nil
}

func (s *FriendService) closeRequest(ctx context.Context, requestID uuid.UUID, by string, status models.FriendRequestStatus) (*models.FriendRequest, error) {
	request := &models.FriendRequest{}
	err := s.db.QueryRow(ctx,
		`UPDATE friend_requests
		 SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND (from_user_id = $2 OR to_user_id = $2) AND status = 'pending'
		 RETURNING id, from_user_id, to_user_id, status, created_at, updated_at`,
		requestID, by, status,
	).Scan(&request.ID, &request.FromUserID, &request.ToUserID, &request.Status, &request.CreatedAt, &request.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("closing friend request: %w", err)
	}
	return request, nil
}

// CancelRequest withdraws a pending request. Only the sender can cancel, and
// cancellation is silent.
func (s *FriendService) CancelRequest(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, error) {
	request := &models.FriendRequest{}
	err := s.db.QueryRow(ctx,
		`UPDATE friend_requests
		 SET status = 'canceled', updated_at = NOW()
		 WHERE id = $1 AND from_user_id = $2 AND status = 'pending'
		 RETURNING id, from_user_id, to_user_id, status, created_at, updated_at`,
		requestID, by,
	).Scan(&request.ID, &request.FromUserID, &request.ToUserID, &request.Status, &request.CreatedAt, &request.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("canceling friend request: %w", err)
	}
	return request, nil
}

// RemoveFriendship deletes both directions of the edge. Removing a non-friend
// is a no-op, not an error. The request row is left untouched so a later
// request between the pair reactivates it.
func (s *FriendService) RemoveFriendship(ctx context.Context, a, b string) error {
	if _, err := s.db.Exec(ctx,
		"DELETE FROM friendships WHERE user_id = $1 AND friend_id = $2", a, b,
	); err != nil {
		return fmt.Errorf("removing friendship edge: %w", err)
	}
	if _, err := s.db.Exec(ctx,
		"DELETE FROM friendships WHERE user_id = $1 AND friend_id = $2", b, a,
	); err != nil {
		return fmt.Errorf("removing friendship edge: %w", err)
	}
	return nil
}

func (s *FriendService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var friends bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)",
		a, b,
	).Scan(&friends)
	if err != nil {
		return false, fmt.Errorf("checking friendship: %w", err)
	}
	return friends, nil
}

func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]models.FriendProfile, error) {
	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.username, u.display_name, u.avatar_url, u.district
		 FROM friendships f
		 JOIN users u ON u.id = f.friend_id
		 WHERE f.user_id = $1
		 ORDER BY u.display_name, u.username`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friends: %w", err)
	}
	defer rows.Close()

	var friends []models.FriendProfile
	for rows.Next() {
		var p models.FriendProfile
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.District); err != nil {
			return nil, fmt.Errorf("scanning friend: %w", err)
		}
		friends = append(friends, p)
	}
	if friends == nil {
		friends = []models.FriendProfile{}
	}
	return friends, nil
}

func (s *FriendService) ListIncomingRequests(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	return s.listPending(ctx,
		`SELECT r.id, r.from_user_id, r.to_user_id, r.status, r.created_at, r.updated_at, u.username, u.display_name
		 FROM friend_requests r
		 JOIN users u ON u.id = r.from_user_id
		 WHERE r.to_user_id = $1 AND r.status = 'pending'
		 ORDER BY r.created_at DESC`,
		userID,
	)
}

func (s *FriendService) ListOutgoingRequests(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	return s.listPending(ctx,
		`SELECT r.id, r.from_user_id, r.to_user_id, r.status, r.created_at, r.updated_at, u.username, u.display_name
		 FROM friend_requests r
		 JOIN users u ON u.id = r.to_user_id
		 WHERE r.from_user_id = $1 AND r.status = 'pending'
		 ORDER BY r.created_at DESC`,
		userID,
	)
}

func (s *FriendService) listPending(ctx context.Context, query, userID string) ([]models.FriendRequestWithUser, error) {
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var requests []models.FriendRequestWithUser
	for rows.Next() {
		var r models.FriendRequestWithUser
		if err := rows.Scan(&r.ID, &r.FromUserID, &r.ToUserID, &r.Status, &r.CreatedAt, &r.UpdatedAt, &r.Username, &r.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, r)
	}
	if requests == nil {
		requests = []models.FriendRequestWithUser{}
	}
	return requests, nil
}

func (s *FriendService) insertEdge(ctx context.Context, userID, friendID string) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, friendID,
	)
	if err != nil {
		return fmt.Errorf("inserting friendship edge: %w", err)
	}
	return nil
}

func friendRequestEvent(request *models.FriendRequest) *Event {
	return &Event{
		Recipient: request.ToUserID,
		Actor:     request.FromUserID,
		Kind:      models.NotificationKindFriendRequest,
		Data: map[string]string{
			"fromUserId": request.FromUserID,
			"requestId":  request.ID.String(),
		},
	}
}
