package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HelieAriane/Clanimo/internal/config"
	"github.com/HelieAriane/Clanimo/internal/logging"
	"github.com/HelieAriane/Clanimo/internal/models"
)

const (
	notificationPageLimit = 20
	notificationPageMax   = 50

	unreadCountTTL = 5 * time.Minute
)

// NotificationService turns domain events into stored notifications and fans
// them out to push and email. The store write is synchronous; push and email
// are fire-and-forget through the queue.
type NotificationService struct {
	db     DBConn
	cache  RedisClient
	users  *UserService
	push   *PushService
	queue  *PushQueue
	email  EmailProvider
	cfg    config.NotificationConfig
	logger *logging.Logger
}

func NewNotificationService(
	db DBConn,
	cache RedisClient,
	users *UserService,
	push *PushService,
	queue *PushQueue,
	email EmailProvider,
	cfg config.NotificationConfig,
	logger *logging.Logger,
) *NotificationService {
	return &NotificationService{
		db:     db,
		cache:  cache,
		users:  users,
		push:   push,
		queue:  queue,
		email:  email,
		cfg:    cfg,
		logger: logger,
	}
}

// Notify persists a notification for the event's recipient and schedules the
// push and email legs. A push or email failure never surfaces to the caller;
// only the store write can fail.
func (s *NotificationService) Notify(ctx context.Context, event *Event) (*models.Notification, error) {
	if event == nil {
		return nil, nil
	}

	actorName, err := s.users.DisplayName(ctx, event.Actor)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if actorName == "" {
		actorName = "Someone"
	}

	title, message := renderNotification(event, actorName)
	notification, err := s.Create(ctx, event.Recipient, event.Kind, title, message, event.Data)
	if err != nil {
		return nil, err
	}

	s.dispatchAsync(event.Recipient, title, message, event.Data)
	return notification, nil
}

// Create stores a notification directly, without templating. Used by Notify
// and by the test-notification endpoint.
func (s *NotificationService) Create(ctx context.Context, userID string, kind models.NotificationKind, title, message string, data map[string]string) (*models.Notification, error) {
	if data == nil {
		data = map[string]string{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding notification data: %w", err)
	}

	var expiresAt *time.Time
	if s.cfg.TTLDays > 0 {
		t := time.Now().AddDate(0, 0, s.cfg.TTLDays)
		expiresAt = &t
	}

	notification := &models.Notification{}
	var raw []byte
	err = s.db.QueryRow(ctx,
		`INSERT INTO notifications (user_id, kind, title, message, data, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, user_id, kind, title, message, data, read, expires_at, created_at`,
		userID, kind, title, message, payload, expiresAt,
	).Scan(&notification.ID, &notification.UserID, &notification.Kind,
		&notification.Title, &notification.Message, &raw,
		&notification.Read, &notification.ExpiresAt, &notification.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	if err := json.Unmarshal(raw, &notification.Data); err != nil {
		notification.Data = map[string]string{}
	}

	s.invalidateUnreadCount(ctx, userID)
	return notification, nil
}

// dispatchAsync hands the push and email legs to the worker pool.
func (s *NotificationService) dispatchAsync(userID, title, message string, data map[string]string) {
	if s.queue == nil {
		return
	}
	s.queue.Enqueue(func(ctx context.Context) {
		result, err := s.push.Dispatch(ctx, userID, PushMessage{Title: title, Body: message, Data: data})
		if err != nil {
			s.logger.Warn("push dispatch failed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		} else if result.Success+result.Failure > 0 {
			s.logger.Debug("push dispatched", map[string]interface{}{
				"user_id": userID,
				"success": result.Success,
				"failure": result.Failure,
			})
		}

		if s.email == nil {
			return
		}
		addr, err := s.users.Email(ctx, userID)
		if err != nil || addr == "" {
			return
		}
		body := fmt.Sprintf("<p>%s</p>", html.EscapeString(message))
		if err := s.email.Send(addr, title, body); err != nil {
			s.logger.Warn("email mirror failed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	})
}

// renderNotification produces the stored title and message for a kind. The
// fallback keeps unknown kinds renderable rather than rejected.
func renderNotification(event *Event, actorName string) (title, message string) {
	switch event.Kind {
	case models.NotificationKindFriendRequest:
		return "New friend request", fmt.Sprintf("%s sent you a friend request", actorName)
	case models.NotificationKindFriendAccept:
		return "Friend request accepted", fmt.Sprintf("%s accepted your friend request", actorName)
	case models.NotificationKindFriendDecline:
		return "Friend request declined", fmt.Sprintf("%s declined your friend request", actorName)
	case models.NotificationKindMeetupInvite:
		return "Meetup invitation", fmt.Sprintf("%s invited you to %q", actorName, event.MeetupTitle)
	case models.NotificationKindMeetupAccept:
		return "Invitation accepted", fmt.Sprintf("%s is joining %q", actorName, event.MeetupTitle)
	case models.NotificationKindMeetupDecline:
		return "Invitation declined", fmt.Sprintf("%s declined the invitation to %q", actorName, event.MeetupTitle)
	default:
		return "Notification", fmt.Sprintf("%s sent you a notification", actorName)
	}
}

// List pages notifications newest first. The cursor is the created_at of the
// last item of the previous page; items strictly older are returned.
func (s *NotificationService) List(ctx context.Context, userID string, before *time.Time, limit int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 {
		limit = notificationPageLimit
	}
	if limit > notificationPageMax {
		limit = notificationPageMax
	}

	query := `SELECT id, user_id, kind, title, message, data, read, expires_at, created_at
	          FROM notifications
	          WHERE user_id = $1
	            AND (expires_at IS NULL OR expires_at > NOW())`
	args := []any{userID}
	if unreadOnly {
		query += " AND read = FALSE"
	}
	if before != nil {
		args = append(args, *before)
		query += " AND created_at < $" + strconv.Itoa(len(args))
	}
	args = append(args, limit)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var raw []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Message,
			&raw, &n.Read, &n.ExpiresAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		if err := json.Unmarshal(raw, &n.Data); err != nil {
			n.Data = map[string]string{}
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (s *NotificationService) unreadCountKey(userID string) string {
	return "notif:unread:" + userID
}

// UnreadCount returns the number of unread, unexpired notifications, cached
// briefly in redis. Writers invalidate the key so the cache only rides over
// repeated badge polls.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, s.unreadCountKey(userID)); err == nil {
			if n, err := strconv.Atoi(cached); err == nil {
				return n, nil
			}
		} else if !IsRedisNil(err) {
			s.logger.Debug("unread count cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE user_id = $1 AND read = FALSE
		   AND (expires_at IS NULL OR expires_at > NOW())`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.unreadCountKey(userID), count, unreadCountTTL); err != nil {
			s.logger.Debug("unread count cache write failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return count, nil
}

func (s *NotificationService) invalidateUnreadCount(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.unreadCountKey(userID)); err != nil {
		s.logger.Debug("unread count cache invalidation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// MarkRead flips one notification to read. Marking an already-read row again
// is fine; a foreign or missing id is not-found.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, id uuid.UUID) (*models.Notification, error) {
	notification := &models.Notification{}
	var raw []byte
	err := s.db.QueryRow(ctx,
		`UPDATE notifications SET read = TRUE
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, kind, title, message, data, read, expires_at, created_at`,
		id, userID,
	).Scan(&notification.ID, &notification.UserID, &notification.Kind,
		&notification.Title, &notification.Message, &raw,
		&notification.Read, &notification.ExpiresAt, &notification.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("marking notification read: %w", err)
	}
	if err := json.Unmarshal(raw, &notification.Data); err != nil {
		notification.Data = map[string]string{}
	}

	s.invalidateUnreadCount(ctx, userID)
	return notification, nil
}

// MarkManyRead marks the given ids read, skipping ids that are not the
// user's. Returns the number actually updated.
func (s *NotificationService) MarkManyRead(ctx context.Context, userID string, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx,
		"UPDATE notifications SET read = TRUE WHERE user_id = $1 AND id = ANY($2)",
		userID, ids,
	)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	s.invalidateUnreadCount(ctx, userID)
	return tag.RowsAffected(), nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.db.Exec(ctx,
		"UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE",
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", err)
	}
	s.invalidateUnreadCount(ctx, userID)
	return tag.RowsAffected(), nil
}

func (s *NotificationService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM notifications WHERE id = $1 AND user_id = $2", id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	s.invalidateUnreadCount(ctx, userID)
	return nil
}

func (s *NotificationService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	tag, err := s.db.Exec(ctx, "DELETE FROM notifications WHERE user_id = $1", userID)
	if err != nil {
		return 0, fmt.Errorf("deleting notifications: %w", err)
	}
	s.invalidateUnreadCount(ctx, userID)
	return tag.RowsAffected(), nil
}

// CleanupExpired removes notifications past their expiry. Run periodically;
// reads already filter expired rows so this only reclaims space.
func (s *NotificationService) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM notifications WHERE expires_at IS NOT NULL AND expires_at <= NOW()",
	)
	if err != nil {
		return 0, fmt.Errorf("cleaning up notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
