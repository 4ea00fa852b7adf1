package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind is intentionally an open string, not a closed enum: the
// catalog grows with the product and old clients must keep rendering unknown
// kinds generically.
type NotificationKind string

const (
	NotificationKindFriendRequest NotificationKind = "friend_request"
	NotificationKindFriendAccept  NotificationKind = "friend_accept"
	NotificationKindFriendDecline NotificationKind = "friend_decline"
	NotificationKindMeetupInvite  NotificationKind = "meetup_invite"
	NotificationKindMeetupAccept  NotificationKind = "meetup_accept"
	NotificationKindMeetupDecline NotificationKind = "meetup_decline"
	NotificationKindTest          NotificationKind = "test"
)

type Notification struct {
	ID        uuid.UUID         `json:"id"`
	UserID    string            `json:"user_id"`
	Kind      NotificationKind  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data"`
	Read      bool              `json:"read"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
