package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	FriendRequestStatusDeclined FriendRequestStatus = "declined"
	FriendRequestStatusCanceled FriendRequestStatus = "canceled"
)

// Terminal reports whether the status can be reactivated by a new request.
func (s FriendRequestStatus) Terminal() bool {
	return s == FriendRequestStatusAccepted ||
		s == FriendRequestStatusDeclined ||
		s == FriendRequestStatusCanceled
}

// FriendRequest tracks the lifecycle of a friendship between two identities.
// At most one pending row may exist per unordered pair; direction within a
// pending row records who asked whom.
type FriendRequest struct {
	ID         uuid.UUID           `json:"id"`
	FromUserID string              `json:"from_user_id"`
	ToUserID   string              `json:"to_user_id"`
	Status     FriendRequestStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// FriendRequestWithUser decorates a request with the counterparty's name for
// inbox-style listings.
type FriendRequestWithUser struct {
	FriendRequest
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}
