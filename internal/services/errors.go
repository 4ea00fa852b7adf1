package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Not-found errors cover both "row absent" and "row filtered out by
// ownership" so callers cannot probe for existence.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrMeetupNotFound       = errors.New("meetup not found")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrDeviceNotFound       = errors.New("device not found")
)

var (
	ErrSelfFriendRequest = errors.New("cannot send friend request to yourself")
	ErrNotMeetupOwner    = errors.New("only the meetup owner can do this")
	ErrNotParticipant    = errors.New("only participants can invite")
)

// ConflictError signals a uniqueness or state violation. Reason is
// machine-readable so clients can decide the next action (for example,
// inverse_request_pending means "call accept instead of re-requesting").
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}

var (
	ErrRequestExists         = &ConflictError{Reason: "request_exists"}
	ErrInverseRequestPending = &ConflictError{Reason: "inverse_request_pending"}
	ErrAlreadyFriends        = &ConflictError{Reason: "already_friends"}
	ErrAlreadyParticipant    = &ConflictError{Reason: "already_participant"}
	ErrAlreadyInvited        = &ConflictError{Reason: "already_invited"}
)

// AsConflict unwraps err into a *ConflictError when possible.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// isUniqueViolation reports whether err is a Postgres unique-index violation.
// The partial unique indexes on friend_requests and meetup_invites turn
// concurrent duplicate writes into this error; services map it to the
// matching ConflictError instead of treating it as fatal.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
