package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HelieAriane/Clanimo/internal/models"
)

// UserServiceInterface defines the contract for profile operations.
type UserServiceInterface interface {
	Ensure(ctx context.Context, params models.UpsertUserParams) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	DisplayName(ctx context.Context, id string) (string, error)
	Email(ctx context.Context, id string) (string, error)
}

// FriendServiceInterface defines the contract for the relationship lifecycle.
type FriendServiceInterface interface {
	SendRequest(ctx context.Context, from, to string) (*SendRequestResult, error)
	AcceptRequest(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, *Event, error)
	DeclineRequest(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, *Event, error)
	CancelRequest(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, error)
	RemoveFriendship(ctx context.Context, a, b string) error
	AreFriends(ctx context.Context, a, b string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]models.FriendProfile, error)
	ListIncomingRequests(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
	ListOutgoingRequests(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
}

// MeetupServiceInterface defines the contract for meetup operations.
type MeetupServiceInterface interface {
	Create(ctx context.Context, createdBy string, params models.CreateMeetupParams) (*models.Meetup, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Meetup, error)
	List(ctx context.Context, filter models.MeetupListFilter) ([]models.Meetup, error)
	Update(ctx context.Context, id uuid.UUID, by string, params models.UpdateMeetupParams) (*models.Meetup, error)
	Delete(ctx context.Context, id uuid.UUID, by string) error
	Invite(ctx context.Context, meetupID uuid.UUID, from, to string) (*models.MeetupInvite, *Event, error)
	AcceptInvite(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, *Event, error)
	DeclineInvite(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, *Event, error)
	CancelInvite(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, error)
	Join(ctx context.Context, meetupID uuid.UUID, userID string) error
	Leave(ctx context.Context, meetupID uuid.UUID, userID string) error
	Participants(ctx context.Context, meetupID uuid.UUID) ([]string, error)
	ListIncomingInvites(ctx context.Context, userID string) ([]models.MeetupInviteSummary, error)
	ListOutgoingInvites(ctx context.Context, userID string) ([]models.MeetupInviteSummary, error)
	CountPendingInvites(ctx context.Context, userID string) (*models.InviteCounts, error)
}

// DeviceServiceInterface defines the contract for device token registration.
type DeviceServiceInterface interface {
	Register(ctx context.Context, userID, token string, platform models.DevicePlatform, userAgent string) (*models.Device, error)
	Unregister(ctx context.Context, token string) error
	UnregisterAll(ctx context.Context, userID string, platform models.DevicePlatform) (int64, error)
	ListDevices(ctx context.Context, userID string) ([]models.Device, error)
	DeleteDevice(ctx context.Context, userID string, id uuid.UUID) error
}

// NotificationServiceInterface defines the contract for the notification
// inbox and delivery pipeline.
type NotificationServiceInterface interface {
	Notify(ctx context.Context, event *Event) (*models.Notification, error)
	Create(ctx context.Context, userID string, kind models.NotificationKind, title, message string, data map[string]string) (*models.Notification, error)
	List(ctx context.Context, userID string, before *time.Time, limit int, unreadOnly bool) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID string, id uuid.UUID) (*models.Notification, error)
	MarkManyRead(ctx context.Context, userID string, ids []uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// PushServiceInterface defines the contract for direct push dispatch, used by
// the test-push endpoint.
type PushServiceInterface interface {
	Dispatch(ctx context.Context, userID string, msg PushMessage) (PushResult, error)
}

// Compile-time interface checks.
var (
	_ UserServiceInterface         = (*UserService)(nil)
	_ FriendServiceInterface       = (*FriendService)(nil)
	_ MeetupServiceInterface       = (*MeetupService)(nil)
	_ DeviceServiceInterface       = (*DeviceService)(nil)
	_ NotificationServiceInterface = (*NotificationService)(nil)
	_ PushServiceInterface         = (*PushService)(nil)
)
