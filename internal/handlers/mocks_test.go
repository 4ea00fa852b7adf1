package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/HelieAriane/Clanimo/internal/models"
	"github.com/HelieAriane/Clanimo/internal/services"
)

var errNotStubbed = errors.New("not stubbed")

type mockFriendService struct {
	SendRequestFunc          func(ctx context.Context, from, to string) (*services.SendRequestResult, error)
	AcceptRequestFunc        func(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, *services.Event, error)
	DeclineRequestFunc       func(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, *services.Event, error)
	CancelRequestFunc        func(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, error)
	RemoveFriendshipFunc     func(ctx context.Context, a, b string) error
	AreFriendsFunc           func(ctx context.Context, a, b string) (bool, error)
	ListFriendsFunc          func(ctx context.Context, userID string) ([]models.FriendProfile, error)
	ListIncomingRequestsFunc func(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
	ListOutgoingRequestsFunc func(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error)
}

func (m *mockFriendService) SendRequest(ctx context.Context, from, to string) (*services.SendRequestResult, error) {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, from, to)
	}
	return nil, errNotStubbed
}

func (m *mockFriendService) AcceptRequest(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, *services.Event, error) {
	if m.AcceptRequestFunc != nil {
		return m.AcceptRequestFunc(ctx, requestID, by)
	}
	return nil, nil, errNotStubbed
}

func (m *mockFriendService) DeclineRequest(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, *services.Event, error) {
	if m.DeclineRequestFunc != nil {
		return m.DeclineRequestFunc(ctx, requestID, by)
	}
	return nil, nil, errNotStubbed
}

func (m *mockFriendService) CancelRequest(ctx context.Context, requestID uuid.UUID, by string) (*models.FriendRequest, error) {
	if m.CancelRequestFunc != nil {
		return m.CancelRequestFunc(ctx, requestID, by)
	}
	return nil, errNotStubbed
}

func (m *mockFriendService) RemoveFriendship(ctx context.Context, a, b string) error {
	if m.RemoveFriendshipFunc != nil {
		return m.RemoveFriendshipFunc(ctx, a, b)
	}
	return errNotStubbed
}

func (m *mockFriendService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	if m.AreFriendsFunc != nil {
		return m.AreFriendsFunc(ctx, a, b)
	}
	return false, errNotStubbed
}

func (m *mockFriendService) ListFriends(ctx context.Context, userID string) ([]models.FriendProfile, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID)
	}
	return nil, errNotStubbed
}

func (m *mockFriendService) ListIncomingRequests(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	if m.ListIncomingRequestsFunc != nil {
		return m.ListIncomingRequestsFunc(ctx, userID)
	}
	return nil, errNotStubbed
}

func (m *mockFriendService) ListOutgoingRequests(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	if m.ListOutgoingRequestsFunc != nil {
		return m.ListOutgoingRequestsFunc(ctx, userID)
	}
	return nil, errNotStubbed
}

type mockNotificationService struct {
	NotifyFunc         func(ctx context.Context, event *services.Event) (*models.Notification, error)
	CreateFunc         func(ctx context.Context, userID string, kind models.NotificationKind, title, message string, data map[string]string) (*models.Notification, error)
	ListFunc           func(ctx context.Context, userID string, before *time.Time, limit int, unreadOnly bool) ([]models.Notification, error)
	UnreadCountFunc    func(ctx context.Context, userID string) (int, error)
	MarkReadFunc       func(ctx context.Context, userID string, id uuid.UUID) (*models.Notification, error)
	MarkManyReadFunc   func(ctx context.Context, userID string, ids []uuid.UUID) (int64, error)
	MarkAllReadFunc    func(ctx context.Context, userID string) (int64, error)
	DeleteFunc         func(ctx context.Context, userID string, id uuid.UUID) error
	DeleteAllFunc      func(ctx context.Context, userID string) (int64, error)
	CleanupExpiredFunc func(ctx context.Context) (int64, error)

	notified []*services.Event
}

func (m *mockNotificationService) Notify(ctx context.Context, event *services.Event) (*models.Notification, error) {
	m.notified = append(m.notified, event)
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, event)
	}
	return &models.Notification{}, nil
}

func (m *mockNotificationService) Create(ctx context.Context, userID string, kind models.NotificationKind, title, message string, data map[string]string) (*models.Notification, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, kind, title, message, data)
	}
	return nil, errNotStubbed
}

func (m *mockNotificationService) List(ctx context.Context, userID string, before *time.Time, limit int, unreadOnly bool) ([]models.Notification, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, before, limit, unreadOnly)
	}
	return nil, errNotStubbed
}

func (m *mockNotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if m.UnreadCountFunc != nil {
		return m.UnreadCountFunc(ctx, userID)
	}
	return 0, errNotStubbed
}

func (m *mockNotificationService) MarkRead(ctx context.Context, userID string, id uuid.UUID) (*models.Notification, error) {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, userID, id)
	}
	return nil, errNotStubbed
}

func (m *mockNotificationService) MarkManyRead(ctx context.Context, userID string, ids []uuid.UUID) (int64, error) {
	if m.MarkManyReadFunc != nil {
		return m.MarkManyReadFunc(ctx, userID, ids)
	}
	return 0, errNotStubbed
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx, userID)
	}
	return 0, errNotStubbed
}

func (m *mockNotificationService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return errNotStubbed
}

func (m *mockNotificationService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	if m.DeleteAllFunc != nil {
		return m.DeleteAllFunc(ctx, userID)
	}
	return 0, errNotStubbed
}

func (m *mockNotificationService) CleanupExpired(ctx context.Context) (int64, error) {
	if m.CleanupExpiredFunc != nil {
		return m.CleanupExpiredFunc(ctx)
	}
	return 0, errNotStubbed
}

type mockMeetupService struct {
	CreateFunc              func(ctx context.Context, createdBy string, params models.CreateMeetupParams) (*models.Meetup, error)
	GetByIDFunc             func(ctx context.Context, id uuid.UUID) (*models.Meetup, error)
	ListFunc                func(ctx context.Context, filter models.MeetupListFilter) ([]models.Meetup, error)
	UpdateFunc              func(ctx context.Context, id uuid.UUID, by string, params models.UpdateMeetupParams) (*models.Meetup, error)
	DeleteFunc              func(ctx context.Context, id uuid.UUID, by string) error
	InviteFunc              func(ctx context.Context, meetupID uuid.UUID, from, to string) (*models.MeetupInvite, *services.Event, error)
	AcceptInviteFunc        func(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, *services.Event, error)
	DeclineInviteFunc       func(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, *services.Event, error)
	CancelInviteFunc        func(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, error)
	JoinFunc                func(ctx context.Context, meetupID uuid.UUID, userID string) error
	LeaveFunc               func(ctx context.Context, meetupID uuid.UUID, userID string) error
	ParticipantsFunc        func(ctx context.Context, meetupID uuid.UUID) ([]string, error)
	ListIncomingInvitesFunc func(ctx context.Context, userID string) ([]models.MeetupInviteSummary, error)
	ListOutgoingInvitesFunc func(ctx context.Context, userID string) ([]models.MeetupInviteSummary, error)
	CountPendingInvitesFunc func(ctx context.Context, userID string) (*models.InviteCounts, error)
}

func (m *mockMeetupService) Create(ctx context.Context, createdBy string, params models.CreateMeetupParams) (*models.Meetup, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, createdBy, params)
	}
	return nil, errNotStubbed
}

func (m *mockMeetupService) GetByID(ctx context.Context, id uuid.UUID) (*models.Meetup, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errNotStubbed
}

func (m *mockMeetupService) List(ctx context.Context, filter models.MeetupListFilter) ([]models.Meetup, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, errNotStubbed
}

func (m *mockMeetupService) Update(ctx context.Context, id uuid.UUID, by string, params models.UpdateMeetupParams) (*models.Meetup, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, by, params)
	}
	return nil, errNotStubbed
}

func (m *mockMeetupService) Delete(ctx context.Context, id uuid.UUID, by string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, by)
	}
	return errNotStubbed
}

func (m *mockMeetupService) Invite(ctx context.Context, meetupID uuid.UUID, from, to string) (*models.MeetupInvite, *services.Event, error) {
	if m.InviteFunc != nil {
		return m.InviteFunc(ctx, meetupID, from, to)
	}
	return nil, nil, errNotStubbed
}

func (m *mockMeetupService) AcceptInvite(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, *services.Event, error) {
	if m.AcceptInviteFunc != nil {
		return m.AcceptInviteFunc(ctx, inviteID, by)
	}
	return nil, nil, errNotStubbed
}

func (m *mockMeetupService) DeclineInvite(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, *services.Event, error) {
	if m.DeclineInviteFunc != nil {
		return m.DeclineInviteFunc(ctx, inviteID, by)
	}
	return nil, nil, errNotStubbed
}

func (m *mockMeetupService) CancelInvite(ctx context.Context, inviteID uuid.UUID, by string) (*models.MeetupInvite, error) {
	if m.CancelInviteFunc != nil {
		return m.CancelInviteFunc(ctx, inviteID, by)
	}
	return nil, errNotStubbed
}

func (m *mockMeetupService) Join(ctx context.Context, meetupID uuid.UUID, userID string) error {
	if m.JoinFunc != nil {
		return m.JoinFunc(ctx, meetupID, userID)
	}
	return errNotStubbed
}

func (m *mockMeetupService) Leave(ctx context.Context, meetupID uuid.UUID, userID string) error {
	if m.LeaveFunc != nil {
		return m.LeaveFunc(ctx, meetupID, userID)
	}
	return errNotStubbed
}

func (m *mockMeetupService) Participants(ctx context.Context, meetupID uuid.UUID) ([]string, error) {
	if m.ParticipantsFunc != nil {
		return m.ParticipantsFunc(ctx, meetupID)
	}
	return nil, errNotStubbed
}

func (m *mockMeetupService) ListIncomingInvites(ctx context.Context, userID string) ([]models.MeetupInviteSummary, error) {
	if m.ListIncomingInvitesFunc != nil {
		return m.ListIncomingInvitesFunc(ctx, userID)
	}
	return nil, errNotStubbed
}

func (m *mockMeetupService) ListOutgoingInvites(ctx context.Context, userID string) ([]models.MeetupInviteSummary, error) {
	if m.ListOutgoingInvitesFunc != nil {
		return m.ListOutgoingInvitesFunc(ctx, userID)
	}
	return nil, errNotStubbed
}

func (m *mockMeetupService) CountPendingInvites(ctx context.Context, userID string) (*models.InviteCounts, error) {
	if m.CountPendingInvitesFunc != nil {
		return m.CountPendingInvitesFunc(ctx, userID)
	}
	return nil, errNotStubbed
}

type mockDeviceService struct {
	RegisterFunc      func(ctx context.Context, userID, token string, platform models.DevicePlatform, userAgent string) (*models.Device, error)
	UnregisterFunc    func(ctx context.Context, token string) error
	UnregisterAllFunc func(ctx context.Context, userID string, platform models.DevicePlatform) (int64, error)
	ListDevicesFunc   func(ctx context.Context, userID string) ([]models.Device, error)
	DeleteDeviceFunc  func(ctx context.Context, userID string, id uuid.UUID) error
}

func (m *mockDeviceService) Register(ctx context.Context, userID, token string, platform models.DevicePlatform, userAgent string) (*models.Device, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, userID, token, platform, userAgent)
	}
	return nil, errNotStubbed
}

func (m *mockDeviceService) Unregister(ctx context.Context, token string) error {
	if m.UnregisterFunc != nil {
		return m.UnregisterFunc(ctx, token)
	}
	return errNotStubbed
}

func (m *mockDeviceService) UnregisterAll(ctx context.Context, userID string, platform models.DevicePlatform) (int64, error) {
	if m.UnregisterAllFunc != nil {
		return m.UnregisterAllFunc(ctx, userID, platform)
	}
	return 0, errNotStubbed
}

func (m *mockDeviceService) ListDevices(ctx context.Context, userID string) ([]models.Device, error) {
	if m.ListDevicesFunc != nil {
		return m.ListDevicesFunc(ctx, userID)
	}
	return nil, errNotStubbed
}

func (m *mockDeviceService) DeleteDevice(ctx context.Context, userID string, id uuid.UUID) error {
	if m.DeleteDeviceFunc != nil {
		return m.DeleteDeviceFunc(ctx, userID, id)
	}
	return errNotStubbed
}

type mockPushService struct {
	DispatchFunc func(ctx context.Context, userID string, msg services.PushMessage) (services.PushResult, error)
}

func (m *mockPushService) Dispatch(ctx context.Context, userID string, msg services.PushMessage) (services.PushResult, error) {
	if m.DispatchFunc != nil {
		return m.DispatchFunc(ctx, userID, msg)
	}
	return services.PushResult{}, errNotStubbed
}

type mockUserService struct {
	EnsureFunc      func(ctx context.Context, params models.UpsertUserParams) (*models.User, error)
	GetByIDFunc     func(ctx context.Context, id string) (*models.User, error)
	ExistsFunc      func(ctx context.Context, id string) (bool, error)
	DisplayNameFunc func(ctx context.Context, id string) (string, error)
	EmailFunc       func(ctx context.Context, id string) (string, error)
}

func (m *mockUserService) Ensure(ctx context.Context, params models.UpsertUserParams) (*models.User, error) {
	if m.EnsureFunc != nil {
		return m.EnsureFunc(ctx, params)
	}
	return nil, errNotStubbed
}

func (m *mockUserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errNotStubbed
}

func (m *mockUserService) Exists(ctx context.Context, id string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, id)
	}
	return false, errNotStubbed
}

func (m *mockUserService) DisplayName(ctx context.Context, id string) (string, error) {
	if m.DisplayNameFunc != nil {
		return m.DisplayNameFunc(ctx, id)
	}
	return "", errNotStubbed
}

func (m *mockUserService) Email(ctx context.Context, id string) (string, error) {
	if m.EmailFunc != nil {
		return m.EmailFunc(ctx, id)
	}
	return "", errNotStubbed
}
