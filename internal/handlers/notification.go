package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/HelieAriane/Clanimo/internal/models"
	"github.com/HelieAriane/Clanimo/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationServiceInterface
	pushService         services.PushServiceInterface
}

func NewNotificationHandler(notificationService services.NotificationServiceInterface, pushService services.PushServiceInterface) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		pushService:         pushService,
	}
}

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	// NextBefore is the cursor for the next page; absent on the last page.
	NextBefore *time.Time `json:"next_before,omitempty"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type MarkManyReadRequest struct {
	IDs []string `json:"ids"`
}

type UpdatedCountResponse struct {
	Updated int64 `json:"updated"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	unreadOnly := query.Get("unread") == "true"

	var before *time.Time
	if raw := query.Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid cursor")
			return
		}
		before = &t
	}

	notifications, err := h.notificationService.List(r.Context(), user.ID, before, limit, unreadOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := NotificationListResponse{Notifications: notifications}
	if len(notifications) > 0 {
		last := notifications[len(notifications)-1].CreatedAt
		response.NextBefore = &last
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	notification, err := h.notificationService.MarkRead(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, notification)
}

func (h *NotificationHandler) MarkManyRead(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req MarkManyReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid notification ID")
			return
		}
		ids = append(ids, id)
	}

	updated, err := h.notificationService.MarkManyRead(r.Context(), user.ID, ids)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UpdatedCountResponse{Updated: updated})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	updated, err := h.notificationService.MarkAllRead(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UpdatedCountResponse{Updated: updated})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := h.notificationService.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	deleted, err := h.notificationService.DeleteAll(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UpdatedCountResponse{Updated: deleted})
}

// SendTest creates a self-addressed notification and pushes it immediately,
// so a client can verify its token registration end to end.
func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	notification, err := h.notificationService.Create(r.Context(), user.ID,
		models.NotificationKindTest, "Test notification", "Push delivery is working", nil)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.pushService.Dispatch(r.Context(), user.ID, services.PushMessage{
		Title: notification.Title,
		Body:  notification.Message,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
