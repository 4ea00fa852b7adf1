package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/HelieAriane/Clanimo/internal/logging"
	"github.com/HelieAriane/Clanimo/internal/models"
	"github.com/HelieAriane/Clanimo/internal/services"
)

type FriendHandler struct {
	friendService services.FriendServiceInterface
	notifier      services.NotificationServiceInterface
	logger        *logging.Logger
}

func NewFriendHandler(friendService services.FriendServiceInterface, notifier services.NotificationServiceInterface, logger *logging.Logger) *FriendHandler {
	if logger == nil {
		logger = logging.Default
	}
	return &FriendHandler{
		friendService: friendService,
		notifier:      notifier,
		logger:        logger,
	}
}

type SendFriendRequestRequest struct {
	ToUserID string `json:"to_user_id"`
}

type FriendRequestResponse struct {
	Request     *models.FriendRequest `json:"request"`
	Reactivated bool                  `json:"reactivated,omitempty"`
}

type FriendListResponse struct {
	Friends []models.FriendProfile `json:"friends"`
}

type FriendRequestListResponse struct {
	Requests []models.FriendRequestWithUser `json:"requests"`
}

// notify hands an event to the notification pipeline. The triggering write
// already succeeded, so a notification failure is logged, never surfaced.
func (h *FriendHandler) notify(r *http.Request, event *services.Event) {
	if event == nil {
		return
	}
	if _, err := h.notifier.Notify(r.Context(), event); err != nil {
		h.logger.Error("notifying recipient", map[string]interface{}{
			"recipient": event.Recipient,
			"kind":      string(event.Kind),
			"error":     err.Error(),
		})
	}
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req SendFriendRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ToUserID == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.friendService.SendRequest(r.Context(), user.ID, req.ToUserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.notify(r, result.Event)
	writeJSON(w, http.StatusCreated, FriendRequestResponse{
		Request:     result.Request,
		Reactivated: result.Reactivated,
	})
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	request, event, err := h.friendService.AcceptRequest(r.Context(), requestID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.notify(r, event)
	writeJSON(w, http.StatusOK, FriendRequestResponse{Request: request})
}

func (h *FriendHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	request, event, err := h.friendService.DeclineRequest(r.Context(), requestID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.notify(r, event)
	writeJSON(w, http.StatusOK, FriendRequestResponse{Request: request})
}

func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	request, err := h.friendService.CancelRequest(r.Context(), requestID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestResponse{Request: request})
}

func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FriendListResponse{Friends: friends})
}

func (h *FriendHandler) ListIncomingRequests(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requests, err := h.friendService.ListIncomingRequests(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestListResponse{Requests: requests})
}

func (h *FriendHandler) ListOutgoingRequests(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requests, err := h.friendService.ListOutgoingRequests(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestListResponse{Requests: requests})
}

func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friendID := r.PathValue("userId")
	if friendID == "" {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.friendService.RemoveFriendship(r.Context(), user.ID, friendID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
