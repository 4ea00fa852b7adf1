package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/HelieAriane/Clanimo/internal/logging"
	"github.com/HelieAriane/Clanimo/internal/models"
	"github.com/HelieAriane/Clanimo/internal/services"
)

type MeetupHandler struct {
	meetupService services.MeetupServiceInterface
	notifier      services.NotificationServiceInterface
	logger        *logging.Logger
}

func NewMeetupHandler(meetupService services.MeetupServiceInterface, notifier services.NotificationServiceInterface, logger *logging.Logger) *MeetupHandler {
	if logger == nil {
		logger = logging.Default
	}
	return &MeetupHandler{
		meetupService: meetupService,
		notifier:      notifier,
		logger:        logger,
	}
}

type CreateMeetupRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	District     string     `json:"district"`
	LocationText string     `json:"location_text"`
	ImageURL     string     `json:"image_url"`
	Latitude     *float64   `json:"lat"`
	Longitude    *float64   `json:"lng"`
	Date         *time.Time `json:"date"`
}

type UpdateMeetupRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	District     *string    `json:"district"`
	LocationText *string    `json:"location_text"`
	ImageURL     *string    `json:"image_url"`
	Latitude     *float64   `json:"lat"`
	Longitude    *float64   `json:"lng"`
	Date         *time.Time `json:"date"`
}

type MeetupListResponse struct {
	Meetups []models.Meetup `json:"meetups"`
}

type InviteRequest struct {
	ToUserID string `json:"to_user_id"`
}

type InviteResponse struct {
	Invite *models.MeetupInvite `json:"invite"`
}

type InviteListResponse struct {
	Invites []models.MeetupInviteSummary `json:"invites"`
}

type ParticipantListResponse struct {
	Participants []string `json:"participants"`
}

func (h *MeetupHandler) notify(r *http.Request, event *services.Event) {
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

func (h *MeetupHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateMeetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.Date == nil {
		writeError(w, http.StatusBadRequest, "Title and date are required")
		return
	}

	meetup, err := h.meetupService.Create(r.Context(), user.ID, models.CreateMeetupParams{
		Title:        req.Title,
		Description:  req.Description,
		District:     req.District,
		LocationText: req.LocationText,
		ImageURL:     req.ImageURL,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Date:         *req.Date,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, meetup)
}

func (h *MeetupHandler) Get(w http.ResponseWriter, r *http.Request) {
	meetupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid meetup ID")
		return
	}

	meetup, err := h.meetupService.GetByID(r.Context(), meetupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meetup)
}

func (h *MeetupHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	query := r.URL.Query()
	filter := models.MeetupListFilter{
		District:  query.Get("district"),
		CreatedBy: query.Get("created_by"),
	}
	if query.Get("mine") == "true" {
		filter.Participant = user.ID
	}
	if raw := query.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.DateFrom = &t
		}
	}
	if raw := query.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.DateTo = &t
		}
	}

	meetups, err := h.meetupService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MeetupListResponse{Meetups: meetups})
}

func (h *MeetupHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	meetupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid meetup ID")
		return
	}

	var req UpdateMeetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	meetup, err := h.meetupService.Update(r.Context(), meetupID, user.ID, models.UpdateMeetupParams{
		Title:        req.Title,
		Description:  req.Description,
		District:     req.District,
		LocationText: req.LocationText,
		ImageURL:     req.ImageURL,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Date:         req.Date,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meetup)
}

func (h *MeetupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	meetupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid meetup ID")
		return
	}

	if err := h.meetupService.Delete(r.Context(), meetupID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MeetupHandler) Invite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	meetupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid meetup ID")
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ToUserID == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	invite, event, err := h.meetupService.Invite(r.Context(), meetupID, user.ID, req.ToUserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.notify(r, event)
	writeJSON(w, http.StatusCreated, InviteResponse{Invite: invite})
}

func (h *MeetupHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	inviteID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid invite ID")
		return
	}

	invite, event, err := h.meetupService.AcceptInvite(r.Context(), inviteID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.notify(r, event)
	writeJSON(w, http.StatusOK, InviteResponse{Invite: invite})
}

func (h *MeetupHandler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	inviteID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid invite ID")
		return
	}

	invite, event, err := h.meetupService.DeclineInvite(r.Context(), inviteID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.notify(r, event)
	writeJSON(w, http.StatusOK, InviteResponse{Invite: invite})
}

func (h *MeetupHandler) CancelInvite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	inviteID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid invite ID")
		return
	}

	invite, err := h.meetupService.CancelInvite(r.Context(), inviteID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, InviteResponse{Invite: invite})
}

func (h *MeetupHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	meetupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid meetup ID")
		return
	}

	if err := h.meetupService.Join(r.Context(), meetupID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MeetupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	meetupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid meetup ID")
		return
	}

	if err := h.meetupService.Leave(r.Context(), meetupID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MeetupHandler) Participants(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	meetupID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid meetup ID")
		return
	}

	participants, err := h.meetupService.Participants(r.Context(), meetupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ParticipantListResponse{Participants: participants})
}

func (h *MeetupHandler) ListIncomingInvites(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	invites, err := h.meetupService.ListIncomingInvites(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, InviteListResponse{Invites: invites})
}

func (h *MeetupHandler) ListOutgoingInvites(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	invites, err := h.meetupService.ListOutgoingInvites(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, InviteListResponse{Invites: invites})
}

func (h *MeetupHandler) CountInvites(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	counts, err := h.meetupService.CountPendingInvites(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, counts)
}
