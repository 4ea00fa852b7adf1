package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/HelieAriane/Clanimo/internal/logging"
	"github.com/HelieAriane/Clanimo/internal/services"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service sentinels onto HTTP statuses. Conflicts
// carry a machine-readable reason so clients can branch without parsing
// prose. Anything unmapped is logged and answered with a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	if conflict, ok := services.AsConflict(err); ok {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:  conflict.Error(),
			Reason: conflict.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrMeetupNotFound),
		errors.Is(err, services.ErrInviteNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrSelfFriendRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotMeetupOwner),
		errors.Is(err, services.ErrNotParticipant):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		logging.Error("unhandled service error", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
