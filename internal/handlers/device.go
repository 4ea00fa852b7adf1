package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/HelieAriane/Clanimo/internal/models"
	"github.com/HelieAriane/Clanimo/internal/services"
)

type DeviceHandler struct {
	deviceService services.DeviceServiceInterface
}

func NewDeviceHandler(deviceService services.DeviceServiceInterface) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type UnregisterDeviceRequest struct {
	Token string `json:"token"`
}

type DeviceListResponse struct {
	Devices []models.Device `json:"devices"`
}

func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "Token is required")
		return
	}

	device, err := h.deviceService.Register(r.Context(), user.ID, req.Token,
		models.DevicePlatform(req.Platform), r.UserAgent())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, device)
}

func (h *DeviceHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UnregisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "Token is required")
		return
	}

	if err := h.deviceService.Unregister(r.Context(), req.Token); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DeviceHandler) UnregisterAll(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	platform := models.DevicePlatform(r.URL.Query().Get("platform"))
	deleted, err := h.deviceService.UnregisterAll(r.Context(), user.ID, platform)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UpdatedCountResponse{Updated: deleted})
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	devices, err := h.deviceService.ListDevices(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeviceListResponse{Devices: devices})
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid device ID")
		return
	}

	if err := h.deviceService.DeleteDevice(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
