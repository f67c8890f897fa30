package handlers

import (
	"net/http"
	"time"

	"github.com/formday/formday/internal/fitness"
	"github.com/formday/formday/internal/notify"
	"github.com/formday/formday/internal/prayer"
)

// PrayerHandler serves prayer timings and the notification permission
type PrayerHandler struct {
	*BaseHandler
	prayers    *prayer.Service
	permission *notify.PermissionStore
}

// NewPrayerHandler creates a new prayer handler
func NewPrayerHandler(base *BaseHandler, prayers *prayer.Service, permission *notify.PermissionStore) *PrayerHandler {
	return &PrayerHandler{BaseHandler: base, prayers: prayers, permission: permission}
}

// RegisterRoutes sets up the prayer and permission routes
func (h *PrayerHandler) RegisterRoutes() {
	h.Mux.HandleFunc("GET /api/prayers", h.handleToday)
	h.Mux.HandleFunc("GET /api/prayers/{date}", h.handleForDate)
	h.Mux.HandleFunc("POST /api/prayers/refresh", h.handleRefresh)
	h.Mux.HandleFunc("GET /api/notifications/permission", h.handleGetPermission)
	h.Mux.HandleFunc("POST /api/notifications/permission", h.handleRequestPermission)
	h.Mux.HandleFunc("DELETE /api/notifications/permission", h.handleDenyPermission)
	h.Mux.HandleFunc("POST /api/notifications/permission/reset", h.handleResetPermission)
}

// prayersResponse pairs a day's timings with cache metadata
type prayersResponse struct {
	Prayers     *prayer.Data `json:"prayers"`
	LastFetched int64        `json:"lastFetched"`
}

func (h *PrayerHandler) handleToday(w http.ResponseWriter, _ *http.Request) {
	data := h.prayers.TodayData()
	if data == nil {
		h.RespondError(w, http.StatusNotFound, "no prayer timings cached for today")
		return
	}
	h.RespondJSON(w, http.StatusOK, prayersResponse{Prayers: data, LastFetched: h.prayers.LastFetched().UnixMilli()})
}

func (h *PrayerHandler) handleForDate(w http.ResponseWriter, r *http.Request) {
	date, err := fitness.ParseDate(r.PathValue("date"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid date: %s", r.PathValue("date"))
		return
	}

	data := h.prayers.DataForDate(date)
	if data == nil {
		h.RespondError(w, http.StatusNotFound, "no prayer timings cached for %s", fitness.DateString(date))
		return
	}
	h.RespondJSON(w, http.StatusOK, prayersResponse{Prayers: data, LastFetched: h.prayers.LastFetched().UnixMilli()})
}

type refreshRequest struct {
	Year int `json:"year"`
}

// handleRefresh fetches a year of timings unless it is already cached.
// An empty body or a zero year means the current year.
func (h *PrayerHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	req := refreshRequest{}
	if r.ContentLength > 0 {
		if err := h.DecodeJSON(r, &req); err != nil {
			h.RespondError(w, http.StatusBadRequest, "%s", err)
			return
		}
	}
	year := req.Year
	if year == 0 {
		year = time.Now().Year()
	}

	if err := h.prayers.EnsureYear(r.Context(), year); err != nil {
		h.RespondError(w, http.StatusBadGateway, "failed to fetch prayer timings for %d", year)
		return
	}
	h.RespondJSON(w, http.StatusOK, map[string]any{"year": year, "cached": true})
}

// permissionResponse carries the standing notification permission
type permissionResponse struct {
	Permission notify.Permission `json:"permission"`
}

func (h *PrayerHandler) handleGetPermission(w http.ResponseWriter, _ *http.Request) {
	h.RespondJSON(w, http.StatusOK, permissionResponse{Permission: h.permission.Current()})
}

func (h *PrayerHandler) handleRequestPermission(w http.ResponseWriter, _ *http.Request) {
	result := h.permission.Request()
	h.RespondJSON(w, http.StatusOK, permissionResponse{Permission: result})
}

func (h *PrayerHandler) handleDenyPermission(w http.ResponseWriter, _ *http.Request) {
	h.permission.Deny()
	h.RespondJSON(w, http.StatusOK, permissionResponse{Permission: h.permission.Current()})
}

// handleResetPermission clears a standing denial so a later request can
// grant again.
func (h *PrayerHandler) handleResetPermission(w http.ResponseWriter, _ *http.Request) {
	h.permission.Reset()
	h.RespondJSON(w, http.StatusOK, permissionResponse{Permission: h.permission.Current()})
}
