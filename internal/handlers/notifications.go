package handlers

import (
	"net/http"
	"strconv"

	"rookery/internal/notifications"
)

const defaultDrainMax = 100

// HandleNotifications serves GET /api/notifications: the viewer's pending
// notifications, oldest first, left in place for the delivery worker.
func (h *Handler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing or invalid "+viewerHeader+" header")
		return
	}

	max := defaultDrainMax
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		max = n
	}

	pending, err := h.notifications.ListPending(viewer, max)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if pending == nil {
		pending = []notifications.Delivery{}
	}
	writeJSON(w, http.StatusOK, struct {
		Notifications []notifications.Delivery `json:"notifications"`
	}{Notifications: pending})
}

// HandleDrainDeliveries serves POST /internal/notifications/drain. It pops
// up to max pending deliveries from the durable log for the push worker.
func (h *Handler) HandleDrainDeliveries(w http.ResponseWriter, r *http.Request) {
	max := defaultDrainMax
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, "max must be a positive integer")
			return
		}
		max = n
	}

	deliveries, err := h.notifications.Drain(max)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if deliveries == nil {
		deliveries = []notifications.Delivery{}
	}
	writeJSON(w, http.StatusOK, struct {
		Deliveries []notifications.Delivery `json:"deliveries"`
	}{Deliveries: deliveries})
}
