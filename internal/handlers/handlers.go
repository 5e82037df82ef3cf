// Package handlers contains the HTTP handler methods and their shared
// plumbing: viewer resolution, JSON encoding, and error mapping.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"rookery/internal/database"
	"rookery/internal/feed"
	"rookery/internal/notifications"
	"rookery/internal/thread"

	"github.com/rs/zerolog/log"
)

// viewerHeader carries the authenticated account id. Authentication itself
// happens at the edge proxy; this service trusts the header.
const viewerHeader = "X-Viewer-ID"

// Handler contains all HTTP handler methods and their dependencies.
// Dependencies are injected via the constructor for better testability.
type Handler struct {
	feedService   *feed.Service
	threadService *thread.Service
	notifications *notifications.Service
}

// NewHandler creates a new Handler with all required dependencies.
func NewHandler(feedService *feed.Service, threadService *thread.Service, notificationService *notifications.Service) *Handler {
	return &Handler{
		feedService:   feedService,
		threadService: threadService,
		notifications: notificationService,
	}
}

// HandleHealthz responds to health checks.
func (h *Handler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// viewerID extracts and validates the viewer account id from the request
// header. A missing or malformed header yields zero and false.
func viewerID(r *http.Request) (int64, bool) {
	raw := r.Header.Get(viewerHeader)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service errors onto HTTP status codes. Unknown
// errors become 500s and are logged; the response body stays generic.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feed.ErrInvalidCursor):
		writeJSONError(w, http.StatusBadRequest, "invalid cursor")
	case errors.Is(err, feed.ErrNotInternalAccount):
		writeJSONError(w, http.StatusForbidden, "viewer is not a local account")
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
