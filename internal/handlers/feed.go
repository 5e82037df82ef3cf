package handlers

import (
	"net/http"
	"strconv"

	"rookery/internal/feed"
	"rookery/internal/models"
)

// HandleFeed serves GET /api/feed. Query parameters:
//
//	feed    "feed" (default) or "reader"
//	limit   page size, clamped by the feed service
//	cursor  opaque pagination cursor from a previous response
//	type    optional post type filter, "Note" or "Article"
func (h *Handler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing or invalid "+viewerHeader+" header")
		return
	}

	feedType := models.FeedTypeFeed
	switch r.URL.Query().Get("feed") {
	case "", string(models.FeedTypeFeed):
	case string(models.FeedTypeReader):
		feedType = models.FeedTypeReader
	default:
		writeJSONError(w, http.StatusBadRequest, "unknown feed type")
		return
	}

	limit := feed.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	var typeFilter *models.PostType
	switch r.URL.Query().Get("type") {
	case "":
	case string(models.PostTypeNote):
		t := models.PostTypeNote
		typeFilter = &t
	case string(models.PostTypeArticle):
		t := models.PostTypeArticle
		typeFilter = &t
	default:
		writeJSONError(w, http.StatusBadRequest, "unknown post type")
		return
	}

	result, err := h.feedService.GetFeedData(r.Context(), viewer, feedType, limit, r.URL.Query().Get("cursor"), typeFilter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
