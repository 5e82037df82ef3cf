package handlers

import (
	"net/http"
)

// HandleThread serves GET /api/thread?uri=<post ap_id>. It returns the
// reconstructed reply chain around the named post.
func (h *Handler) HandleThread(w http.ResponseWriter, r *http.Request) {
	viewer, ok := viewerID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "missing or invalid "+viewerHeader+" header")
		return
	}

	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeJSONError(w, http.StatusBadRequest, "uri parameter is required")
		return
	}

	chain, err := h.threadService.GetReplyChain(r.Context(), viewer, uri)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chain)
}
