package handlers

import (
	"net/http"

	"rookery/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type statsResponse struct {
	PendingDeliveries  int     `json:"pendingDeliveries"`
	ThreadRequests     float64 `json:"threadRequests"`
	RecipientsFiltered float64 `json:"recipientsFiltered"`
}

// HandleStats serves GET /internal/stats, a cheap operational summary for
// dashboards that don't scrape /metrics.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := statsResponse{
		ThreadRequests:     getCounterValue(metrics.ThreadRequestsTotal),
		RecipientsFiltered: getCounterValue(metrics.RecipientsFilteredTotal),
	}

	pending, err := h.notifications.Pending()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	stats.PendingDeliveries = pending

	writeJSON(w, http.StatusOK, stats)
}

// getCounterValue reads the current value of a prometheus.Counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return 0
}
