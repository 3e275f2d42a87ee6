package handler

import (
	"net/http"

	"github.com/asesoria-ai/advisor-platform/internal/events"
)

// HealthHandler handles health and readiness endpoints.
type HealthHandler struct {
	eventsClient *events.Client
}

// NewHealthHandler creates a new health handler. The events client may
// be nil when the event stream is disabled.
func NewHealthHandler(eventsClient *events.Client) *HealthHandler {
	return &HealthHandler{eventsClient: eventsClient}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /ready. The process is ready unless a configured
// event stream connection is down.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.eventsClient != nil && !h.eventsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"events": "disconnected",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
