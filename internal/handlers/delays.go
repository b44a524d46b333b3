package handlers

import (
	"net/http"
	"time"

	"github.com/pawelptak/EmPeKa/internal/stats"
)

// DelaysHandler serves the accumulated per-line delay statistics
type DelaysHandler struct {
	tracker *stats.DelayTracker
}

// NewDelaysHandler creates a new handler over the given tracker
func NewDelaysHandler(tracker *stats.DelayTracker) *DelaysHandler {
	return &DelaysHandler{tracker: tracker}
}

// DelaysResponse is the JSON response for GET /api/stats/delays
type DelaysResponse struct {
	Lines       []stats.LineDelay `json:"lines"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// GetDelays handles GET /api/stats/delays
func (h *DelaysHandler) GetDelays(w http.ResponseWriter, r *http.Request) {
	lines := h.tracker.Snapshot()
	if lines == nil {
		lines = []stats.LineDelay{}
	}
	writeJSON(w, http.StatusOK, DelaysResponse{
		Lines:       lines,
		GeneratedAt: time.Now().UTC(),
	})
}
