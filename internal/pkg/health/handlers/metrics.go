package handlers

import (
	"net/http"

	"github.com/Vodeneev/lottostats/internal/pkg/performance"
)

// HandleMetrics returns the /metrics handler serving the tracker as JSON.
func HandleMetrics(tracker *performance.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tracker.GetMetrics())
	}
}
