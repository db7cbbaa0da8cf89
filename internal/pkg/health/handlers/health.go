package handlers

import (
	"net/http"
	"time"

	"github.com/Vodeneev/lottostats/internal/pkg/interfaces"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

// HandlePing handles /ping endpoint
func HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong\n"))
}

// GameHealth is the cache state of one game as reported by /health.
type GameHealth struct {
	Game         string             `json:"game"`
	Source       models.StatsSource `json:"source"`
	UpdatedAt    *time.Time         `json:"updatedAt,omitempty"`
	ResultsCount int                `json:"resultsCount"`
	Error        string             `json:"error,omitempty"`
}

// HandleHealth reports where each game's statistics would be served from. It never starts
// a refresh, and a game still on its built-in default does not make the service unhealthy.
func HandleHealth(catalog Catalog, reader interfaces.StatsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := catalog.All()
		out := make([]GameHealth, 0, len(all))
		for _, g := range all {
			gh := GameHealth{Game: g.Key}
			entry, source, err := reader.Read(r.Context(), g.Key)
			if err != nil {
				gh.Error = err.Error()
				out = append(out, gh)
				continue
			}
			gh.Source, gh.ResultsCount = source, entry.ResultsCount
			if !entry.Timestamp.IsZero() {
				ts := entry.Timestamp
				gh.UpdatedAt = &ts
			}
			out = append(out, gh)
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "games": out})
	}
}
