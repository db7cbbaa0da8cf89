package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Vodeneev/lottostats/internal/pkg/interfaces"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
	"github.com/Vodeneev/lottostats/internal/pkg/parserutil"
)

type refreshResult struct {
	Game     string                `json:"game"`
	Outcome  models.RefreshOutcome `json:"outcome"`
	Attempt  uint64                `json:"attempt,omitempty"`
	Records  int                   `json:"records"`
	Duration string                `json:"duration"`
	Error    string                `json:"error,omitempty"`
}

// HandleRefresh triggers a refresh for one game or all games and waits for the outcome.
// At most concurrency games refresh at once; 0 means no limit.
// GET|POST /refresh?game=powerball - refresh one game
// GET|POST /refresh - refresh all games
func HandleRefresh(catalog Catalog, refresher interfaces.Refresher, concurrency int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var keys []string
		if name := strings.TrimSpace(r.URL.Query().Get("game")); name != "" {
			g, ok := catalog.Lookup(name)
			if !ok {
				writeError(w, http.StatusNotFound, "unknown game type: "+name)
				return
			}
			keys = []string{g.Key}
		} else {
			for _, g := range catalog.All() {
				keys = append(keys, g.Key)
			}
		}

		slog.Info("Manual refresh triggered", "games", keys)
		// Refreshes are bounded by their own deadline; a client hanging up does not abort them.
		ctx := context.WithoutCancel(r.Context())
		results := parserutil.RunGames(ctx, keys, refresher.Refresh, parserutil.RunOptions{MaxConcurrent: concurrency})

		out := make([]refreshResult, 0, len(results))
		for _, res := range results {
			out = append(out, refreshResult{
				Game:     res.Game,
				Outcome:  res.Outcome,
				Attempt:  res.Attempt,
				Records:  res.Records,
				Duration: res.Duration.String(),
				Error:    res.ErrorMessage(),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": out, "count": len(out)})
	}
}
