package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Vodeneev/lottostats/internal/pkg/games"
	"github.com/Vodeneev/lottostats/internal/pkg/interfaces"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

// SourceHeader tells clients whether statistics came from the cache or the built-in default.
const SourceHeader = "X-Stats-Source"

// Catalog resolves game keys.
type Catalog interface {
	Lookup(key string) (games.Game, bool)
	All() []games.Game
}

// ReadObserver is notified of every successful statistics read.
type ReadObserver func(game string, source models.StatsSource)

type gameInfo struct {
	Key            string `json:"key"`
	Name           string `json:"name"`
	NumbersPerDraw int    `json:"numbersPerDraw"`
	MaxValue       int    `json:"maxValue"`
	SecondaryCount int    `json:"secondaryCount,omitempty"`
	SecondaryMax   int    `json:"secondaryMaxValue,omitempty"`
}

// HandleGames lists the known game types.
func HandleGames(catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := catalog.All()
		out := make([]gameInfo, 0, len(all))
		for _, g := range all {
			out = append(out, gameInfo{
				Key:            g.Key,
				Name:           g.Name,
				NumbersPerDraw: g.Config.NumbersPerDraw,
				MaxValue:       g.Config.MaxValue,
				SecondaryCount: g.Config.SecondaryCount,
				SecondaryMax:   g.Config.SecondaryMaxValue,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"games": out, "count": len(out)})
	}
}

// HandleStats serves GET /stats/{game}. It never waits for a refresh: a missing or stale
// entry is answered from what is available and revalidated in the background.
func HandleStats(catalog Catalog, reader interfaces.StatsReader, observe ReadObserver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := chi.URLParam(r, "game")
		g, ok := catalog.Lookup(game)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown game type: "+game)
			return
		}

		entry, source, err := reader.ReadAndRevalidate(r.Context(), g.Key)
		if err != nil {
			slog.Error("Stats read failed", "game", g.Key, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to read statistics")
			return
		}
		if observe != nil {
			observe(g.Key, source)
		}

		w.Header().Set(SourceHeader, string(source))
		writeJSON(w, http.StatusOK, entry)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
