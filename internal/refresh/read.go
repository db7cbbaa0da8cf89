package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Vodeneev/lottostats/internal/calculator"
	"github.com/Vodeneev/lottostats/internal/pkg/games"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
	"github.com/Vodeneev/lottostats/internal/pkg/storage"
)

// Read returns the cached entry for game, or the built-in default when there is none. It
// never waits on a refresh. The only error is an unknown game.
func (c *Coordinator) Read(ctx context.Context, game string) (models.CacheEntry, models.StatsSource, error) {
	g, ok := c.catalog.Lookup(game)
	if !ok {
		return models.CacheEntry{}, "", fmt.Errorf("%w: %s", ErrUnknownGame, game)
	}

	entry, err := c.store.Read(ctx, g.Key)
	if err == nil {
		return entry, models.SourceCache, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		slog.Warn("Cache read failed, serving default dataset", "game", g.Key, "error", err)
	}
	return DefaultEntry(g), models.SourceDefault, nil
}

// ReadAndRevalidate behaves like Read and additionally starts a background refresh when
// the entry is missing or older than StaleAfter, unless the game's last refresh failed
// within FailureBackoff.
func (c *Coordinator) ReadAndRevalidate(ctx context.Context, game string) (models.CacheEntry, models.StatsSource, error) {
	entry, source, err := c.Read(ctx, game)
	if err != nil {
		return entry, source, err
	}

	stale := source == models.SourceDefault ||
		(c.opts.StaleAfter > 0 && entry.Age(c.opts.Now()) > c.opts.StaleAfter)
	if stale && !c.InFlight(entry.Game) && !c.backingOff(entry.Game) {
		c.RefreshAsync(entry.Game)
	}
	return entry, source, nil
}

// RefreshAsync starts a refresh in the background. Wait blocks until all such refreshes end.
func (c *Coordinator) RefreshAsync(game string) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		c.Refresh(context.Background(), game)
	}()
}

// Wait blocks until background refreshes started by RefreshAsync have finished.
func (c *Coordinator) Wait() {
	c.background.Wait()
}

// Warm copies mirror documents into the primary store for games that have no cached entry,
// e.g. after a restart on an empty volume. It returns the number of games restored.
func (c *Coordinator) Warm(ctx context.Context) (int, error) {
	if c.mirror == nil {
		return 0, nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	warmed := 0
	for _, key := range c.catalog.Keys() {
		if _, err := c.store.Read(ctx, key); !errors.Is(err, storage.ErrNotFound) {
			continue
		}

		var entry models.CacheEntry
		if err := c.mirror.Get(ctx, storage.StatsCollection, key, &entry); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				slog.Warn("Mirror read failed during warm-up", "game", key, "error", err)
			}
			continue
		}
		if err := c.store.Write(ctx, key, entry); err != nil {
			return warmed, fmt.Errorf("restore %s: %w", key, err)
		}
		warmed++
		slog.Info("Restored cache entry from mirror", "game", key, "timestamp", entry.Timestamp)
	}
	return warmed, nil
}

// DefaultEntry wraps the built-in dataset of g. Its zero timestamp and results count mark
// it as never refreshed.
func DefaultEntry(g games.Game) models.CacheEntry {
	stats, ok := calculator.Default(g.Key)
	if !ok {
		stats = &models.GameStatistics{FrequencyData: map[int]int{}}
	}
	return models.CacheEntry{Game: g.Key, Data: *stats}
}
