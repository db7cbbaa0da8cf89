// Package refresh keeps the cached statistics of every game up to date. At most one
// extraction per game runs at a time, each bounded by a deadline, and only the most recent
// attempt for a game may write to the cache.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vodeneev/lottostats/internal/calculator"
	"github.com/Vodeneev/lottostats/internal/pkg/games"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
	"github.com/Vodeneev/lottostats/internal/pkg/storage"
)

const DefaultDeadline = 90 * time.Second

var (
	ErrUnknownGame      = errors.New("unknown game type")
	ErrNoRecords        = errors.New("extraction returned no records")
	ErrDeadlineExceeded = errors.New("refresh deadline exceeded")
	// ErrSuperseded is reported by a worker whose attempt was abandoned before it could commit.
	ErrSuperseded = errors.New("refresh attempt superseded")
)

// Extractor produces draw records for a game.
type Extractor interface {
	Extract(ctx context.Context, game string, maxAgeDays int) ([]models.DrawRecord, error)
}

// Catalog resolves and lists game types.
type Catalog interface {
	Lookup(key string) (games.Game, bool)
	Keys() []string
}

// Observer receives every refresh result. Observers must not block.
type Observer func(models.RefreshResult)

type Options struct {
	Deadline   time.Duration
	MaxAgeDays int
	// StaleAfter is the entry age past which ReadAndRevalidate starts a background refresh.
	StaleAfter time.Duration
	Now        func() time.Time

	// FailureBackoff is how long ReadAndRevalidate leaves a game alone after a failed refresh.
	FailureBackoff time.Duration
}

type Coordinator struct {
	catalog   Catalog
	extractor Extractor
	store     storage.CacheStore
	mirror    storage.Mirror
	opts      Options

	// Lock order: writeMu, then mu.
	mu       sync.Mutex
	inFlight map[string]uint64 // game -> attempt holding it
	attempts map[string]uint64 // game -> last attempt id issued
	failedAt map[string]time.Time
	writeMu  sync.Mutex

	obsMu     sync.RWMutex
	observers []Observer

	background sync.WaitGroup
}

// New creates a coordinator. mirror may be nil.
func New(catalog Catalog, extractor Extractor, store storage.CacheStore, mirror storage.Mirror, opts Options) *Coordinator {
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		catalog:   catalog,
		extractor: extractor,
		store:     store,
		mirror:    mirror,
		opts:      opts,
		inFlight:  make(map[string]uint64),
		attempts:  make(map[string]uint64),
		failedAt:  make(map[string]time.Time),
	}
}

// Subscribe registers an observer for refresh results.
func (c *Coordinator) Subscribe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

// InFlight reports whether a refresh of game is currently running.
func (c *Coordinator) InFlight(game string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[game]
	return ok
}

// acquire atomically checks and claims the game. It returns false if another attempt holds it.
func (c *Coordinator) acquire(game string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[game]; busy {
		return 0, false
	}
	c.attempts[game]++
	attempt := c.attempts[game]
	c.inFlight[game] = attempt
	return attempt, true
}

// backingOff reports whether the last refresh of game failed less than FailureBackoff ago.
func (c *Coordinator) backingOff(game string) bool {
	if c.opts.FailureBackoff <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	at, failed := c.failedAt[game]
	return failed && c.opts.Now().Sub(at) < c.opts.FailureBackoff
}

func (c *Coordinator) release(game string, attempt uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[game] == attempt {
		delete(c.inFlight, game)
	}
}

// abandon releases the game under the write lock, so no commit of the attempt is running
// and none can start afterwards.
func (c *Coordinator) abandon(game string, attempt uint64) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.release(game, attempt)
}

type workResult struct {
	records int
	err     error
}

// Refresh extracts, aggregates and stores fresh statistics for game. It returns
// SkippedInFlight without side effects when a refresh of the same game is running, and
// Failed, with the cache untouched, when extraction fails, finds nothing or misses the
// deadline. The caller's cancellation is not propagated; the deadline is the only bound.
func (c *Coordinator) Refresh(ctx context.Context, game string) models.RefreshResult {
	start := time.Now()

	g, ok := c.catalog.Lookup(game)
	if !ok {
		return c.finish(models.RefreshResult{
			Game:    game,
			Outcome: models.RefreshFailed,
			Err:     fmt.Errorf("%w: %s", ErrUnknownGame, game),
		}, start)
	}

	attempt, ok := c.acquire(g.Key)
	if !ok {
		return c.finish(models.RefreshResult{Game: g.Key, Outcome: models.RefreshSkippedInFlight}, start)
	}
	defer c.release(g.Key, attempt)

	var committed atomic.Bool
	done := make(chan workResult, 1)
	workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Deadline)

	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Refresh worker panicked", "game", g.Key, "attempt", attempt, "panic", r)
				done <- workResult{err: fmt.Errorf("refresh panic: %v", r)}
			}
		}()
		done <- c.run(workCtx, g, attempt, &committed)
	}()

	timer := time.NewTimer(c.opts.Deadline)
	defer timer.Stop()

	res := models.RefreshResult{Game: g.Key, Attempt: attempt}
	select {
	case w := <-done:
		res.Records, res.Err = w.records, w.err
		if w.err == nil {
			res.Outcome = models.RefreshUpdated
		}
	case <-timer.C:
		c.abandon(g.Key, attempt)
		if committed.Load() {
			res.Outcome = models.RefreshUpdated
		} else {
			res.Err = fmt.Errorf("%w after %s", ErrDeadlineExceeded, c.opts.Deadline)
		}
	}
	return c.finish(res, start)
}

func (c *Coordinator) run(ctx context.Context, g games.Game, attempt uint64, committed *atomic.Bool) workResult {
	records, err := c.extractor.Extract(ctx, g.Key, c.opts.MaxAgeDays)
	if err != nil {
		return workResult{err: err}
	}
	if len(records) == 0 {
		return workResult{err: ErrNoRecords}
	}

	stats, err := calculator.Aggregate(records, g.Config)
	if err != nil {
		return workResult{records: len(records), err: err}
	}

	entry := models.CacheEntry{
		Game:         g.Key,
		Data:         *stats,
		Timestamp:    c.opts.Now().UTC(),
		ResultsCount: stats.TotalDraws,
	}
	if err := c.commit(ctx, g.Key, attempt, entry, committed); err != nil {
		return workResult{records: len(records), err: err}
	}
	return workResult{records: len(records)}
}

// commit writes entry if attempt still holds the game. The primary write decides the
// outcome; the mirror write is best effort.
func (c *Coordinator) commit(ctx context.Context, game string, attempt uint64, entry models.CacheEntry, committed *atomic.Bool) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	owner := c.inFlight[game] == attempt
	c.mu.Unlock()
	if !owner {
		slog.Warn("Discarding late refresh result", "game", game, "attempt", attempt)
		return ErrSuperseded
	}

	if err := c.store.Write(ctx, game, entry); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	committed.Store(true)

	if c.mirror != nil {
		if err := c.mirror.Upsert(ctx, storage.StatsCollection, game, entry); err != nil {
			slog.Warn("Mirror write failed", "game", game, "attempt", attempt, "error", err)
		}
	}
	return nil
}

func (c *Coordinator) finish(res models.RefreshResult, start time.Time) models.RefreshResult {
	res.Duration = time.Since(start)

	// Attempt is zero for unknown games and skips.
	if res.Attempt != 0 {
		c.mu.Lock()
		if res.Outcome == models.RefreshUpdated {
			delete(c.failedAt, res.Game)
		} else {
			c.failedAt[res.Game] = c.opts.Now()
		}
		c.mu.Unlock()
	}

	switch res.Outcome {
	case models.RefreshUpdated:
		slog.Info("Refresh updated cache", "game", res.Game, "attempt", res.Attempt,
			"records", res.Records, "duration", res.Duration)
	case models.RefreshSkippedInFlight:
		slog.Debug("Refresh skipped, already in flight", "game", res.Game)
	default:
		slog.Warn("Refresh failed", "game", res.Game, "attempt", res.Attempt,
			"duration", res.Duration, "error", res.Err)
	}

	c.obsMu.RLock()
	observers := c.observers
	c.obsMu.RUnlock()
	for _, o := range observers {
		o(res)
	}
	return res
}
