// Package scheduler refreshes every known game on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/Vodeneev/lottostats/internal/pkg/interfaces"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
	"github.com/Vodeneev/lottostats/internal/pkg/parserutil"
)

const DefaultSchedule = "@every 6h"

type Scheduler struct {
	schedule    string
	concurrency int
	catalog     interfaces.GameCatalog
	refresher   interfaces.Refresher
	cron        *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
	runs   sync.WaitGroup
}

// New validates the cron schedule and prepares a scheduler. Nothing runs until Start.
// At most concurrency games refresh at once; 0 means no limit.
func New(schedule string, concurrency int, catalog interfaces.GameCatalog, refresher interfaces.Refresher) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	s := &Scheduler{schedule: schedule, concurrency: concurrency, catalog: catalog, refresher: refresher, cron: c}
	if _, err := c.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs one refresh of every game immediately and then on every tick.
// Refreshes are cancelled by neither ctx nor Stop; each is bounded by its own deadline.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	slog.Info("Refresh scheduler started", "schedule", s.schedule, "games", len(s.catalog.Keys()))

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		s.RunAll(s.ctx)
	}()
	s.cron.Start()
}

// Stop stops scheduling and waits for running ticks to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	if s.cancel != nil {
		s.cancel()
	}
	s.runs.Wait()
	slog.Info("Refresh scheduler stopped")
}

func (s *Scheduler) tick() {
	if s.ctx.Err() != nil {
		return
	}
	s.RunAll(s.ctx)
}

// RunAll refreshes every game and returns the results sorted by game. A game's refresh
// deadline starts only once it gets one of the concurrency slots.
func (s *Scheduler) RunAll(ctx context.Context) []models.RefreshResult {
	results := parserutil.RunGames(ctx, s.catalog.Keys(), s.refresher.Refresh, parserutil.RunOptions{
		MaxConcurrent: s.concurrency,
	})

	updated, failed := 0, 0
	for _, r := range results {
		switch r.Outcome {
		case models.RefreshUpdated:
			updated++
		case models.RefreshFailed:
			failed++
		}
	}
	slog.Info("Refresh cycle finished", "games", len(results), "updated", updated, "failed", failed)
	return results
}

// cronLogger routes cron's logr-style calls to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
