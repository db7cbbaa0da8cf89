package parserutil

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

// GameFunc runs one operation for a single game.
type GameFunc func(ctx context.Context, game string) models.RefreshResult

// RunOptions configures how games are run.
type RunOptions struct {
	// LogStart logs when each game starts.
	LogStart bool
	// OnFailure is called for every failed result. If nil, failures are logged.
	OnFailure func(res models.RefreshResult)
	// MaxConcurrent caps how many games run at once; 0 runs them all in parallel. A game
	// does not start until it holds a slot, so per-game deadlines never cover the wait.
	MaxConcurrent int
}

// RunGames runs fn for all games, blocks until every game finishes and returns the results
// sorted by game key. Games still waiting for a slot when ctx ends are reported as failed
// without running.
func RunGames(ctx context.Context, games []string, fn GameFunc, opts RunOptions) []models.RefreshResult {
	if len(games) == 0 {
		return nil
	}

	onFailure := opts.OnFailure
	if onFailure == nil {
		onFailure = func(res models.RefreshResult) {
			slog.Error("Game run failed", "game", res.Game, "error", res.Err)
		}
	}

	var slots *semaphore.Weighted
	if opts.MaxConcurrent > 0 {
		slots = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make([]models.RefreshResult, 0, len(games))
	)
	for _, g := range games {
		wg.Add(1)
		go func(game string) {
			defer wg.Done()

			var res models.RefreshResult
			if slots != nil {
				err := slots.Acquire(ctx, 1)
				if err == nil {
					defer slots.Release(1)
					// A free slot can be granted after ctx ended.
					err = ctx.Err()
				}
				if err != nil {
					res = models.RefreshResult{Game: game, Outcome: models.RefreshFailed, Err: fmt.Errorf("not started: %w", err)}
				}
			}
			if res.Err == nil {
				if opts.LogStart {
					slog.Info("Starting game run", "game", game)
				}
				res = fn(ctx, game)
			}

			if res.Outcome == models.RefreshFailed {
				onFailure(res)
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(g)
	}

	wg.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Game < results[j].Game })
	return results
}
