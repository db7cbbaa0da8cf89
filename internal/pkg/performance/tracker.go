package performance

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

const maxRecentRuns = 1000

// Tracker tracks refresh outcomes and timings
type Tracker struct {
	mu sync.RWMutex

	// Overall metrics
	TotalRuns    int
	TotalUpdated int
	TotalSkipped int
	TotalFailed  int
	TotalRecords int

	// Timing metrics, skipped runs excluded
	TotalDuration time.Duration

	Games map[string]*GameStats

	// RecentRuns is a bounded log of finished refreshes, oldest first
	RecentRuns []RunTiming
}

// GameStats aggregates refreshes of a single game
type GameStats struct {
	Runs          int
	Updated       int
	Skipped       int
	Failed        int
	Records       int
	TotalDuration time.Duration
	LastOutcome   string
	LastError     string
	LastRun       time.Time
	LastSuccess   time.Time
}

// RunTiming tracks a single refresh
type RunTiming struct {
	Game      string
	Attempt   uint64
	Outcome   string
	Records   int
	Duration  time.Duration
	Error     string
	Timestamp time.Time
}

var globalTracker = NewTracker()

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		Games:      make(map[string]*GameStats),
		RecentRuns: make([]RunTiming, 0, 64),
	}
}

// GetTracker returns the global performance tracker
func GetTracker() *Tracker {
	return globalTracker
}

// Reset resets all metrics
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.TotalRuns = 0
	t.TotalUpdated = 0
	t.TotalSkipped = 0
	t.TotalFailed = 0
	t.TotalRecords = 0
	t.TotalDuration = 0
	t.Games = make(map[string]*GameStats)
	t.RecentRuns = t.RecentRuns[:0]
}

// RecordRefresh records a finished refresh. It has the signature of a refresh observer.
func (t *Tracker) RecordRefresh(res models.RefreshResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	gs, ok := t.Games[res.Game]
	if !ok {
		gs = &GameStats{}
		t.Games[res.Game] = gs
	}

	t.TotalRuns++
	gs.Runs++
	gs.LastRun = now
	gs.LastOutcome = res.Outcome.String()
	gs.LastError = res.ErrorMessage()

	switch res.Outcome {
	case models.RefreshUpdated:
		t.TotalUpdated++
		gs.Updated++
		gs.LastSuccess = now
	case models.RefreshSkippedInFlight:
		t.TotalSkipped++
		gs.Skipped++
		return
	default:
		t.TotalFailed++
		gs.Failed++
	}

	t.TotalRecords += res.Records
	t.TotalDuration += res.Duration
	gs.Records += res.Records
	gs.TotalDuration += res.Duration

	if len(t.RecentRuns) == maxRecentRuns {
		copy(t.RecentRuns, t.RecentRuns[1:])
		t.RecentRuns = t.RecentRuns[:maxRecentRuns-1]
	}
	t.RecentRuns = append(t.RecentRuns, RunTiming{
		Game:      res.Game,
		Attempt:   res.Attempt,
		Outcome:   res.Outcome.String(),
		Records:   res.Records,
		Duration:  res.Duration,
		Error:     res.ErrorMessage(),
		Timestamp: now,
	})
}

// PrintSummary logs a performance summary
func (t *Tracker) PrintSummary() {
	m := t.GetMetrics()
	if m.Overall.TotalRuns == 0 {
		slog.Info("No performance data collected yet")
		return
	}

	slog.Info("Refresh summary",
		"total_runs", m.Overall.TotalRuns,
		"updated", m.Overall.Updated,
		"skipped_in_flight", m.Overall.SkippedInFlight,
		"failed", m.Overall.Failed,
		"success_rate", m.Overall.SuccessRate,
		"avg_duration", m.Overall.AvgDuration)

	for _, g := range m.GameKeys() {
		s := m.Games[g]
		slog.Info("Game refresh statistics",
			"game", g,
			"runs", s.Runs,
			"failed", s.Failed,
			"avg_duration", s.AvgDuration,
			"last_outcome", s.LastOutcome,
			"last_error", s.LastError)
	}
}

// MetricsResponse represents the JSON response structure for /metrics endpoint
type MetricsResponse struct {
	Overall struct {
		TotalRuns       int     `json:"total_runs"`
		Updated         int     `json:"updated"`
		SkippedInFlight int     `json:"skipped_in_flight"`
		Failed          int     `json:"failed"`
		TotalRecords    int     `json:"total_records"`
		SuccessRate     float64 `json:"success_rate"`
		AvgDuration     string  `json:"avg_duration"`
	} `json:"overall"`

	Games map[string]GameMetrics `json:"games"`

	SlowestRefreshes []RunMetrics `json:"slowest_refreshes"`
}

type GameMetrics struct {
	Runs        int     `json:"runs"`
	Updated     int     `json:"updated"`
	Skipped     int     `json:"skipped_in_flight"`
	Failed      int     `json:"failed"`
	Records     int     `json:"records"`
	SuccessRate float64 `json:"success_rate"`
	AvgDuration string  `json:"avg_duration"`
	LastOutcome string  `json:"last_outcome"`
	LastError   string  `json:"last_error,omitempty"`
	LastRun     string  `json:"last_run,omitempty"`
	LastSuccess string  `json:"last_success,omitempty"`
}

type RunMetrics struct {
	Game     string `json:"game"`
	Attempt  uint64 `json:"attempt"`
	Outcome  string `json:"outcome"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// GameKeys returns the game keys of the response in sorted order.
func (m MetricsResponse) GameKeys() []string {
	keys := make([]string, 0, len(m.Games))
	for k := range m.Games {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// successRate is computed over runs that actually executed.
func successRate(updated, failed int) float64 {
	if updated+failed == 0 {
		return 0
	}
	return float64(updated) / float64(updated+failed) * 100
}

func avgDuration(total time.Duration, n int) string {
	if n == 0 {
		return time.Duration(0).String()
	}
	return (total / time.Duration(n)).String()
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

// GetMetrics returns structured metrics for JSON API
func (t *Tracker) GetMetrics() MetricsResponse {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var resp MetricsResponse

	executed := t.TotalUpdated + t.TotalFailed
	resp.Overall.TotalRuns = t.TotalRuns
	resp.Overall.Updated = t.TotalUpdated
	resp.Overall.SkippedInFlight = t.TotalSkipped
	resp.Overall.Failed = t.TotalFailed
	resp.Overall.TotalRecords = t.TotalRecords
	resp.Overall.SuccessRate = successRate(t.TotalUpdated, t.TotalFailed)
	resp.Overall.AvgDuration = avgDuration(t.TotalDuration, executed)

	resp.Games = make(map[string]GameMetrics, len(t.Games))
	for game, gs := range t.Games {
		resp.Games[game] = GameMetrics{
			Runs:        gs.Runs,
			Updated:     gs.Updated,
			Skipped:     gs.Skipped,
			Failed:      gs.Failed,
			Records:     gs.Records,
			SuccessRate: successRate(gs.Updated, gs.Failed),
			AvgDuration: avgDuration(gs.TotalDuration, gs.Updated+gs.Failed),
			LastOutcome: gs.LastOutcome,
			LastError:   gs.LastError,
			LastRun:     formatTime(gs.LastRun),
			LastSuccess: formatTime(gs.LastSuccess),
		}
	}

	// Top 5 slowest
	slowest := make([]RunTiming, len(t.RecentRuns))
	copy(slowest, t.RecentRuns)
	sort.SliceStable(slowest, func(i, j int) bool { return slowest[i].Duration > slowest[j].Duration })
	if len(slowest) > 5 {
		slowest = slowest[:5]
	}
	resp.SlowestRefreshes = make([]RunMetrics, 0, len(slowest))
	for _, r := range slowest {
		resp.SlowestRefreshes = append(resp.SlowestRefreshes, RunMetrics{
			Game:     r.Game,
			Attempt:  r.Attempt,
			Outcome:  r.Outcome,
			Duration: r.Duration.String(),
			Error:    r.Error,
		})
	}

	return resp
}
