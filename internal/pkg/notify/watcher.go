package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

// Sender delivers a formatted message.
type Sender interface {
	Notify(ctx context.Context, text string) error
}

const DefaultFailureThreshold = 3

// FailureWatcher alerts once when a game has failed Threshold refreshes in a row and once
// more when it recovers.
type FailureWatcher struct {
	sender    Sender
	threshold int

	mu       sync.Mutex
	failures map[string]int
	lastErr  map[string]string
}

func NewFailureWatcher(sender Sender, threshold int) *FailureWatcher {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	return &FailureWatcher{
		sender:    sender,
		threshold: threshold,
		failures:  make(map[string]int),
		lastErr:   make(map[string]string),
	}
}

// Observe consumes a refresh result. Skipped refreshes are ignored.
func (w *FailureWatcher) Observe(res models.RefreshResult) {
	var text string

	w.mu.Lock()
	switch res.Outcome {
	case models.RefreshFailed:
		w.failures[res.Game]++
		w.lastErr[res.Game] = res.ErrorMessage()
		if w.failures[res.Game] == w.threshold {
			text = formatFailureAlert(res, w.threshold)
		}
	case models.RefreshUpdated:
		if w.failures[res.Game] >= w.threshold {
			text = formatRecovery(res, w.failures[res.Game])
		}
		delete(w.failures, res.Game)
		delete(w.lastErr, res.Game)
	}
	w.mu.Unlock()

	if text == "" {
		return
	}
	if err := w.sender.Notify(context.Background(), text); err != nil {
		slog.Warn("Failed to queue refresh alert", "game", res.Game, "error", err)
	}
}

// Failures returns the current consecutive failure count of game.
func (w *FailureWatcher) Failures(game string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failures[game]
}

func formatFailureAlert(res models.RefreshResult, threshold int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 *Refresh failing: %s*\n\n", escapeMarkdown(res.Game))
	fmt.Fprintf(&b, "%d consecutive failed refreshes, clients are served stale or default statistics.\n", threshold)
	if msg := res.ErrorMessage(); msg != "" {
		fmt.Fprintf(&b, "Last error: `%s`\n", strings.ReplaceAll(msg, "`", "'"))
	}
	fmt.Fprintf(&b, "_Time: %s_", time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	return b.String()
}

func formatRecovery(res models.RefreshResult, failures int) string {
	return fmt.Sprintf("✅ *Refresh recovered: %s*\n\nUpdated with %d records after %d failures.",
		escapeMarkdown(res.Game), res.Records, failures)
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
