// Package extract turns result pages into draw records using an ordered list of strategies.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Vodeneev/lottostats/internal/parser/fetch"
	"github.com/Vodeneev/lottostats/internal/pkg/games"
	"github.com/Vodeneev/lottostats/internal/pkg/interfaces"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
	"github.com/Vodeneev/lottostats/internal/pkg/validation"
)

// DefaultMaxRecords caps how many draws one extraction returns.
const DefaultMaxRecords = 50

// ExtractionFailure is returned only for setup problems: an unknown game or a fetcher that
// cannot run. Everything that goes wrong with the page itself yields an empty result.
type ExtractionFailure struct {
	Game   string
	Reason string
	Err    error
}

func (e *ExtractionFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Game, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Game, e.Reason)
}

func (e *ExtractionFailure) Unwrap() error { return e.Err }

// Catalog resolves game keys.
type Catalog interface {
	Lookup(key string) (games.Game, bool)
}

// Config tunes an Extractor. Zero values select defaults.
type Config struct {
	MaxRecords   int
	FetchTimeout time.Duration
	UserAgent    fetch.UserAgentSource
	Strategies   []Strategy
	Now          func() time.Time
}

type Extractor struct {
	catalog   Catalog
	fetcher   fetch.Fetcher
	validator interfaces.Validator
	sanitizer interfaces.DataSanitizer
	cfg       Config
}

func New(catalog Catalog, fetcher fetch.Fetcher, cfg Config) *Extractor {
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = DefaultMaxRecords
	}
	if cfg.UserAgent == nil {
		cfg.UserAgent = fetch.StaticUserAgent("")
	}
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = DefaultStrategies()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Extractor{
		catalog:   catalog,
		fetcher:   fetcher,
		validator: validation.NewValidator(),
		sanitizer: validation.NewSanitizer(),
		cfg:       cfg,
	}
}

// Extract fetches the game's result page and returns the draws found on it, newest first.
// maxAgeDays <= 0 disables the age limit.
func (e *Extractor) Extract(ctx context.Context, game string, maxAgeDays int) ([]models.DrawRecord, error) {
	g, ok := e.catalog.Lookup(game)
	if !ok {
		return nil, &ExtractionFailure{Game: game, Reason: "unknown game type"}
	}

	start := time.Now()
	doc, err := e.fetcher.Fetch(ctx, g.SourceURL, fetch.Options{
		WaitCondition: g.WaitCondition,
		Timeout:       e.cfg.FetchTimeout,
		UserAgent:     e.cfg.UserAgent(),
	})
	if err != nil {
		switch {
		case errors.Is(err, fetch.ErrUnavailable):
			return nil, &ExtractionFailure{Game: g.Key, Reason: "fetcher unavailable", Err: err}
		case errors.Is(err, fetch.ErrBlocked):
			slog.Warn("Source blocked, returning no draws", "game", g.Key, "url", g.SourceURL, "error", err)
		default:
			slog.Warn("Fetch failed, returning no draws", "game", g.Key, "url", g.SourceURL, "error", err)
		}
		return nil, nil
	}

	records := e.Parse(doc.Document, g, maxAgeDays)
	slog.Info("Extraction finished", "game", g.Key, "records", len(records), "duration", time.Since(start))
	return records, nil
}

// Parse runs the strategies against an already fetched document. The first strategy that
// recognises structure decides the result; results are never merged across strategies.
// Heuristic strategies are not run on a page carrying a CAPTCHA widget.
func (e *Extractor) Parse(doc *goquery.Document, g games.Game, maxAgeDays int) []models.DrawRecord {
	now := e.cfg.Now()
	scope := Scope{Game: g, MaxRecords: e.cfg.MaxRecords, Now: now}
	if maxAgeDays > 0 {
		scope.Cutoff = now.AddDate(0, 0, -maxAgeDays)
	}

	for _, s := range e.cfg.Strategies {
		if _, guess := s.(heuristic); guess {
			// Nothing structured matched, so a CAPTCHA widget here is the page itself.
			if sel, found := fetch.CaptchaWidget(doc); found {
				slog.Warn("CAPTCHA page, returning no draws", "game", g.Key, "selector", sel)
				return nil
			}
		}
		candidates, matched := s.Extract(doc, scope)
		if !matched {
			continue
		}
		records := e.finalize(candidates, g)
		slog.Debug("Strategy matched", "game", g.Key, "strategy", s.Name(),
			"candidates", len(candidates), "records", len(records))
		return records
	}
	slog.Debug("No strategy matched", "game", g.Key)
	return nil
}

// finalize sanitizes, splits, validates and deduplicates candidates. Invalid records are
// dropped, never repaired.
func (e *Extractor) finalize(candidates []models.DrawRecord, g games.Game) []models.DrawRecord {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.DrawRecord, 0, len(candidates))

	for _, c := range candidates {
		rec := g.Config.SplitPools(models.NewDrawRecord(c.Date, c.Numbers, c.EuroNumbers))
		rec.Prize, rec.Winners, rec.Location = c.Prize, c.Winners, c.Location
		e.sanitizer.SanitizeDrawRecord(&rec)

		if err := e.validator.ValidateDrawRecord(&rec, g.Config); err != nil {
			slog.Debug("Dropping invalid draw", "game", g.Key, "numbers", rec.Numbers, "error", err)
			continue
		}
		key := recordKey(rec)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
		if len(out) == e.cfg.MaxRecords {
			break
		}
	}
	return out
}
