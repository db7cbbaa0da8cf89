package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Vodeneev/lottostats/internal/parser/extract"
	"github.com/Vodeneev/lottostats/internal/parser/fetch"
	"github.com/Vodeneev/lottostats/internal/pkg/config"
	"github.com/Vodeneev/lottostats/internal/pkg/games"
	"github.com/Vodeneev/lottostats/internal/pkg/notify"
	"github.com/Vodeneev/lottostats/internal/pkg/performance"
	"github.com/Vodeneev/lottostats/internal/pkg/storage"
	"github.com/Vodeneev/lottostats/internal/refresh"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg        *config.Config
	registry   *games.Registry
	store      storage.CacheStore
	mirror     storage.Mirror
	extractor  *extract.Extractor
	coord      *refresh.Coordinator
	tracker    *performance.Tracker
	collectors *performance.Collectors
	notifier   *notify.TelegramNotifier
}

func newApp(cfg *config.Config) (*app, error) {
	registry := games.NewRegistry(games.Builtin()...)
	if err := registry.Apply(cfg.Games); err != nil {
		return nil, err
	}

	store, err := buildStore(cfg.Storage)
	if err != nil {
		return nil, err
	}
	mirror, err := buildMirror(cfg.Storage.Mirror)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	extractor := extract.New(registry, buildFetcher(cfg.Scraper), extract.Config{
		MaxRecords:   cfg.Scraper.MaxRecords,
		FetchTimeout: cfg.Scraper.Timeout,
		UserAgent:    fetch.ResolveUserAgent(cfg.Scraper.UserAgent),
	})

	a := &app{
		cfg:        cfg,
		registry:   registry,
		store:      store,
		mirror:     mirror,
		extractor:  extractor,
		tracker:    performance.GetTracker(),
		collectors: performance.NewCollectors(),
	}
	a.coord = refresh.New(registry, extractor, store, mirror, refresh.Options{
		Deadline:       cfg.Refresh.Deadline,
		MaxAgeDays:     cfg.Refresh.MaxAgeDays,
		StaleAfter:     cfg.Refresh.StaleAfter,
		FailureBackoff: cfg.Refresh.FailureBackoff,
	})
	a.coord.Subscribe(a.tracker.RecordRefresh)
	a.coord.Subscribe(a.collectors.ObserveRefresh)
	return a, nil
}

// enableNotifier subscribes Telegram failure alerts when configured.
func (a *app) enableNotifier() {
	n := a.cfg.Notifier
	if !n.Enabled() {
		return
	}
	notifier, err := notify.NewTelegramNotifier(n.TelegramBotToken, n.TelegramChatID)
	if err != nil {
		slog.Warn("Telegram notifier disabled", "error", err)
		return
	}
	a.notifier = notifier
	a.coord.Subscribe(notify.NewFailureWatcher(notifier, n.FailureThreshold).Observe)
}

func (a *app) Close() {
	a.coord.Wait()
	a.notifier.Stop()
	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			slog.Warn("Failed to close mirror", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close cache store", "error", err)
	}
}

func buildStore(cfg config.StorageConfig) (storage.CacheStore, error) {
	switch cfg.Backend {
	case "redis":
		s, err := storage.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			return nil, fmt.Errorf("redis cache store: %w", err)
		}
		return s, nil
	default:
		s, err := storage.NewFileStore(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("file cache store: %w", err)
		}
		return s, nil
	}
}

// buildMirror returns a nil Mirror when no driver is configured.
func buildMirror(cfg config.MirrorConfig) (storage.Mirror, error) {
	if cfg.Driver == "" {
		return nil, nil
	}
	m, err := storage.NewMirror(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s mirror: %w", cfg.Driver, err)
	}
	return m, nil
}

func buildFetcher(cfg config.ScraperConfig) fetch.Fetcher {
	var f fetch.Fetcher
	if cfg.Fetcher == "http" {
		f = fetch.NewHTTPFetcher(fetch.HTTPConfig{
			Timeout:     cfg.Timeout,
			InsecureTLS: cfg.InsecureTLS,
		})
	} else {
		f = fetch.NewChromeFetcher(cfg.ChromePath, "", cfg.ChromeDebug)
	}
	return fetch.RateLimited(f, cfg.RatePerSecond, cfg.RateBurst)
}

// warm restores missing cache entries from the mirror, logging instead of failing.
func (a *app) warm(ctx context.Context) {
	n, err := a.coord.Warm(ctx)
	if err != nil {
		slog.Warn("Cache warm-up failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Cache warmed from mirror", "games", n)
	}
}
