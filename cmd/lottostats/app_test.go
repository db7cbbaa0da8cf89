package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/lottostats/internal/calculator"
	"github.com/Vodeneev/lottostats/internal/parser/fetch"
	"github.com/Vodeneev/lottostats/internal/pkg/config"
	"github.com/Vodeneev/lottostats/internal/pkg/games"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.CacheDir = t.TempDir()
	cfg.Storage.Mirror = config.MirrorConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "mirror.db")}
	cfg.Scraper.Fetcher = "http"
	cfg.Games = map[string]games.Override{"powerball": {SourceURL: "http://127.0.0.1:1/pb"}}
	return cfg
}

func TestNewAppWiresComponents(t *testing.T) {
	a, err := newApp(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	g, ok := a.registry.Lookup(games.Powerball)
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:1/pb", g.SourceURL)
	require.NotNil(t, a.mirror)

	entry, source, err := a.coord.Read(context.Background(), games.Powerball)
	require.NoError(t, err)
	assert.Equal(t, models.SourceDefault, source)
	assert.Equal(t, games.Powerball, entry.Game)

	n, err := a.coord.Warm(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewAppRejectsUnknownOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.Games = map[string]games.Override{"keno": {}}
	_, err := newApp(cfg)
	assert.ErrorContains(t, err, "keno")
}

func TestBuildMirror(t *testing.T) {
	m, err := buildMirror(config.MirrorConfig{})
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = buildMirror(config.MirrorConfig{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}

func TestBuildFetcher(t *testing.T) {
	cfg := config.Default().Scraper
	_, isChrome := buildFetcher(cfg).(*fetch.ChromeFetcher)
	assert.True(t, isChrome)

	cfg.Fetcher = "http"
	_, isHTTP := buildFetcher(cfg).(*fetch.HTTPFetcher)
	assert.True(t, isHTTP)

	cfg.RatePerSecond = 2
	_, isHTTP = buildFetcher(cfg).(*fetch.HTTPFetcher)
	assert.False(t, isHTTP)
}

func TestLoadConfigFallsBackOnlyForDefaultPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := loadConfig(config.DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = loadConfig("missing.yaml")
	assert.ErrorContains(t, err, "failed to load config")
}

func TestRenderers(t *testing.T) {
	var buf bytes.Buffer

	renderResults(&buf, []models.RefreshResult{{Game: "powerball", Outcome: models.RefreshUpdated, Attempt: 3, Records: 20, Duration: 1500 * time.Millisecond}})
	assert.Contains(t, buf.String(), "powerball")
	assert.Contains(t, buf.String(), "updated")
	assert.Contains(t, buf.String(), "1.5s")

	buf.Reset()
	renderDraws(&buf, []models.DrawRecord{models.NewDrawRecord(time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), []int{3, 14, 22, 40, 48}, []int{2, 9})})
	assert.Contains(t, buf.String(), "2026-03-07")
	assert.Contains(t, buf.String(), "3 14 22 40 48")
	assert.Contains(t, buf.String(), "2 9")

	buf.Reset()
	stats, ok := calculator.Default(games.Eurojackpot)
	require.True(t, ok)
	renderStats(&buf, models.CacheEntry{Game: games.Eurojackpot, Data: *stats}, models.SourceDefault)
	out := buf.String()
	assert.Contains(t, out, "eurojackpot (source: default, updated: never)")
	assert.Contains(t, out, "Main numbers")
	assert.Contains(t, out, "Extra numbers")

	buf.Reset()
	renderGames(&buf, games.Builtin())
	assert.Contains(t, buf.String(), "5 of 69 + 1 of 26")
}
