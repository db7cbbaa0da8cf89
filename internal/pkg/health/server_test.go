package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/lottostats/internal/pkg/games"
	"github.com/Vodeneev/lottostats/internal/pkg/health/handlers"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
	"github.com/Vodeneev/lottostats/internal/pkg/performance"
	"github.com/Vodeneev/lottostats/internal/pkg/storage"
	"github.com/Vodeneev/lottostats/internal/refresh"
)

type stubExtractor struct {
	calls atomic.Int32
	fail  bool
}

func (s *stubExtractor) Extract(context.Context, string, int) ([]models.DrawRecord, error) {
	s.calls.Add(1)
	if s.fail {
		return nil, errors.New("source blocked")
	}
	return []models.DrawRecord{
		models.NewDrawRecord(time.Now(), []int{1, 7, 13, 23, 31, 37}, nil),
		models.NewDrawRecord(time.Now(), []int{7, 13, 19, 25, 31, 43}, nil),
	}, nil
}

func newTestServer(t *testing.T, ex *stubExtractor) (*httptest.Server, *refresh.Coordinator, *performance.Tracker) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	registry := games.NewRegistry(games.Builtin()...)
	coord := refresh.New(registry, ex, store, nil, refresh.Options{Deadline: 5 * time.Second})
	tracker := performance.NewTracker()
	coord.Subscribe(tracker.RecordRefresh)
	collectors := performance.NewCollectors()
	coord.Subscribe(collectors.ObserveRefresh)

	srv := httptest.NewServer(NewRouter(Deps{
		Catalog:    registry,
		Stats:      coord,
		Refresher:  coord,
		Tracker:    tracker,
		Collectors: collectors,
	}))
	t.Cleanup(func() {
		coord.Wait()
		srv.Close()
	})
	return srv, coord, tracker
}

func getJSON(t *testing.T, url string, dst any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp
}

func TestPingAndHealth(t *testing.T) {
	ex := &stubExtractor{}
	srv, _, _ := newTestServer(t, ex)

	resp := getJSON(t, srv.URL+"/ping", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string                `json:"status"`
		Games  []handlers.GameHealth `json:"games"`
	}
	resp = getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Games, len(games.Builtin()))
	for _, g := range body.Games {
		assert.Equal(t, models.SourceDefault, g.Source, g.Game)
		assert.Nil(t, g.UpdatedAt, g.Game)
	}
	assert.Zero(t, ex.calls.Load(), "health must not trigger refreshes")
}

func TestStatsFallsBackToDefault(t *testing.T) {
	ex := &stubExtractor{fail: true}
	srv, coord, _ := newTestServer(t, ex)

	var entry models.CacheEntry
	resp := getJSON(t, srv.URL+"/stats/powerball", &entry)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "default", resp.Header.Get(handlers.SourceHeader))
	assert.Equal(t, "powerball", entry.Game)
	assert.Equal(t, 100, entry.Data.TotalDraws)

	coord.Wait()
	assert.Equal(t, int32(1), ex.calls.Load())
}

func TestStatsServedFromCacheAfterRefresh(t *testing.T) {
	srv, _, tracker := newTestServer(t, &stubExtractor{})

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/refresh?game=Lotto6aus49", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var body struct {
		Results []struct {
			Game    string `json:"game"`
			Outcome string `json:"outcome"`
			Records int    `json:"records"`
		} `json:"results"`
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "lotto6aus49", body.Results[0].Game)
	assert.Equal(t, "updated", body.Results[0].Outcome)
	assert.Equal(t, 2, body.Results[0].Records)

	var entry models.CacheEntry
	statsResp := getJSON(t, srv.URL+"/stats/lotto6aus49", &entry)
	assert.Equal(t, "cache", statsResp.Header.Get(handlers.SourceHeader))
	assert.Equal(t, 2, entry.Data.TotalDraws)

	var metrics performance.MetricsResponse
	getJSON(t, srv.URL+"/metrics", &metrics)
	assert.Equal(t, 1, metrics.Overall.Updated)
	assert.Equal(t, 1, tracker.GetMetrics().Games["lotto6aus49"].Runs)
}

func TestRefreshAllGames(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubExtractor{fail: true})

	var body struct {
		Results []struct {
			Game    string `json:"game"`
			Outcome string `json:"outcome"`
			Error   string `json:"error"`
		} `json:"results"`
	}
	getJSON(t, srv.URL+"/refresh", &body)
	require.Len(t, body.Results, 4)
	for _, r := range body.Results {
		assert.Equal(t, "failed", r.Outcome, r.Game)
		assert.Contains(t, r.Error, "source blocked")
	}
}

func TestUnknownGame(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubExtractor{})

	resp := getJSON(t, srv.URL+"/stats/keno", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/refresh?game=keno", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/refresh", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, delResp.StatusCode)
}

func TestGamesAndPrometheus(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubExtractor{})

	var body struct {
		Games []struct {
			Key            string `json:"key"`
			SecondaryCount int    `json:"secondaryCount"`
		} `json:"games"`
		Count int `json:"count"`
	}
	getJSON(t, srv.URL+"/games", &body)
	assert.Equal(t, 4, body.Count)
	assert.Equal(t, "euromillions", body.Games[0].Key)

	resp := getJSON(t, srv.URL+"/metrics/prometheus", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSExposesSourceHeader(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubExtractor{})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/stats/eurojackpot", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.org")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), handlers.SourceHeader)
}

func TestRunServesAndShutsDown(t *testing.T) {
	_, coord, tracker := newTestServer(t, &stubExtractor{})

	ctx, cancel := context.WithCancel(context.Background())
	done, err := Run(ctx, "127.0.0.1:0", "test", Deps{
		Catalog:   games.NewRegistry(games.Builtin()...),
		Stats:     coord,
		Refresher: coord,
		Tracker:   tracker,
	}, time.Second)
	require.NoError(t, err)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = Run(context.Background(), ":0", "test", Deps{}, 0)
	assert.Error(t, err)
}

func TestAddrFor(t *testing.T) {
	addr, err := AddrFor(8080)
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	_, err = AddrFor(0)
	assert.Error(t, err)
}
