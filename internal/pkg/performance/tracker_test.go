package performance

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

func TestTrackerRecordsOutcomes(t *testing.T) {
	tr := NewTracker()
	tr.RecordRefresh(models.RefreshResult{Game: "powerball", Outcome: models.RefreshUpdated, Records: 20, Duration: 2 * time.Second})
	tr.RecordRefresh(models.RefreshResult{Game: "powerball", Outcome: models.RefreshFailed, Duration: 4 * time.Second, Err: errors.New("blocked")})
	tr.RecordRefresh(models.RefreshResult{Game: "powerball", Outcome: models.RefreshSkippedInFlight})
	tr.RecordRefresh(models.RefreshResult{Game: "lotto6aus49", Outcome: models.RefreshUpdated, Records: 10, Duration: time.Second})

	m := tr.GetMetrics()
	assert.Equal(t, 4, m.Overall.TotalRuns)
	assert.Equal(t, 2, m.Overall.Updated)
	assert.Equal(t, 1, m.Overall.SkippedInFlight)
	assert.Equal(t, 1, m.Overall.Failed)
	assert.Equal(t, 30, m.Overall.TotalRecords)
	assert.InDelta(t, 66.67, m.Overall.SuccessRate, 0.01)
	assert.Equal(t, "2.333333333s", m.Overall.AvgDuration)

	pb := m.Games["powerball"]
	assert.Equal(t, 3, pb.Runs)
	assert.Equal(t, "skipped_in_flight", pb.LastOutcome)
	assert.Equal(t, "3s", pb.AvgDuration)
	assert.NotEmpty(t, pb.LastSuccess)

	assert.Equal(t, []string{"lotto6aus49", "powerball"}, m.GameKeys())
	require.Len(t, m.SlowestRefreshes, 3)
	assert.Equal(t, "4s", m.SlowestRefreshes[0].Duration)
	assert.Equal(t, "blocked", m.SlowestRefreshes[0].Error)

	tr.Reset()
	assert.Zero(t, tr.GetMetrics().Overall.TotalRuns)
}

func TestTrackerBoundsRecentRuns(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < maxRecentRuns+10; i++ {
		tr.RecordRefresh(models.RefreshResult{Game: "g", Outcome: models.RefreshUpdated, Attempt: uint64(i + 1)})
	}
	assert.Len(t, tr.RecentRuns, maxRecentRuns)
	assert.Equal(t, uint64(11), tr.RecentRuns[0].Attempt)
}

func TestCollectors(t *testing.T) {
	c := NewCollectors()
	c.ObserveRefresh(models.RefreshResult{Game: "eurojackpot", Outcome: models.RefreshUpdated, Records: 7, Duration: time.Second})
	c.ObserveRefresh(models.RefreshResult{Game: "eurojackpot", Outcome: models.RefreshSkippedInFlight})
	c.ObserveRead("eurojackpot", models.SourceDefault)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, line := range []string{
		`lottostats_refresh_total{game="eurojackpot",outcome="updated"} 1`,
		`lottostats_refresh_total{game="eurojackpot",outcome="skipped_in_flight"} 1`,
		`lottostats_refresh_records{game="eurojackpot"} 7`,
		`lottostats_stats_reads_total{game="eurojackpot",source="default"} 1`,
	} {
		assert.True(t, strings.Contains(body, line), line)
	}
}
