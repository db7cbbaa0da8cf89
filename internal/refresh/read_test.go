package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/lottostats/internal/pkg/games"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
	"github.com/Vodeneev/lottostats/internal/pkg/storage"
)

func TestReadServesDefaultThenCache(t *testing.T) {
	store := newMemStore()
	c := newCoordinator(returning(sampleDraws(), nil), store, nil, Options{})

	entry, source, err := c.Read(context.Background(), games.Lotto6aus49)
	require.NoError(t, err)
	assert.Equal(t, models.SourceDefault, source)
	assert.True(t, entry.Timestamp.IsZero())
	assert.Equal(t, 0, entry.ResultsCount)
	assert.Equal(t, 100, entry.Data.TotalDraws)

	require.Equal(t, models.RefreshUpdated, c.Refresh(context.Background(), games.Lotto6aus49).Outcome)

	entry, source, err = c.Read(context.Background(), "LOTTO6AUS49")
	require.NoError(t, err)
	assert.Equal(t, models.SourceCache, source)
	assert.Equal(t, 3, entry.Data.TotalDraws)

	_, _, err = c.Read(context.Background(), "keno")
	assert.ErrorIs(t, err, ErrUnknownGame)
}

func TestReadFallsBackWhenStoreErrors(t *testing.T) {
	store := newMemStore()
	store.entries[games.Powerball] = []byte("{not json")
	c := newCoordinator(returning(nil, nil), store, nil, Options{})

	_, source, err := c.Read(context.Background(), games.Powerball)
	require.NoError(t, err)
	assert.Equal(t, models.SourceDefault, source)
}

func TestReadAndRevalidate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("default triggers refresh", func(t *testing.T) {
		ex := returning(sampleDraws(), nil)
		store := newMemStore()
		c := newCoordinator(ex, store, nil, Options{StaleAfter: time.Hour, Now: clock})

		_, source, err := c.ReadAndRevalidate(context.Background(), games.Lotto6aus49)
		require.NoError(t, err)
		assert.Equal(t, models.SourceDefault, source)
		c.Wait()

		assert.Equal(t, int32(1), ex.calls.Load())
		_, source, _ = c.Read(context.Background(), games.Lotto6aus49)
		assert.Equal(t, models.SourceCache, source)
	})

	t.Run("stale entry triggers refresh", func(t *testing.T) {
		ex := returning(sampleDraws(), nil)
		store := newMemStore()
		require.NoError(t, store.Write(context.Background(), games.Lotto6aus49,
			models.CacheEntry{Game: games.Lotto6aus49, Timestamp: now.Add(-2 * time.Hour)}))
		c := newCoordinator(ex, store, nil, Options{StaleAfter: time.Hour, Now: clock})

		_, source, err := c.ReadAndRevalidate(context.Background(), games.Lotto6aus49)
		require.NoError(t, err)
		assert.Equal(t, models.SourceCache, source)
		c.Wait()
		assert.Equal(t, int32(1), ex.calls.Load())
	})

	t.Run("fresh entry is served as is", func(t *testing.T) {
		ex := returning(sampleDraws(), nil)
		store := newMemStore()
		require.NoError(t, store.Write(context.Background(), games.Lotto6aus49,
			models.CacheEntry{Game: games.Lotto6aus49, Timestamp: now.Add(-time.Minute)}))
		c := newCoordinator(ex, store, nil, Options{StaleAfter: time.Hour, Now: clock})

		_, _, err := c.ReadAndRevalidate(context.Background(), games.Lotto6aus49)
		require.NoError(t, err)
		c.Wait()
		assert.Equal(t, int32(0), ex.calls.Load())
	})

	t.Run("in-flight game is not refreshed twice", func(t *testing.T) {
		release := make(chan struct{})
		ex := &fakeExtractor{fn: func(context.Context, string) ([]models.DrawRecord, error) {
			<-release
			return sampleDraws(), nil
		}}
		c := newCoordinator(ex, newMemStore(), nil, Options{Now: clock})

		c.RefreshAsync(games.Lotto6aus49)
		require.Eventually(t, func() bool { return c.InFlight(games.Lotto6aus49) }, time.Second, time.Millisecond)
		for i := 0; i < 5; i++ {
			_, _, err := c.ReadAndRevalidate(context.Background(), games.Lotto6aus49)
			require.NoError(t, err)
		}
		close(release)
		c.Wait()
		assert.Equal(t, int32(1), ex.calls.Load())
	})

	t.Run("failed refresh backs off", func(t *testing.T) {
		current := now
		ex := returning(nil, errors.New("source blocked"))
		c := newCoordinator(ex, newMemStore(), nil, Options{
			StaleAfter:     time.Hour,
			FailureBackoff: 5 * time.Minute,
			Now:            func() time.Time { return current },
		})

		for i := 0; i < 3; i++ {
			_, source, err := c.ReadAndRevalidate(context.Background(), games.Lotto6aus49)
			require.NoError(t, err)
			assert.Equal(t, models.SourceDefault, source)
			c.Wait()
		}
		assert.Equal(t, int32(1), ex.calls.Load())

		current = current.Add(6 * time.Minute)
		_, _, err := c.ReadAndRevalidate(context.Background(), games.Lotto6aus49)
		require.NoError(t, err)
		c.Wait()
		assert.Equal(t, int32(2), ex.calls.Load())

		// An explicit refresh is never held back.
		c.Refresh(context.Background(), games.Lotto6aus49)
		assert.Equal(t, int32(3), ex.calls.Load())
	})

	t.Run("success clears the backoff", func(t *testing.T) {
		fail := true
		ex := &fakeExtractor{fn: func(context.Context, string) ([]models.DrawRecord, error) {
			if fail {
				return nil, errors.New("timeout")
			}
			return sampleDraws(), nil
		}}
		store := newMemStore()
		c := newCoordinator(ex, store, nil, Options{StaleAfter: time.Nanosecond, FailureBackoff: time.Hour, Now: clock})

		assert.Equal(t, models.RefreshFailed, c.Refresh(context.Background(), games.Powerball).Outcome)
		fail = false
		assert.Equal(t, models.RefreshUpdated, c.Refresh(context.Background(), games.Powerball).Outcome)

		require.NoError(t, store.Write(context.Background(), games.Powerball,
			models.CacheEntry{Game: games.Powerball, Timestamp: now.Add(-time.Minute)}))
		_, _, err := c.ReadAndRevalidate(context.Background(), games.Powerball)
		require.NoError(t, err)
		c.Wait()
		assert.Equal(t, int32(3), ex.calls.Load())
	})
}

func TestWarmRestoresFromMirror(t *testing.T) {
	ctx := context.Background()
	mirror := newFakeMirror()
	restored := models.CacheEntry{Game: games.Powerball, Timestamp: time.Unix(5000, 0).UTC(), ResultsCount: 12}
	require.NoError(t, mirror.Upsert(ctx, storage.StatsCollection, games.Powerball, restored))
	require.NoError(t, mirror.Upsert(ctx, storage.StatsCollection, games.Lotto6aus49,
		models.CacheEntry{Game: games.Lotto6aus49, ResultsCount: 1}))

	store := newMemStore()
	present := models.CacheEntry{Game: games.Lotto6aus49, ResultsCount: 40}
	require.NoError(t, store.Write(ctx, games.Lotto6aus49, present))

	c := newCoordinator(returning(nil, nil), store, mirror, Options{})
	n, err := c.Warm(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.Read(ctx, games.Powerball)
	require.NoError(t, err)
	assert.Equal(t, 12, got.ResultsCount)

	kept, err := store.Read(ctx, games.Lotto6aus49)
	require.NoError(t, err)
	assert.Equal(t, 40, kept.ResultsCount)
}

func TestWarmWithSQLiteMirror(t *testing.T) {
	ctx := context.Background()
	mirror, err := storage.NewSQLiteMirror(":memory:")
	require.NoError(t, err)
	defer mirror.Close()

	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	first := newCoordinator(returning(sampleDraws(), nil), store, mirror, Options{})
	require.Equal(t, models.RefreshUpdated, first.Refresh(ctx, games.Lotto6aus49).Outcome)

	// A fresh volume, same mirror.
	empty, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	second := newCoordinator(returning(nil, errors.New("offline")), empty, mirror, Options{})

	n, err := second.Warm(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entry, source, err := second.Read(ctx, games.Lotto6aus49)
	require.NoError(t, err)
	assert.Equal(t, models.SourceCache, source)
	assert.Equal(t, 3, entry.Data.FrequencyData[7])
}

func TestWarmWithoutMirror(t *testing.T) {
	c := newCoordinator(returning(nil, nil), newMemStore(), nil, Options{})
	n, err := c.Warm(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
