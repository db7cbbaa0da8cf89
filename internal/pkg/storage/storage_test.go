package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

func entry(game string, draws int) models.CacheEntry {
	return models.CacheEntry{
		Game:         game,
		Data:         models.GameStatistics{FrequencyData: map[int]int{7: draws}, TotalDraws: draws},
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ResultsCount: draws,
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.Read(ctx, "lotto6aus49")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Write(ctx, "lotto6aus49", entry("lotto6aus49", 3)))
	got, err := store.Read(ctx, "lotto6aus49")
	require.NoError(t, err)
	assert.Equal(t, 3, got.ResultsCount)

	// A fresh store reads the artifact from disk.
	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err = reopened.Read(ctx, "lotto6aus49")
	require.NoError(t, err)
	assert.Equal(t, entry("lotto6aus49", 3), got)

	files, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "lotto6aus49.json")}, files)
}

func TestFileStoreRejectsBadKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "Lotto", "a/b"} {
		assert.Error(t, store.Write(context.Background(), key, entry(key, 1)), key)
	}
}

func TestFileStoreWritesAreAtomic(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "powerball", entry("powerball", 1)))

	path := filepath.Join(dir, "powerball.json")
	stop := make(chan struct{})
	var wg sync.WaitGroup
	var readErrs []error
	var mu sync.Mutex

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				data, err := os.ReadFile(path)
				if err == nil {
					var e models.CacheEntry
					err = json.Unmarshal(data, &e)
				}
				if err != nil {
					mu.Lock()
					readErrs = append(readErrs, err)
					mu.Unlock()
				}
			}
		}()
	}

	for i := 2; i < 200; i++ {
		require.NoError(t, store.Write(ctx, "powerball", entry("powerball", i)))
	}
	close(stop)
	wg.Wait()

	assert.Empty(t, readErrs)
}

func TestSQLiteMirror(t *testing.T) {
	m, err := NewSQLiteMirror(":memory:")
	require.NoError(t, err)
	defer m.Close()
	ctx := context.Background()

	var got models.CacheEntry
	assert.ErrorIs(t, m.Get(ctx, StatsCollection, "eurojackpot", &got), ErrNotFound)

	require.NoError(t, m.Upsert(ctx, StatsCollection, "eurojackpot", entry("eurojackpot", 1)))
	require.NoError(t, m.Upsert(ctx, StatsCollection, "eurojackpot", entry("eurojackpot", 2)))

	require.NoError(t, m.Get(ctx, StatsCollection, "eurojackpot", &got))
	assert.Equal(t, 2, got.ResultsCount)
	assert.Equal(t, 2, got.Data.FrequencyData[7])

	assert.ErrorIs(t, m.Get(ctx, "other", "eurojackpot", &got), ErrNotFound)
}

func TestPostgresMirror(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").WillReturnResult(sqlmock.NewResult(0, 0))
	m, err := openMirror(db, dialectPostgres)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents (collection, id, data, updated_at)")).
		WithArgs(StatsCollection, "powerball", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, m.Upsert(ctx, StatsCollection, "powerball", entry("powerball", 4)))

	raw, err := json.Marshal(entry("powerball", 4))
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs(StatsCollection, "powerball").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(raw))
	var got models.CacheEntry
	require.NoError(t, m.Get(ctx, StatsCollection, "powerball", &got))
	assert.Equal(t, 4, got.ResultsCount)

	mock.ExpectQuery("SELECT data FROM documents").
		WithArgs(StatsCollection, "keno").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))
	assert.ErrorIs(t, m.Get(ctx, StatsCollection, "keno", &got), ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteBind(t *testing.T) {
	m := &SQLMirror{dialect: dialectSQLite}
	assert.Equal(t, "a = ? AND b = ?", m.bind("a = $1 AND b = $2"))
	pg := &SQLMirror{dialect: dialectPostgres}
	assert.Equal(t, "a = $1", pg.bind("a = $1"))
}

func TestNewMirrorUnknownDriver(t *testing.T) {
	_, err := NewMirror("mongo", "x")
	assert.ErrorContains(t, err, "unsupported")
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("LOTTOSTATS_TEST_REDIS")
	if addr == "" {
		t.Skip("LOTTOSTATS_TEST_REDIS not set")
	}
	store, err := NewRedisStore(addr, "", 0, time.Minute)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	key := "test-" + time.Now().Format("150405.000000")
	_, err = store.Read(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Write(ctx, key, entry(key, 5)))
	got, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 5, got.ResultsCount)
	assert.Equal(t, "lottostats:stats:"+key, redisKey(key))
}
