package interfaces

import (
	"context"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

// Refresher runs one refresh of a game's cached statistics.
type Refresher interface {
	// Refresh never returns an error; the outcome and cause travel in the result.
	Refresh(ctx context.Context, game string) models.RefreshResult
}

// StatsReader serves the last known statistics for a game without waiting on a refresh.
type StatsReader interface {
	Read(ctx context.Context, game string) (models.CacheEntry, models.StatsSource, error)
	ReadAndRevalidate(ctx context.Context, game string) (models.CacheEntry, models.StatsSource, error)
}

// GameCatalog lists the game types the service knows about.
type GameCatalog interface {
	Keys() []string
}
