package storage

import (
	"context"
	"errors"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

// ErrNotFound is returned when a key or document does not exist.
var ErrNotFound = errors.New("not found")

// StatsCollection is the mirror collection holding one document per game.
const StatsCollection = "game_statistics"

// CacheStore is the primary artifact store. Writes are atomic per key: a concurrent reader
// sees either the previous entry or the new one.
type CacheStore interface {
	Write(ctx context.Context, key string, entry models.CacheEntry) error
	// Read returns ErrNotFound when no entry was ever written for key.
	Read(ctx context.Context, key string) (models.CacheEntry, error)
	Close() error
}

// Mirror is a durable document store that receives a best-effort copy of every entry.
type Mirror interface {
	// Upsert inserts or replaces the document (collection, id).
	Upsert(ctx context.Context, collection, id string, data any) error
	// Get decodes the document into dst or returns ErrNotFound.
	Get(ctx context.Context, collection, id string, dst any) error
	Close() error
}
