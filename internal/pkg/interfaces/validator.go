package interfaces

import "github.com/Vodeneev/lottostats/internal/pkg/models"

// Validator checks draw records against the invariants of a game.
type Validator interface {
	// ValidateDrawRecord returns an error describing the first violated invariant.
	ValidateDrawRecord(record *models.DrawRecord, cfg models.GameConfig) error
}

// DataSanitizer normalizes scraped free-text fields in place.
type DataSanitizer interface {
	SanitizeDrawRecord(record *models.DrawRecord)
}
