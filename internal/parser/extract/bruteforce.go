package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

// bruteForce groups every in-range integer on the page into draw-sized windows. Lowest
// confidence; it only runs when no structure was recognised.
type bruteForce struct{}

func (bruteForce) Name() string { return "brute-force" }

func (bruteForce) heuristic() {}

func (bruteForce) Extract(doc *goquery.Document, scope Scope) ([]models.DrawRecord, bool) {
	cfg := scope.Game.Config
	tokens := inRange(tokenize(spacedText(doc.Find("body"))), cfg.MaxToken())
	width := cfg.DrawWidth()

	var records []models.DrawRecord
	for i := 0; i+width <= len(tokens) && len(records) < scope.MaxRecords; i += width {
		window := append([]int(nil), tokens[i:i+width]...)
		records = append(records, models.NewDrawRecord(scope.Now, window, nil))
	}
	return records, len(records) > 0
}
