package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Vodeneev/lottostats/internal/pkg/games"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

// Scope bounds one strategy run.
type Scope struct {
	Game       games.Game
	Cutoff     time.Time // zero means no age limit
	MaxRecords int
	Now        time.Time
}

func (s Scope) tooOld(date time.Time) bool {
	return !s.Cutoff.IsZero() && date.Before(s.Cutoff)
}

// Strategy pulls candidate records out of a document. matched reports whether the
// strategy recognised any structure at all; a matched strategy ends the search even when it
// produced no usable records.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, scope Scope) (records []models.DrawRecord, matched bool)
}

// heuristic marks strategies that guess at structure rather than recognise it.
type heuristic interface {
	heuristic()
}

// DefaultStrategies returns the strategies in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{structured{}, embeddedJSON{}, bruteForce{}}
}

var genericContainerSelectors = []string{
	"[data-draw-date]",
	"[data-draw]",
	".draw-result",
	".draw-results .draw",
	".results .result",
	".result-row",
	".results-table tbody tr",
	".winning-numbers",
	"table tbody tr",
}

var numberSelectors = []string{
	".ball",
	".number",
	".winning-number",
	"[data-number]",
	".numbers li",
	".balls li",
	"li",
	".numbers",
	"td",
}

var secondarySelectors = []string{
	".euro",
	".euro-number",
	".euronumber",
	".bonus",
	".bonus-ball",
	".powerball",
	".lucky-star",
	".star",
	".superzahl",
	"[data-secondary]",
}

var (
	dateSelectors     = []string{"time[datetime]", "[data-draw-date]", ".draw-date", ".date", "td.date"}
	prizeSelectors    = []string{"[data-label='prize']", ".prize", ".jackpot"}
	winnersSelectors  = []string{"[data-label='winners']", ".winners"}
	locationSelectors = []string{"[data-label='location']", ".location", ".venue"}

	secondarySelector = strings.Join(secondarySelectors, ", ")
	dateSelector      = strings.Join(dateSelectors, ", ")
)

// structured walks the game's own container selectors, then the generic ones. The first
// selector with at least one match is used exclusively.
type structured struct{}

func (structured) Name() string { return "structured" }

func (structured) Extract(doc *goquery.Document, scope Scope) ([]models.DrawRecord, bool) {
	candidates := make([]string, 0, len(scope.Game.DrawSelectors)+len(genericContainerSelectors))
	candidates = append(candidates, scope.Game.DrawSelectors...)
	candidates = append(candidates, genericContainerSelectors...)

	for _, sel := range candidates {
		containers := doc.Find(sel)
		if containers.Length() == 0 {
			continue
		}
		return recordsFromContainers(containers, scope), true
	}
	return nil, false
}

func recordsFromContainers(containers *goquery.Selection, scope Scope) []models.DrawRecord {
	cfg := scope.Game.Config
	var records []models.DrawRecord

	containers.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if len(records) >= scope.MaxRecords {
			return false
		}

		secondary := []int(nil)
		primaryLimit := cfg.NumbersPerDraw
		if cfg.DualPool() {
			secondary = numbersFrom(el.Find(secondarySelector), cfg.SecondaryMaxValue, cfg.SecondaryCount)
			if len(secondary) == 0 {
				// Pools rendered alike; take both and let SplitPools separate them.
				primaryLimit = cfg.DrawWidth()
			}
		}

		var primary []int
		for _, sub := range numberSelectors {
			nodes := el.Find(sub).Not(secondarySelector).Not(dateSelector)
			if primary = numbersFrom(nodes, cfg.MaxToken(), primaryLimit); len(primary) > 0 {
				break
			}
		}
		if len(primary) == 0 {
			return true
		}

		date, ok := dateFrom(el)
		if !ok {
			date = scope.Now
		} else if scope.tooOld(date) {
			return false
		}

		rec := models.NewDrawRecord(date, primary, secondary)
		rec.Prize = firstText(el, prizeSelectors)
		rec.Winners = firstText(el, winnersSelectors)
		rec.Location = firstText(el, locationSelectors)
		records = append(records, rec)
		return true
	})
	return records
}

// numbersFrom collects up to limit in-range integers from the text of nodes, in order.
func numbersFrom(nodes *goquery.Selection, maxValue, limit int) []int {
	var out []int
	nodes.EachWithBreak(func(_ int, n *goquery.Selection) bool {
		for _, v := range inRange(tokenize(spacedText(n)), maxValue) {
			out = append(out, v)
			if len(out) == limit {
				return false
			}
		}
		return true
	})
	return out
}

func dateFrom(el *goquery.Selection) (time.Time, bool) {
	for _, attr := range []string{"data-draw-date", "datetime"} {
		if v, ok := el.Attr(attr); ok {
			if t, ok := parseDate(v); ok {
				return t, true
			}
		}
	}
	for _, sel := range dateSelectors {
		node := el.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if v, ok := node.Attr("datetime"); ok {
			if t, ok := parseDate(v); ok {
				return t, true
			}
		}
		if t, ok := parseDate(node.Text()); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstText(el *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(el.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
