package models

import "time"

// GameStatistics is the derived summary served to clients, one per game type.
type GameStatistics struct {
	FrequencyData map[int]int     `json:"frequencyData"`
	TotalDraws    int             `json:"totalDraws"`
	AvgSum        float64         `json:"avgSum"`
	SumRange      [2]int          `json:"sumRange"` // [min, max]
	HotNumbers    []int           `json:"hotNumbers"`
	ColdNumbers   []int           `json:"coldNumbers"`
	Patterns      Patterns        `json:"patterns"`
	SecondaryPool *GameStatistics `json:"secondaryPool,omitempty"`
}

// Patterns are coarse descriptive ratios over the hot numbers.
type Patterns struct {
	EvenOddRatio string `json:"evenOddRatio"` // "even:odd"
	LowHighRatio string `json:"lowHighRatio"` // "low:high"
	SumRangeText string `json:"sumRange"`     // "min-max"
}

// CacheEntry is the persisted artifact readers consume. The JSON layout is shared with
// external readers and must stay stable.
type CacheEntry struct {
	Game         string         `json:"game"`
	Data         GameStatistics `json:"data"`
	Timestamp    time.Time      `json:"timestamp"`
	ResultsCount int            `json:"resultsCount"`
}

// Age returns how old the entry is relative to now.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}
