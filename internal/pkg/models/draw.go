package models

import (
	"time"
)

// DrawRecord is one historical draw as extracted from a results page.
type DrawRecord struct {
	Date        time.Time `json:"date"`
	Numbers     []int     `json:"numbers"`
	EuroNumbers []int     `json:"euroNumbers,omitempty"` // secondary pool, dual-pool games only
	Sum         int       `json:"sum"`                   // always recomputed from Numbers
	Prize       string    `json:"prize,omitempty"`
	Winners     string    `json:"winners,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// NewDrawRecord builds a record and derives Sum from numbers.
func NewDrawRecord(date time.Time, numbers, euroNumbers []int) DrawRecord {
	r := DrawRecord{
		Date:        date,
		Numbers:     numbers,
		EuroNumbers: euroNumbers,
	}
	r.Sum = SumOf(numbers)
	return r
}

// SumOf returns the sum of the given numbers.
func SumOf(numbers []int) int {
	total := 0
	for _, n := range numbers {
		total += n
	}
	return total
}

// GameConfig describes the numeric domain of a game.
type GameConfig struct {
	NumbersPerDraw    int `json:"numbersPerDraw" yaml:"numbers_per_draw"`
	MaxValue          int `json:"maxValue" yaml:"max_value"`
	SecondaryCount    int `json:"secondaryCount,omitempty" yaml:"secondary_count"`
	SecondaryMaxValue int `json:"secondaryMaxValue,omitempty" yaml:"secondary_max_value"`
}

// DualPool reports whether the game draws a second, independent pool.
func (c GameConfig) DualPool() bool {
	return c.SecondaryCount > 0 && c.SecondaryMaxValue > 0
}

// DrawWidth is the number of integers one full draw carries across both pools.
func (c GameConfig) DrawWidth() int {
	if c.DualPool() {
		return c.NumbersPerDraw + c.SecondaryCount
	}
	return c.NumbersPerDraw
}

// MaxToken is the largest integer that can legitimately appear in either pool.
func (c GameConfig) MaxToken() int {
	if c.DualPool() && c.SecondaryMaxValue > c.MaxValue {
		return c.SecondaryMaxValue
	}
	return c.MaxValue
}

// SplitPools separates a dual-pool record whose pools were stored concatenated in Numbers.
// Records that already carry EuroNumbers, or single-pool records, are returned unchanged.
func (c GameConfig) SplitPools(r DrawRecord) DrawRecord {
	if !c.DualPool() || len(r.EuroNumbers) > 0 || len(r.Numbers) != c.DrawWidth() {
		return r
	}
	primary := append([]int(nil), r.Numbers[:c.NumbersPerDraw]...)
	secondary := append([]int(nil), r.Numbers[c.NumbersPerDraw:]...)
	out := r
	out.Numbers = primary
	out.EuroNumbers = secondary
	out.Sum = SumOf(primary)
	return out
}
