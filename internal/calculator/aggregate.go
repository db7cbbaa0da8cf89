// Package calculator derives game statistics from draw records.
package calculator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
	"github.com/Vodeneev/lottostats/internal/pkg/validation"
)

// ErrInsufficientData is returned when no usable record is left to aggregate.
var ErrInsufficientData = errors.New("insufficient data: no valid draw records")

// TopN is the fixed width of the hot and cold lists.
const TopN = 5

var recordValidator = validation.NewValidator()

// Aggregate computes the statistics of records for a game. Records that store both pools
// concatenated are split first; records that still violate the game's invariants are
// skipped.
func Aggregate(records []models.DrawRecord, cfg models.GameConfig) (*models.GameStatistics, error) {
	primary := make([][]int, 0, len(records))
	secondary := make([][]int, 0, len(records))
	sums := make([]int, 0, len(records))

	for _, r := range records {
		rec := cfg.SplitPools(models.NewDrawRecord(r.Date, r.Numbers, r.EuroNumbers))
		if err := recordValidator.ValidateDrawRecord(&rec, cfg); err != nil {
			continue
		}
		primary = append(primary, rec.Numbers)
		secondary = append(secondary, rec.EuroNumbers)
		sums = append(sums, rec.Sum)
	}
	if len(primary) == 0 {
		return nil, ErrInsufficientData
	}

	stats := summarize(primary, sums, cfg.MaxValue)
	if cfg.DualPool() {
		secondarySums := make([]int, len(secondary))
		for i, nums := range secondary {
			secondarySums[i] = models.SumOf(nums)
		}
		stats.SecondaryPool = summarize(secondary, secondarySums, cfg.SecondaryMaxValue)
	}
	return stats, nil
}

func summarize(draws [][]int, sums []int, maxValue int) *models.GameStatistics {
	freq := make(map[int]int)
	for _, nums := range draws {
		for _, n := range nums {
			freq[n]++
		}
	}

	minSum, maxSum, total := sums[0], sums[0], 0
	for _, s := range sums {
		total += s
		minSum = min(minSum, s)
		maxSum = max(maxSum, s)
	}
	avg := float64(total) / float64(len(sums))

	return fromFrequencies(freq, len(draws), avg, [2]int{minSum, maxSum}, maxValue)
}

// fromFrequencies derives the ranked lists and patterns shared by computed and built-in
// statistics.
func fromFrequencies(freq map[int]int, totalDraws int, avgSum float64, sumRange [2]int, maxValue int) *models.GameStatistics {
	hot, cold := rank(freq)
	return &models.GameStatistics{
		FrequencyData: freq,
		TotalDraws:    totalDraws,
		AvgSum:        math.Round(avgSum*100) / 100,
		SumRange:      sumRange,
		HotNumbers:    hot,
		ColdNumbers:   cold,
		Patterns:      patterns(hot, sumRange, maxValue),
	}
}

// rank orders numbers by count descending, value ascending, and returns the head as hot
// and the tail as cold. Cold is reported coldest first. Both lists are disjoint whenever at
// least 2*TopN numbers were observed.
func rank(freq map[int]int) (hot, cold []int) {
	ordered := make([]int, 0, len(freq))
	for n := range freq {
		ordered = append(ordered, n)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if freq[a] != freq[b] {
			return freq[a] > freq[b]
		}
		return a < b
	})

	k := min(TopN, len(ordered))
	hot = append([]int(nil), ordered[:k]...)
	cold = append([]int(nil), ordered[len(ordered)-k:]...)
	sort.Slice(cold, func(i, j int) bool {
		a, b := cold[i], cold[j]
		if freq[a] != freq[b] {
			return freq[a] < freq[b]
		}
		return a < b
	})
	return hot, cold
}

// patterns describes the hot numbers only.
func patterns(hot []int, sumRange [2]int, maxValue int) models.Patterns {
	var even, odd, low, high int
	for _, n := range hot {
		if n%2 == 0 {
			even++
		} else {
			odd++
		}
		if n <= maxValue/2 {
			low++
		} else {
			high++
		}
	}
	return models.Patterns{
		EvenOddRatio: fmt.Sprintf("%d:%d", even, odd),
		LowHighRatio: fmt.Sprintf("%d:%d", low, high),
		SumRangeText: fmt.Sprintf("%d-%d", sumRange[0], sumRange[1]),
	}
}
