package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Vodeneev/lottostats/internal/pkg/games"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

func renderResults(w io.Writer, results []models.RefreshResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Game", "Outcome", "Attempt", "Records", "Duration", "Error"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Game, r.Outcome.String(), r.Attempt, r.Records, r.Duration.Round(time.Millisecond).String(), r.ErrorMessage()})
	}
	t.Render()
}

func renderDraws(w io.Writer, records []models.DrawRecord) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Date", "Numbers", "Extra", "Sum", "Prize"})
	for _, r := range records {
		t.AppendRow(table.Row{r.Date.Format("2006-01-02"), joinInts(r.Numbers), joinInts(r.EuroNumbers), r.Sum, r.Prize})
	}
	t.AppendFooter(table.Row{"", "", "", "Draws", len(records)})
	t.Render()
}

func renderStats(w io.Writer, entry models.CacheEntry, source models.StatsSource) {
	updated := "never"
	if !entry.Timestamp.IsZero() {
		updated = entry.Timestamp.Format("2006-01-02 15:04 MST")
	}
	fmt.Fprintf(w, "%s (source: %s, updated: %s)\n", entry.Game, source, updated)
	renderPool(w, "Main numbers", entry.Data)
	if entry.Data.SecondaryPool != nil {
		renderPool(w, "Extra numbers", *entry.Data.SecondaryPool)
	}
}

func renderPool(w io.Writer, title string, s models.GameStatistics) {
	t := newTable(w)
	t.SetTitle(title)
	t.AppendRows([]table.Row{
		{"Draws", s.TotalDraws},
		{"Average sum", fmt.Sprintf("%.2f", s.AvgSum)},
		{"Sum range", s.Patterns.SumRangeText},
		{"Hot", joinInts(s.HotNumbers)},
		{"Cold", joinInts(s.ColdNumbers)},
		{"Even:odd", s.Patterns.EvenOddRatio},
		{"Low:high", s.Patterns.LowHighRatio},
	})
	t.Render()

	numbers := make([]int, 0, len(s.FrequencyData))
	for n := range s.FrequencyData {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	freq := newTable(w)
	freq.AppendHeader(table.Row{"Number", "Count"})
	for _, n := range numbers {
		freq.AppendRow(table.Row{n, s.FrequencyData[n]})
	}
	freq.Render()
}

func renderGames(w io.Writer, gs []games.Game) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Key", "Name", "Pools", "Source"})
	for _, g := range gs {
		pools := fmt.Sprintf("%d of %d", g.Config.NumbersPerDraw, g.Config.MaxValue)
		if g.Config.DualPool() {
			pools += fmt.Sprintf(" + %d of %d", g.Config.SecondaryCount, g.Config.SecondaryMaxValue)
		}
		t.AppendRow(table.Row{g.Key, g.Name, pools, g.SourceURL})
	}
	t.Render()
}
