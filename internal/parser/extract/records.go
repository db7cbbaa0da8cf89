package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

// spacedText returns the text of sel with a space between text nodes, so that adjacent
// elements such as <li>1</li><li>2</li> do not merge into one token. Script and style
// contents are skipped.
func spacedText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(n, &b)
	}
	return b.String()
}

func writeText(n *html.Node, b *strings.Builder) {
	switch {
	case n == nil:
		return
	case n.Type == html.TextNode:
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript"):
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, b)
	}
}

// tokenize returns the whitespace or punctuation separated fields of text that are plain
// integers. Fields such as "12.03.2025" or "€5" are not integers and are ignored.
func tokenize(text string) []int {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(",;|+•·–—", r)
	})
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "()[]:")
		if f == "" || len(f) > 3 {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func inRange(values []int, maxValue int) []int {
	out := values[:0:0]
	for _, v := range values {
		if v >= 1 && v <= maxValue {
			out = append(out, v)
		}
	}
	return out
}

var (
	exactDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}
	textDateLayouts  = []string{"2 January 2006", "2 Jan 2006", "January 2 2006", "Jan 2 2006"}
)

var (
	isoDate      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	dottedDate   = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`)
	slashedDate  = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
	ordinal      = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
	weekdayNames = regexp.MustCompile(`(?i)\b(mon|tue|wed|thu|fri|sat|sun)[a-z]*\b\.?`)
)

// parseDate parses the draw date formats seen on result pages. US sites use month-first
// slashed dates.
func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range exactDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, candidate := range []struct {
		re      *regexp.Regexp
		layouts []string
	}{
		{isoDate, []string{"2006-01-02"}},
		{dottedDate, []string{"02.01.2006", "2.1.2006"}},
		{slashedDate, []string{"01/02/2006", "1/2/2006"}},
	} {
		m := candidate.re.FindString(s)
		if m == "" {
			continue
		}
		for _, layout := range candidate.layouts {
			if t, err := time.Parse(layout, m); err == nil {
				return t, true
			}
		}
	}

	cleaned := weekdayNames.ReplaceAllString(s, "")
	cleaned = ordinal.ReplaceAllString(cleaned, "$1")
	cleaned = strings.NewReplacer(",", " ", ".", " ").Replace(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// recordKey identifies a record for deduplication.
func recordKey(r models.DrawRecord) string {
	return fmt.Sprintf("%s|%v|%v", r.Date.Format("2006-01-02"), r.Numbers, r.EuroNumbers)
}
