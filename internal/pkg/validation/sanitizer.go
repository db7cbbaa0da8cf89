package validation

import (
	"regexp"
	"strings"

	"github.com/Vodeneev/lottostats/internal/pkg/interfaces"
	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

const maxAnnotationLen = 200

var (
	controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// Sanitizer implements data sanitization
type Sanitizer struct{}

// NewSanitizer creates a new sanitizer
func NewSanitizer() interfaces.DataSanitizer {
	return &Sanitizer{}
}

// SanitizeDrawRecord cleans the scraped annotations of a record.
func (s *Sanitizer) SanitizeDrawRecord(record *models.DrawRecord) {
	if record == nil {
		return
	}
	record.Prize = s.sanitizeString(record.Prize)
	record.Winners = s.sanitizeString(record.Winners)
	record.Location = s.sanitizeString(record.Location)
}

func (s *Sanitizer) sanitizeString(str string) string {
	// Control characters become spaces so adjacent words do not merge
	sanitized := controlChars.ReplaceAllString(str, " ")
	sanitized = spaceRuns.ReplaceAllString(sanitized, " ")
	sanitized = strings.TrimSpace(sanitized)

	if len(sanitized) > maxAnnotationLen {
		sanitized = truncateRunes(sanitized, maxAnnotationLen)
	}
	return sanitized
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return strings.TrimSpace(s[:cut])
}
