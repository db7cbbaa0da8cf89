// Package fetch retrieves rendered result pages and exposes them as queryable documents.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrBlocked matches every BlockedError.
	ErrBlocked = errors.New("page blocked")
	// ErrUnavailable means the fetcher itself cannot run, e.g. no browser binary.
	ErrUnavailable = errors.New("fetcher unavailable")
)

// BlockedError reports a bot wall, CAPTCHA, error page or non-200 status.
type BlockedError struct {
	URL    string
	Status int
	Reason string
}

func (e *BlockedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("blocked fetching %s (status %d): %s", e.URL, e.Status, e.Reason)
	}
	return fmt.Sprintf("blocked fetching %s: %s", e.URL, e.Reason)
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}

// Options tune a single fetch.
type Options struct {
	// WaitCondition is a CSS selector to wait for before the markup is read.
	WaitCondition string
	Timeout       time.Duration
	// UserAgent overrides the fetcher's default when not empty.
	UserAgent string
}

// Document is a fetched page ready for selector queries.
type Document struct {
	URL    string
	Status int
	*goquery.Document
}

// Fetcher retrieves a rendered document.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts Options) (*Document, error)
}

// NewDocument parses markup and rejects pages that look like a block or error page.
func NewDocument(url string, status int, markup []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	if reason, blocked := DetectBlock(doc); blocked {
		return nil, &BlockedError{URL: url, Status: status, Reason: reason}
	}
	return &Document{URL: url, Status: status, Document: doc}, nil
}
