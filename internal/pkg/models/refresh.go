package models

import (
	"encoding/json"
	"time"
)

// RefreshOutcome is the result class of one refresh call.
type RefreshOutcome int

const (
	RefreshFailed RefreshOutcome = iota
	RefreshUpdated
	RefreshSkippedInFlight
)

func (o RefreshOutcome) String() string {
	switch o {
	case RefreshUpdated:
		return "updated"
	case RefreshSkippedInFlight:
		return "skipped_in_flight"
	default:
		return "failed"
	}
}

func (o RefreshOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// RefreshResult describes a finished refresh call.
type RefreshResult struct {
	Game     string         `json:"game"`
	Outcome  RefreshOutcome `json:"outcome"`
	Attempt  uint64         `json:"attempt,omitempty"`
	Records  int            `json:"records"`
	Duration time.Duration  `json:"duration"`
	Err      error          `json:"-"`
}

// ErrorMessage returns the failure reason, or an empty string.
func (r RefreshResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// StatsSource tells a reader where the served statistics came from.
type StatsSource string

const (
	SourceCache   StatsSource = "cache"
	SourceDefault StatsSource = "default"
)
