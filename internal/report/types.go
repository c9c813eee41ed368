package report

import (
	"time"

	"github.com/google/uuid"
)

const Version = "2026-10-01"

// Kind classifies a check failure.
type Kind string

const (
	KindLaunch            Kind = "launch"
	KindNavigationTimeout Kind = "navigation_timeout"
	KindFieldNotFound     Kind = "field_not_found"
	KindProtocolViolation Kind = "protocol_violation"
	KindAssertion         Kind = "assertion"
	KindError             Kind = "error"
)

type Report struct {
	Version    string     `json:"version"`
	RunID      uuid.UUID  `json:"runId"`
	Target     string     `json:"target"`
	Driver     string     `json:"driver"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt,omitempty"`
	Totals     Totals     `json:"totals"`
	Scenarios  []Scenario `json:"scenarios"`
}

type Totals struct {
	Scenarios     int `json:"scenarios"`
	Passed        int `json:"passed"`
	Failed        int `json:"failed"`
	Cancelled     int `json:"cancelled"`
	Checks        int `json:"checks"`
	ChecksFailed  int `json:"checksFailed"`
	ChecksSkipped int `json:"checksSkipped"`
}

type Scenario struct {
	ID         string    `json:"id"`
	Flow       string    `json:"flow"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	Checks     []Check   `json:"checks"`
}

type Check struct {
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	DurationMS int64    `json:"durationMs"`
	Failure    *Failure `json:"failure,omitempty"`
}

// Failure describes why a check failed, with whatever context the error
// carried.
type Failure struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Stage    string `json:"stage,omitempty"`
	URL      string `json:"url,omitempty"`
	Selector string `json:"selector,omitempty"`
	Ordinal  int    `json:"ordinal,omitempty"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
	Snapshot string `json:"snapshot,omitempty"`
}
