package wizardtypes

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage kinds
type StageKind string

const (
	StageEmbark   StageKind = "embark"
	StageQuestion StageKind = "question"
	StageDebark   StageKind = "debark"
	StageConfirm  StageKind = "confirm"
)

// Field kinds
type FieldKind string

const (
	FieldText  FieldKind = "text"
	FieldRadio FieldKind = "radio"
)

// Scenario status constants
type ScenarioStatus string

const (
	StatusPending   ScenarioStatus = "pending"
	StatusRunning   ScenarioStatus = "running"
	StatusPassed    ScenarioStatus = "passed"
	StatusFailed    ScenarioStatus = "failed"
	StatusCancelled ScenarioStatus = "cancelled"
)

// Check status constants
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckSkipped CheckStatus = "skipped"
)

// StageDescriptor identifies one wizard page. Heading must equal the page's
// h1 text exactly once the page has loaded.
type StageDescriptor struct {
	Kind    StageKind `json:"kind" yaml:"kind"`
	Variant string    `json:"variant,omitempty" yaml:"variant,omitempty"`
	URL     string    `json:"url" yaml:"url"`
	Heading string    `json:"heading" yaml:"heading"`
}

func (s StageDescriptor) String() string {
	if s.Variant != "" {
		return fmt.Sprintf("%s %s (%s)", s.Kind, s.Variant, s.Heading)
	}
	return fmt.Sprintf("%s (%s)", s.Kind, s.Heading)
}

// FieldSpec describes one input to fill on a question page.
type FieldSpec struct {
	Kind    FieldKind `json:"kind" yaml:"kind"`
	Ordinal int       `json:"ordinal" yaml:"ordinal"`
	Value   string    `json:"value" yaml:"value"`
	// Display is what the summary renders for Value, e.g. the label of a
	// chosen radio. Empty means the summary shows Value itself.
	Display string `json:"display,omitempty" yaml:"display,omitempty"`
}

// Expected returns the text the summary should show for this answer.
func (f FieldSpec) Expected() string {
	if f.Display != "" {
		return f.Display
	}
	return f.Value
}

func (f FieldSpec) Validate() error {
	switch f.Kind {
	case FieldText, FieldRadio:
	default:
		return fmt.Errorf("field kind %q is not supported", f.Kind)
	}
	if f.Ordinal < 1 {
		return fmt.Errorf("field ordinal must be >= 1, got %d", f.Ordinal)
	}
	return nil
}

// AnswerEntry is one dt/dd row of a summary card.
type AnswerEntry struct {
	Label       string `json:"label" yaml:"label"`
	Value       string `json:"value" yaml:"value"`
	ChangeLabel string `json:"changeLabel,omitempty" yaml:"changeLabel,omitempty"`
}

// AnswerCard is one rendered answer on the Debark page. Value and ChangeLabel
// mirror the first entry; composite answers carry one entry per field.
type AnswerCard struct {
	Ordinal     int           `json:"ordinal"`
	Title       string        `json:"title"`
	Value       string        `json:"value"`
	ChangeLabel string        `json:"changeLabel"`
	Entries     []AnswerEntry `json:"entries"`
}

// NavigationOutcome is what a submit left behind.
type NavigationOutcome struct {
	LandedURL         string `json:"landedUrl"`
	HasErrorSummary   bool   `json:"hasErrorSummary"`
	ErrorMessageCount int    `json:"errorMessageCount"`
}

// CheckResult records one ordered check inside a scenario.
type CheckResult struct {
	Name     string        `json:"name"`
	Status   CheckStatus   `json:"status"`
	Error    error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Scenario is one flow from the table executing in its own page.
type Scenario struct {
	ID         uuid.UUID      `json:"id"`
	Flow       string         `json:"flow"`
	Status     ScenarioStatus `json:"status"`
	Checks     []CheckResult  `json:"checks"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	FinishedAt time.Time      `json:"finishedAt,omitempty"`
}

// IsFinal reports whether the scenario can no longer change status.
func (s *Scenario) IsFinal() bool {
	switch s.Status {
	case StatusPassed, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
