package flow

import (
	"net/url"
	"strings"

	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

// State of a runner with respect to its current stage.
type State string

const (
	StateIdle      State = "idle"
	StateAtStage   State = "at-stage"
	StateSubmitted State = "submitted"
	StateAdvanced  State = "advanced"
	StateRejected  State = "rejected"
)

// Transition is the result of one submit.
type Transition struct {
	From    wizardtypes.StageDescriptor   `json:"from"`
	State   State                         `json:"state"`
	Outcome wizardtypes.NavigationOutcome `json:"outcome"`
}

// Classify decides what a submit from fromURL did. A rejection stays on the
// same URL and shows both the summary and at least one field message; an
// advance leaves the URL with neither. Anything in between is a
// ProtocolViolation.
func Classify(stage wizardtypes.StageDescriptor, o wizardtypes.NavigationOutcome) (State, error) {
	same := SameURL(stage.URL, o.LandedURL)
	switch {
	case same && o.HasErrorSummary && o.ErrorMessageCount > 0:
		return StateRejected, nil
	case !same && !o.HasErrorSummary && o.ErrorMessageCount == 0:
		return StateAdvanced, nil
	}
	return StateSubmitted, &wizardtypes.ProtocolViolation{Stage: stage.Heading, FromURL: stage.URL, Outcome: o}
}

// SameURL compares scheme, host and path. Query strings, fragments and a
// trailing slash do not make two stage URLs different.
func SameURL(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) &&
		strings.EqualFold(ua.Host, ub.Host) &&
		strings.TrimRight(ua.Path, "/") == strings.TrimRight(ub.Path, "/")
}
