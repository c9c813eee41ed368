package wizardtypes

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLaunch            = errors.New("browser launch failed")
	ErrNavigationTimeout = errors.New("navigation timeout")
	ErrFieldNotFound     = errors.New("field not found")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrAssertion         = errors.New("assertion failed")
)

// LaunchError means the browser process could not be started or reached.
type LaunchError struct {
	Driver string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s browser: %v", e.Driver, e.Err)
}

func (e *LaunchError) Unwrap() error        { return e.Err }
func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }

// NavigationTimeout means a page load or marker did not appear in time.
type NavigationTimeout struct {
	URL      string
	Selector string
	Err      error
}

func (e *NavigationTimeout) Error() string {
	msg := "navigation timeout"
	if e.URL != "" {
		msg += " at " + e.URL
	}
	if e.Selector != "" {
		msg += fmt.Sprintf(" waiting for %q", e.Selector)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NavigationTimeout) Unwrap() error        { return e.Err }
func (e *NavigationTimeout) Is(target error) bool { return target == ErrNavigationTimeout }

// FieldNotFound means a field ordinal did not resolve to exactly one element.
type FieldNotFound struct {
	Stage    string
	Ordinal  int
	Selector string
	Matches  int
}

func (e *FieldNotFound) Error() string {
	if e.Matches > 1 {
		return fmt.Sprintf("field %d on %s: selector %q is ambiguous (%d matches)", e.Ordinal, e.Stage, e.Selector, e.Matches)
	}
	return fmt.Sprintf("field %d on %s: no element matches %q", e.Ordinal, e.Stage, e.Selector)
}

func (e *FieldNotFound) Is(target error) bool { return target == ErrFieldNotFound }

// ProtocolViolation means a submit ended in neither a clean advance nor a
// clean rejection.
type ProtocolViolation struct {
	Stage   string
	FromURL string
	Outcome NavigationOutcome
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation on %s: submitted from %s, landed on %s (error summary: %t, error messages: %d)",
		e.Stage, e.FromURL, e.Outcome.LandedURL, e.Outcome.HasErrorSummary, e.Outcome.ErrorMessageCount)
}

func (e *ProtocolViolation) Is(target error) bool { return target == ErrProtocolViolation }

// AssertionFailure is a mismatch between what the page shows and what the
// scenario expects.
type AssertionFailure struct {
	Stage    string
	Selector string
	Subject  string
	Expected any
	Actual   any
	// Snapshot is a simplified DOM of the page at the time of failure.
	Snapshot string
}

func (e *AssertionFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "assertion failed on %s", e.Stage)
	if e.Subject != "" {
		fmt.Fprintf(&b, ": %s", e.Subject)
	}
	if e.Selector != "" {
		fmt.Fprintf(&b, " (%s)", e.Selector)
	}
	fmt.Fprintf(&b, ": expected %v, got %v", e.Expected, e.Actual)
	return b.String()
}

func (e *AssertionFailure) Is(target error) bool { return target == ErrAssertion }
