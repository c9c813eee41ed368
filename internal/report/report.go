package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

func New(target, driver string) *Report {
	return &Report{
		Version:   Version,
		RunID:     uuid.New(),
		Target:    target,
		Driver:    driver,
		StartedAt: time.Now().UTC(),
		Scenarios: []Scenario{},
	}
}

// Add appends scenarios and updates the totals.
func (r *Report) Add(scenarios ...wizardtypes.Scenario) {
	for _, s := range scenarios {
		rs := Scenario{
			ID:         s.ID.String(),
			Flow:       s.Flow,
			Status:     string(s.Status),
			Error:      s.Error,
			StartedAt:  s.CreatedAt,
			FinishedAt: s.FinishedAt,
			Checks:     make([]Check, 0, len(s.Checks)),
		}
		for _, c := range s.Checks {
			rc := Check{Name: c.Name, Status: string(c.Status), DurationMS: c.Duration.Milliseconds()}
			if c.Error != nil {
				rc.Failure = Describe(c.Error)
			}
			rs.Checks = append(rs.Checks, rc)

			r.Totals.Checks++
			switch c.Status {
			case wizardtypes.CheckFailed:
				r.Totals.ChecksFailed++
			case wizardtypes.CheckSkipped:
				r.Totals.ChecksSkipped++
			}
		}

		r.Totals.Scenarios++
		switch s.Status {
		case wizardtypes.StatusPassed:
			r.Totals.Passed++
		case wizardtypes.StatusCancelled:
			r.Totals.Cancelled++
		default:
			r.Totals.Failed++
		}
		r.Scenarios = append(r.Scenarios, rs)
	}
}

// Finish stamps the end of the run.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// OK reports whether every scenario passed.
func (r *Report) OK() bool {
	return r.Totals.Scenarios > 0 && r.Totals.Passed == r.Totals.Scenarios
}

// Classify maps an error onto a failure kind.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, wizardtypes.ErrLaunch):
		return KindLaunch
	case errors.Is(err, wizardtypes.ErrNavigationTimeout):
		return KindNavigationTimeout
	case errors.Is(err, wizardtypes.ErrFieldNotFound):
		return KindFieldNotFound
	case errors.Is(err, wizardtypes.ErrProtocolViolation):
		return KindProtocolViolation
	case errors.Is(err, wizardtypes.ErrAssertion):
		return KindAssertion
	}
	return KindError
}

// Describe extracts the context an error carries.
func Describe(err error) *Failure {
	f := &Failure{Kind: Classify(err), Message: err.Error()}

	var nav *wizardtypes.NavigationTimeout
	var fnf *wizardtypes.FieldNotFound
	var pv *wizardtypes.ProtocolViolation
	var af *wizardtypes.AssertionFailure
	switch {
	case errors.As(err, &af):
		f.Stage, f.Selector, f.Snapshot = af.Stage, af.Selector, af.Snapshot
		f.Expected, f.Actual = af.Expected, af.Actual
	case errors.As(err, &pv):
		f.Stage, f.URL = pv.Stage, pv.FromURL
		f.Expected = "advanced or rejected"
		f.Actual = pv.Outcome
	case errors.As(err, &fnf):
		f.Stage, f.Selector, f.Ordinal = fnf.Stage, fnf.Selector, fnf.Ordinal
	case errors.As(err, &nav):
		f.URL, f.Selector = nav.URL, nav.Selector
	}
	return f
}

// Encode writes the report as indented JSON.
func (r *Report) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// Write saves the report to path, creating parent directories. A path of
// "-" writes to stdout.
func (r *Report) Write(path string) error {
	if path == "-" {
		return r.Encode(os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
