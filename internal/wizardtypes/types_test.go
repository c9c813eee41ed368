package wizardtypes

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldSpecExpected(t *testing.T) {
	assert.Equal(t, "string", FieldSpec{Kind: FieldText, Ordinal: 1, Value: "string"}.Expected())
	assert.Equal(t, "Two", FieldSpec{Kind: FieldRadio, Ordinal: 1, Value: "1", Display: "Two"}.Expected())
}

func TestFieldSpecValidate(t *testing.T) {
	assert.NoError(t, FieldSpec{Kind: FieldText, Ordinal: 1}.Validate())
	assert.NoError(t, FieldSpec{Kind: FieldRadio, Ordinal: 4, Value: "0"}.Validate())
	assert.Error(t, FieldSpec{Kind: "checkbox", Ordinal: 1}.Validate())
	assert.Error(t, FieldSpec{Kind: FieldText, Ordinal: 0}.Validate())
}

func TestStageDescriptorString(t *testing.T) {
	q := StageDescriptor{Kind: StageQuestion, Variant: "number/number", Heading: "Number"}
	assert.Equal(t, "question number/number (Number)", q.String())
	assert.Equal(t, "debark (Debark)", StageDescriptor{Kind: StageDebark, Heading: "Debark"}.String())
}

func TestScenarioIsFinal(t *testing.T) {
	tests := []struct {
		status ScenarioStatus
		final  bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusPassed, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}
	for _, tt := range tests {
		s := &Scenario{Status: tt.status}
		assert.Equal(t, tt.final, s.IsFinal(), string(tt.status))
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"launch", &LaunchError{Driver: "chromedp", Err: errors.New("exec: not found")}, ErrLaunch},
		{"navigation", &NavigationTimeout{URL: "https://localhost:5001/debark-stage", Selector: ".debark.resolved", Err: context.DeadlineExceeded}, ErrNavigationTimeout},
		{"field", &FieldNotFound{Stage: "Number", Ordinal: 2, Selector: ".cog:nth-of-type(2) input"}, ErrFieldNotFound},
		{"protocol", &ProtocolViolation{Stage: "Number", FromURL: "a", Outcome: NavigationOutcome{LandedURL: "a"}}, ErrProtocolViolation},
		{"assertion", &AssertionFailure{Stage: "Debark", Subject: "card 1 value", Expected: "change", Actual: "string"}, ErrAssertion},
	}

	all := []error{ErrLaunch, ErrNavigationTimeout, ErrFieldNotFound, ErrProtocolViolation, ErrAssertion}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("scenario string: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			for _, other := range all {
				if other != tt.sentinel {
					assert.NotErrorIs(t, wrapped, other)
				}
			}
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestNavigationTimeoutUnwrapsCause(t *testing.T) {
	err := &NavigationTimeout{URL: "u", Err: context.DeadlineExceeded}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "at u")
}

func TestFieldNotFoundMessage(t *testing.T) {
	assert.Contains(t, (&FieldNotFound{Stage: "S", Ordinal: 1, Selector: "x", Matches: 3}).Error(), "ambiguous")
	assert.Contains(t, (&FieldNotFound{Stage: "S", Ordinal: 1, Selector: "x"}).Error(), "no element matches")
}
