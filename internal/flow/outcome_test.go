package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

func TestClassify(t *testing.T) {
	from := wizardtypes.StageDescriptor{Kind: wizardtypes.StageQuestion, URL: base + "/number/number", Heading: "Number"}
	tests := []struct {
		name    string
		outcome wizardtypes.NavigationOutcome
		want    State
		wantErr bool
	}{
		{"advanced", wizardtypes.NavigationOutcome{LandedURL: base + "/number/number-enum"}, StateAdvanced, false},
		{"rejected", wizardtypes.NavigationOutcome{LandedURL: base + "/number/number", HasErrorSummary: true, ErrorMessageCount: 1}, StateRejected, false},
		{"rejected in edit mode", wizardtypes.NavigationOutcome{LandedURL: base + "/number/number?edit=1", HasErrorSummary: true, ErrorMessageCount: 2}, StateRejected, false},
		{"stayed without errors", wizardtypes.NavigationOutcome{LandedURL: base + "/number/number"}, StateSubmitted, true},
		{"summary without messages", wizardtypes.NavigationOutcome{LandedURL: base + "/number/number", HasErrorSummary: true}, StateSubmitted, true},
		{"messages without summary", wizardtypes.NavigationOutcome{LandedURL: base + "/number/number", ErrorMessageCount: 1}, StateSubmitted, true},
		{"moved with errors", wizardtypes.NavigationOutcome{LandedURL: base + "/number/number-enum", HasErrorSummary: true, ErrorMessageCount: 1}, StateSubmitted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(from, tt.outcome)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, wizardtypes.ErrProtocolViolation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSameURL(t *testing.T) {
	assert.True(t, SameURL(base+"/a/b", base+"/a/b/"))
	assert.True(t, SameURL(base+"/a/b", base+"/a/b?edit=1#top"))
	assert.True(t, SameURL("HTTPS://LOCALHOST:5001/a", base+"/a"))
	assert.False(t, SameURL(base+"/a/b", base+"/a/c"))
	assert.False(t, SameURL(base+"/a", "http://localhost:5001/a"))
}
