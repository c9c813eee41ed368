package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

func newDefault(t *testing.T) *Locator {
	t.Helper()
	l, err := NewLocator("https://localhost:5001", DefaultRoutes)
	require.NoError(t, err)
	return l
}

func TestResolve(t *testing.T) {
	l := newDefault(t)

	tests := []struct {
		kind    wizardtypes.StageKind
		variant string
		url     string
		heading string
	}{
		{wizardtypes.StageEmbark, "", "https://localhost:5001/embark-stage", "Embark"},
		{wizardtypes.StageDebark, "", "https://localhost:5001/debark-stage", "Debark"},
		{wizardtypes.StageConfirm, "", "https://localhost:5001/confirm-stage", "Confirm"},
		{wizardtypes.StageQuestion, "number/number", "https://localhost:5001/number/number", "Number"},
		{wizardtypes.StageQuestion, "boolean/boolean-enum", "https://localhost:5001/boolean/boolean-enum", "Boolean (Enum)"},
		{wizardtypes.StageQuestion, "object/object-array-object-string", "https://localhost:5001/object/object-array-object-string", "Object (Array - Object - String)"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+" "+tt.variant, func(t *testing.T) {
			d, err := l.Resolve(tt.kind, tt.variant)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.variant, d.Variant)
			assert.Equal(t, tt.url, d.URL)
			assert.Equal(t, tt.heading, d.Heading)
		})
	}
}

func TestResolveIsPure(t *testing.T) {
	l := newDefault(t)
	a, err := l.Question("string/string-all-of")
	require.NoError(t, err)
	b, err := l.Question("string/string-all-of")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestResolveUnknown(t *testing.T) {
	l := newDefault(t)
	_, err := l.Question("string/string-maybe")
	assert.ErrorIs(t, err, ErrUnknownStage)

	_, err = l.Resolve(wizardtypes.StageEmbark, "string")
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestMatch(t *testing.T) {
	l := newDefault(t)

	d, ok := l.Match("https://localhost:5001/number/number-enum?edit=1")
	require.True(t, ok)
	assert.Equal(t, "number/number-enum", d.Variant)
	assert.Equal(t, "Number (Enum)", d.Heading)

	d, ok = l.Match("https://localhost:5001/debark-stage/")
	require.True(t, ok)
	assert.Equal(t, wizardtypes.StageDebark, d.Kind)

	_, ok = l.Match("https://example.com/debark-stage")
	assert.False(t, ok)
	_, ok = l.Match("https://localhost:5001/nowhere")
	assert.False(t, ok)
}

func TestBaseURLWithPath(t *testing.T) {
	l, err := NewLocator("http://127.0.0.1:8080/wizard/", DefaultRoutes)
	require.NoError(t, err)

	d, err := l.Resolve(wizardtypes.StageEmbark, "")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/wizard/embark-stage", d.URL)

	m, ok := l.Match("http://127.0.0.1:8080/wizard/string/string")
	require.True(t, ok)
	assert.Equal(t, "String", m.Heading)
}

func TestNewLocatorRejectsBadTables(t *testing.T) {
	_, err := NewLocator("localhost:5001", DefaultRoutes)
	assert.Error(t, err)

	_, err = NewLocator("https://localhost:5001", []Route{
		question("string/string", "String"),
		question("string/string", "String again"),
	})
	assert.Error(t, err)

	_, err = NewLocator("https://localhost:5001", []Route{{Kind: wizardtypes.StageQuestion, Path: "/x", Heading: "X"}})
	assert.Error(t, err)

	_, err = NewLocator("https://localhost:5001", []Route{{Kind: wizardtypes.StageDebark, Variant: "x", Path: "/x"}})
	assert.Error(t, err)
}

func TestDefaultRoutesAreUnique(t *testing.T) {
	l := newDefault(t)
	assert.Len(t, l.Routes(), len(DefaultRoutes))
	assert.Len(t, DefaultRoutes, 3+5*4+24+10)
}
