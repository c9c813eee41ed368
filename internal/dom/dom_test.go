package dom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

const debarkPage = `<!DOCTYPE html>
<html><head><title>Debark</title><script>window.x = 1</script></head>
<body>
<main class="debark resolved">
  <h1>Debark</h1>
  <form method="post" action="/debark-stage">
    <div class="sprocket">
      <h2>String</h2>
      <dl>
        <dt>String</dt>
        <dd class="answer-value">string</dd>
        <dd class="change-answer"><a href="/string/string?edit=1">Change <span class="visually-hidden">string</span></a></dd>
      </dl>
    </div>
    <div class="sprocket">
      <h2>Array (Array - Array)</h2>
      <dl>
        <div><dt>String</dt><dd class="answer-value">string</dd><dd class="change-answer"><a href="#">Change string</a></dd></div>
        <div><dt>Number</dt><dd class="answer-value">1</dd><dd class="change-answer"><a href="#">Change number</a></dd></div>
      </dl>
    </div>
    <div class="sprocket">
      <h2>String (All Of)</h2>
      <dl>
        <dt>String</dt>
        <dd>string</dd>
        <dd><a href="/string/string-all-of?edit=1">Change</a></dd>
      </dl>
    </div>
    <div class="sprocket"><p>No answers here</p></div>
    <button type="submit">Continue</button>
  </form>
</main>
</body></html>`

func TestParseAnswerCards(t *testing.T) {
	cards, err := ParseAnswerCards(debarkPage)
	require.NoError(t, err)

	want := []wizardtypes.AnswerCard{
		{
			Ordinal: 1, Title: "String", Value: "string", ChangeLabel: "Change string",
			Entries: []wizardtypes.AnswerEntry{{Label: "String", Value: "string", ChangeLabel: "Change string"}},
		},
		{
			Ordinal: 2, Title: "Array (Array - Array)", Value: "string", ChangeLabel: "Change string",
			Entries: []wizardtypes.AnswerEntry{
				{Label: "String", Value: "string", ChangeLabel: "Change string"},
				{Label: "Number", Value: "1", ChangeLabel: "Change number"},
			},
		},
		{
			Ordinal: 3, Title: "String (All Of)", Value: "string", ChangeLabel: "Change",
			Entries: []wizardtypes.AnswerEntry{{Label: "String", Value: "string", ChangeLabel: "Change"}},
		},
	}
	if diff := cmp.Diff(want, cards); diff != "" {
		t.Errorf("ParseAnswerCards mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAnswerCardsSkipsErrorSummary(t *testing.T) {
	page := `<div class="sprocket error-summary"><h2>There is a problem</h2><dl><dt>x</dt></dl></div>`
	cards, err := ParseAnswerCards(page)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestSelectors(t *testing.T) {
	assert.Equal(t, `.cog:nth-of-type(2) input[type="text"]`, TextInput(2))
	assert.Equal(t, []string{`.cog:nth-of-type(1) input[type="text"]`, `.cog input[type="text"]`}, TextInputCandidates(1))
	assert.Len(t, TextInputCandidates(3), 1)

	assert.Equal(t, `.cog:nth-of-type(1) input[type="radio"][value="0"]`, RadioInput(1, "0"))
	assert.Equal(t, []string{
		`.cog:nth-of-type(1) input[type="radio"][value="1"]`,
		`.cog input[type="radio"][value="1"]`,
		`input[type="radio"][value="1"]`,
	}, RadioInputCandidates(1, "1"))
	assert.Len(t, RadioInputCandidates(2, "1"), 1)

	assert.Equal(t, `.sprocket:nth-of-type(3) h2 + dl dd a`, ChangeLink(3))
	assert.Equal(t, `.sprocket:nth-of-type(3) h2`, SummaryTitle(3))
	assert.Equal(t, `.cog input[type="radio"][value="string"]`, EmbarkRadio("string"))
	assert.Equal(t, `input[type="radio"][id="collection-0"]`, RadioByID("collection-0"))
}

func TestCSSStringEscapes(t *testing.T) {
	assert.Equal(t, `"a\"b"`, cssString(`a"b`))
	assert.Equal(t, `"a\\b"`, cssString(`a\b`))
}

func TestSimplify(t *testing.T) {
	out, err := Simplify(debarkPage)
	require.NoError(t, err)

	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "<title>")
	assert.Contains(t, out, `<main class="debark resolved">`)
	assert.Contains(t, out, "<h1>Debark </h1>")
	assert.Contains(t, out, `<a href="/string/string?edit=1">`)
	assert.Contains(t, out, `<button type="submit">Continue </button>`)
}

func TestSimplifyKeepsEmptyValue(t *testing.T) {
	out, err := Simplify(`<form><input type="text" value="" placeholder="x"></form>`)
	require.NoError(t, err)
	assert.Contains(t, out, `<input type="text" value="">`)
	assert.NotContains(t, out, "placeholder")
	assert.NotContains(t, out, "</input>")
}
