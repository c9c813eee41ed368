package summary

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/copyleftdev/stagecheck/internal/browser/mocks"
	"github.com/copyleftdev/stagecheck/internal/flow"
	"github.com/copyleftdev/stagecheck/internal/stage"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

const base = "https://localhost:5001"

func text(v string) wizardtypes.FieldSpec {
	return wizardtypes.FieldSpec{Kind: wizardtypes.FieldText, Ordinal: 1, Value: v}
}

func radio(v, display string) wizardtypes.FieldSpec {
	return wizardtypes.FieldSpec{Kind: wizardtypes.FieldRadio, Ordinal: 1, Value: v, Display: display}
}

// atDebark walks the String collection and leaves the runner on Debark.
func atDebark(t *testing.T, logger *zap.Logger) (*Verifier, *flow.Runner, *mocks.Wizard) {
	t.Helper()
	ctx := context.Background()
	w := mocks.NewWizard(base)
	loc, err := stage.NewLocator(base, stage.DefaultRoutes)
	require.NoError(t, err)
	r := flow.NewRunner(w.NewPage(), loc, logger, flow.Options{NavigationTimeout: time.Second, SubmitTimeout: time.Second})

	_, err = r.Enter(ctx, wizardtypes.StageEmbark, "")
	require.NoError(t, err)
	require.NoError(t, r.Fields().SelectRadioByLabel(ctx, "String"))
	tr, err := r.Submit(ctx)
	require.NoError(t, err)
	require.Equal(t, flow.StateAdvanced, tr.State)
	_, err = r.Arrive(ctx, wizardtypes.StageQuestion)
	require.NoError(t, err)

	answers := []wizardtypes.FieldSpec{text("string"), radio("1", ""), radio("0", ""), radio("2", ""), text("all")}
	for i, spec := range answers {
		require.NoError(t, r.Fill(ctx, spec))
		tr, err := r.Submit(ctx)
		require.NoError(t, err)
		require.Equal(t, flow.StateAdvanced, tr.State, "question %d", i+1)

		next := wizardtypes.StageQuestion
		if i == len(answers)-1 {
			next = wizardtypes.StageDebark
		}
		_, err = r.Arrive(ctx, next)
		require.NoError(t, err)
	}
	return NewVerifier(r, logger), r, w
}

func stringCards() []wizardtypes.AnswerCard {
	card := func(n int, title, label, value string) wizardtypes.AnswerCard {
		change := "Change " + map[string]string{
			"String": "string", "String (Enum)": "string (enum)",
			"String (Any Of)": "string (any of)", "String (One Of)": "string (one of)",
		}[label]
		return wizardtypes.AnswerCard{
			Ordinal: n, Title: title, Value: value, ChangeLabel: change,
			Entries: []wizardtypes.AnswerEntry{{Label: label, Value: value, ChangeLabel: change}},
		}
	}
	return []wizardtypes.AnswerCard{
		card(1, "String", "String", "string"),
		card(2, "String (Enum)", "String (Enum)", "Two"),
		card(3, "String (Any Of)", "String (Any Of)", "One"),
		card(4, "String (One Of)", "String (One Of)", "Three"),
		card(5, "String (All Of)", "String", "all"),
	}
}

func TestReadCardsInQuestionOrder(t *testing.T) {
	v, _, _ := atDebark(t, nil)

	cards, err := v.Cards(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(stringCards(), cards); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCardsIsRestartable(t *testing.T) {
	v, _, _ := atDebark(t, nil)
	ctx := context.Background()

	for c, err := range v.ReadCards(ctx) {
		require.NoError(t, err)
		assert.Equal(t, 1, c.Ordinal)
		break
	}
	n := 0
	for _, err := range v.ReadCards(ctx) {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 5, n)
}

func TestReadCardsOffDebark(t *testing.T) {
	w := mocks.NewWizard(base)
	loc, err := stage.NewLocator(base, stage.DefaultRoutes)
	require.NoError(t, err)
	r := flow.NewRunner(w.NewPage(), loc, nil, flow.Options{})
	_, err = r.Enter(context.Background(), wizardtypes.StageQuestion, "string/string")
	require.NoError(t, err)

	_, err = NewVerifier(r, nil).Cards(context.Background())
	assert.Error(t, err)
}

func TestAllOfLabelIsFlagged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	v, _, _ := atDebark(t, zap.New(core))

	_, err := v.Cards(context.Background())
	require.NoError(t, err)

	flagged := logs.FilterMessage("summary label differs from card title").All()
	require.Len(t, flagged, 1)
	assert.Equal(t, "String (All Of)", flagged[0].ContextMap()["title"])
}

func TestExpectCard(t *testing.T) {
	v, _, _ := atDebark(t, nil)
	ctx := context.Background()

	require.NoError(t, v.ExpectCard(ctx, 1, CardExpectation{
		Title:   "String",
		Entries: []wizardtypes.AnswerEntry{{Value: "string", ChangeLabel: "Change string"}},
	}))
	require.NoError(t, v.ExpectCards(ctx, []CardExpectation{
		{Title: "String", Entries: []wizardtypes.AnswerEntry{{Value: "string"}}},
		{Title: "String (Enum)", Entries: []wizardtypes.AnswerEntry{{Value: "Two"}}},
	}))

	err := v.ExpectCard(ctx, 2, CardExpectation{Title: "String (Enum)", Entries: []wizardtypes.AnswerEntry{{Value: "One"}}})
	var af *wizardtypes.AssertionFailure
	require.ErrorAs(t, err, &af)
	assert.Equal(t, "One", af.Expected)
	assert.Equal(t, "Two", af.Actual)

	_, err = v.Card(ctx, 9)
	assert.ErrorIs(t, err, wizardtypes.ErrAssertion)
}

func TestChangeCardRoundTrip(t *testing.T) {
	v, r, w := atDebark(t, nil)
	ctx := context.Background()

	before, err := v.Cards(ctx)
	require.NoError(t, err)

	card, err := v.ChangeCard(ctx, 1, text("change"))
	require.NoError(t, err)
	assert.Equal(t, "String", card.Title)
	assert.Equal(t, "change", card.Value)
	assert.Equal(t, "Change string", card.ChangeLabel)
	assert.Equal(t, []string{"change"}, w.Answer("/string/string"))
	assert.Equal(t, wizardtypes.StageDebark, r.Current().Kind)

	after, err := v.Cards(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(before[1:], after[1:]); diff != "" {
		t.Errorf("other cards changed (-before +after):\n%s", diff)
	}

	card, err = v.ChangeCard(ctx, 2, radio("2", "Three"))
	require.NoError(t, err)
	assert.Equal(t, "Three", card.Value)
}

func TestChangeCardWrongDisplay(t *testing.T) {
	v, _, _ := atDebark(t, nil)

	_, err := v.ChangeCard(context.Background(), 2, radio("0", "Two"))
	var af *wizardtypes.AssertionFailure
	require.ErrorAs(t, err, &af)
	assert.Equal(t, "Two", af.Expected)
	assert.Equal(t, "One", af.Actual)
}

func TestChangeCardRejected(t *testing.T) {
	v, r, _ := atDebark(t, nil)

	_, err := v.ChangeCard(context.Background(), 1, text(""))
	var af *wizardtypes.AssertionFailure
	require.ErrorAs(t, err, &af)
	assert.Equal(t, flow.StateRejected, af.Actual)
	assert.Equal(t, flow.StateRejected, r.State())
}

func TestChangeCardOutOfRange(t *testing.T) {
	v, _, _ := atDebark(t, nil)
	_, err := v.ChangeCard(context.Background(), 6, text("x"))
	assert.ErrorIs(t, err, wizardtypes.ErrAssertion)
}

func TestSubmitReachesConfirm(t *testing.T) {
	v, r, w := atDebark(t, nil)

	tr, err := v.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, flow.StateAdvanced, tr.State)
	assert.Equal(t, wizardtypes.StageConfirm, r.Current().Kind)
	assert.True(t, w.Confirmed())
}

func TestEnterDebarkDirectly(t *testing.T) {
	v, _, _ := atDebark(t, nil)
	require.NoError(t, v.Enter(context.Background()))

	cards, err := v.Cards(context.Background())
	require.NoError(t, err)
	assert.Len(t, cards, 5)
}
