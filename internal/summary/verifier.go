package summary

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/dom"
	"github.com/copyleftdev/stagecheck/internal/flow"
	"github.com/copyleftdev/stagecheck/internal/logging"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

const debarkHeading = "Debark"

// CardExpectation is what one Debark card should show. Empty entry labels
// and change labels are not compared.
type CardExpectation struct {
	Title   string
	Entries []wizardtypes.AnswerEntry
}

// Verifier reads and edits the Debark summary through a flow runner.
type Verifier struct {
	runner *flow.Runner
	logger *zap.Logger
}

// NewVerifier reads and edits the Debark summary through runner.
func NewVerifier(runner *flow.Runner, logger *zap.Logger) *Verifier {
	return &Verifier{runner: runner, logger: logging.OrNop(logger).With(zap.String("stage", debarkHeading))}
}

// Enter navigates straight to the Debark stage.
func (v *Verifier) Enter(ctx context.Context) error {
	if _, err := v.runner.Enter(ctx, wizardtypes.StageDebark, ""); err != nil {
		return err
	}
	return v.runner.Page().WaitForMarker(ctx, dom.DebarkResolvedMarker, v.runner.Options().NavigationTimeout)
}

// ReadCards yields the cards on the page in document order. Every call
// reads the page afresh.
func (v *Verifier) ReadCards(ctx context.Context) iter.Seq2[wizardtypes.AnswerCard, error] {
	return func(yield func(wizardtypes.AnswerCard, error) bool) {
		raw, err := v.runner.Page().OuterHTML(ctx, "body")
		if err != nil {
			yield(wizardtypes.AnswerCard{}, fmt.Errorf("read summary: %w", err))
			return
		}
		cards, err := dom.ParseAnswerCards(raw)
		if err != nil {
			yield(wizardtypes.AnswerCard{}, err)
			return
		}
		for _, c := range cards {
			v.flagLabels(c)
			if !yield(c, nil) {
				return
			}
		}
	}
}

// Cards collects ReadCards.
func (v *Verifier) Cards(ctx context.Context) ([]wizardtypes.AnswerCard, error) {
	var cards []wizardtypes.AnswerCard
	for c, err := range v.ReadCards(ctx) {
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// Card returns the card at a 1-based position.
func (v *Verifier) Card(ctx context.Context, ordinal int) (wizardtypes.AnswerCard, error) {
	cards, err := v.Cards(ctx)
	if err != nil {
		return wizardtypes.AnswerCard{}, err
	}
	return v.pick(cards, ordinal)
}

func (v *Verifier) pick(cards []wizardtypes.AnswerCard, ordinal int) (wizardtypes.AnswerCard, error) {
	if ordinal < 1 || ordinal > len(cards) {
		return wizardtypes.AnswerCard{}, &wizardtypes.AssertionFailure{
			Stage:    debarkHeading,
			Selector: dom.SummaryCard(ordinal),
			Subject:  "card count",
			Expected: fmt.Sprintf("at least %d", ordinal),
			Actual:   len(cards),
		}
	}
	return cards[ordinal-1], nil
}

// ExpectCard compares the card at ordinal with want.
func (v *Verifier) ExpectCard(ctx context.Context, ordinal int, want CardExpectation) error {
	card, err := v.Card(ctx, ordinal)
	if err != nil {
		return err
	}
	return matchCard(card, want)
}

// ExpectCards checks cards in order. The page may not show fewer cards than
// want lists.
func (v *Verifier) ExpectCards(ctx context.Context, want []CardExpectation) error {
	cards, err := v.Cards(ctx)
	if err != nil {
		return err
	}
	for i, w := range want {
		card, err := v.pick(cards, i+1)
		if err != nil {
			return err
		}
		if err := matchCard(card, w); err != nil {
			return err
		}
	}
	return nil
}

func matchCard(card wizardtypes.AnswerCard, want CardExpectation) error {
	fail := func(subject string, expected, actual any) error {
		return &wizardtypes.AssertionFailure{
			Stage:    debarkHeading,
			Selector: dom.SummaryCard(card.Ordinal),
			Subject:  fmt.Sprintf("card %d %s", card.Ordinal, subject),
			Expected: expected,
			Actual:   actual,
		}
	}

	if want.Title != "" && card.Title != want.Title {
		return fail("title", want.Title, card.Title)
	}
	if len(want.Entries) > len(card.Entries) {
		return fail("entry count", len(want.Entries), len(card.Entries))
	}
	for i, w := range want.Entries {
		got := card.Entries[i]
		if w.Label != "" && got.Label != w.Label {
			return fail(fmt.Sprintf("entry %d label", i+1), w.Label, got.Label)
		}
		if got.Value != w.Value {
			return fail(fmt.Sprintf("entry %d value", i+1), w.Value, got.Value)
		}
		if w.ChangeLabel != "" && got.ChangeLabel != w.ChangeLabel {
			return fail(fmt.Sprintf("entry %d change label", i+1), w.ChangeLabel, got.ChangeLabel)
		}
	}
	return nil
}

// ChangeCard edits the answer behind a card through its change link and
// returns the card as Debark shows it afterwards. The edit must come back
// to Debark with the other cards untouched, the target's title and labels
// unchanged, and every spec's entry showing the new answer.
func (v *Verifier) ChangeCard(ctx context.Context, ordinal int, specs ...wizardtypes.FieldSpec) (wizardtypes.AnswerCard, error) {
	before, err := v.Cards(ctx)
	if err != nil {
		return wizardtypes.AnswerCard{}, err
	}
	if _, err := v.pick(before, ordinal); err != nil {
		return wizardtypes.AnswerCard{}, err
	}

	link := dom.ChangeLink(ordinal)
	if err := v.runner.Page().Click(ctx, link); err != nil {
		if errors.Is(err, browser.ErrNoMatch) {
			return wizardtypes.AnswerCard{}, &wizardtypes.AssertionFailure{
				Stage:    debarkHeading,
				Selector: link,
				Subject:  fmt.Sprintf("card %d change link", ordinal),
				Expected: "present",
				Actual:   "missing",
			}
		}
		return wizardtypes.AnswerCard{}, err
	}

	question, err := v.runner.Arrive(ctx, wizardtypes.StageQuestion)
	if err != nil {
		return wizardtypes.AnswerCard{}, err
	}
	v.logger.Debug("changing answer", zap.Int("card", ordinal), zap.String("question", question.Heading))

	if err := v.runner.Fill(ctx, specs...); err != nil {
		return wizardtypes.AnswerCard{}, err
	}
	t, err := v.runner.Submit(ctx)
	if err != nil {
		return wizardtypes.AnswerCard{}, err
	}
	debark, err := v.runner.Locator().Resolve(wizardtypes.StageDebark, "")
	if err != nil {
		return wizardtypes.AnswerCard{}, err
	}
	if err := v.runner.ExpectAdvanced(ctx, t, debark); err != nil {
		return wizardtypes.AnswerCard{}, err
	}

	after, err := v.Cards(ctx)
	if err != nil {
		return wizardtypes.AnswerCard{}, err
	}
	if err := checkChange(before, after, ordinal, specs); err != nil {
		return wizardtypes.AnswerCard{}, err
	}
	return after[ordinal-1], nil
}

func checkChange(before, after []wizardtypes.AnswerCard, ordinal int, specs []wizardtypes.FieldSpec) error {
	if len(after) != len(before) {
		return &wizardtypes.AssertionFailure{
			Stage:    debarkHeading,
			Selector: dom.SummaryCardSelector,
			Subject:  "card count after change",
			Expected: len(before),
			Actual:   len(after),
		}
	}
	for i := range before {
		if i == ordinal-1 {
			continue
		}
		if !sameCard(before[i], after[i]) {
			return &wizardtypes.AssertionFailure{
				Stage:    debarkHeading,
				Selector: dom.SummaryCard(i + 1),
				Subject:  fmt.Sprintf("card %d after changing card %d", i+1, ordinal),
				Expected: before[i],
				Actual:   after[i],
			}
		}
	}

	old, card := before[ordinal-1], after[ordinal-1]
	fail := func(subject string, expected, actual any) error {
		return &wizardtypes.AssertionFailure{
			Stage:    debarkHeading,
			Selector: dom.SummaryCard(ordinal),
			Subject:  fmt.Sprintf("card %d %s", ordinal, subject),
			Expected: expected,
			Actual:   actual,
		}
	}
	if card.Title != old.Title {
		return fail("title", old.Title, card.Title)
	}
	if len(card.Entries) != len(old.Entries) {
		return fail("entry count", len(old.Entries), len(card.Entries))
	}
	for i := range old.Entries {
		if card.Entries[i].Label != old.Entries[i].Label {
			return fail(fmt.Sprintf("entry %d label", i+1), old.Entries[i].Label, card.Entries[i].Label)
		}
		if card.Entries[i].ChangeLabel != old.Entries[i].ChangeLabel {
			return fail(fmt.Sprintf("entry %d change label", i+1), old.Entries[i].ChangeLabel, card.Entries[i].ChangeLabel)
		}
	}
	for _, spec := range specs {
		if spec.Ordinal > len(card.Entries) {
			return fail("entry count", spec.Ordinal, len(card.Entries))
		}
		if got := card.Entries[spec.Ordinal-1].Value; got != spec.Expected() {
			return fail(fmt.Sprintf("entry %d value", spec.Ordinal), spec.Expected(), got)
		}
	}
	return nil
}

func sameCard(a, b wizardtypes.AnswerCard) bool {
	return a.Ordinal == b.Ordinal && a.Title == b.Title && a.Value == b.Value &&
		a.ChangeLabel == b.ChangeLabel && slices.Equal(a.Entries, b.Entries)
}

// Submit sends the summary and waits for the Confirm stage.
func (v *Verifier) Submit(ctx context.Context) (flow.Transition, error) {
	t, err := v.runner.Submit(ctx)
	if err != nil {
		return t, err
	}
	confirm, err := v.runner.Locator().Resolve(wizardtypes.StageConfirm, "")
	if err != nil {
		return t, err
	}
	return t, v.runner.ExpectAdvanced(ctx, t, confirm)
}

// flagLabels warns when an All Of card labels its entry differently from its
// title. Whichever the page shows is what tables must assert.
func (v *Verifier) flagLabels(c wizardtypes.AnswerCard) {
	if !strings.Contains(c.Title, "(All Of)") {
		return
	}
	for _, e := range c.Entries {
		if e.Label != c.Title {
			v.logger.Warn("summary label differs from card title",
				zap.Int("card", c.Ordinal), zap.String("title", c.Title), zap.String("label", e.Label))
		}
	}
}
