package flow

import (
	"context"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/dom"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

const missing = "<missing>"

// ExpectHeading checks the page's h1 text.
func (r *Runner) ExpectHeading(ctx context.Context, want string) error {
	return r.ExpectText(ctx, dom.HeadingSelector, want)
}

// ExpectText checks the text of the first element matching selector.
func (r *Runner) ExpectText(ctx context.Context, selector, want string) error {
	el, err := r.page.Query(ctx, selector)
	if err != nil {
		return err
	}
	if el == nil || el.Text != want {
		actual := missing
		if el != nil {
			actual = el.Text
		}
		return &wizardtypes.AssertionFailure{
			Stage:    r.current.Heading,
			Selector: selector,
			Subject:  "text",
			Expected: want,
			Actual:   actual,
			Snapshot: r.snapshot(ctx),
		}
	}
	return nil
}

// ExpectPresent checks that selector matches at least one element.
func (r *Runner) ExpectPresent(ctx context.Context, selector string) error {
	els, err := r.page.QueryAll(ctx, selector)
	if err != nil {
		return err
	}
	if len(els) == 0 {
		return &wizardtypes.AssertionFailure{
			Stage:    r.current.Heading,
			Selector: selector,
			Subject:  "element count",
			Expected: "at least 1",
			Actual:   0,
			Snapshot: r.snapshot(ctx),
		}
	}
	return nil
}

// ExpectAdvanced checks that t advanced onto next, then waits for next to
// finish rendering and makes it the current stage.
func (r *Runner) ExpectAdvanced(ctx context.Context, t Transition, next wizardtypes.StageDescriptor) error {
	if t.State != StateAdvanced {
		return r.outcomeFailure(t, StateAdvanced)
	}
	if next.URL != "" && !SameURL(t.Outcome.LandedURL, next.URL) {
		return &wizardtypes.AssertionFailure{
			Stage:    t.From.Heading,
			Subject:  "landed url",
			Expected: next.URL,
			Actual:   t.Outcome.LandedURL,
		}
	}
	if marker := markerFor(next.Kind); marker != "" {
		if err := r.page.WaitForMarker(ctx, marker, r.opts.NavigationTimeout); err != nil {
			return err
		}
	}
	if err := r.awaitHeading(ctx, next); err != nil {
		return err
	}
	r.settle(ctx, next)
	return nil
}

// ExpectRejected checks that t stayed on its stage with errors shown.
func (r *Runner) ExpectRejected(t Transition) error {
	if t.State != StateRejected {
		return r.outcomeFailure(t, StateRejected)
	}
	return nil
}

func (r *Runner) outcomeFailure(t Transition, want State) error {
	return &wizardtypes.AssertionFailure{
		Stage:    t.From.Heading,
		Selector: dom.SubmitSelector,
		Subject:  "submit outcome",
		Expected: want,
		Actual:   t.State,
	}
}

// awaitHeading waits until the h1 reads s.Heading. When it never does, the
// heading that is there is reported as an AssertionFailure.
func (r *Runner) awaitHeading(ctx context.Context, s wizardtypes.StageDescriptor) error {
	_, err := r.page.WaitFor(ctx, r.opts.NavigationTimeout, browser.Condition{Selector: dom.HeadingSelector, Text: s.Heading})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	el, qerr := r.page.Query(ctx, dom.HeadingSelector)
	if qerr == nil && el != nil {
		return &wizardtypes.AssertionFailure{
			Stage:    s.Heading,
			Selector: dom.HeadingSelector,
			Subject:  "heading",
			Expected: s.Heading,
			Actual:   el.Text,
			Snapshot: r.snapshot(ctx),
		}
	}
	return err
}
