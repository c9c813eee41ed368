package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/dom"
	"github.com/copyleftdev/stagecheck/internal/field"
	"github.com/copyleftdev/stagecheck/internal/logging"
	"github.com/copyleftdev/stagecheck/internal/stage"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

const snapshotLimit = 8 << 10

type Options struct {
	NavigationTimeout time.Duration
	SubmitTimeout     time.Duration
}

// Runner drives one page through wizard stages. It is not safe for
// concurrent use; each scenario owns its runner.
type Runner struct {
	page    browser.Page
	locator *stage.Locator
	fields  *field.Driver
	logger  *zap.Logger
	opts    Options

	shots      *browser.Screenshotter
	shotPrefix string

	current wizardtypes.StageDescriptor
	state   State
}

func NewRunner(page browser.Page, locator *stage.Locator, logger *zap.Logger, opts Options) *Runner {
	logger = logging.OrNop(logger)
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 15 * time.Second
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 10 * time.Second
	}
	return &Runner{
		page:    page,
		locator: locator,
		fields:  field.NewDriver(page, logger),
		logger:  logger,
		opts:    opts,
		state:   StateIdle,
	}
}

// WithScreenshots captures the page after every stage change, named
// "<prefix>-<heading>-<n>".
func (r *Runner) WithScreenshots(s *browser.Screenshotter, prefix string) *Runner {
	r.shots = s
	r.shotPrefix = prefix
	return r
}

func (r *Runner) Page() browser.Page                  { return r.page }
func (r *Runner) Locator() *stage.Locator             { return r.locator }
func (r *Runner) Current() wizardtypes.StageDescriptor { return r.current }
func (r *Runner) State() State                        { return r.state }
func (r *Runner) Options() Options                    { return r.opts }

// Fields returns a field driver bound to the current stage.
func (r *Runner) Fields() *field.Driver {
	return r.fields.ForStage(r.current.Heading)
}

// Enter resolves and navigates to a stage.
func (r *Runner) Enter(ctx context.Context, kind wizardtypes.StageKind, variant string) (wizardtypes.StageDescriptor, error) {
	s, err := r.locator.Resolve(kind, variant)
	if err != nil {
		return wizardtypes.StageDescriptor{}, err
	}
	return s, r.EnterStage(ctx, s)
}

// EnterStage navigates to s and waits for its heading. Entering the same
// stage twice leaves the runner in the same state.
func (r *Runner) EnterStage(ctx context.Context, s wizardtypes.StageDescriptor) error {
	r.logger.Debug("entering stage", zap.String("stage", s.Heading), zap.String("url", s.URL))
	if err := r.page.Navigate(ctx, s.URL, browser.NavigateOptions{WaitUntil: browser.WaitLoad, Timeout: r.opts.NavigationTimeout}); err != nil {
		return err
	}
	if err := r.awaitHeading(ctx, s); err != nil {
		return err
	}
	r.settle(ctx, s)
	return nil
}

// Arrive adopts the stage the page is showing, for stages reached by
// following a link rather than by navigation.
func (r *Runner) Arrive(ctx context.Context, kind wizardtypes.StageKind) (wizardtypes.StageDescriptor, error) {
	if marker := markerFor(kind); marker != "" {
		if err := r.page.WaitForMarker(ctx, marker, r.opts.NavigationTimeout); err != nil {
			return wizardtypes.StageDescriptor{}, err
		}
	}
	current, err := r.page.CurrentURL(ctx)
	if err != nil {
		return wizardtypes.StageDescriptor{}, err
	}
	s, ok := r.locator.Match(current)
	if !ok || s.Kind != kind {
		return wizardtypes.StageDescriptor{}, &wizardtypes.AssertionFailure{
			Stage:    string(kind),
			Subject:  "stage at " + current,
			Expected: kind,
			Actual:   s.Kind,
		}
	}
	if err := r.awaitHeading(ctx, s); err != nil {
		return wizardtypes.StageDescriptor{}, err
	}
	r.settle(ctx, s)
	return s, nil
}

func (r *Runner) settle(ctx context.Context, s wizardtypes.StageDescriptor) {
	r.current = s
	r.state = StateAtStage
	r.capture(ctx, s.Heading)
}

// Fill applies field specs to the current stage. After a rejection the
// runner is back at the stage once it refills.
func (r *Runner) Fill(ctx context.Context, specs ...wizardtypes.FieldSpec) error {
	if r.state != StateAtStage && r.state != StateRejected {
		return fmt.Errorf("fill: runner is %s, not at a stage", r.state)
	}
	if err := r.Fields().Apply(ctx, specs...); err != nil {
		return err
	}
	r.state = StateAtStage
	return nil
}

// Submit activates the form's submit control and classifies where it led.
// The document is stamped before the click, so only the page the submit
// produces can satisfy the wait: an error summary on a fresh document, or a
// resolved marker on a different URL. A wait that expires is classified from
// what the page shows, except that a stale rejection never counts.
func (r *Runner) Submit(ctx context.Context) (Transition, error) {
	if r.state != StateAtStage && r.state != StateRejected {
		return Transition{}, fmt.Errorf("submit: runner is %s, not at a stage", r.state)
	}
	from := r.current

	token := uuid.NewString()
	if err := r.page.Stamp(ctx, token); err != nil {
		return Transition{}, fmt.Errorf("stamp %s: %w", from.Heading, err)
	}
	if err := r.page.Click(ctx, dom.SubmitSelector); err != nil {
		if errors.Is(err, browser.ErrNoMatch) {
			return Transition{}, &wizardtypes.AssertionFailure{
				Stage:    from.Heading,
				Selector: dom.SubmitSelector,
				Subject:  "submit control",
				Expected: "present",
				Actual:   "missing",
				Snapshot: r.snapshot(ctx),
			}
		}
		return Transition{}, err
	}
	r.state = StateSubmitted

	conds := []browser.Condition{
		{Selector: dom.ErrorSummarySelector, Unstamped: token},
		{Selector: dom.AnyResolvedMarker, URLNot: from.URL, Unstamped: token},
	}
	_, err := r.page.WaitFor(ctx, r.opts.SubmitTimeout, conds...)
	settled := err == nil
	if err != nil {
		if ctx.Err() != nil {
			return Transition{}, &wizardtypes.NavigationTimeout{URL: from.URL, Selector: dom.SubmitSelector, Err: ctx.Err()}
		}
		r.logger.Warn("submit did not settle in time",
			zap.String("stage", from.Heading),
			zap.String("awaiting", browser.Describe(conds)),
			zap.Duration("timeout", r.opts.SubmitTimeout),
			zap.Error(err),
		)
	}

	outcome, err := r.Observe(ctx)
	if err != nil {
		return Transition{}, err
	}

	state, err := Classify(from, outcome)
	if err == nil && state == StateRejected && !settled {
		// the errors on screen belong to the document that was submitted
		state, err = StateSubmitted, &wizardtypes.ProtocolViolation{Stage: from.Heading, FromURL: from.URL, Outcome: outcome}
	}
	t := Transition{From: from, State: state, Outcome: outcome}
	if err != nil {
		r.capture(ctx, from.Heading+"-violation")
		return t, err
	}
	r.state = state
	r.logger.Debug("submitted", zap.String("stage", from.Heading), zap.String("state", string(state)), zap.String("landed", outcome.LandedURL))
	r.capture(ctx, from.Heading+"-"+string(state))
	return t, nil
}

// Observe reads the navigation outcome of the page as it is now.
func (r *Runner) Observe(ctx context.Context) (wizardtypes.NavigationOutcome, error) {
	landed, err := r.page.CurrentURL(ctx)
	if err != nil {
		return wizardtypes.NavigationOutcome{}, err
	}
	summary, err := r.page.Query(ctx, dom.ErrorSummarySelector)
	if err != nil {
		return wizardtypes.NavigationOutcome{}, err
	}
	messages, err := r.page.QueryAll(ctx, dom.ErrorMessageSelector)
	if err != nil {
		return wizardtypes.NavigationOutcome{}, err
	}
	return wizardtypes.NavigationOutcome{
		LandedURL:         landed,
		HasErrorSummary:   summary != nil,
		ErrorMessageCount: len(messages),
	}, nil
}

// Step is one declarative stage interaction.
type Step struct {
	Stage  wizardtypes.StageDescriptor
	Fields []wizardtypes.FieldSpec
	Expect State
	// Next is the stage an advance must land on. Nil accepts any stage.
	Next *wizardtypes.StageDescriptor
}

// Run enters the step's stage, fills it, submits and checks the outcome.
func (r *Runner) Run(ctx context.Context, step Step) (Transition, error) {
	if err := r.EnterStage(ctx, step.Stage); err != nil {
		return Transition{}, err
	}
	if err := r.Fill(ctx, step.Fields...); err != nil {
		return Transition{}, err
	}
	t, err := r.Submit(ctx)
	if err != nil {
		return t, err
	}

	switch step.Expect {
	case StateRejected:
		return t, r.ExpectRejected(t)
	case StateAdvanced:
		if step.Next != nil {
			return t, r.ExpectAdvanced(ctx, t, *step.Next)
		}
		if t.State != StateAdvanced {
			return t, r.outcomeFailure(t, StateAdvanced)
		}
	}
	return t, nil
}

func markerFor(kind wizardtypes.StageKind) string {
	switch kind {
	case wizardtypes.StageQuestion:
		return dom.QuestionResolvedMarker
	case wizardtypes.StageDebark:
		return dom.DebarkResolvedMarker
	case wizardtypes.StageConfirm:
		return dom.ConfirmResolvedMarker
	}
	return ""
}

func (r *Runner) capture(ctx context.Context, name string) {
	if r.shots == nil {
		return
	}
	if err := r.page.ScrollToTop(ctx); err != nil {
		r.logger.Debug("scroll to top", zap.Error(err))
	}
	r.shots.Capture(ctx, r.page, r.shotPrefix+"-"+name)
}

// snapshot returns a simplified DOM of the page for failure reports.
func (r *Runner) snapshot(ctx context.Context) string {
	raw, err := r.page.OuterHTML(ctx, "body")
	if err != nil {
		return ""
	}
	simple, err := dom.Simplify(raw)
	if err != nil {
		return ""
	}
	if len(simple) > snapshotLimit {
		simple = simple[:snapshotLimit] + "…"
	}
	return simple
}
