package suite

import (
	"context"
	"time"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/dom"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

const indexHeading = "Index Page"

// Awake checks that the application's index page is being served.
func (m *Manager) Awake(ctx context.Context) error {
	page, err := m.session.NewPage(ctx)
	if err != nil {
		return err
	}
	defer page.Close()
	return CheckAwake(ctx, page, m.locator.URL("/"), m.opts.Flow.NavigationTimeout)
}

// CheckAwake loads rawURL on page and expects the index heading.
func CheckAwake(ctx context.Context, page browser.Page, rawURL string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if err := page.Navigate(ctx, rawURL, browser.NavigateOptions{WaitUntil: browser.WaitLoad, Timeout: timeout}); err != nil {
		return err
	}
	_, err := page.WaitFor(ctx, timeout, browser.Condition{Selector: dom.HeadingSelector, Text: indexHeading})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	actual := "<missing>"
	if el, qerr := page.Query(ctx, dom.HeadingSelector); qerr == nil && el != nil {
		actual = el.Text
	}
	return &wizardtypes.AssertionFailure{
		Stage:    "index",
		Selector: dom.HeadingSelector,
		Subject:  "heading",
		Expected: indexHeading,
		Actual:   actual,
	}
}
