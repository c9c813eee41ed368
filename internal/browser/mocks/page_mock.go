package mocks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

var _ browser.Page = (*FakePage)(nil)

// FakePage implements browser.Page over an in-memory view: a map from exact
// selector strings to the elements they match. Comma-separated selectors
// match the union of their parts. With a zero PollInterval waits never
// block and a condition that does not hold right away times out at once;
// otherwise waits re-check the view every PollInterval until the timeout.
type FakePage struct {
	mu       sync.Mutex
	url      string
	elements map[string][]browser.Element
	html     map[string]string
	stamp    string
	closed   bool

	PollInterval time.Duration

	Filled         map[string]string
	Clicks         []string
	Navigations    []string
	CookieClears   int
	ScreenshotData []byte
	ScreenshotErr  error

	// Hooks run without the page lock held.
	OnNavigate func(rawURL string) error
	OnClick    func(selector string) error
	OnFill     func(selector, value string) error
}

func NewFakePage(rawURL string) *FakePage {
	return &FakePage{
		url:      rawURL,
		elements: make(map[string][]browser.Element),
		html:     make(map[string]string),
		Filled:   make(map[string]string),
	}
}

// Render replaces the view.
func (p *FakePage) Render(rawURL string, elements map[string][]browser.Element, html map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = rawURL
	p.stamp = ""
	p.elements = make(map[string][]browser.Element, len(elements))
	for k, v := range elements {
		p.elements[k] = v
	}
	p.html = make(map[string]string, len(html))
	for k, v := range html {
		p.html[k] = v
	}
}

func (p *FakePage) SetURL(rawURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = rawURL
}

func (p *FakePage) SetElements(selector string, els ...browser.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(els) == 0 {
		delete(p.elements, selector)
		return
	}
	p.elements[selector] = els
}

func (p *FakePage) SetHTML(selector, html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html[selector] = html
}

func (p *FakePage) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ClickCount returns how often selector was clicked.
func (p *FakePage) ClickCount(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.Clicks {
		if c == selector {
			n++
		}
	}
	return n
}

func (p *FakePage) lookup(selector string) []browser.Element {
	var out []browser.Element
	for _, part := range strings.Split(selector, ",") {
		out = append(out, p.elements[strings.TrimSpace(part)]...)
	}
	return out
}

func (p *FakePage) check() error {
	if p.closed {
		return errors.New("page closed")
	}
	return nil
}

func (p *FakePage) Navigate(ctx context.Context, rawURL string, opts browser.NavigateOptions) error {
	if err := ctx.Err(); err != nil {
		return &wizardtypes.NavigationTimeout{URL: rawURL, Err: err}
	}
	p.mu.Lock()
	if err := p.check(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.Navigations = append(p.Navigations, rawURL)
	p.url = rawURL
	p.stamp = ""
	hook := p.OnNavigate
	p.mu.Unlock()

	if hook != nil {
		if err := hook(rawURL); err != nil {
			return err
		}
	}
	if opts.WaitUntil == browser.WaitMarker && opts.Marker != "" {
		return p.WaitForMarker(ctx, opts.Marker, opts.Timeout)
	}
	return nil
}

func (p *FakePage) WaitForMarker(ctx context.Context, selector string, timeout time.Duration) error {
	_, err := p.WaitFor(ctx, timeout, browser.Condition{Selector: selector})
	return err
}

func (p *FakePage) WaitFor(ctx context.Context, timeout time.Duration, conds ...browser.Condition) (int, error) {
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return -1, &wizardtypes.NavigationTimeout{Err: err}
		}
		idx, interval, url, err := p.evaluate(conds)
		if err != nil || idx >= 0 {
			return idx, err
		}
		if interval <= 0 || !time.Now().Before(deadline) {
			return -1, &wizardtypes.NavigationTimeout{URL: url, Selector: browser.Describe(conds), Err: context.DeadlineExceeded}
		}
		select {
		case <-ctx.Done():
		case <-time.After(interval):
		}
	}
}

func (p *FakePage) evaluate(conds []browser.Condition) (int, time.Duration, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return -1, 0, p.url, err
	}
	for i, c := range conds {
		if p.holds(c) {
			return i, 0, p.url, nil
		}
	}
	return -1, p.PollInterval, p.url, nil
}

func (p *FakePage) holds(c browser.Condition) bool {
	if c.URLNot != "" && samePath(p.url, c.URLNot) {
		return false
	}
	if c.Unstamped != "" && p.stamp == c.Unstamped {
		return false
	}
	if c.Selector == "" {
		return true
	}
	els := p.lookup(c.Selector)
	if len(els) == 0 {
		return false
	}
	if c.Text == "" {
		return true
	}
	for _, el := range els {
		if el.Text == c.Text {
			return true
		}
	}
	return false
}

func samePath(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ua.Scheme == ub.Scheme && ua.Host == ub.Host &&
		strings.TrimRight(ua.Path, "/") == strings.TrimRight(ub.Path, "/")
}

func (p *FakePage) Query(ctx context.Context, selector string) (*browser.Element, error) {
	els, err := p.QueryAll(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return &els[0], nil
}

func (p *FakePage) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return nil, err
	}
	return append([]browser.Element(nil), p.lookup(selector)...), nil
}

func (p *FakePage) OuterHTML(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.html[selector]; ok {
		return h, nil
	}
	return "", fmt.Errorf("%w: %s", browser.ErrNoMatch, selector)
}

func (p *FakePage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	if err := p.check(); err != nil {
		p.mu.Unlock()
		return err
	}
	if len(p.lookup(selector)) == 0 {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", browser.ErrNoMatch, selector)
	}
	p.Clicks = append(p.Clicks, selector)
	hook := p.OnClick
	p.mu.Unlock()

	if hook != nil {
		return hook(selector)
	}
	return nil
}

func (p *FakePage) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	if err := p.check(); err != nil {
		p.mu.Unlock()
		return err
	}
	if len(p.lookup(selector)) == 0 {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", browser.ErrNoMatch, selector)
	}
	p.Filled[selector] = value
	hook := p.OnFill
	p.mu.Unlock()

	if hook != nil {
		return hook(selector, value)
	}
	return nil
}

func (p *FakePage) CurrentURL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *FakePage) Stamp(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return err
	}
	p.stamp = token
	return nil
}

// Stamped returns the token of the current document, empty once it has been
// replaced.
func (p *FakePage) Stamped() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stamp
}

func (p *FakePage) ScrollToTop(ctx context.Context) error { return nil }

func (p *FakePage) ClearCookies(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CookieClears++
	return nil
}

func (p *FakePage) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	return p.ScreenshotData, nil
}

func (p *FakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

var _ browser.Session = (*FakeSession)(nil)

// FakeSession hands out pages from NewPageFunc.
type FakeSession struct {
	mu          sync.Mutex
	NewPageFunc func() (browser.Page, error)
	Pages       []browser.Page
	closeCalls  int
}

func (s *FakeSession) NewPage(ctx context.Context) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeCalls > 0 {
		return nil, errors.New("browser session is closed")
	}
	if s.NewPageFunc == nil {
		return nil, errors.New("no page factory")
	}
	p, err := s.NewPageFunc()
	if err != nil {
		return nil, err
	}
	s.Pages = append(s.Pages, p)
	return p, nil
}

func (s *FakeSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	return nil
}

func (s *FakeSession) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}
