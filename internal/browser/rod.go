package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/copyleftdev/stagecheck/internal/logging"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

var (
	_ Session = (*RodSession)(nil)
	_ Page    = (*rodPage)(nil)
)

type RodSession struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	opts     Options
	logger   *zap.Logger
	active   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// OpenRod launches a browser through rod's launcher, or connects to
// opts.RemoteURL when set.
func OpenRod(ctx context.Context, opts Options, logger *zap.Logger) (*RodSession, error) {
	opts = opts.withDefaults()
	logger = logging.OrNop(logger).With(zap.String("driver", DriverRod))

	if err := ctx.Err(); err != nil {
		return nil, &wizardtypes.LaunchError{Driver: DriverRod, Err: err}
	}

	controlURL := opts.RemoteURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().
			Headless(opts.Headless).
			NoSandbox(true).
			Set("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight))
		if opts.ExecutablePath != "" {
			l = l.Bin(opts.ExecutablePath)
		}
		if opts.UserDataDir != "" {
			l = l.UserDataDir(opts.UserDataDir)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, &wizardtypes.LaunchError{Driver: DriverRod, Err: err}
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Cleanup()
		}
		return nil, &wizardtypes.LaunchError{Driver: DriverRod, Err: err}
	}
	if opts.AcceptInsecureCerts {
		if err := b.IgnoreCertErrors(true); err != nil {
			logger.Warn("could not ignore certificate errors", zap.Error(err))
		}
	}
	logger.Info("browser started", zap.Bool("headless", opts.Headless), zap.String("control_url", controlURL))

	return &RodSession{browser: b, launcher: l, opts: opts, logger: logger}, nil
}

func (s *RodSession) NewPage(ctx context.Context) (Page, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("browser session is closed")
	}
	s.active.Add(1)
	s.mu.Unlock()

	owner := s.browser
	var incognito *rod.Browser
	if s.opts.IsolatePages {
		inc, err := s.browser.Incognito()
		if err != nil {
			s.active.Done()
			return nil, fmt.Errorf("open incognito context: %w", err)
		}
		owner, incognito = inc, inc
	}

	page, err := owner.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		if incognito != nil {
			_ = incognito.Close()
		}
		s.active.Done()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	return &rodPage{
		page:      page.Context(context.Background()),
		owner:     owner,
		incognito: incognito,
		opts:      s.opts,
		logger:    s.logger,
		release:   s.active.Done,
	}, nil
}

func (s *RodSession) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.logger.Info("shutting down browser")

	released := make(chan struct{})
	go func() {
		s.active.Wait()
		close(released)
	}()

	var waitErr error
	select {
	case <-released:
	case <-ctx.Done():
		s.logger.Warn("shutdown timeout reached with pages still open")
		waitErr = ctx.Err()
	}

	err := s.browser.Close()
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return waitErr
}

type rodPage struct {
	page      *rod.Page
	owner     *rod.Browser
	incognito *rod.Browser
	opts      Options
	logger    *zap.Logger
	release   func()

	closeOnce sync.Once
}

// bound returns the page scoped to the caller's context and timeout.
func (p *rodPage) bound(ctx context.Context, timeout time.Duration) (*rod.Page, context.CancelFunc) {
	runCtx, cancel := boundedContext(context.Background(), ctx, timeout)
	return p.page.Context(runCtx), cancel
}

func (p *rodPage) eval(ctx context.Context, expr string) (*proto.RuntimeRemoteObject, error) {
	page, cancel := p.bound(ctx, p.opts.ActionTimeout)
	defer cancel()
	return page.Eval("() => " + expr)
}

func (p *rodPage) Navigate(ctx context.Context, url string, opts NavigateOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = p.opts.NavigationTimeout
	}
	page, cancel := p.bound(ctx, timeout)
	defer cancel()

	if err := page.Navigate(url); err != nil {
		return timeoutError(fmt.Errorf("navigate: %w", err), url, "")
	}
	if err := page.WaitLoad(); err != nil {
		return timeoutError(fmt.Errorf("wait load: %w", err), url, "")
	}
	if opts.WaitUntil == WaitMarker && opts.Marker != "" {
		return p.WaitForMarker(ctx, opts.Marker, timeout)
	}
	return nil
}

func (p *rodPage) WaitForMarker(ctx context.Context, selector string, timeout time.Duration) error {
	_, err := p.WaitFor(ctx, timeout, Condition{Selector: selector})
	return err
}

// WaitFor polls the conditions at the configured interval.
func (p *rodPage) WaitFor(ctx context.Context, timeout time.Duration, conds ...Condition) (int, error) {
	if len(conds) == 0 {
		return -1, errors.New("wait: no conditions")
	}
	if timeout <= 0 {
		timeout = p.opts.NavigationTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	expr := conditionsExpr(conds)
	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	for {
		res, err := p.eval(waitCtx, expr)
		if err == nil {
			if idx := res.Value.Int(); idx > 0 {
				return idx - 1, nil
			}
		} else if waitCtx.Err() == nil {
			// evaluation fails while a navigation swaps the document
			p.logger.Debug("wait evaluation failed", zap.Error(err))
		}

		select {
		case <-waitCtx.Done():
			url, _ := p.CurrentURL(context.WithoutCancel(ctx))
			return -1, &wizardtypes.NavigationTimeout{URL: url, Selector: Describe(conds), Err: waitCtx.Err()}
		case <-ticker.C:
		}
	}
}

func (p *rodPage) Query(ctx context.Context, selector string) (*Element, error) {
	els, err := p.QueryAll(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return &els[0], nil
}

func (p *rodPage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	res, err := p.eval(ctx, queryAllExpr(selector))
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	var els []Element
	if err := res.Value.Unmarshal(&els); err != nil {
		return nil, fmt.Errorf("decode query %q: %w", selector, err)
	}
	return els, nil
}

func (p *rodPage) OuterHTML(ctx context.Context, selector string) (string, error) {
	res, err := p.eval(ctx, outerHTMLExpr(selector))
	if err != nil {
		return "", fmt.Errorf("outer html %q: %w", selector, err)
	}
	out := res.Value.Str()
	if out == "" {
		return "", fmt.Errorf("%w: %s", ErrNoMatch, selector)
	}
	return out, nil
}

func (p *rodPage) element(ctx context.Context, selector string) (*rod.Element, context.CancelFunc, error) {
	res, err := p.eval(ctx, countExpr(selector))
	if err != nil {
		return nil, nil, fmt.Errorf("count %q: %w", selector, err)
	}
	if res.Value.Int() == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoMatch, selector)
	}
	page, cancel := p.bound(ctx, p.opts.ActionTimeout)
	el, err := page.Element(selector)
	if err != nil {
		cancel()
		return nil, nil, timeoutError(fmt.Errorf("element %q: %w", selector, err), "", selector)
	}
	if err := el.ScrollIntoView(); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("scroll %q: %w", selector, err)
	}
	return el, cancel, nil
}

func (p *rodPage) Click(ctx context.Context, selector string) error {
	el, cancel, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return timeoutError(fmt.Errorf("click %q: %w", selector, err), "", selector)
	}
	return nil
}

func (p *rodPage) Fill(ctx context.Context, selector, value string) error {
	el, cancel, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select %q: %w", selector, err)
	}
	if value == "" {
		err = el.Type(input.Backspace)
	} else {
		err = el.Input(value)
	}
	if err != nil {
		return timeoutError(fmt.Errorf("fill %q: %w", selector, err), "", selector)
	}
	return nil
}

func (p *rodPage) CurrentURL(ctx context.Context) (string, error) {
	page, cancel := p.bound(ctx, p.opts.ActionTimeout)
	defer cancel()
	info, err := page.Info()
	if err != nil {
		return "", fmt.Errorf("location: %w", err)
	}
	return info.URL, nil
}

func (p *rodPage) Stamp(ctx context.Context, token string) error {
	_, err := p.eval(ctx, stampExpr(token))
	return err
}

func (p *rodPage) ScrollToTop(ctx context.Context) error {
	_, err := p.eval(ctx, scrollTopExpr)
	return err
}

func (p *rodPage) ClearCookies(ctx context.Context) error {
	return p.owner.Context(ctx).SetCookies(nil)
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	page, cancel := p.bound(ctx, p.opts.NavigationTimeout)
	defer cancel()
	buf, err := page.Screenshot(true, nil)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

func (p *rodPage) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.page.Close()
		if p.incognito != nil {
			if cerr := p.incognito.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		p.release()
	})
	return err
}
