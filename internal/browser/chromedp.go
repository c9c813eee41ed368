package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/copyleftdev/stagecheck/internal/logging"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

// Compile-time check to ensure the chromedp types implement the interfaces
var (
	_ Session = (*ChromedpSession)(nil)
	_ Page    = (*chromedpPage)(nil)
)

type ChromedpSession struct {
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	opts            Options
	logger          *zap.Logger
	activePages     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// OpenChromedp launches (or attaches to) Chrome and starts it eagerly so a
// missing binary surfaces here as a LaunchError.
func OpenChromedp(ctx context.Context, opts Options, logger *zap.Logger) (*ChromedpSession, error) {
	opts = opts.withDefaults()
	logger = logging.OrNop(logger).With(zap.String("driver", DriverChromedp))

	if err := ctx.Err(); err != nil {
		return nil, &wizardtypes.LaunchError{Driver: DriverChromedp, Err: err}
	}

	var allocatorCtx context.Context
	var allocatorCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocatorCtx, allocatorCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
	} else {
		allocatorCtx, allocatorCancel = chromedp.NewExecAllocator(context.Background(), execAllocatorOptions(opts)...)
	}

	sugar := logger.Sugar()
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, &wizardtypes.LaunchError{Driver: DriverChromedp, Err: err}
	}
	logger.Info("browser started", zap.Bool("headless", opts.Headless), zap.String("remote", opts.RemoteURL))

	return &ChromedpSession{
		allocatorCtx:    allocatorCtx,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		opts:            opts,
		logger:          logger,
	}, nil
}

func execAllocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.AcceptInsecureCerts {
		allocOpts = append(allocOpts, chromedp.IgnoreCertErrors)
	}
	if opts.ExecutablePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecutablePath))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	return allocOpts
}

// NewPage opens a tab, in its own browser context when pages are isolated.
func (s *ChromedpSession) NewPage(ctx context.Context) (Page, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("browser session is closed")
	}
	s.activePages.Add(1)
	s.mu.Unlock()

	var ctxOpts []chromedp.ContextOption
	if s.opts.IsolatePages {
		ctxOpts = append(ctxOpts, chromedp.WithNewBrowserContext())
	}
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx, ctxOpts...)

	openCtx, cancel := boundedContext(tabCtx, ctx, s.opts.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(openCtx); err != nil {
		tabCancel()
		s.activePages.Done()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	p := &chromedpPage{
		ctx:     tabCtx,
		cancel:  tabCancel,
		opts:    s.opts,
		logger:  s.logger,
		release: s.activePages.Done,
	}
	p.listenConsole()
	return p, nil
}

// Close waits for open pages until ctx ends, then stops the browser whether
// or not they were released.
func (s *ChromedpSession) Close(ctx context.Context) error {
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
		s.activePages.Wait()
		close(released)
	}()

	var waitErr error
	select {
	case <-released:
	case <-ctx.Done():
		s.logger.Warn("shutdown timeout reached with pages still open")
		waitErr = ctx.Err()
	}

	err := chromedp.Cancel(s.browserCtx)
	s.browserCancel()
	s.allocatorCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close browser: %w", err)
	}
	return waitErr
}

type chromedpPage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    Options
	logger  *zap.Logger
	release func()

	closeOnce sync.Once
}

func (p *chromedpPage) listenConsole() {
	chromedp.ListenTarget(p.ctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			if ev.Type != runtime.APITypeError && ev.Type != runtime.APITypeWarning {
				return
			}
			parts := make([]string, 0, len(ev.Args))
			for _, arg := range ev.Args {
				if arg.Description != "" {
					parts = append(parts, arg.Description)
				} else {
					parts = append(parts, string(arg.Value))
				}
			}
			p.logger.Debug("page console", zap.String("type", string(ev.Type)), zap.String("message", strings.Join(parts, " ")))
		case *runtime.EventExceptionThrown:
			if ev.ExceptionDetails != nil {
				p.logger.Debug("page exception", zap.String("message", ev.ExceptionDetails.Text))
			}
		}
	})
}

func (p *chromedpPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := boundedContext(p.ctx, ctx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromedpPage) Navigate(ctx context.Context, url string, opts NavigateOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = p.opts.NavigationTimeout
	}
	if err := p.run(ctx, timeout, navigateAction(url)); err != nil {
		return timeoutError(err, url, "")
	}
	if opts.WaitUntil == WaitMarker && opts.Marker != "" {
		return p.WaitForMarker(ctx, opts.Marker, timeout)
	}
	return nil
}

func (p *chromedpPage) WaitForMarker(ctx context.Context, selector string, timeout time.Duration) error {
	_, err := p.WaitFor(ctx, timeout, Condition{Selector: selector})
	return err
}

func (p *chromedpPage) WaitFor(ctx context.Context, timeout time.Duration, conds ...Condition) (int, error) {
	if len(conds) == 0 {
		return -1, errors.New("wait: no conditions")
	}
	if timeout <= 0 {
		timeout = p.opts.NavigationTimeout
	}

	var idx int
	// the outer bound gives the poller room to report its own timeout first
	err := p.run(ctx, timeout+time.Second, pollAction(conds, p.opts.PollInterval, timeout, &idx))
	if err != nil {
		url, _ := p.CurrentURL(context.WithoutCancel(ctx))
		if errors.Is(err, chromedp.ErrPollingTimeout) {
			return -1, &wizardtypes.NavigationTimeout{URL: url, Selector: Describe(conds), Err: context.DeadlineExceeded}
		}
		return -1, timeoutError(err, url, Describe(conds))
	}
	return idx - 1, nil
}

func (p *chromedpPage) Query(ctx context.Context, selector string) (*Element, error) {
	els, err := p.QueryAll(ctx, selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return &els[0], nil
}

func (p *chromedpPage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	var els []Element
	if err := p.run(ctx, p.opts.ActionTimeout, queryAllAction(selector, &els)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return els, nil
}

func (p *chromedpPage) OuterHTML(ctx context.Context, selector string) (string, error) {
	var out string
	if err := p.run(ctx, p.opts.ActionTimeout, outerHTMLAction(selector, &out)); err != nil {
		return "", fmt.Errorf("outer html %q: %w", selector, err)
	}
	if out == "" {
		return "", fmt.Errorf("%w: %s", ErrNoMatch, selector)
	}
	return out, nil
}

func (p *chromedpPage) present(ctx context.Context, selector string) error {
	var n int
	if err := p.run(ctx, p.opts.ActionTimeout, countAction(selector, &n)); err != nil {
		return fmt.Errorf("count %q: %w", selector, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNoMatch, selector)
	}
	return nil
}

func (p *chromedpPage) Click(ctx context.Context, selector string) error {
	if err := p.present(ctx, selector); err != nil {
		return err
	}
	if err := p.run(ctx, p.opts.ActionTimeout, clickAction(selector)); err != nil {
		return timeoutError(fmt.Errorf("click %q: %w", selector, err), "", selector)
	}
	return nil
}

func (p *chromedpPage) Fill(ctx context.Context, selector, value string) error {
	if err := p.present(ctx, selector); err != nil {
		return err
	}
	if err := p.run(ctx, p.opts.ActionTimeout, fillAction(selector, value)); err != nil {
		return timeoutError(fmt.Errorf("fill %q: %w", selector, err), "", selector)
	}
	return nil
}

func (p *chromedpPage) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := p.run(ctx, p.opts.ActionTimeout, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("location: %w", err)
	}
	return url, nil
}

func (p *chromedpPage) Stamp(ctx context.Context, token string) error {
	return p.run(ctx, p.opts.ActionTimeout, stampAction(token))
}

func (p *chromedpPage) ScrollToTop(ctx context.Context) error {
	return p.run(ctx, p.opts.ActionTimeout, scrollTopAction())
}

func (p *chromedpPage) ClearCookies(ctx context.Context) error {
	return p.run(ctx, p.opts.ActionTimeout, clearCookiesAction())
}

func (p *chromedpPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, p.opts.NavigationTimeout, screenshotAction(p.opts.ScreenshotQuality, &buf)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// Close closes the tab. Safe to call more than once.
func (p *chromedpPage) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = chromedp.Cancel(p.ctx)
		p.cancel()
		p.release()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	})
	return err
}

// Describe renders conditions for logs and timeout errors.
func Describe(conds []Condition) string {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		var sb []string
		if c.Selector != "" {
			sb = append(sb, c.Selector)
		}
		if c.Text != "" {
			sb = append(sb, fmt.Sprintf("text=%q", c.Text))
		}
		if c.URLNot != "" {
			sb = append(sb, "url!="+c.URLNot)
		}
		if c.Unstamped != "" {
			sb = append(sb, "fresh document")
		}
		parts = append(parts, strings.Join(sb, " "))
	}
	return strings.Join(parts, " | ")
}
