package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/stagecheck/internal/config"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

// ErrNoMatch is returned by Click and Fill when no element matches.
var ErrNoMatch = errors.New("no element matches selector")

const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
)

// WaitUntil selects what Navigate waits for after the load event.
type WaitUntil string

const (
	WaitLoad   WaitUntil = "load"
	WaitMarker WaitUntil = "marker"
)

type NavigateOptions struct {
	WaitUntil WaitUntil
	Marker    string
	Timeout   time.Duration
}

// Element is a driver-neutral snapshot of a matched DOM element.
type Element struct {
	Text       string            `json:"text"`
	Value      string            `json:"value"`
	Attributes map[string]string `json:"attributes"`
}

func (e Element) Attr(name string) string {
	return e.Attributes[name]
}

// Condition holds when every non-empty part holds: Selector matches at least
// one element, one of those elements has text Text, the page URL differs
// from URLNot (scheme, host and path compared), and the document does not
// carry the Stamp token Unstamped.
type Condition struct {
	Selector  string `json:"selector,omitempty"`
	Text      string `json:"text,omitempty"`
	URLNot    string `json:"urlNot,omitempty"`
	Unstamped string `json:"unstamped,omitempty"`
}

// Page is one tab. Operations on a page are sequential; a page is never
// shared between scenarios.
type Page interface {
	Navigate(ctx context.Context, url string, opts NavigateOptions) error
	WaitForMarker(ctx context.Context, selector string, timeout time.Duration) error
	// WaitFor blocks until one of conds holds and returns its index.
	WaitFor(ctx context.Context, timeout time.Duration, conds ...Condition) (int, error)
	Query(ctx context.Context, selector string) (*Element, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	OuterHTML(ctx context.Context, selector string) (string, error)
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	CurrentURL(ctx context.Context) (string, error)
	// Stamp marks the current document with token. Any navigation, including
	// a reload of the same URL, yields an unstamped document.
	Stamp(ctx context.Context, token string) error
	ScrollToTop(ctx context.Context) error
	ClearCookies(ctx context.Context) error
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Session owns the browser process.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	// Close is idempotent.
	Close(ctx context.Context) error
}

type Options struct {
	Driver              string
	ExecutablePath      string
	RemoteURL           string
	UserDataDir         string
	Headless            bool
	AcceptInsecureCerts bool
	IsolatePages        bool
	WindowWidth         int
	WindowHeight        int
	NavigationTimeout   time.Duration
	ActionTimeout       time.Duration
	PollInterval        time.Duration
	ScreenshotQuality   int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Driver:              cfg.Browser.Driver,
		ExecutablePath:      cfg.Browser.ExecutablePath,
		RemoteURL:           cfg.Browser.RemoteURL,
		UserDataDir:         cfg.Browser.UserDataDir,
		Headless:            cfg.Browser.Headless,
		AcceptInsecureCerts: cfg.Browser.AcceptInsecureCerts,
		IsolatePages:        cfg.Browser.IsolatePages,
		WindowWidth:         cfg.Browser.WindowWidth,
		WindowHeight:        cfg.Browser.WindowHeight,
		NavigationTimeout:   cfg.Browser.NavigationTimeout,
		ActionTimeout:       cfg.Browser.ActionTimeout,
		PollInterval:        cfg.Browser.PollInterval,
		ScreenshotQuality:   cfg.Screenshots.Quality,
	}
}

func (o Options) withDefaults() Options {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 15 * time.Second
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = 10 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 50 * time.Millisecond
	}
	if o.ScreenshotQuality <= 0 || o.ScreenshotQuality > 100 {
		o.ScreenshotQuality = 100
	}
	if o.WindowWidth <= 0 || o.WindowHeight <= 0 {
		o.WindowWidth, o.WindowHeight = 1280, 960
	}
	return o
}

// Open starts a browser with the configured driver.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Session, error) {
	switch opts.Driver {
	case DriverChromedp, "":
		return OpenChromedp(ctx, opts, logger)
	case DriverRod:
		return OpenRod(ctx, opts, logger)
	default:
		return nil, &wizardtypes.LaunchError{Driver: opts.Driver, Err: fmt.Errorf("unknown driver")}
	}
}

// timeoutError maps context expiry during a wait to a NavigationTimeout.
// Other errors pass through.
func timeoutError(err error, url, selector string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &wizardtypes.NavigationTimeout{URL: url, Selector: selector, Err: err}
	}
	return err
}

// boundedContext derives a context from base that also ends when ctx ends
// or the timeout elapses. Driver contexts live on the tab; ctx carries the
// caller's scenario deadline.
func boundedContext(base, ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(base, timeout)
	} else {
		runCtx, cancel = context.WithCancel(base)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
