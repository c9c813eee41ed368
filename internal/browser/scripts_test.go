package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/stagecheck/internal/config"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

func TestJSStringQuotesSelectors(t *testing.T) {
	assert.Equal(t, `".cog input[type=\"radio\"][value=\"1\"]"`, jsString(`.cog input[type="radio"][value="1"]`))
}

func TestQueryExpressionsEmbedSelector(t *testing.T) {
	sel := `form button[type="submit"]`
	for name, expr := range map[string]string{
		"queryAll":  queryAllExpr(sel),
		"outerHTML": outerHTMLExpr(sel),
		"count":     countExpr(sel),
		"select":    selectTextExpr(sel),
	} {
		assert.Contains(t, expr, jsString(sel), name)
	}
	assert.Contains(t, queryAllExpr("h1"), "attributes")
}

func TestConditionsExpr(t *testing.T) {
	expr := conditionsExpr([]Condition{
		{Selector: ".sprocket.error-summary"},
		{Selector: ".omega.resolved", URLNot: "https://localhost:5001/number/number"},
		{Selector: "h1", Text: "Number"},
	})

	assert.Contains(t, expr, `"selector":".sprocket.error-summary"`)
	assert.Contains(t, expr, `"urlNot":"https://localhost:5001/number/number"`)
	assert.Contains(t, expr, `"text":"Number"`)
	assert.NotContains(t, expr, `"text":""`, "empty fields are omitted")
	assert.Contains(t, expr, "return i + 1")
}

func TestDescribe(t *testing.T) {
	got := Describe([]Condition{{Selector: "h1", Text: "Debark"}, {URLNot: "u", Selector: ".x"}})
	assert.Equal(t, `h1 text="Debark" | .x url!=u`, got)

	got = Describe([]Condition{{Selector: ".sprocket.error-summary", Unstamped: "t-1"}})
	assert.Equal(t, ".sprocket.error-summary fresh document", got)
}

func TestStampExpressions(t *testing.T) {
	assert.Equal(t, `(() => { window["__stagecheckStamp"] = "t-1"; return true; })()`, stampExpr("t-1"))

	expr := conditionsExpr([]Condition{{Selector: ".sprocket.error-summary", Unstamped: "t-1"}})
	assert.Contains(t, expr, `"unstamped":"t-1"`)
	assert.Contains(t, expr, `window["__stagecheckStamp"] === c.unstamped`)
	assert.NotContains(t, expr, "%!")

	expr = conditionsExpr([]Condition{{Selector: "h1"}})
	assert.NotContains(t, expr, `"unstamped"`)
}

func TestTimeoutError(t *testing.T) {
	assert.NoError(t, timeoutError(nil, "u", "s"))

	other := errors.New("boom")
	assert.Same(t, other, timeoutError(other, "u", "s"))

	err := timeoutError(context.DeadlineExceeded, "https://localhost:5001/debark-stage", ".debark.resolved")
	var nt *wizardtypes.NavigationTimeout
	require.ErrorAs(t, err, &nt)
	assert.Equal(t, ".debark.resolved", nt.Selector)
	assert.ErrorIs(t, err, wizardtypes.ErrNavigationTimeout)
}

func TestBoundedContextFollowsCaller(t *testing.T) {
	caller, cancelCaller := context.WithCancel(context.Background())
	runCtx, cancel := boundedContext(context.Background(), caller, time.Minute)
	defer cancel()

	cancelCaller()
	select {
	case <-runCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("run context not cancelled with caller")
	}
}

func TestBoundedContextTimeout(t *testing.T) {
	runCtx, cancel := boundedContext(context.Background(), context.Background(), 10*time.Millisecond)
	defer cancel()
	<-runCtx.Done()
	assert.ErrorIs(t, runCtx.Err(), context.DeadlineExceeded)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Browser: config.BrowserConfig{
			Driver:              "rod",
			Headless:            true,
			AcceptInsecureCerts: true,
			IsolatePages:        true,
			NavigationTimeout:   3 * time.Second,
		},
		Screenshots: config.ScreenshotConfig{Quality: 80},
	}
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, DriverRod, opts.Driver)
	assert.True(t, opts.AcceptInsecureCerts)
	assert.Equal(t, 80, opts.ScreenshotQuality)

	d := opts.withDefaults()
	assert.Equal(t, 3*time.Second, d.NavigationTimeout)
	assert.Equal(t, 10*time.Second, d.ActionTimeout)
	assert.Equal(t, 50*time.Millisecond, d.PollInterval)
	assert.Equal(t, 1280, d.WindowWidth)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "webkit"}, nil)
	assert.ErrorIs(t, err, wizardtypes.ErrLaunch)
}

func TestExecAllocatorOptions(t *testing.T) {
	base := execAllocatorOptions(Options{Headless: true})
	withAll := execAllocatorOptions(Options{Headless: true, AcceptInsecureCerts: true, ExecutablePath: "/usr/bin/chromium", UserDataDir: "/tmp/p"})
	assert.Len(t, withAll, len(base)+3)
}
