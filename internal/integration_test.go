package internal

import (
	"context"
	"net/http/httptest"
	"os/exec"
	"path"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/config"
	"github.com/copyleftdev/stagecheck/internal/dom"
	"github.com/copyleftdev/stagecheck/internal/fixture"
	"github.com/copyleftdev/stagecheck/internal/flow"
	"github.com/copyleftdev/stagecheck/internal/report"
	"github.com/copyleftdev/stagecheck/internal/stage"
	"github.com/copyleftdev/stagecheck/internal/suite"
	"github.com/copyleftdev/stagecheck/internal/summary"
	"github.com/copyleftdev/stagecheck/internal/table"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

// These tests drive a real headless browser against the fixture wizard,
// once per driver.

var drivers = []string{browser.DriverChromedp, browser.DriverRod}

func findChrome(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	if path, ok := launcher.LookPath(); ok {
		return path
	}
	t.Skip("no Chrome or Chromium found")
	return ""
}

func forEachDriver(t *testing.T, fn func(t *testing.T, locator *stage.Locator, session browser.Session)) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			locator, session := openFixture(t, driver)
			fn(t, locator, session)
		})
	}
}

func openFixture(t *testing.T, driver string) (*stage.Locator, browser.Session) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	chrome := findChrome(t)

	srv := httptest.NewServer(fixture.NewServer(config.FixtureConfig{}, nil, nil).Handler())
	t.Cleanup(srv.Close)

	locator, err := stage.NewLocator(srv.URL, stage.DefaultRoutes)
	require.NoError(t, err)

	session, err := browser.Open(context.Background(), browser.Options{
		Driver:         driver,
		ExecutablePath: chrome,
		Headless:       true,
		IsolatePages:   true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		assert.NoError(t, session.Close(ctx))
		assert.NoError(t, session.Close(ctx), "close is idempotent")
	})
	return locator, session
}

func newRunner(t *testing.T, locator *stage.Locator, session browser.Session) *flow.Runner {
	t.Helper()
	page, err := session.NewPage(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { page.Close() })
	return flow.NewRunner(page, locator, zaptest.NewLogger(t), flow.Options{
		NavigationTimeout: 15 * time.Second,
		SubmitTimeout:     10 * time.Second,
	})
}

func text(v string) wizardtypes.FieldSpec {
	return wizardtypes.FieldSpec{Kind: wizardtypes.FieldText, Ordinal: 1, Value: v}
}

func TestBrowserNumberValidation(t *testing.T) {
	forEachDriver(t, testNumberValidation)
}

func testNumberValidation(t *testing.T, locator *stage.Locator, session browser.Session) {
	r := newRunner(t, locator, session)
	ctx := context.Background()

	_, err := r.Enter(ctx, wizardtypes.StageQuestion, "number/number")
	require.NoError(t, err)

	require.NoError(t, r.Fill(ctx, text("string")))
	tr, err := r.Submit(ctx)
	require.NoError(t, err)
	require.NoError(t, r.ExpectRejected(tr))
	assert.Equal(t, 1, tr.Outcome.ErrorMessageCount)

	require.NoError(t, r.Fill(ctx, text("1")))
	tr, err = r.Submit(ctx)
	require.NoError(t, err)
	next, err := locator.Question("number/number-enum")
	require.NoError(t, err)
	require.NoError(t, r.ExpectAdvanced(ctx, tr, next))
}

func TestBrowserChangeAnswer(t *testing.T) {
	forEachDriver(t, testChangeAnswer)
}

func testChangeAnswer(t *testing.T, locator *stage.Locator, session browser.Session) {
	r := newRunner(t, locator, session)
	ctx := context.Background()

	_, err := r.Enter(ctx, wizardtypes.StageEmbark, "")
	require.NoError(t, err)
	require.NoError(t, r.Fields().SelectRadioByLabel(ctx, "String"))
	tr, err := r.Submit(ctx)
	require.NoError(t, err)
	first, err := locator.Question("string/string")
	require.NoError(t, err)
	require.NoError(t, r.ExpectAdvanced(ctx, tr, first))

	answers := []struct {
		next string
		spec wizardtypes.FieldSpec
	}{
		{"string/string-enum", text("string")},
		{"string/string-any-of", wizardtypes.FieldSpec{Kind: wizardtypes.FieldRadio, Ordinal: 1, Value: "1"}},
		{"string/string-one-of", wizardtypes.FieldSpec{Kind: wizardtypes.FieldRadio, Ordinal: 1, Value: "0"}},
		{"string/string-all-of", wizardtypes.FieldSpec{Kind: wizardtypes.FieldRadio, Ordinal: 1, Value: "2"}},
		{"", text("all")},
	}
	for _, a := range answers {
		require.NoError(t, r.Fill(ctx, a.spec))
		tr, err := r.Submit(ctx)
		require.NoError(t, err)
		next, err := locator.Resolve(wizardtypes.StageDebark, "")
		if a.next != "" {
			next, err = locator.Question(a.next)
		}
		require.NoError(t, err)
		require.NoError(t, r.ExpectAdvanced(ctx, tr, next))
	}

	v := summary.NewVerifier(r, zaptest.NewLogger(t))
	require.NoError(t, v.ExpectCard(ctx, 1, summary.CardExpectation{
		Title:   "String",
		Entries: []wizardtypes.AnswerEntry{{Label: "String", Value: "string", ChangeLabel: "Change string"}},
	}))

	card, err := v.ChangeCard(ctx, 1, text("change"))
	require.NoError(t, err)
	assert.Equal(t, "change", card.Value)

	_, err = v.Submit(ctx)
	require.NoError(t, err)
	require.NoError(t, r.ExpectHeading(ctx, "Confirm"))
}

func TestBrowserDefaultTable(t *testing.T) {
	forEachDriver(t, testDefaultTable)
}

func testDefaultTable(t *testing.T, locator *stage.Locator, session browser.Session) {

	tbl, err := table.Default()
	require.NoError(t, err)
	require.NoError(t, tbl.Validate(locator))
	flows, err := tbl.Select()
	require.NoError(t, err)

	m := suite.NewManager(session, locator, tbl.Embark, suite.Options{
		MaxParallel:     2,
		ScenarioTimeout: 2 * time.Minute,
		Flow:            flow.Options{NavigationTimeout: 15 * time.Second, SubmitTimeout: 10 * time.Second},
	}, nil, zaptest.NewLogger(t))

	ctx := context.Background()
	require.NoError(t, m.Awake(ctx))

	scenarios, err := m.Run(ctx, flows)
	require.NoError(t, err)

	rep := report.New(locator.URL("/"), path.Base(t.Name()))
	rep.Add(scenarios...)
	rep.Finish()
	for _, s := range rep.Scenarios {
		for _, c := range s.Checks {
			if c.Failure != nil {
				t.Errorf("%s / %s: %s", s.Flow, c.Name, c.Failure.Message)
			}
		}
	}
	assert.True(t, rep.OK())
	assert.Equal(t, len(flows), rep.Totals.Passed)
}

func TestBrowserPagesAreIsolated(t *testing.T) {
	forEachDriver(t, testPagesAreIsolated)
}

func testPagesAreIsolated(t *testing.T, locator *stage.Locator, session browser.Session) {
	ctx := context.Background()
	r := newRunner(t, locator, session)

	_, err := r.Enter(ctx, wizardtypes.StageEmbark, "")
	require.NoError(t, err)
	require.NoError(t, r.Fields().SelectRadioByLabel(ctx, "Number"))
	tr, err := r.Submit(ctx)
	require.NoError(t, err)
	require.Equal(t, flow.StateAdvanced, tr.State)

	other, err := session.NewPage(ctx)
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Navigate(ctx, locator.URL("/debark-stage"), browser.NavigateOptions{
		WaitUntil: browser.WaitMarker,
		Marker:    dom.DebarkResolvedMarker,
	}))
	body, err := other.OuterHTML(ctx, "body")
	require.NoError(t, err)
	cards, err := dom.ParseAnswerCards(body)
	require.NoError(t, err)
	assert.Empty(t, cards, "a second page starts its own wizard session")
}
