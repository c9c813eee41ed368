package mocks

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/dom"
	"github.com/copyleftdev/stagecheck/internal/fixture"
)

// Wizard simulates the form wizard on FakePages: stage rendering, submit
// validation, the Debark summary and change links. Answers are shared by
// every page of one Wizard, the way a session cookie shares them in a
// browser.
type Wizard struct {
	BaseURL     string
	Collections []fixture.Collection

	mu        sync.Mutex
	selected  int
	answers   map[string][]string
	stalled   map[string]bool
	confirmed bool
}

func NewWizard(baseURL string, collections ...fixture.Collection) *Wizard {
	if len(collections) == 0 {
		collections = fixture.DemoCollections()
	}
	return &Wizard{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Collections: collections,
		selected:    -1,
		answers:     make(map[string][]string),
		stalled:     make(map[string]bool),
	}
}

// Stall makes submits on path re-render the page without an error summary,
// which no well-behaved stage does.
func (w *Wizard) Stall(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stalled[path] = true
}

// Answer returns the stored raw values for a question path.
func (w *Wizard) Answer(path string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.answers[path]...)
}

func (w *Wizard) Confirmed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.confirmed
}

// NewPage returns a blank page wired to the simulator.
func (w *Wizard) NewPage() *FakePage {
	page := NewFakePage("about:blank")
	s := &simPage{w: w, page: page}
	page.OnNavigate = s.navigate
	page.OnClick = s.click
	return page
}

// Session returns a FakeSession whose pages all share this wizard.
func (w *Wizard) Session() *FakeSession {
	return &FakeSession{NewPageFunc: func() (browser.Page, error) { return w.NewPage(), nil }}
}

func (w *Wizard) collection() (fixture.Collection, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected < 0 {
		return fixture.Collection{}, false
	}
	return w.Collections[w.selected], true
}

// question finds path in the selected collection, or in any collection when
// none has been chosen yet.
func (w *Wizard) question(path string) (fixture.Collection, int) {
	if c, ok := w.collection(); ok {
		return c, c.Find(path)
	}
	for _, c := range w.Collections {
		if i := c.Find(path); i >= 0 {
			return c, i
		}
	}
	return fixture.Collection{}, -1
}

type simPage struct {
	w    *Wizard
	page *FakePage

	path        string
	edit        bool
	radioValue  map[string]string
	changeLinks map[string]int
	chosen      string
}

func (s *simPage) navigate(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	s.edit = u.Query().Get("edit") == "1"
	s.render(u.Path, 0)
	return nil
}

func (s *simPage) click(selector string) error {
	switch {
	case selector == dom.SubmitSelector:
		s.submit()
	case s.radioValue[selector] != "":
		s.chosen = s.radioValue[selector]
	default:
		if i, ok := s.changeLinks[selector]; ok {
			c, _ := s.w.collection()
			s.edit = true
			s.render(c.Questions[i].Path, 0)
		}
	}
	return nil
}

func (s *simPage) submit() {
	switch s.path {
	case "/embark-stage":
		for i, c := range s.w.Collections {
			if c.Value == s.chosen {
				s.w.mu.Lock()
				s.w.selected = i
				s.w.mu.Unlock()
				s.edit = false
				s.render(c.Questions[0].Path, 0)
				return
			}
		}
		s.render(s.path, 1)
	case "/debark-stage":
		s.w.mu.Lock()
		s.w.confirmed = true
		s.w.mu.Unlock()
		s.render("/confirm-stage", 0)
	default:
		c, i := s.w.question(s.path)
		if i < 0 {
			return
		}
		s.w.mu.Lock()
		stalled := s.w.stalled[s.path]
		s.w.mu.Unlock()
		if stalled {
			s.render(s.path, 0)
			return
		}

		q := c.Questions[i]
		values, invalid := s.collect(q)
		if invalid > 0 {
			s.render(s.path, invalid)
			return
		}
		s.w.mu.Lock()
		s.w.answers[q.Path] = values
		s.w.mu.Unlock()

		next := "/debark-stage"
		if !s.edit && i+1 < len(c.Questions) {
			next = c.Questions[i+1].Path
		}
		s.edit = false
		s.render(next, 0)
	}
}

func (s *simPage) collect(q fixture.Question) ([]string, int) {
	if q.IsRadio() {
		if q.Accept(0, s.chosen) {
			return []string{s.chosen}, 0
		}
		return nil, 1
	}

	s.page.mu.Lock()
	filled := make(map[string]string, len(s.page.Filled))
	for k, v := range s.page.Filled {
		filled[k] = v
	}
	s.page.mu.Unlock()

	values := make([]string, len(q.Fields))
	invalid := 0
	for k := range q.Fields {
		v, ok := filled[dom.TextInput(k+1)]
		if !ok && k == 0 {
			v = filled[dom.FieldContainer+` input[type="text"]`]
		}
		values[k] = v
		if !q.Accept(k, v) {
			invalid++
		}
	}
	return values, invalid
}

func (s *simPage) render(path string, errors int) {
	s.path = path
	s.radioValue = make(map[string]string)
	s.changeLinks = make(map[string]int)
	s.chosen = ""

	els := make(map[string][]browser.Element)
	htm := make(map[string]string)
	heading := func(t string) { els[dom.HeadingSelector] = []browser.Element{{Text: t}} }
	submit := func() {
		els[dom.SubmitSelector] = []browser.Element{{Text: "Continue", Attributes: map[string]string{"type": "submit"}}}
	}
	radio := func(value string, selectors ...string) {
		el := browser.Element{Value: value, Attributes: map[string]string{"type": "radio", "value": value}}
		for _, sel := range selectors {
			els[sel] = append(els[sel], el)
			s.radioValue[sel] = value
		}
	}

	rawURL := s.w.BaseURL + path
	switch path {
	case "/":
		heading("Index Page")
	case "/embark-stage":
		heading("Embark")
		submit()
		els[dom.EmbarkLegend] = []browser.Element{{Text: "Schema for Collections"}}
		els[dom.CollectionLegend] = []browser.Element{{Text: "Collection"}}
		for _, c := range s.w.Collections {
			radio(c.Value, dom.EmbarkRadio(c.Value))
			els[dom.EmbarkRadioSelector] = append(els[dom.EmbarkRadioSelector], els[dom.EmbarkRadio(c.Value)][0])
			els[dom.EmbarkLabelSelector] = append(els[dom.EmbarkLabelSelector], browser.Element{Text: c.Label})
		}
	case "/debark-stage":
		heading("Debark")
		submit()
		els[dom.DebarkResolvedMarker] = []browser.Element{{}}
		c, _ := s.w.collection()
		for i := range c.Questions {
			sel := dom.ChangeLink(i + 1)
			els[sel] = []browser.Element{{Text: "Change"}}
			s.changeLinks[sel] = i
		}
		htm["body"] = s.w.summaryHTML(c)
	case "/confirm-stage":
		heading("Confirm")
		els[dom.ConfirmResolvedMarker] = []browser.Element{{}}
	default:
		c, i := s.w.question(path)
		if i < 0 {
			heading("Page Not Found")
			break
		}
		q := c.Questions[i]
		heading(q.Heading)
		submit()
		els[dom.QuestionResolvedMarker] = []browser.Element{{}}
		if q.IsRadio() {
			for _, o := range q.Options {
				radio(o.Value, dom.RadioInputCandidates(1, o.Value)...)
				els[dom.FieldContainer+` input[type="radio"]`] = append(els[dom.FieldContainer+` input[type="radio"]`],
					browser.Element{Value: o.Value, Attributes: map[string]string{"type": "radio", "value": o.Value}})
			}
		} else {
			for k := range q.Fields {
				el := browser.Element{Attributes: map[string]string{"type": "text"}}
				els[dom.TextInput(k+1)] = []browser.Element{el}
				els[dom.FieldContainer+` input[type="text"]`] = append(els[dom.FieldContainer+` input[type="text"]`], el)
			}
		}
		if errors > 0 {
			els[dom.ErrorSummarySelector] = []browser.Element{{Text: "There is a problem"}}
			for range errors {
				els[dom.ErrorMessageSelector] = append(els[dom.ErrorMessageSelector], browser.Element{Text: "Error: invalid value"})
			}
		}
		if s.edit {
			rawURL += "?edit=1"
		}
	}

	s.page.mu.Lock()
	s.page.Filled = make(map[string]string)
	s.page.mu.Unlock()
	s.page.Render(rawURL, els, htm)
}

func (w *Wizard) summaryHTML(c fixture.Collection) string {
	var b strings.Builder
	b.WriteString(`<main class="debark resolved"><h1>Debark</h1><form method="post">`)
	for _, q := range c.Questions {
		values := w.Answer(q.Path)
		fmt.Fprintf(&b, `<div class="sprocket"><h2>%s</h2><dl>`, html.EscapeString(q.Heading))
		for k := 0; k < q.FieldCount(); k++ {
			var v string
			if k < len(values) {
				v = q.Display(values[k])
			}
			fmt.Fprintf(&b, `<dt>%s</dt><dd class="answer-value">%s</dd><dd class="change-answer"><a href="%s?edit=1">%s</a></dd>`,
				html.EscapeString(q.Label(k)), html.EscapeString(v), q.Path, html.EscapeString(q.ChangeLabel(k)))
		}
		b.WriteString(`</dl></div>`)
	}
	b.WriteString(`<button type="submit">Continue</button></form></main>`)
	return b.String()
}
