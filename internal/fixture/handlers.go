package fixture

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

type wizard struct {
	collections []Collection
	sessions    *store
	logger      *zap.Logger
}

func (wz *wizard) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		wz.logger.Error("render page", zap.String("page", name), zap.Error(err))
	}
}

// redirect answers a successful POST with 303 so a reload does not resubmit.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func (wz *wizard) handleIndex(w http.ResponseWriter, r *http.Request) {
	wz.render(w, http.StatusOK, "index", nil)
}

func (wz *wizard) handleNotFound(w http.ResponseWriter, r *http.Request) {
	wz.render(w, http.StatusNotFound, "notFound", nil)
}

func (wz *wizard) embarkView(selected int, errMsg string) embarkView {
	v := embarkView{Error: errMsg}
	for i, c := range wz.collections {
		v.Collections = append(v.Collections, optionView{
			ID:      "collection-" + strconv.Itoa(i),
			Value:   c.Value,
			Label:   c.Label,
			Checked: i == selected,
		})
	}
	return v
}

func (wz *wizard) handleEmbark(w http.ResponseWriter, r *http.Request) {
	var selected int
	wz.sessions.with(w, r, func(s *session) { selected = s.selected })
	wz.render(w, http.StatusOK, "embark", wz.embarkView(selected, ""))
}

func (wz *wizard) handleEmbarkSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	value := r.PostForm.Get("collection")
	idx := -1
	for i, c := range wz.collections {
		if c.Value == value {
			idx = i
		}
	}
	if idx < 0 {
		wz.sessions.with(w, r, func(*session) {})
		wz.render(w, http.StatusOK, "embark", wz.embarkView(-1, "Select a collection"))
		return
	}
	wz.sessions.with(w, r, func(s *session) {
		if s.selected != idx {
			s.answers = make(map[string][]string)
		}
		s.selected = idx
		s.confirmed = false
	})
	redirect(w, r, wz.collections[idx].Questions[0].Path)
}

// lookup finds the question served at path, preferring the session's
// collection.
func (wz *wizard) lookup(s *session, path string) (int, int) {
	if s.selected >= 0 {
		if q := wz.collections[s.selected].Find(path); q >= 0 {
			return s.selected, q
		}
	}
	for i, c := range wz.collections {
		if q := c.Find(path); q >= 0 {
			return i, q
		}
	}
	return -1, -1
}

func newQuestionView(q Question, values []string, invalid []bool) questionView {
	v := questionView{Heading: q.Heading}
	value := func(k int) string {
		if k < len(values) {
			return values[k]
		}
		return ""
	}
	failed := func(k int) bool { return k < len(invalid) && invalid[k] }

	if q.IsRadio() {
		f := fieldView{Name: "field-0", Label: q.Heading}
		for i, o := range q.Options {
			f.Options = append(f.Options, optionView{
				ID:      fmt.Sprintf("field-0-%d", i),
				Value:   o.Value,
				Label:   o.Label,
				Checked: o.Value == value(0),
			})
		}
		if failed(0) {
			f.Error = "Select an option"
			v.Errors = append(v.Errors, f.Error)
		}
		v.Fields = []fieldView{f}
		return v
	}

	for k, t := range q.Fields {
		f := fieldView{Name: fmt.Sprintf("field-%d", k), Label: q.Label(k), Value: value(k)}
		if failed(k) {
			f.Error = fmt.Sprintf("%s must be a %s", q.Label(k), t)
			v.Errors = append(v.Errors, f.Error)
		}
		v.Fields = append(v.Fields, f)
	}
	return v
}

func (wz *wizard) handleQuestion(w http.ResponseWriter, r *http.Request) {
	found := false
	var view questionView
	wz.sessions.with(w, r, func(s *session) {
		c, i := wz.lookup(s, r.URL.Path)
		if i < 0 {
			return
		}
		found = true
		view = newQuestionView(wz.collections[c].Questions[i], s.answers[r.URL.Path], nil)
	})
	if !found {
		wz.handleNotFound(w, r)
		return
	}
	wz.render(w, http.StatusOK, "question", view)
}

func (wz *wizard) handleQuestionSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	edit := r.URL.Query().Get("edit") == "1"

	var (
		found   bool
		next    string
		view    questionView
		invalid bool
	)
	wz.sessions.with(w, r, func(s *session) {
		c, i := wz.lookup(s, r.URL.Path)
		if i < 0 {
			return
		}
		found = true
		col := wz.collections[c]
		q := col.Questions[i]

		values := make([]string, q.FieldCount())
		bad := make([]bool, q.FieldCount())
		for k := range values {
			values[k] = r.PostForm.Get(fmt.Sprintf("field-%d", k))
			if !q.Accept(k, values[k]) {
				bad[k] = true
				invalid = true
			}
		}
		if invalid {
			view = newQuestionView(q, values, bad)
			return
		}

		s.selected = c
		s.answers[q.Path] = values
		next = "/debark-stage"
		if !edit && i+1 < len(col.Questions) {
			next = col.Questions[i+1].Path
		}
	})

	switch {
	case !found:
		wz.handleNotFound(w, r)
	case invalid:
		wz.logger.Debug("rejected answer", zap.String("path", r.URL.Path), zap.Int("errors", len(view.Errors)))
		wz.render(w, http.StatusOK, "question", view)
	default:
		redirect(w, r, next)
	}
}

func (wz *wizard) handleDebark(w http.ResponseWriter, r *http.Request) {
	var cards []cardView
	wz.sessions.with(w, r, func(s *session) {
		if s.selected < 0 {
			return
		}
		for _, q := range wz.collections[s.selected].Questions {
			values := s.answers[q.Path]
			card := cardView{Title: q.Heading}
			for k := 0; k < q.FieldCount(); k++ {
				var v string
				if k < len(values) {
					v = q.Display(values[k])
				}
				card.Entries = append(card.Entries, entryView{
					Label:       q.Label(k),
					Value:       v,
					ChangeLabel: q.ChangeLabel(k),
					Href:        q.Path + "?edit=1",
				})
			}
			cards = append(cards, card)
		}
	})
	wz.render(w, http.StatusOK, "debark", cards)
}

func (wz *wizard) handleDebarkSubmit(w http.ResponseWriter, r *http.Request) {
	wz.sessions.with(w, r, func(s *session) { s.confirmed = true })
	redirect(w, r, "/confirm-stage")
}

func (wz *wizard) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var confirmed bool
	wz.sessions.with(w, r, func(s *session) { confirmed = s.confirmed })
	if !confirmed {
		redirect(w, r, "/debark-stage")
		return
	}
	wz.render(w, http.StatusOK, "confirm", nil)
}
