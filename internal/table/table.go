package table

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/stagecheck/internal/stage"
	"github.com/copyleftdev/stagecheck/internal/summary"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

//go:embed zashiki.yaml
var defaultTable []byte

// Table is a declarative list of flows through the wizard.
type Table struct {
	Embark EmbarkExpectation `yaml:"embark"`
	Flows  []Flow            `yaml:"flows"`
}

// EmbarkExpectation describes the structure of the Embark stage.
type EmbarkExpectation struct {
	Heading     string   `yaml:"heading"`
	SubmitLabel string   `yaml:"submitLabel"`
	Legends     []string `yaml:"legends"`
}

// Flow walks one Embark collection from its first question to Confirm.
type Flow struct {
	Name       string     `yaml:"name"`
	Collection string     `yaml:"collection"`
	Questions  []Question `yaml:"questions"`
}

// Question is one stage of a flow. Invalid, when set, is submitted first
// and must be rejected. Change, when set, is applied from Debark through the
// card's change link.
type Question struct {
	Variant string                  `yaml:"variant"`
	Fields  []wizardtypes.FieldSpec `yaml:"fields"`
	Invalid []wizardtypes.FieldSpec `yaml:"invalid,omitempty"`
	Summary *Summary                `yaml:"summary,omitempty"`
	Change  []wizardtypes.FieldSpec `yaml:"change,omitempty"`
}

type Summary struct {
	Title   string                    `yaml:"title"`
	Entries []wizardtypes.AnswerEntry `yaml:"entries"`
}

// Expectation converts s for the summary verifier.
func (s Summary) Expectation() summary.CardExpectation {
	return summary.CardExpectation{Title: s.Title, Entries: s.Entries}
}

// Default returns the built-in table for the demo wizard.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// Load reads a table from path, or the built-in table when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse flow table: %w", err)
	}
	if len(t.Flows) == 0 {
		return nil, errors.New("flow table has no flows")
	}
	return &t, nil
}

// Select returns the named flows in table order, or every flow when names
// is empty.
func (t *Table) Select(names ...string) ([]Flow, error) {
	if len(names) == 0 {
		return t.Flows, nil
	}
	var out []Flow
	for _, f := range t.Flows {
		if slices.Contains(names, f.Name) {
			out = append(out, f)
		}
	}
	for _, n := range names {
		if !slices.ContainsFunc(out, func(f Flow) bool { return f.Name == n }) {
			return nil, fmt.Errorf("flow %q is not in the table", n)
		}
	}
	return out, nil
}

// Validate checks that every variant resolves and every field spec is
// usable. It returns all problems joined.
func (t *Table) Validate(locator *stage.Locator) error {
	var errs []error
	seen := make(map[string]bool, len(t.Flows))
	for _, f := range t.Flows {
		if f.Name == "" {
			errs = append(errs, errors.New("flow without a name"))
		} else if seen[f.Name] {
			errs = append(errs, fmt.Errorf("duplicate flow %q", f.Name))
		}
		seen[f.Name] = true
		if f.Collection == "" {
			errs = append(errs, fmt.Errorf("flow %q: no collection", f.Name))
		}
		if len(f.Questions) == 0 {
			errs = append(errs, fmt.Errorf("flow %q: no questions", f.Name))
		}
		for i, q := range f.Questions {
			if _, err := locator.Question(q.Variant); err != nil {
				errs = append(errs, fmt.Errorf("flow %q question %d: %w", f.Name, i+1, err))
			}
			if len(q.Fields) == 0 {
				errs = append(errs, fmt.Errorf("flow %q question %s: no fields", f.Name, q.Variant))
			}
			specs := slices.Concat(q.Fields, q.Invalid, q.Change)
			for _, s := range specs {
				if err := s.Validate(); err != nil {
					errs = append(errs, fmt.Errorf("flow %q question %s: %w", f.Name, q.Variant, err))
				}
			}
			if len(q.Change) > 0 && q.Summary == nil {
				errs = append(errs, fmt.Errorf("flow %q question %s: change needs a summary card", f.Name, q.Variant))
			}
		}
	}
	return errors.Join(errs...)
}
