package suite

import (
	"context"
	"fmt"

	"github.com/copyleftdev/stagecheck/internal/dom"
	"github.com/copyleftdev/stagecheck/internal/flow"
	"github.com/copyleftdev/stagecheck/internal/summary"
	"github.com/copyleftdev/stagecheck/internal/table"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

// Check is one ordered step of a scenario.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Plan turns a flow into its ordered checks. Later checks rely on the page
// state earlier ones leave behind.
func Plan(f table.Flow, embark table.EmbarkExpectation, r *flow.Runner, v *summary.Verifier) ([]Check, error) {
	loc := r.Locator()
	stages := make([]wizardtypes.StageDescriptor, len(f.Questions))
	for i, q := range f.Questions {
		s, err := loc.Question(q.Variant)
		if err != nil {
			return nil, fmt.Errorf("flow %s: %w", f.Name, err)
		}
		stages[i] = s
	}
	debark, err := loc.Resolve(wizardtypes.StageDebark, "")
	if err != nil {
		return nil, err
	}
	confirm, err := loc.Resolve(wizardtypes.StageConfirm, "")
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("flow %s has no questions", f.Name)
	}

	checks := []Check{
		{Name: "embark structure", Run: func(ctx context.Context) error {
			if _, err := r.Enter(ctx, wizardtypes.StageEmbark, ""); err != nil {
				return err
			}
			if embark.Heading != "" {
				if err := r.ExpectHeading(ctx, embark.Heading); err != nil {
					return err
				}
			}
			if embark.SubmitLabel != "" {
				if err := r.ExpectText(ctx, dom.SubmitSelector, embark.SubmitLabel); err != nil {
					return err
				}
			}
			legends := []string{dom.EmbarkLegend, dom.CollectionLegend}
			for i, want := range embark.Legends {
				if i >= len(legends) {
					break
				}
				if err := r.ExpectText(ctx, legends[i], want); err != nil {
					return err
				}
			}
			return nil
		}},
		{Name: "choose " + f.Collection, Run: func(ctx context.Context) error {
			if err := r.Fields().SelectRadioByLabel(ctx, f.Collection); err != nil {
				return err
			}
			t, err := r.Submit(ctx)
			if err != nil {
				return err
			}
			return r.ExpectAdvanced(ctx, t, stages[0])
		}},
	}

	for i, q := range f.Questions {
		next := debark
		if i+1 < len(stages) {
			next = stages[i+1]
		}
		checks = append(checks, Check{Name: "question " + q.Variant, Run: func(ctx context.Context) error {
			if len(q.Invalid) > 0 {
				if err := r.Fill(ctx, q.Invalid...); err != nil {
					return err
				}
				t, err := r.Submit(ctx)
				if err != nil {
					return err
				}
				if err := r.ExpectRejected(t); err != nil {
					return err
				}
			}
			if err := r.Fill(ctx, q.Fields...); err != nil {
				return err
			}
			t, err := r.Submit(ctx)
			if err != nil {
				return err
			}
			return r.ExpectAdvanced(ctx, t, next)
		}})
	}

	checks = append(checks, Check{Name: "debark summary", Run: func(ctx context.Context) error {
		for i, q := range f.Questions {
			if q.Summary == nil {
				continue
			}
			if err := v.ExpectCard(ctx, i+1, q.Summary.Expectation()); err != nil {
				return err
			}
		}
		return nil
	}})

	for i, q := range f.Questions {
		if len(q.Change) == 0 {
			continue
		}
		checks = append(checks, Check{Name: "change " + q.Variant, Run: func(ctx context.Context) error {
			_, err := v.ChangeCard(ctx, i+1, q.Change...)
			return err
		}})
	}

	checks = append(checks,
		Check{Name: "submit summary", Run: func(ctx context.Context) error {
			_, err := v.Submit(ctx)
			return err
		}},
		Check{Name: "confirm", Run: func(ctx context.Context) error {
			return r.ExpectHeading(ctx, confirm.Heading)
		}},
	)
	return checks, nil
}
