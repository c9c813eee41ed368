package field

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/dom"
	"github.com/copyleftdev/stagecheck/internal/logging"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

// Driver fills inputs on the current stage of a page.
type Driver struct {
	page   browser.Page
	logger *zap.Logger
	stage  string
}

// NewDriver returns a driver for page; ForStage names the stage in errors.
func NewDriver(page browser.Page, logger *zap.Logger) *Driver {
	return &Driver{page: page, logger: logging.OrNop(logger)}
}

// ForStage returns a driver whose errors name the given stage.
func (d *Driver) ForStage(stage string) *Driver {
	c := *d
	c.stage = stage
	c.logger = d.logger.With(zap.String("stage", stage))
	return &c
}

// FillText replaces the content of the nth text field with value.
func (d *Driver) FillText(ctx context.Context, ordinal int, value string) error {
	sel, err := d.resolve(ctx, ordinal, dom.TextInputCandidates(ordinal))
	if err != nil {
		return err
	}
	if err := d.page.Fill(ctx, sel, value); err != nil {
		return d.wrap(err, ordinal, sel)
	}
	d.logger.Debug("filled text field", zap.Int("ordinal", ordinal), zap.String("selector", sel))
	return nil
}

// SelectRadio chooses the option with the given value in the first group.
func (d *Driver) SelectRadio(ctx context.Context, value string) error {
	return d.SelectRadioAt(ctx, 1, value)
}

// SelectRadioAt chooses the option with the given value in the nth group.
func (d *Driver) SelectRadioAt(ctx context.Context, ordinal int, value string) error {
	sel, err := d.resolve(ctx, ordinal, dom.RadioInputCandidates(ordinal, value))
	if err != nil {
		return err
	}
	if err := d.page.Click(ctx, sel); err != nil {
		return d.wrap(err, ordinal, sel)
	}
	d.logger.Debug("selected radio", zap.Int("ordinal", ordinal), zap.String("value", value))
	return nil
}

// SelectRadioByLabel chooses the radio whose visible label text is label.
// Labels and radios pair up by document position.
func (d *Driver) SelectRadioByLabel(ctx context.Context, label string) error {
	labels, err := d.page.QueryAll(ctx, dom.EmbarkLabelSelector)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(labels, func(el browser.Element) bool { return el.Text == label })
	if idx < 0 {
		return &wizardtypes.FieldNotFound{Stage: d.stage, Ordinal: 1, Selector: fmt.Sprintf("%s[text=%q]", dom.EmbarkLabelSelector, label)}
	}

	radios, err := d.page.QueryAll(ctx, dom.EmbarkRadioSelector)
	if err != nil {
		return err
	}
	if idx >= len(radios) {
		return &wizardtypes.FieldNotFound{Stage: d.stage, Ordinal: idx + 1, Selector: dom.EmbarkRadioSelector, Matches: len(radios)}
	}

	radio := radios[idx]
	var sel string
	switch {
	case radio.Attr("value") != "":
		sel = dom.EmbarkRadio(radio.Attr("value"))
	case radio.Attr("id") != "":
		sel = dom.RadioByID(radio.Attr("id"))
	default:
		return &wizardtypes.FieldNotFound{Stage: d.stage, Ordinal: idx + 1, Selector: dom.EmbarkRadioSelector}
	}
	if err := d.page.Click(ctx, sel); err != nil {
		return d.wrap(err, idx+1, sel)
	}
	d.logger.Debug("selected radio by label", zap.String("label", label), zap.String("selector", sel))
	return nil
}

// Apply fills every spec in order and stops at the first failure.
func (d *Driver) Apply(ctx context.Context, specs ...wizardtypes.FieldSpec) error {
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return err
		}
		var err error
		switch spec.Kind {
		case wizardtypes.FieldText:
			err = d.FillText(ctx, spec.Ordinal, spec.Value)
		case wizardtypes.FieldRadio:
			err = d.SelectRadioAt(ctx, spec.Ordinal, spec.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// resolve returns the first candidate matching exactly one element. A
// candidate matching several is ambiguous and fails at once; only an empty
// match moves on to the next candidate.
func (d *Driver) resolve(ctx context.Context, ordinal int, candidates []string) (string, error) {
	for _, sel := range candidates {
		els, err := d.page.QueryAll(ctx, sel)
		if err != nil {
			return "", err
		}
		switch len(els) {
		case 0:
			continue
		case 1:
			return sel, nil
		default:
			return "", &wizardtypes.FieldNotFound{Stage: d.stage, Ordinal: ordinal, Selector: sel, Matches: len(els)}
		}
	}
	return "", &wizardtypes.FieldNotFound{Stage: d.stage, Ordinal: ordinal, Selector: candidates[0]}
}

func (d *Driver) wrap(err error, ordinal int, sel string) error {
	if errors.Is(err, browser.ErrNoMatch) {
		return &wizardtypes.FieldNotFound{Stage: d.stage, Ordinal: ordinal, Selector: sel}
	}
	return fmt.Errorf("field %d on %s: %w", ordinal, d.stage, err)
}
