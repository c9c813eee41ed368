package field

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/stagecheck/internal/browser"
	"github.com/copyleftdev/stagecheck/internal/browser/mocks"
	"github.com/copyleftdev/stagecheck/internal/dom"
	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

const base = "https://localhost:5001"

func textEl() browser.Element {
	return browser.Element{Attributes: map[string]string{"type": "text"}}
}

func TestFillTextByOrdinal(t *testing.T) {
	page := mocks.NewFakePage(base + "/array/array-array-array")
	for i := 1; i <= 4; i++ {
		page.SetElements(dom.TextInput(i), textEl())
	}
	d := NewDriver(page, nil).ForStage("Array (Array - Array)")

	require.NoError(t, d.Apply(context.Background(),
		wizardtypes.FieldSpec{Kind: wizardtypes.FieldText, Ordinal: 1, Value: "string"},
		wizardtypes.FieldSpec{Kind: wizardtypes.FieldText, Ordinal: 2, Value: "1"},
		wizardtypes.FieldSpec{Kind: wizardtypes.FieldText, Ordinal: 3, Value: "true"},
		wizardtypes.FieldSpec{Kind: wizardtypes.FieldText, Ordinal: 4, Value: "null"},
	))

	assert.Equal(t, "string", page.Filled[dom.TextInput(1)])
	assert.Equal(t, "1", page.Filled[dom.TextInput(2)])
	assert.Equal(t, "true", page.Filled[dom.TextInput(3)])
	assert.Equal(t, "null", page.Filled[dom.TextInput(4)])
}

func TestFillTextFallsBackForFirstOrdinal(t *testing.T) {
	page := mocks.NewFakePage(base + "/string/string")
	page.SetElements(`.cog input[type="text"]`, textEl())
	d := NewDriver(page, nil).ForStage("String")

	require.NoError(t, d.FillText(context.Background(), 1, "string"))
	assert.Equal(t, "string", page.Filled[`.cog input[type="text"]`])
}

func TestFillTextMissingOrdinal(t *testing.T) {
	page := mocks.NewFakePage(base + "/number/number")
	page.SetElements(dom.TextInput(1), textEl())
	d := NewDriver(page, nil).ForStage("Number")

	err := d.FillText(context.Background(), 2, "1")
	var fnf *wizardtypes.FieldNotFound
	require.ErrorAs(t, err, &fnf)
	assert.Equal(t, 2, fnf.Ordinal)
	assert.Equal(t, "Number", fnf.Stage)
	assert.Equal(t, dom.TextInput(2), fnf.Selector)
	assert.Empty(t, page.Filled, "nothing is filled when the field is missing")
}

func TestFillTextAmbiguous(t *testing.T) {
	page := mocks.NewFakePage(base + "/x")
	page.SetElements(`.cog input[type="text"]`, textEl(), textEl())
	d := NewDriver(page, nil)

	err := d.FillText(context.Background(), 1, "v")
	var fnf *wizardtypes.FieldNotFound
	require.ErrorAs(t, err, &fnf)
	assert.Equal(t, 2, fnf.Matches)
}

func TestSelectRadio(t *testing.T) {
	page := mocks.NewFakePage(base + "/boolean/boolean-enum")
	radio := browser.Element{Attributes: map[string]string{"type": "radio", "value": "0"}}
	page.SetElements(`.cog input[type="radio"][value="0"]`, radio)
	d := NewDriver(page, nil)

	require.NoError(t, d.SelectRadio(context.Background(), "0"))
	assert.Equal(t, []string{`.cog input[type="radio"][value="0"]`}, page.Clicks)

	err := d.SelectRadio(context.Background(), "7")
	assert.ErrorIs(t, err, wizardtypes.ErrFieldNotFound)
}

func TestSelectRadioByLabel(t *testing.T) {
	page := mocks.NewFakePage(base + "/embark-stage")
	page.SetElements(dom.EmbarkLabelSelector,
		browser.Element{Text: "String"}, browser.Element{Text: "Number"}, browser.Element{Text: "Boolean"})
	radios := []browser.Element{
		{Attributes: map[string]string{"value": "string"}},
		{Attributes: map[string]string{"value": "number"}},
		{Attributes: map[string]string{"id": "collection-2"}},
	}
	page.SetElements(dom.EmbarkRadioSelector, radios...)
	page.SetElements(dom.EmbarkRadio("number"), radios[1])
	page.SetElements(dom.RadioByID("collection-2"), radios[2])

	d := NewDriver(page, nil).ForStage("Embark")
	require.NoError(t, d.SelectRadioByLabel(context.Background(), "Number"))
	require.NoError(t, d.SelectRadioByLabel(context.Background(), "Boolean"))
	assert.Equal(t, []string{dom.EmbarkRadio("number"), dom.RadioByID("collection-2")}, page.Clicks)

	err := d.SelectRadioByLabel(context.Background(), "Object")
	assert.ErrorIs(t, err, wizardtypes.ErrFieldNotFound)
}

func TestApplyRejectsInvalidSpec(t *testing.T) {
	d := NewDriver(mocks.NewFakePage(base), nil)
	err := d.Apply(context.Background(), wizardtypes.FieldSpec{Kind: wizardtypes.FieldText, Ordinal: 0})
	assert.Error(t, err)
}

func TestFillPropagatesPageErrors(t *testing.T) {
	page := mocks.NewFakePage(base + "/string/string")
	page.SetElements(dom.TextInput(1), textEl())
	page.OnFill = func(selector, value string) error { return errors.New("target crashed") }
	d := NewDriver(page, nil).ForStage("String")

	err := d.FillText(context.Background(), 1, "string")
	require.Error(t, err)
	assert.NotErrorIs(t, err, wizardtypes.ErrFieldNotFound)
	assert.Contains(t, err.Error(), "target crashed")
}
