package dom

import (
	"fmt"
	"strings"
)

// Page structure shared by every wizard stage.
const (
	HeadingSelector      = "h1"
	FormSelector         = "form"
	SubmitSelector       = `form button[type="submit"]`
	FieldContainer       = ".cog"
	ErrorSummarySelector = ".sprocket.error-summary"
	ErrorMessageSelector = ".cog .error-message"
)

// Resolved markers. The app adds the "resolved" class once a stage has
// finished rendering its state.
const (
	QuestionResolvedMarker = ".omega.resolved"
	DebarkResolvedMarker   = ".debark.resolved"
	ConfirmResolvedMarker  = ".confirm.resolved"
	AnyResolvedMarker      = QuestionResolvedMarker + ", " + DebarkResolvedMarker + ", " + ConfirmResolvedMarker
)

// Embark and summary structure.
const (
	EmbarkRadioSelector = `.cog input[type="radio"]`
	EmbarkLegend        = "body form fieldset > legend"
	CollectionLegend    = "body form fieldset fieldset > legend"
	EmbarkLabelSelector = ".cog label .text-content"
	SummaryCardSelector = ".sprocket"
)

// TextInput addresses the text input of the nth field container.
func TextInput(ordinal int) string {
	return fmt.Sprintf(`%s:nth-of-type(%d) input[type="text"]`, FieldContainer, ordinal)
}

// TextInputCandidates lists selectors to try, most specific first. Pages with
// a single field do not always render their container as the first of its
// type, so ordinal 1 falls back to the unscoped input.
func TextInputCandidates(ordinal int) []string {
	c := []string{TextInput(ordinal)}
	if ordinal == 1 {
		c = append(c, FieldContainer+` input[type="text"]`)
	}
	return c
}

// RadioInput addresses the radio with the given value in the nth container.
func RadioInput(ordinal int, value string) string {
	return fmt.Sprintf(`%s:nth-of-type(%d) input[type="radio"][value=%s]`, FieldContainer, ordinal, cssString(value))
}

// RadioInputCandidates lists RadioInput and, for ordinal 1, looser fallbacks.
func RadioInputCandidates(ordinal int, value string) []string {
	c := []string{RadioInput(ordinal, value)}
	if ordinal == 1 {
		c = append(c,
			fmt.Sprintf(`%s input[type="radio"][value=%s]`, FieldContainer, cssString(value)),
			fmt.Sprintf(`input[type="radio"][value=%s]`, cssString(value)),
		)
	}
	return c
}

// RadioByID addresses a radio through the id its label points at.
func RadioByID(id string) string {
	return fmt.Sprintf(`input[type="radio"][id=%s]`, cssString(id))
}

func SummaryCard(ordinal int) string {
	return fmt.Sprintf("%s:nth-of-type(%d)", SummaryCardSelector, ordinal)
}

func SummaryTitle(ordinal int) string {
	return SummaryCard(ordinal) + " h2"
}

// ChangeLink is the anchor that reopens the question behind a card.
func ChangeLink(ordinal int) string {
	return SummaryCard(ordinal) + " h2 + dl dd a"
}

// cssString quotes s as a CSS string literal.
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}

// EmbarkRadio addresses a collection radio by its value.
func EmbarkRadio(value string) string {
	return fmt.Sprintf(`%s[value=%s]`, EmbarkRadioSelector, cssString(value))
}
