package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/copyleftdev/stagecheck/internal/wizardtypes"
)

// ParseAnswerCards extracts the answer cards of a Debark page in document
// order. A card is a .sprocket element whose h2 is directly followed by a dl.
// The error summary shares the sprocket class and is never a card.
func ParseAnswerCards(htmlContent string) ([]wizardtypes.AnswerCard, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	var cards []wizardtypes.AnswerCard
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "sprocket") && !hasClass(n, "error-summary") {
			if card, ok := parseCard(n); ok {
				card.Ordinal = len(cards) + 1
				cards = append(cards, card)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return cards, nil
}

func parseCard(n *html.Node) (wizardtypes.AnswerCard, bool) {
	h2 := findFirst(n, atom.H2)
	if h2 == nil {
		return wizardtypes.AnswerCard{}, false
	}
	dl := nextElementSibling(h2)
	if dl == nil || dl.DataAtom != atom.Dl {
		return wizardtypes.AnswerCard{}, false
	}

	card := wizardtypes.AnswerCard{Title: TextContent(h2)}
	var current *wizardtypes.AnswerEntry
	flush := func() {
		if current != nil {
			card.Entries = append(card.Entries, *current)
			current = nil
		}
	}

	for _, row := range rowsOf(dl) {
		switch {
		case row.DataAtom == atom.Dt:
			flush()
			current = &wizardtypes.AnswerEntry{Label: TextContent(row)}
		case row.DataAtom == atom.Dd:
			if current == nil {
				current = &wizardtypes.AnswerEntry{}
			}
			if hasClass(row, "change-answer") || (findFirst(row, atom.A) != nil && !hasClass(row, "answer-value")) {
				current.ChangeLabel = TextContent(row)
			} else {
				current.Value = TextContent(row)
			}
		}
	}
	flush()

	if len(card.Entries) > 0 {
		card.Value = card.Entries[0].Value
		card.ChangeLabel = card.Entries[0].ChangeLabel
	}
	return card, true
}

// rowsOf returns the dt and dd elements of a description list, including
// those wrapped in div groups.
func rowsOf(dl *html.Node) []*html.Node {
	var rows []*html.Node
	for c := dl.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Dt, atom.Dd:
			rows = append(rows, c)
		case atom.Div:
			rows = append(rows, rowsOf(c)...)
		}
	}
	return rows
}

// TextContent returns the node's text with whitespace runs collapsed.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			return slices.Contains(strings.Fields(a.Val), class)
		}
	}
	return false
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}
