package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Tags kept in a snapshot. The value says whether the tag gets a closing tag.
var snapshotTags = map[string]bool{
	"html": true, "body": true, "main": true, "section": true, "header": true, "footer": true,
	"h1": true, "h2": true, "h3": true,
	"p": true, "div": true, "span": true, "br": false,
	"ul": true, "ol": true, "li": true,
	"dl": true, "dt": true, "dd": true,
	"a": true, "button": true, "input": false, "textarea": true, "select": true, "option": true,
	"label": true, "form": true, "fieldset": true, "legend": true,
}

var snapshotAttrs = map[string]bool{
	"id": true, "class": true, "href": true,
	"type": true, "name": true, "value": true,
	"checked": true, "disabled": true, "for": true,
	"role": true, "aria-invalid": true, "aria-describedby": true,
}

// always written even when empty
var snapshotFlags = map[string]bool{
	"value": true, "checked": true, "disabled": true,
}

// Simplify reduces a page to the structure that matters when a check fails:
// headings, forms, fields, error messages and summary rows. Scripts, styles
// and the head are dropped.
func Simplify(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := writeSnapshot(&buf, doc); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func writeSnapshot(w io.Writer, n *html.Node) error {
	switch n.Type {
	case html.ErrorNode, html.CommentNode, html.DoctypeNode:
		return nil
	case html.TextNode:
		if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
			_, err := io.WriteString(w, html.EscapeString(trimmed)+" ")
			return err
		}
		return nil
	case html.ElementNode:
		switch n.Data {
		case "head", "script", "style", "noscript", "svg", "template":
			return nil
		}
	}

	closing, keep := snapshotTags[n.Data]
	keep = keep && n.Type == html.ElementNode

	if keep {
		if _, err := io.WriteString(w, "<"+n.Data); err != nil {
			return err
		}
		for _, a := range n.Attr {
			if !snapshotAttrs[a.Key] {
				continue
			}
			val := strings.TrimSpace(a.Val)
			if val == "" && !snapshotFlags[a.Key] {
				continue
			}
			if _, err := io.WriteString(w, " "+a.Key+`="`+html.EscapeString(val)+`"`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, ">"); err != nil {
			return err
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := writeSnapshot(w, c); err != nil {
			return err
		}
	}

	if keep && closing {
		if _, err := io.WriteString(w, "</"+n.Data+">"); err != nil {
			return err
		}
	}
	return nil
}
