package directory

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// VisibleText returns every text node of the page joined with single spaces,
// in document order. Script and style contents are text nodes too and are
// included; comments and attribute values are not.
//
// Text nodes are kept as-is apart from the separator, so a phone number
// split across two inline elements ("305-555-" and "1234") reads as
// "305-555- 1234" and still matches the optional separator in the pattern.
func VisibleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(parts, " "), nil
}
