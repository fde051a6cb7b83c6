package render

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// CheckFootnoteAnchors parses rendered HTML and verifies that every footnote
// reference link resolves to a footnote definition anchor. Goldmark emits
// references as hrefs "#fn:label" and definitions with ids "fn:label"; a
// reference without a matching id means a citation was lost in rendering.
func CheckFootnoteAnchors(rendered []byte) error {
	doc, err := html.Parse(bytes.NewReader(rendered))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	ids := make(map[string]bool)
	var refs []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, attr := range n.Attr {
				switch {
				case attr.Key == "id" && strings.HasPrefix(attr.Val, "fn:"):
					ids[attr.Val] = true
				case n.Data == "a" && attr.Key == "href" && strings.HasPrefix(attr.Val, "#fn:"):
					refs = append(refs, strings.TrimPrefix(attr.Val, "#"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, ref := range refs {
		if !ids[ref] {
			return fmt.Errorf("footnote reference %q has no definition anchor", ref)
		}
	}
	return nil
}
