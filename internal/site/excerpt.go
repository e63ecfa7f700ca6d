package site

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// extractExcerpt returns the plain text of the first paragraph of rendered
// HTML, for use on listing pages. Malformed HTML degrades to an empty
// excerpt rather than an error; excerpts are presentation, not content.
func extractExcerpt(rendered []byte) string {
	root, err := html.Parse(bytes.NewReader(rendered))
	if err != nil {
		return ""
	}

	var para *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if para != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "p" {
			para = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(root)
	if para == nil {
		return ""
	}

	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(para)
	return strings.Join(strings.Fields(b.String()), " ")
}
