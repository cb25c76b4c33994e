// Package htmltext reduces an HTML document to its visible text content so
// it can be handed to the text-understanding service.
package htmltext

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// skippedElements are structural regions that carry navigation, scripting or
// styling rather than page content. Their entire subtrees are dropped.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"noscript": true,
}

// Extract parses the given HTML document and returns its visible text,
// one trimmed line per text node, newline-separated.
//
// The parser is lenient: malformed markup never fails, it just yields
// whatever text the tree still contains. An empty or text-free document
// yields "".
func Extract(doc []byte) string {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		// html.Parse only fails on reader errors; a bytes.Reader cannot
		// produce one, but keep the fallback anyway.
		return ""
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				lines = append(lines, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(lines, "\n")
}

// Truncate bounds s to max bytes, appending an ellipsis marker when content
// was dropped. The cut never splits a multibyte rune; it backs up to the
// nearest rune boundary so the result stays valid UTF-8. Model context
// limits make this necessary before delegating to the text-understanding
// service.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
