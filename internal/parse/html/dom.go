// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus/internal/parse/html

package html

import (
	"strings"

	"golang.org/x/net/html"
)

// findAttr returns an attribute's value and whether it was present.
func findAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// hasClass reports whether n's class attribute, split on whitespace, is
// exactly the set of classes in want (order-insensitive, matching
// BeautifulSoup's class_="a b c" exact-set semantics).
func hasClass(n *html.Node, want string) bool {
	classAttr, ok := findAttr(n, "class")
	if !ok {
		return false
	}
	have := strings.Fields(classAttr)
	wantFields := strings.Fields(want)
	if len(have) != len(wantFields) {
		return false
	}
	haveSet := make(map[string]bool, len(have))
	for _, c := range have {
		haveSet[c] = true
	}
	for _, c := range wantFields {
		if !haveSet[c] {
			return false
		}
	}
	return true
}

// findAllByClass returns every descendant element node of the given tag
// whose class attribute exactly matches want.
func findAllByClass(n *html.Node, tag, want string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.ElementNode && cur.Data == tag && hasClass(cur, want) {
			out = append(out, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// findFirstByClass returns the first descendant element node of the
// given tag whose class attribute exactly matches want, or nil.
func findFirstByClass(n *html.Node, tag, want string) *html.Node {
	nodes := findAllByClass(n, tag, want)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// findFirstByAttr returns the first descendant element node of the
// given tag carrying attribute name=value, or nil.
func findFirstByAttr(n *html.Node, tag, name, value string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if found != nil {
			return
		}
		if cur.Type == html.ElementNode && cur.Data == tag {
			if v, ok := findAttr(cur, name); ok && v == value {
				found = cur
				return
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

// findMetaContent returns the content attribute of the first <meta>
// matching attrName=attrValue.
func findMetaContent(doc *html.Node, attrName, attrValue string) (string, bool) {
	n := findFirstByAttr(doc, "meta", attrName, attrValue)
	if n == nil {
		return "", false
	}
	v, ok := findAttr(n, "content")
	return v, ok
}

// textContent concatenates all text node descendants, trimmed, matching
// BeautifulSoup's get_text(strip=True) for the common case of simple
// inline content.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
