package removal

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// containerTags are the structurally meaningful ancestors a cart line can
// live in.
var containerTags = map[string]bool{
	"div":     true,
	"li":      true,
	"tr":      true,
	"section": true,
	"article": true,
}

// skippedParents hold text the user never sees; matches inside them would
// hijack unrelated containers (a JSON-LD block mentioning the identifier).
var skippedParents = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
}

// FindItemContainer locates the first text node (in document order) whose
// rendered text contains the identifier, then ascends to the nearest
// container-tag ancestor. Returns nil when the identifier has no DOM
// representation.
func FindItemContainer(doc *goquery.Document, identifier string) *html.Node {
	if strings.TrimSpace(identifier) == "" {
		return nil
	}
	root := doc.Get(0)
	if root == nil {
		return nil
	}

	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && skippedParents[n.Data] {
			return
		}
		if n.Type == html.TextNode && strings.Contains(n.Data, identifier) {
			if c := nearestContainer(n); c != nil {
				found = c
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return found
}

func nearestContainer(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && containerTags[p.Data] {
			return p
		}
	}
	return nil
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttrVal(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

// nodeText renders the concatenated text content of a subtree.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

// eachElement visits every descendant element of n in document order until
// visit returns false.
func eachElement(n *html.Node, visit func(*html.Node) bool) {
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode {
				if !visit(child) {
					return false
				}
			}
			if !walk(child) {
				return false
			}
		}
		return true
	}
	walk(n)
}
