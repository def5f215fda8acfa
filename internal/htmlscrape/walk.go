package htmlscrape

import (
	"strings"

	"golang.org/x/net/html"
)

// attr returns the value of the named attribute on n, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// findByClass does a depth-first search for the first element node
// carrying the given CSS class.
func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

// findAllByClass returns every element node (in document order) carrying
// the given CSS class.
func findAllByClass(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// findTag does a depth-first search for the first element node with the
// given tag name.
func findTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findAllTag returns every descendant element node with the given tag
// name, in document order.
func findAllTag(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

// directChildTags returns n's immediate children with the given tag name
// (non-recursive), mirroring BeautifulSoup's find_all(recursive=False).
func directChildTags(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

// nextSiblingTag returns n's next sibling if it is an element with the
// given tag name, skipping text/comment nodes in between.
func nextSiblingTag(n *html.Node, tag string) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			if s.Data == tag {
				return s
			}
			return nil
		}
	}
	return nil
}

// findPrecedingTag walks backward through preceding siblings and ancestors'
// preceding siblings (document order predecessor search), mirroring
// BeautifulSoup's find_previous, for the given tag name.
func findPrecedingTag(n *html.Node, tag string) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		for s := cur.PrevSibling; s != nil; s = s.PrevSibling {
			if found := lastTagIn(s, tag); found != nil {
				return found
			}
		}
	}
	return nil
}

// lastTagIn returns the last (document-order) descendant-or-self element
// with the given tag name within n's subtree.
func lastTagIn(n *html.Node, tag string) *html.Node {
	var last *html.Node
	if n.Type == html.ElementNode && n.Data == tag {
		last = n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := lastTagIn(c, tag); found != nil {
			last = found
		}
	}
	return last
}

// textContent concatenates all text node descendants of n.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb []byte
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb = append(sb, textContent(c)...)
	}
	return string(sb)
}
