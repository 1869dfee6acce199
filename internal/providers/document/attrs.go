package document

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of the named attribute
func Attr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute
func SetAttr(n *html.Node, name, value string) {
	if n == nil {
		return
	}
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes the named attribute
func RemoveAttr(n *html.Node, name string) {
	if n == nil {
		return
	}
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == name
	})
}

// Classes returns the class list of n
func Classes(n *html.Node) []string {
	value, _ := Attr(n, "class")
	return strings.Fields(value)
}

// AddClass appends name to the class list when absent
func AddClass(n *html.Node, name string) {
	name = strings.TrimSpace(name)
	if n == nil || name == "" {
		return
	}
	classes := Classes(n)
	if slices.Contains(classes, name) {
		return
	}
	SetAttr(n, "class", strings.Join(append(classes, name), " "))
}

// RemoveClass drops every occurrence of name from the class list
func RemoveClass(n *html.Node, name string) {
	if n == nil {
		return
	}
	classes := slices.DeleteFunc(Classes(n), func(c string) bool { return c == name })
	if len(classes) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(classes, " "))
}

// TextContent concatenates all descendant text
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

// SetText replaces all children of n with a single text node
func SetText(n *html.Node, text string) {
	if n == nil {
		return
	}
	RemoveChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// RemoveChildren detaches every child of n
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// Contains reports whether node is root or one of its descendants
func Contains(root, node *html.Node) bool {
	if root == nil {
		return false
	}
	for n := node; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
