package document

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PositionAttr is the attribute every element node carries so selectors can
// address it unambiguously.
const PositionAttr = "position_id"

// Node is one element or text node in a document tree. Trees handed out as
// snapshots are treated as immutable; mutations clone first.
type Node struct {
	Tag      string // empty for text nodes
	Text     string // text nodes only
	Attrs    map[string]string
	Children []*Node
}

func (n *Node) IsText() bool {
	return n.Tag == ""
}

// PositionID returns the node's position_id attribute, or "".
func (n *Node) PositionID() string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[PositionAttr]
}

// Clone deep-copies the node.
func (n *Node) Clone() *Node {
	c := &Node{Tag: n.Tag, Text: n.Text}
	if n.Attrs != nil {
		c.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Equal reports deep structural equality, attributes included.
func (n *Node) Equal(other *Node) bool {
	if n.Tag != other.Tag || n.Text != other.Text {
		return false
	}
	if len(n.Attrs) != len(other.Attrs) {
		return false
	}
	for k, v := range n.Attrs {
		if other.Attrs[k] != v {
			return false
		}
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i, child := range n.Children {
		if !child.Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// writeHTML serializes the node. Attributes are emitted position_id first,
// then alphabetically, so output is deterministic.
func (n *Node) writeHTML(sb *strings.Builder, withPositionIDs bool) {
	if n.IsText() {
		sb.WriteString(html.EscapeString(n.Text))
		return
	}
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	if pid := n.PositionID(); pid != "" && withPositionIDs {
		sb.WriteString(` position_id="`)
		sb.WriteString(html.EscapeString(pid))
		sb.WriteByte('"')
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		if k != PositionAttr {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(n.Attrs[k]))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	for _, child := range n.Children {
		child.writeHTML(sb, withPositionIDs)
	}
	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteByte('>')
}

// OuterHTML serializes a single node.
func (n *Node) OuterHTML(withPositionIDs bool) string {
	var sb strings.Builder
	n.writeHTML(&sb, withPositionIDs)
	return sb.String()
}

// parseFragment parses markup into nodes, dropping whitespace-only text
// between top-level elements.
func parseFragment(markup string) ([]*Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	var nodes []*Node
	for _, p := range parsed {
		if n := convert(p); n != nil {
			if n.IsText() && strings.TrimSpace(n.Text) == "" {
				continue
			}
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

func convert(n *html.Node) *Node {
	switch n.Type {
	case html.TextNode:
		return &Node{Text: n.Data}
	case html.ElementNode:
		node := &Node{Tag: n.Data}
		if len(n.Attr) > 0 {
			node.Attrs = make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				node.Attrs[a.Key] = a.Val
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := convert(c); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node
	default:
		// comments, doctypes etc. have no place in a snapshot
		return nil
	}
}
