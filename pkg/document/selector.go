package document

import "strings"

// match locates a node inside its parent's child list. A nil parent means the
// node is a top-level root.
type match struct {
	parent *Node
	index  int
}

func (m match) node(s *Snapshot) *Node {
	if m.parent == nil {
		return s.roots[m.index]
	}
	return m.parent.Children[m.index]
}

func (m match) siblings(s *Snapshot) []*Node {
	if m.parent == nil {
		return s.roots
	}
	return m.parent.Children
}

func (m match) setSiblings(s *Snapshot, nodes []*Node) {
	if m.parent == nil {
		s.roots = nodes
	} else {
		m.parent.Children = nodes
	}
}

// resolve finds every node the selector addresses. A selector is either an
// exact position_id value or a bare tag name; the applier decides what to do
// with zero or multiple matches.
func resolve(s *Snapshot, selector string) []match {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil
	}
	var matches []match
	var walk func(parent *Node, children []*Node)
	walk = func(parent *Node, children []*Node) {
		for i, child := range children {
			if child.IsText() {
				continue
			}
			if child.PositionID() == selector || strings.EqualFold(child.Tag, selector) {
				matches = append(matches, match{parent: parent, index: i})
			}
			walk(child, child.Children)
		}
	}
	walk(nil, s.roots)
	return matches
}
