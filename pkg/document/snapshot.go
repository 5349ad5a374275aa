package document

import (
	"strings"

	"github.com/google/uuid"
)

// Snapshot is an immutable document tree value. Mutations never modify a
// snapshot in place: the applier clones, edits the clone, and returns a new
// snapshot, so a failed mutation leaves the caller's reference untouched.
type Snapshot struct {
	roots []*Node
}

// Parse builds a snapshot from its tree-as-text form. Element nodes missing a
// position_id get a fresh one so every element stays addressable.
func Parse(structure string) (*Snapshot, error) {
	roots, err := parseFragment(structure)
	if err != nil {
		return nil, err
	}
	for _, root := range roots {
		ensurePositionIDs(root)
	}
	return &Snapshot{roots: roots}, nil
}

func ensurePositionIDs(n *Node) {
	if !n.IsText() && n.PositionID() == "" {
		if n.Attrs == nil {
			n.Attrs = make(map[string]string, 1)
		}
		n.Attrs[PositionAttr] = uuid.New().String()
	}
	for _, child := range n.Children {
		ensurePositionIDs(child)
	}
}

// NewEmpty returns a snapshot with no elements, the baseline of a fresh
// session before any document_structure arrives.
func NewEmpty() *Snapshot {
	return &Snapshot{}
}

// Empty reports whether the snapshot has no elements.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.roots) == 0
}

// Roots returns the top-level nodes. Callers must not mutate them.
func (s *Snapshot) Roots() []*Node {
	return s.roots
}

// String renders the tree-as-text form sent back to the client.
func (s *Snapshot) String() string {
	var sb strings.Builder
	for _, root := range s.roots {
		root.writeHTML(&sb, true)
	}
	return sb.String()
}

// Equal reports structural equality of two snapshots.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if len(s.roots) != len(other.roots) {
		return false
	}
	for i, root := range s.roots {
		if !root.Equal(other.roots[i]) {
			return false
		}
	}
	return true
}

// clone deep-copies the snapshot prior to a mutation.
func (s *Snapshot) clone() *Snapshot {
	roots := make([]*Node, len(s.roots))
	for i, root := range s.roots {
		roots[i] = root.Clone()
	}
	return &Snapshot{roots: roots}
}

// LastPositionID returns the position id of the final top-level element, or
// "". Analysis uses it as the default append anchor.
func (s *Snapshot) LastPositionID() string {
	for i := len(s.roots) - 1; i >= 0; i-- {
		if !s.roots[i].IsText() {
			return s.roots[i].PositionID()
		}
	}
	return ""
}
