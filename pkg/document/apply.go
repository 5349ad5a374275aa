package document

import (
	"ai-docedit-be/pkg/editerr"

	"github.com/google/uuid"
)

// Actions and relative positions accepted by Apply.
const (
	ActionInsert = "INSERT"
	ActionDelete = "DELETE"
	ActionEdit   = "EDIT"

	PositionBefore = "BEFORE"
	PositionAfter  = "AFTER"
)

// MutationRequest describes one structural change against a snapshot.
type MutationRequest struct {
	Action           string
	Target           string // selector: position_id value or tag name
	ChunkID          string // INSERT/EDIT only
	RelativePosition string // INSERT only, BEFORE or AFTER
}

// Chunk is the applier's view of one unit of generated content. The full
// chunk lifecycle lives with the stores; the applier only needs the markup
// and the placeholder flag.
type Chunk struct {
	ID          string
	Content     string
	Placeholder bool
}

// ChunkResolver is the slice of the chunk store the applier needs.
type ChunkResolver interface {
	Lookup(id string) (Chunk, bool)
	MarkApplied(id string) error
}

// Applier applies mutation requests copy-on-write: the input snapshot is
// never modified, and on failure the caller's reference stays valid.
type Applier struct {
	chunks ChunkResolver
}

func NewApplier(chunks ChunkResolver) *Applier {
	return &Applier{chunks: chunks}
}

// Apply validates the request, resolves the target and performs the action.
// It returns the new snapshot on success; on any failure the original
// snapshot is returned unchanged alongside the error.
func (a *Applier) Apply(snap *Snapshot, req MutationRequest) (*Snapshot, error) {
	chunk, err := a.validate(req)
	if err != nil {
		return snap, err
	}

	next := snap.clone()
	matches := resolve(next, req.Target)
	switch {
	case len(matches) == 0:
		return snap, editerr.New(editerr.KindTargetNotFound, "selector %q matched no nodes", req.Target)
	case len(matches) > 1:
		return snap, editerr.New(editerr.KindAmbiguousTarget, "selector %q matched %d nodes", req.Target, len(matches))
	}
	target := matches[0]

	switch req.Action {
	case ActionInsert:
		if err := a.insert(next, target, chunk, req.RelativePosition); err != nil {
			return snap, err
		}
	case ActionDelete:
		siblings := target.siblings(next)
		out := make([]*Node, 0, len(siblings)-1)
		out = append(out, siblings[:target.index]...)
		out = append(out, siblings[target.index+1:]...)
		target.setSiblings(next, out)
	case ActionEdit:
		if err := a.edit(next, target, chunk); err != nil {
			return snap, err
		}
	}

	if chunk != nil {
		if err := a.chunks.MarkApplied(chunk.ID); err != nil {
			return snap, editerr.Wrap(editerr.KindInvalidActionParameters, err, "chunk %s not applicable", chunk.ID)
		}
	}
	return next, nil
}

// validate checks parameters before any target resolution and resolves the
// chunk for content-bearing actions.
func (a *Applier) validate(req MutationRequest) (*Chunk, error) {
	switch req.Action {
	case ActionInsert, ActionEdit:
		if req.ChunkID == "" {
			return nil, editerr.New(editerr.KindInvalidActionParameters, "%s requires a chunk id", req.Action)
		}
		chunk, found := a.chunks.Lookup(req.ChunkID)
		if !found {
			return nil, editerr.New(editerr.KindInvalidActionParameters, "chunk %s not found", req.ChunkID)
		}
		if chunk.Placeholder {
			return nil, editerr.New(editerr.KindInvalidActionParameters, "chunk %s is a placeholder and cannot be applied", req.ChunkID)
		}
		if req.Action == ActionInsert && req.RelativePosition != PositionBefore && req.RelativePosition != PositionAfter {
			return nil, editerr.New(editerr.KindInvalidActionParameters, "INSERT requires relative_position BEFORE or AFTER, got %q", req.RelativePosition)
		}
		return &chunk, nil
	case ActionDelete:
		if req.ChunkID != "" {
			return nil, editerr.New(editerr.KindInvalidActionParameters, "DELETE takes no chunk id")
		}
		return nil, nil
	default:
		return nil, editerr.New(editerr.KindInvalidActionParameters, "unknown action %q", req.Action)
	}
}

func (a *Applier) insert(next *Snapshot, target match, chunk *Chunk, position string) error {
	fresh, err := a.fragment(chunk)
	if err != nil {
		return err
	}
	siblings := target.siblings(next)
	at := target.index
	if position == PositionAfter {
		at++
	}
	out := make([]*Node, 0, len(siblings)+len(fresh))
	out = append(out, siblings[:at]...)
	out = append(out, fresh...)
	out = append(out, siblings[at:]...)
	target.setSiblings(next, out)
	return nil
}

// edit swaps the matched node for the chunk's nodes. The first replacement
// node inherits the target's position id so the location stays addressable.
func (a *Applier) edit(next *Snapshot, target match, chunk *Chunk) error {
	fresh, err := a.fragment(chunk)
	if err != nil {
		return err
	}
	if pid := target.node(next).PositionID(); pid != "" && !fresh[0].IsText() {
		fresh[0].Attrs[PositionAttr] = pid
	}
	siblings := target.siblings(next)
	out := make([]*Node, 0, len(siblings)+len(fresh)-1)
	out = append(out, siblings[:target.index]...)
	out = append(out, fresh...)
	out = append(out, siblings[target.index+1:]...)
	target.setSiblings(next, out)
	return nil
}

// fragment parses the chunk content and stamps fresh position ids onto it.
func (a *Applier) fragment(chunk *Chunk) ([]*Node, error) {
	nodes, err := parseFragment(chunk.Content)
	if err != nil || len(nodes) == 0 {
		return nil, editerr.New(editerr.KindInvalidActionParameters, "chunk %s does not parse to any nodes", chunk.ID)
	}
	for _, n := range nodes {
		stampPositionIDs(n)
	}
	return nodes, nil
}

func stampPositionIDs(n *Node) {
	if !n.IsText() {
		if n.Attrs == nil {
			n.Attrs = make(map[string]string, 1)
		}
		n.Attrs[PositionAttr] = uuid.New().String()
	}
	for _, child := range n.Children {
		stampPositionIDs(child)
	}
}
