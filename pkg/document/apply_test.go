package document

import (
	"errors"
	"strings"
	"testing"

	"ai-docedit-be/pkg/editerr"

	"github.com/google/uuid"
)

type fakeChunks struct {
	chunks  map[string]Chunk
	applied []string
}

func newFakeChunks(chunks ...Chunk) *fakeChunks {
	f := &fakeChunks{chunks: make(map[string]Chunk)}
	for _, c := range chunks {
		f.chunks[c.ID] = c
	}
	return f
}

func (f *fakeChunks) Lookup(id string) (Chunk, bool) {
	c, ok := f.chunks[id]
	return c, ok
}

func (f *fakeChunks) MarkApplied(id string) error {
	if _, ok := f.chunks[id]; !ok {
		return errors.New("chunk not found")
	}
	f.applied = append(f.applied, id)
	return nil
}

func newChunk(content string) Chunk {
	return Chunk{ID: uuid.New().String(), Content: content}
}

func mustParse(t *testing.T, structure string) *Snapshot {
	t.Helper()
	snap, err := Parse(structure)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", structure, err)
	}
	return snap
}

func TestApplyInsertAfter(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>first</span></p><p position_id="b"><span>last</span></p>`)
	chunk := newChunk(`<p><span>middle</span></p>`)
	applier := NewApplier(newFakeChunks(chunk))

	next, err := applier.Apply(snap, MutationRequest{
		Action:           ActionInsert,
		Target:           "a",
		ChunkID:          chunk.ID,
		RelativePosition: PositionAfter,
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	got := next.String()
	firstIdx := strings.Index(got, "first")
	middleIdx := strings.Index(got, "middle")
	lastIdx := strings.Index(got, "last")
	if firstIdx == -1 || middleIdx == -1 || lastIdx == -1 {
		t.Fatalf("missing content in %q", got)
	}
	if !(firstIdx < middleIdx && middleIdx < lastIdx) {
		t.Fatalf("insert landed in the wrong place: %q", got)
	}
}

func TestApplyInsertBefore(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>anchor</span></p>`)
	chunk := newChunk(`<h1><span>title</span></h1>`)
	applier := NewApplier(newFakeChunks(chunk))

	next, err := applier.Apply(snap, MutationRequest{
		Action:           ActionInsert,
		Target:           "a",
		ChunkID:          chunk.ID,
		RelativePosition: PositionBefore,
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	got := next.String()
	if strings.Index(got, "title") > strings.Index(got, "anchor") {
		t.Fatalf("BEFORE insert landed after the anchor: %q", got)
	}
}

func TestApplyDelete(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>gone</span></p><p position_id="b"><span>kept</span></p>`)
	applier := NewApplier(newFakeChunks())

	next, err := applier.Apply(snap, MutationRequest{Action: ActionDelete, Target: "a"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if strings.Contains(next.String(), "gone") {
		t.Fatalf("deleted node survived: %q", next.String())
	}
	if !strings.Contains(next.String(), "kept") {
		t.Fatalf("sibling was lost: %q", next.String())
	}
}

func TestApplyEditInheritsPositionID(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>old</span></p>`)
	chunk := newChunk(`<p><span>new</span></p>`)
	applier := NewApplier(newFakeChunks(chunk))

	next, err := applier.Apply(snap, MutationRequest{
		Action:  ActionEdit,
		Target:  "a",
		ChunkID: chunk.ID,
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if strings.Contains(next.String(), "old") {
		t.Fatalf("edited node survived: %q", next.String())
	}
	// The replacement keeps the old address so follow-up edits can target it.
	if next.Roots()[0].PositionID() != "a" {
		t.Fatalf("replacement lost position id: got %q", next.Roots()[0].PositionID())
	}
}

func TestApplyCopyOnWrite(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>original</span></p>`)
	before := snap.String()
	chunk := newChunk(`<p><span>replacement</span></p>`)
	applier := NewApplier(newFakeChunks(chunk))

	next, err := applier.Apply(snap, MutationRequest{Action: ActionEdit, Target: "a", ChunkID: chunk.ID})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if next == snap {
		t.Fatal("Apply returned the input snapshot")
	}
	if snap.String() != before {
		t.Fatalf("input snapshot mutated: %q", snap.String())
	}
}

func TestApplyInsertThenDeleteRestoresSnapshot(t *testing.T) {
	original := mustParse(t, `<p position_id="a"><span>first</span></p><p position_id="b"><span>last</span></p>`)
	chunk := newChunk(`<p><span>transient</span></p>`)
	applier := NewApplier(newFakeChunks(chunk))

	inserted, err := applier.Apply(original, MutationRequest{
		Action:           ActionInsert,
		Target:           "a",
		ChunkID:          chunk.ID,
		RelativePosition: PositionAfter,
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if len(inserted.Roots()) != 3 {
		t.Fatalf("expected 3 roots after insert, got %d", len(inserted.Roots()))
	}

	insertedID := inserted.Roots()[1].PositionID()
	restored, err := applier.Apply(inserted, MutationRequest{
		Action: ActionDelete,
		Target: insertedID,
	})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if !restored.Equal(original) {
		t.Fatalf("insert+delete did not restore the snapshot:\n original: %s\n restored: %s",
			original.String(), restored.String())
	}
}

func TestApplyTargetNotFound(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>x</span></p>`)
	applier := NewApplier(newFakeChunks())

	got, err := applier.Apply(snap, MutationRequest{Action: ActionDelete, Target: "missing"})
	if editerr.KindOf(err) != editerr.KindTargetNotFound {
		t.Fatalf("expected TargetNotFound, got %v", err)
	}
	if got != snap {
		t.Fatal("failed Apply must return the original snapshot")
	}
}

func TestApplyAmbiguousTagSelector(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>x</span></p><p position_id="b"><span>y</span></p>`)
	applier := NewApplier(newFakeChunks())

	_, err := applier.Apply(snap, MutationRequest{Action: ActionDelete, Target: "p"})
	if editerr.KindOf(err) != editerr.KindAmbiguousTarget {
		t.Fatalf("expected AmbiguousTarget, got %v", err)
	}
}

func TestApplyTagSelectorSingleMatch(t *testing.T) {
	snap := mustParse(t, `<h1 position_id="a"><span>title</span></h1><p position_id="b"><span>body</span></p>`)
	applier := NewApplier(newFakeChunks())

	next, err := applier.Apply(snap, MutationRequest{Action: ActionDelete, Target: "h1"})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if strings.Contains(next.String(), "title") {
		t.Fatalf("tag-selected node survived: %q", next.String())
	}
}

func TestApplyValidatesParametersFirst(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>x</span></p>`)
	applier := NewApplier(newFakeChunks())

	cases := []struct {
		name string
		req  MutationRequest
	}{
		{"insert without chunk", MutationRequest{Action: ActionInsert, Target: "missing", RelativePosition: PositionAfter}},
		{"delete with chunk", MutationRequest{Action: ActionDelete, Target: "missing", ChunkID: "c1"}},
		{"unknown action", MutationRequest{Action: "MERGE", Target: "missing"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Target "missing" would be TargetNotFound; parameter errors win.
			_, err := applier.Apply(snap, tc.req)
			if editerr.KindOf(err) != editerr.KindInvalidActionParameters {
				t.Fatalf("expected InvalidActionParameters, got %v", err)
			}
		})
	}
}

func TestApplyRejectsPlaceholderChunk(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>x</span></p>`)
	chunk := Chunk{
		ID:          uuid.New().String(),
		Content:     "No content could be produced for this request.",
		Placeholder: true,
	}
	applier := NewApplier(newFakeChunks(chunk))

	_, err := applier.Apply(snap, MutationRequest{
		Action: ActionEdit, Target: "a", ChunkID: chunk.ID,
	})
	if editerr.KindOf(err) != editerr.KindInvalidActionParameters {
		t.Fatalf("expected InvalidActionParameters, got %v", err)
	}
}

func TestApplyInsertRequiresRelativePosition(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>x</span></p>`)
	chunk := newChunk(`<p><span>y</span></p>`)
	applier := NewApplier(newFakeChunks(chunk))

	_, err := applier.Apply(snap, MutationRequest{
		Action: ActionInsert, Target: "a", ChunkID: chunk.ID, RelativePosition: "INSIDE",
	})
	if editerr.KindOf(err) != editerr.KindInvalidActionParameters {
		t.Fatalf("expected InvalidActionParameters, got %v", err)
	}
}

func TestApplyMarksChunkApplied(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>x</span></p>`)
	chunk := newChunk(`<p><span>y</span></p>`)
	chunks := newFakeChunks(chunk)
	applier := NewApplier(chunks)

	if _, err := applier.Apply(snap, MutationRequest{
		Action: ActionInsert, Target: "a", ChunkID: chunk.ID, RelativePosition: PositionAfter,
	}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(chunks.applied) != 1 || chunks.applied[0] != chunk.ID {
		t.Fatalf("chunk was not marked applied: %v", chunks.applied)
	}
}

func TestApplyInsertedNodesGetFreshIDs(t *testing.T) {
	snap := mustParse(t, `<p position_id="a"><span>x</span></p>`)
	chunk := newChunk(`<p position_id="a"><span>dupe</span></p>`)
	applier := NewApplier(newFakeChunks(chunk))

	next, err := applier.Apply(snap, MutationRequest{
		Action: ActionInsert, Target: "a", ChunkID: chunk.ID, RelativePosition: PositionAfter,
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	// The chunk carried a colliding id; insertion must restamp it.
	seen := map[string]int{}
	for _, root := range next.Roots() {
		seen[root.PositionID()]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Fatalf("position id %q appears %d times", id, n)
		}
	}
}
