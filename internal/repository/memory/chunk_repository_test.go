package memory

import (
	"testing"

	"ai-docedit-be/pkg/store"
)

func TestChunkRepositoryPutGet(t *testing.T) {
	repo := NewChunkRepository()
	chunk := store.NewChunk("<p><span>x</span></p>", store.ProducerContent)

	id := repo.Put(chunk)
	got, found := repo.Get(id)
	if !found {
		t.Fatal("stored chunk not found")
	}
	if got.Content != chunk.Content {
		t.Fatalf("content mismatch: %q", got.Content)
	}
	if _, found := repo.Get("nope"); found {
		t.Fatal("unknown id reported found")
	}
}

func TestChunkRepositoryForwardOnlyTransitions(t *testing.T) {
	repo := NewChunkRepository()
	chunk := store.NewChunk("<p><span>x</span></p>", store.ProducerContent)
	repo.Put(chunk)

	if err := repo.MarkApplied(chunk.ID); err != nil {
		t.Fatalf("first transition failed: %v", err)
	}
	if err := repo.MarkApplied(chunk.ID); err == nil {
		t.Fatal("APPLIED -> APPLIED must fail")
	}
	if err := repo.MarkDiscarded(chunk.ID); err == nil {
		t.Fatal("APPLIED -> DISCARDED must fail")
	}

	other := store.NewChunk("<p><span>y</span></p>", store.ProducerContent)
	repo.Put(other)
	if err := repo.MarkDiscarded(other.ID); err != nil {
		t.Fatalf("PENDING -> DISCARDED failed: %v", err)
	}
	if err := repo.MarkApplied(other.ID); err == nil {
		t.Fatal("DISCARDED -> APPLIED must fail")
	}
}

func TestChunkRepositoryLookup(t *testing.T) {
	repo := NewChunkRepository()
	content := store.NewChunk("<p><span>x</span></p>", store.ProducerContent)
	placeholder := store.NewChunk("nothing produced", store.ProducerPlaceholder)
	repo.Put(content)
	repo.Put(placeholder)

	view, found := repo.Lookup(content.ID)
	if !found || view.ID != content.ID || view.Content != content.Content {
		t.Fatalf("Lookup = %+v, %v", view, found)
	}
	if view.Placeholder {
		t.Fatal("content chunk viewed as placeholder")
	}

	view, _ = repo.Lookup(placeholder.ID)
	if !view.Placeholder {
		t.Fatal("placeholder flag lost in the applier view")
	}

	if _, found := repo.Lookup("missing"); found {
		t.Fatal("unknown id reported found")
	}
}

func TestChunkRepositoryTransitionUnknownID(t *testing.T) {
	repo := NewChunkRepository()
	if err := repo.MarkApplied("missing"); err == nil {
		t.Fatal("transition on unknown id must fail")
	}
}
