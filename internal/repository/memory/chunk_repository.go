package memory

import (
	"fmt"
	"sync"

	"ai-docedit-be/pkg/document"
	"ai-docedit-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// ChunkRepository keeps generated chunks awaiting application. Ids are
// assigned at Put time and never reused; the repository lives exactly as
// long as its session and is dropped wholesale on disconnect.
type ChunkRepository struct {
	cache *cache.Cache
	mu    sync.Mutex // guards read-modify-write status transitions
}

func NewChunkRepository() *ChunkRepository {
	c := cache.New(cache.NoExpiration, 0)
	return &ChunkRepository{cache: c}
}

// Put stores the chunk and returns its id.
func (r *ChunkRepository) Put(chunk *store.Chunk) string {
	r.cache.Set(chunk.ID, chunk, cache.DefaultExpiration)
	return chunk.ID
}

// Get returns the chunk or (nil, false) when the id is unknown.
func (r *ChunkRepository) Get(id string) (*store.Chunk, bool) {
	if x, found := r.cache.Get(id); found {
		return x.(*store.Chunk), true
	}
	return nil, false
}

// Lookup exposes the mutation applier's view of a chunk.
func (r *ChunkRepository) Lookup(id string) (document.Chunk, bool) {
	chunk, found := r.Get(id)
	if !found {
		return document.Chunk{}, false
	}
	return document.Chunk{
		ID:          chunk.ID,
		Content:     chunk.Content,
		Placeholder: chunk.IsPlaceholder(),
	}, true
}

// MarkApplied transitions a pending chunk to APPLIED.
func (r *ChunkRepository) MarkApplied(id string) error {
	return r.transition(id, store.ChunkStatusApplied)
}

// MarkDiscarded transitions a pending chunk to DISCARDED.
func (r *ChunkRepository) MarkDiscarded(id string) error {
	return r.transition(id, store.ChunkStatusDiscarded)
}

// transition enforces the forward-only status rule: only PENDING chunks move.
func (r *ChunkRepository) transition(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chunk, found := r.Get(id)
	if !found {
		return fmt.Errorf("chunk %s not found", id)
	}
	if chunk.Status != store.ChunkStatusPending {
		return fmt.Errorf("chunk %s already %s", id, chunk.Status)
	}
	chunk.Status = status
	r.cache.Set(id, chunk, cache.DefaultExpiration)
	return nil
}
