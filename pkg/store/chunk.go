package store

import (
	"time"

	"github.com/google/uuid"
)

// Chunk statuses. A chunk only ever moves forward:
// PENDING -> APPLIED or PENDING -> DISCARDED.
const (
	ChunkStatusPending   = "PENDING"
	ChunkStatusApplied   = "APPLIED"
	ChunkStatusDiscarded = "DISCARDED"
)

// Producers identify which sub-generator created a chunk.
const (
	ProducerContent     = "content"
	ProducerMedia       = "media"
	ProducerPlaceholder = "placeholder"
)

// Chunk is one unit of generated content awaiting application to a document.
type Chunk struct {
	ID        string    `json:"chunk_id"`
	Content   string    `json:"content"`
	Producer  string    `json:"producer"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	// BelowThreshold marks best-effort content that never reached the
	// acceptance score. It is still applicable; placeholders are not.
	BelowThreshold bool `json:"below_threshold,omitempty"`
}

// NewChunk creates a pending chunk with a fresh id.
func NewChunk(content, producer string) *Chunk {
	return &Chunk{
		ID:        uuid.New().String(),
		Content:   content,
		Producer:  producer,
		Status:    ChunkStatusPending,
		CreatedAt: time.Now(),
	}
}

// IsPlaceholder reports whether the chunk is the explanatory stand-in the
// router synthesizes when every sub-generator came back empty. Placeholders
// must never be applied to a document.
func (c *Chunk) IsPlaceholder() bool {
	return c.Producer == ProducerPlaceholder
}
