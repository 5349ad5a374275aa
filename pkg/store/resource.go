package store

import (
	"time"

	"github.com/google/uuid"
)

// ImageResource is an uploaded image owned by one session. Only the caption
// ever reaches the generation context; raw bytes stay in the store.
type ImageResource struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Caption   string    `json:"caption"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentResource is an uploaded reference document. Content is treated as
// text and excerpted (head-truncated) during context assembly.
type DocumentResource struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Content   []byte    `json:"-"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

func NewImageResource(filename string, data []byte) *ImageResource {
	return &ImageResource{
		ID:        uuid.New().String(),
		Filename:  filename,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

func NewDocumentResource(filename string, content []byte) *DocumentResource {
	return &DocumentResource{
		ID:        uuid.New().String(),
		Filename:  filename,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
