package memory

import (
	"time"

	"ai-docedit-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// ResourceRepository holds the images and reference documents one session has
// uploaded. Resources expire with the session's natural lifetime; context
// assembly reads are concurrent and read-only.
type ResourceRepository struct {
	images    *cache.Cache
	documents *cache.Cache
}

func NewResourceRepository() *ResourceRepository {
	return &ResourceRepository{
		images:    cache.New(1*time.Hour, 10*time.Minute),
		documents: cache.New(1*time.Hour, 10*time.Minute),
	}
}

func (r *ResourceRepository) SaveImage(img *store.ImageResource) {
	r.images.Set(img.ID, img, cache.DefaultExpiration)
}

func (r *ResourceRepository) GetImage(id string) (*store.ImageResource, bool) {
	if x, found := r.images.Get(id); found {
		return x.(*store.ImageResource), true
	}
	return nil, false
}

func (r *ResourceRepository) DeleteImage(id string) {
	r.images.Delete(id)
}

// Images returns every stored image, most recent first not guaranteed.
func (r *ResourceRepository) Images() []*store.ImageResource {
	items := r.images.Items()
	out := make([]*store.ImageResource, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*store.ImageResource))
	}
	return out
}

func (r *ResourceRepository) SaveDocument(doc *store.DocumentResource) {
	r.documents.Set(doc.ID, doc, cache.DefaultExpiration)
}

func (r *ResourceRepository) GetDocument(id string) (*store.DocumentResource, bool) {
	if x, found := r.documents.Get(id); found {
		return x.(*store.DocumentResource), true
	}
	return nil, false
}

func (r *ResourceRepository) Documents() []*store.DocumentResource {
	items := r.documents.Items()
	out := make([]*store.DocumentResource, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*store.DocumentResource))
	}
	return out
}

// Flush drops everything owned by the session. Called on disconnect.
func (r *ResourceRepository) Flush() {
	r.images.Flush()
	r.documents.Flush()
}
