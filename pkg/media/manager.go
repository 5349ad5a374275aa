package media

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"ai-docedit-be/pkg/content/pipeline"
	"ai-docedit-be/pkg/content/router"
	"ai-docedit-be/pkg/llm"
	"ai-docedit-be/pkg/store"
)

// ResourceStore is the per-session image/document store the manager works
// against.
type ResourceStore interface {
	SaveImage(img *store.ImageResource)
	SaveDocument(doc *store.DocumentResource)
	Images() []*store.ImageResource
	Documents() []*store.DocumentResource
}

// Manager owns uploaded session resources and turns them into generation
// context: caption-only summaries for images, head-truncated excerpts for
// documents. Raw image bytes never leave the store.
type Manager struct {
	resources     ResourceStore
	provider      llm.LLMProvider
	captionPrompt string
	logger        *log.Logger
}

func NewManager(resources ResourceStore, provider llm.LLMProvider, captionPrompt string, logger *log.Logger) *Manager {
	return &Manager{
		resources:     resources,
		provider:      provider,
		captionPrompt: captionPrompt,
		logger:        logger,
	}
}

// StoreImage saves an upload and captions it from metadata. A failed caption
// call degrades to a filename-derived caption rather than failing the upload.
func (m *Manager) StoreImage(ctx context.Context, filename string, data []byte) *store.ImageResource {
	img := store.NewImageResource(filename, data)
	img.Caption = m.caption(ctx, filename, len(data))
	m.resources.SaveImage(img)
	return img
}

// StoreDocument saves a reference document for later excerpting.
func (m *Manager) StoreDocument(filename string, content []byte) *store.DocumentResource {
	doc := store.NewDocumentResource(filename, content)
	m.resources.SaveDocument(doc)
	return doc
}

// Captions summarizes every stored image for context assembly.
func (m *Manager) Captions() []pipeline.Caption {
	images := m.resources.Images()
	out := make([]pipeline.Caption, 0, len(images))
	for _, img := range images {
		out = append(out, pipeline.Caption{Filename: img.Filename, Caption: img.Caption})
	}
	return out
}

// Excerpts exposes every stored document's text for context assembly. The
// pipeline applies the character limit; the manager hands over full content.
func (m *Manager) Excerpts() []pipeline.Excerpt {
	docs := m.resources.Documents()
	out := make([]pipeline.Excerpt, 0, len(docs))
	for _, doc := range docs {
		out = append(out, pipeline.Excerpt{Name: doc.Filename, Content: string(doc.Content)})
	}
	return out
}

// Produce implements the router's media collaborator: every stored image
// becomes one applicable chunk whose markup references the resource by id.
// The raw bytes stay in the store; the document only ever carries the
// reference and the caption. No stored images means no chunks, and the
// router synthesizes its placeholder for media-only requests.
func (m *Manager) Produce(ctx context.Context, req router.Request) ([]*store.Chunk, error) {
	images := m.resources.Images()
	chunks := make([]*store.Chunk, 0, len(images))
	for _, img := range images {
		markup := fmt.Sprintf(`<p><img src="resource://%s" alt="%s"></p>`,
			img.ID, html.EscapeString(img.Caption))
		chunks = append(chunks, store.NewChunk(markup, store.ProducerMedia))
	}
	return chunks, nil
}

func (m *Manager) caption(ctx context.Context, filename string, size int) string {
	if m.provider == nil {
		return fallbackCaption(filename)
	}
	prompt := fmt.Sprintf(m.captionPrompt, filename, size)
	reply, err := m.provider.Generate(ctx, prompt, llm.WithMaxTokens(60), llm.WithTemperature(0.3))
	if err != nil {
		m.logf("caption generation for %s failed: %v", filename, err)
		return fallbackCaption(filename)
	}
	caption := strings.TrimSpace(reply)
	if caption == "" {
		return fallbackCaption(filename)
	}
	return caption
}

func fallbackCaption(filename string) string {
	name := filename
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return fmt.Sprintf("Uploaded image: %s", strings.TrimSpace(name))
}

func (m *Manager) logf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
