package router

import (
	"context"
	"fmt"
	"log"

	"ai-docedit-be/pkg/content/pipeline"
	"ai-docedit-be/pkg/store"

	"github.com/google/uuid"
)

// TextGenerator is the content pipeline seen from the router's side.
type TextGenerator interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
}

// MediaCollaborator produces chunks for image-centric requests.
type MediaCollaborator interface {
	Produce(ctx context.Context, req Request) ([]*store.Chunk, error)
}

// ChunkSink is where routed chunks land, normally the session chunk store.
type ChunkSink interface {
	Put(chunk *store.Chunk) string
}

// Request classifies one generation need. NeedsText and NeedsMedia both set
// means a mixed request served by both sub-generators.
type Request struct {
	Pipeline   pipeline.Request
	NeedsText  bool
	NeedsMedia bool
}

// Router fans a classified request out to the sub-generators and aggregates
// their chunks into the sink.
type Router struct {
	text   TextGenerator
	media  MediaCollaborator
	sink   ChunkSink
	logger *log.Logger
}

func NewRouter(text TextGenerator, media MediaCollaborator, sink ChunkSink, logger *log.Logger) *Router {
	return &Router{text: text, media: media, sink: sink, logger: logger}
}

// Route runs the applicable sub-generators and returns the merged chunk list,
// already stored in the sink. When every sub-generator comes back empty the
// returned list holds a single placeholder chunk; callers must check
// IsPlaceholder before applying anything.
func (r *Router) Route(ctx context.Context, req Request) ([]*store.Chunk, error) {
	var chunks []*store.Chunk

	if req.NeedsText {
		out, err := r.text.Run(ctx, req.Pipeline)
		if err != nil {
			return nil, fmt.Errorf("text generation: %w", err)
		}
		chunk := store.NewChunk(out.Content, store.ProducerContent)
		chunk.BelowThreshold = out.BelowThreshold
		chunks = append(chunks, chunk)
	}

	if req.NeedsMedia {
		mediaChunks, err := r.media.Produce(ctx, req)
		if err != nil {
			if len(chunks) == 0 {
				return nil, fmt.Errorf("media generation: %w", err)
			}
			// Partial result: the textual half still serves the request.
			r.logf("media collaborator failed, continuing with text chunks: %v", err)
		}
		chunks = append(chunks, mediaChunks...)
	}

	chunks = dedupeIDs(chunks)

	if len(chunks) == 0 {
		placeholder := store.NewChunk(
			"No content could be produced for this request.", store.ProducerPlaceholder)
		chunks = append(chunks, placeholder)
	}

	for _, c := range chunks {
		r.sink.Put(c)
	}
	return chunks, nil
}

// dedupeIDs regenerates the id of any chunk colliding with an earlier one in
// the merged list.
func dedupeIDs(chunks []*store.Chunk) []*store.Chunk {
	seen := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		for seen[c.ID] {
			c.ID = uuid.New().String()
		}
		seen[c.ID] = true
	}
	return chunks
}

func (r *Router) logf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
