package pipeline

import (
	"fmt"
	"strings"
)

// Excerpt is a head-truncated slice of an uploaded reference document.
type Excerpt struct {
	Name    string
	Content string
}

// Caption summarizes an uploaded image. Only the caption text reaches the
// model, never the raw bytes.
type Caption struct {
	Filename string
	Caption  string
}

// Request carries everything the generation run needs up front. The pipeline
// never reaches back into session state.
type Request struct {
	Description       string
	StyleGuidelines   string
	PriorContext      string
	DocumentStructure string
	DocumentExcerpts  []Excerpt
	ImageCaptions     []Caption
}

// assembleContext flattens the request's auxiliary material into the single
// context block the draft prompt expects. Reference documents are truncated
// to excerptLimit characters from the head.
func assembleContext(req Request, excerptLimit int) string {
	var b strings.Builder

	if req.PriorContext != "" {
		b.WriteString("--- Conversation Context ---\n")
		b.WriteString(req.PriorContext)
		b.WriteString("\n")
	}

	for _, doc := range req.DocumentExcerpts {
		content := doc.Content
		truncated := false
		if excerptLimit > 0 && len(content) > excerptLimit {
			content = content[:excerptLimit]
			truncated = true
		}
		b.WriteString(fmt.Sprintf("--- Reference Document: %s ---\n", doc.Name))
		b.WriteString(content)
		if truncated {
			b.WriteString("\n[truncated]")
		}
		b.WriteString("\n")
	}

	for _, img := range req.ImageCaptions {
		b.WriteString(fmt.Sprintf("--- Image: %s ---\n%s\n", img.Filename, img.Caption))
	}

	if b.Len() == 0 {
		return "No additional context provided."
	}
	return strings.TrimRight(b.String(), "\n")
}
