package rag_service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/serisow/ailab/chunker"
	"github.com/serisow/ailab/lab_type"
)

const defaultTextTitle = "Untitled Document"

// Assembler combines extracted content and the chunk list into a
// persisted-shape document. It is a pure transformation: persistence is
// the caller's responsibility.
type Assembler struct {
	chunker *chunker.Chunker
}

func NewAssembler(c *chunker.Chunker) *Assembler {
	return &Assembler{chunker: c}
}

// Assemble stamps identity, timestamps and aggregate metadata onto a new
// document and its chunks. The document starts in processing status and
// is completed once chunking finishes.
func (a *Assembler) Assemble(kind lab_type.SourceKind, content, title string, meta lab_type.DocumentMetadata) (*lab_type.Document, []lab_type.Chunk) {
	if strings.TrimSpace(title) == "" {
		title = defaultTextTitle
	}

	now := time.Now().UTC()
	doc := &lab_type.Document{
		ID:         uuid.New().String(),
		Title:      title,
		Content:    chunker.Normalize(content),
		SourceKind: kind,
		Status:     lab_type.StatusProcessing,
		Metadata:   meta,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	chunks := a.chunker.Chunk(doc.ID, doc.Title, kind, content)

	doc.Status = lab_type.StatusCompleted
	doc.Metadata.ChunkCount = len(chunks)
	doc.Metadata.WordCount = len(strings.Fields(doc.Content))
	doc.Metadata.ProcessedAt = now
	if len(doc.Content) > 250 {
		doc.Metadata.ContentPreview = doc.Content[:250] + "..."
	} else {
		doc.Metadata.ContentPreview = doc.Content
	}

	return doc, chunks
}
