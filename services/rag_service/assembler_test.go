package rag_service

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/serisow/ailab/chunker"
	"github.com/serisow/ailab/lab_type"
)

func newTestAssembler() *Assembler {
	return NewAssembler(chunker.New(chunker.DefaultConfig(), slog.Default()))
}

func TestAssembleBuildsDocumentAndChunks(t *testing.T) {
	assembler := newTestAssembler()

	para := strings.Repeat("Relevant facts about the system under test. ", 30)
	content := para + "\n\n\n\n" + para

	doc, chunks := assembler.Assemble(lab_type.SourceKindText, content, "System Notes", lab_type.DocumentMetadata{})

	if doc.ID == "" {
		t.Error("expected assembled document to have an id")
	}
	if doc.Title != "System Notes" {
		t.Errorf("expected title 'System Notes', got %q", doc.Title)
	}
	if doc.Status != lab_type.StatusCompleted {
		t.Errorf("expected completed status, got %q", doc.Status)
	}
	if strings.Contains(doc.Content, "\n\n\n") {
		t.Error("expected normalized content without blank-line runs")
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	if doc.Metadata.ChunkCount != len(chunks) {
		t.Errorf("expected chunk count %d in metadata, got %d", len(chunks), doc.Metadata.ChunkCount)
	}
	if doc.Metadata.WordCount == 0 {
		t.Error("expected word count in metadata")
	}
	if doc.Metadata.ProcessedAt.IsZero() {
		t.Error("expected processed timestamp in metadata")
	}
	for _, chunk := range chunks {
		if chunk.DocumentID != doc.ID {
			t.Errorf("expected chunk bound to document %s, got %s", doc.ID, chunk.DocumentID)
		}
	}
}

func TestAssembleDefaultsBlankTitle(t *testing.T) {
	assembler := newTestAssembler()

	doc, _ := assembler.Assemble(lab_type.SourceKindText, "some pasted text", "   ", lab_type.DocumentMetadata{})
	if doc.Title != "Untitled Document" {
		t.Errorf("expected default title, got %q", doc.Title)
	}
}

func TestAssembleTruncatesPreview(t *testing.T) {
	assembler := newTestAssembler()

	content := strings.Repeat("x", 600)
	doc, _ := assembler.Assemble(lab_type.SourceKindText, content, "Long", lab_type.DocumentMetadata{})

	if len(doc.Metadata.ContentPreview) != 253 {
		t.Errorf("expected 250-char preview plus ellipsis, got length %d", len(doc.Metadata.ContentPreview))
	}
	if !strings.HasSuffix(doc.Metadata.ContentPreview, "...") {
		t.Error("expected preview to end with ellipsis")
	}

	short, _ := assembler.Assemble(lab_type.SourceKindText, "short content", "Short", lab_type.DocumentMetadata{})
	if short.Metadata.ContentPreview != "short content" {
		t.Errorf("expected short content kept whole, got %q", short.Metadata.ContentPreview)
	}
}
