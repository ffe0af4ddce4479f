package lab_type

import "time"

type SourceKind string

const (
	SourceKindPDF  SourceKind = "pdf"
	SourceKindWord SourceKind = "docx"
	SourceKindURL  SourceKind = "url"
	SourceKindText SourceKind = "text"
)

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusError      DocumentStatus = "error"
)

type ProcessingStats struct {
	ExtractionTime float64 `json:"extraction_time"`
	ChunkingTime   float64 `json:"chunking_time"`
	EmbeddingTime  float64 `json:"embedding_time"`
}

type DocumentMetadata struct {
	Filename        string          `json:"filename,omitempty"`
	SourceURL       string          `json:"source_url,omitempty"`
	SizeBytes       int             `json:"size_bytes,omitempty"`
	PageCount       int             `json:"page_count,omitempty"`
	WordCount       int             `json:"word_count"`
	ChunkCount      int             `json:"chunk_count"`
	ContentPreview  string          `json:"content_preview"`
	ContentType     string          `json:"content_type,omitempty"`
	ProcessedAt     time.Time       `json:"processed_at"`
	ProcessingStats ProcessingStats `json:"processing_stats"`
}

type Document struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	SourceKind SourceKind       `json:"source_kind"`
	Status     DocumentStatus   `json:"status"`
	Metadata   DocumentMetadata `json:"metadata"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Chunk is the unit of embedding and retrieval. Start/End are character
// offsets into the document's normalized content, recorded before the
// content itself is trimmed.
type Chunk struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	Content    string     `json:"content"`
	Index      int        `json:"index"`
	Start      int        `json:"start_index"`
	End        int        `json:"end_index"`
	WordCount  int        `json:"word_count"`
	CharCount  int        `json:"char_count"`
	SourceKind SourceKind `json:"source_kind"`
	Title      string     `json:"title"`
}

// IngestResult is the tagged outcome of a document ingestion. On failure
// Document is nil: callers never see a partially populated record.
type IngestResult struct {
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Document   *Document `json:"document,omitempty"`
	ChunkCount int       `json:"chunk_count"`
}

type RetrievalResult struct {
	ChunkID  string                 `json:"chunk_id"`
	Score    float64                `json:"score"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
