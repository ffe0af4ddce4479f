package rag_service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/serisow/ailab/lab_type"
	"github.com/serisow/ailab/services/vector_store"
)

// DB is the subset of pgxpool.Pool the processor needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Processor runs the ingestion pipeline end to end: extraction,
// chunking, assembly, embedding and vector upsert. Each call operates on
// its own data; concurrent ingestions need no coordination.
type Processor struct {
	db        DB
	extractor *DocumentExtractor
	remote    *RemoteExtractor
	assembler *Assembler
	embedder  *EmbeddingClient
	store     *vector_store.Client
	logger    *slog.Logger
}

func NewProcessor(db DB, assembler *Assembler, embedder *EmbeddingClient,
	store *vector_store.Client, logger *slog.Logger) *Processor {
	return &Processor{
		db:        db,
		extractor: NewDocumentExtractor(logger),
		remote:    NewRemoteExtractor(logger),
		assembler: assembler,
		embedder:  embedder,
		store:     store,
		logger:    logger,
	}
}

// IngestFile processes an uploaded binary document.
func (p *Processor) IngestFile(ctx context.Context, filename string, data []byte) *lab_type.IngestResult {
	ext := strings.ToLower(filepath.Ext(filename))
	meta := lab_type.DocumentMetadata{
		Filename:    filename,
		SizeBytes:   len(data),
		ContentType: getMimeType(ext),
	}

	extractStart := time.Now()
	var (
		text string
		kind lab_type.SourceKind
		err  error
	)
	switch ext {
	case ".pdf":
		kind = lab_type.SourceKindPDF
		text, meta.PageCount, err = p.extractor.ExtractPDF(data)
	case ".doc", ".docx":
		kind = lab_type.SourceKindWord
		text, err = p.extractor.ExtractWord(data)
	default:
		return failure(fmt.Errorf("unsupported file type: %s", ext))
	}
	if err != nil {
		p.logger.Error("Text extraction failed",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return failure(err)
	}
	meta.ProcessingStats.ExtractionTime = time.Since(extractStart).Seconds()

	title := strings.TrimSuffix(filepath.Base(filename), ext)
	return p.ingest(ctx, kind, text, title, meta)
}

// IngestURL processes a remote page.
func (p *Processor) IngestURL(ctx context.Context, url string) *lab_type.IngestResult {
	meta := lab_type.DocumentMetadata{SourceURL: url}

	extractStart := time.Now()
	text, title, err := p.remote.Fetch(ctx, url)
	if err != nil {
		p.logger.Error("Remote extraction failed",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return failure(err)
	}
	meta.SizeBytes = len(text)
	meta.ProcessingStats.ExtractionTime = time.Since(extractStart).Seconds()

	return p.ingest(ctx, lab_type.SourceKindURL, text, title, meta)
}

// IngestText processes literal text.
func (p *Processor) IngestText(ctx context.Context, text, title string) *lab_type.IngestResult {
	meta := lab_type.DocumentMetadata{SizeBytes: len(text)}
	return p.ingest(ctx, lab_type.SourceKindText, text, title, meta)
}

func (p *Processor) ingest(ctx context.Context, kind lab_type.SourceKind, content, title string,
	meta lab_type.DocumentMetadata) *lab_type.IngestResult {

	chunkStart := time.Now()
	doc, chunks := p.assembler.Assemble(kind, content, title, meta)
	doc.Metadata.ProcessingStats.ChunkingTime = time.Since(chunkStart).Seconds()

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Content
		}

		embedStart := time.Now()
		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			p.logger.Error("Failed to generate embeddings",
				slog.String("document_id", doc.ID),
				slog.String("error", err.Error()))
			p.recordFailure(ctx, doc)
			return failure(err)
		}
		doc.Metadata.ProcessingStats.EmbeddingTime = time.Since(embedStart).Seconds()

		items := make([]vector_store.Item, len(chunks))
		for i, chunk := range chunks {
			items[i] = vector_store.Item{ID: chunk.ID, Vector: vectors[i], Chunk: chunk}
		}
		if err := p.store.Upsert(ctx, items); err != nil {
			// Per-item upserts may have partially landed.
			if cleanupErr := p.store.DeleteByDocument(ctx, doc.ID); cleanupErr != nil {
				p.logger.Error("Failed to clean up chunks after upsert failure",
					slog.String("document_id", doc.ID),
					slog.String("error", cleanupErr.Error()))
			}
			p.recordFailure(ctx, doc)
			return failure(err)
		}
	}

	if err := p.saveDocument(ctx, doc); err != nil {
		// Don't leave orphaned vectors behind a document that was never
		// persisted.
		if cleanupErr := p.store.DeleteByDocument(ctx, doc.ID); cleanupErr != nil {
			p.logger.Error("Failed to clean up chunks after store failure",
				slog.String("document_id", doc.ID),
				slog.String("error", cleanupErr.Error()))
		}
		return failure(err)
	}

	p.logger.Info("Document ingested",
		slog.String("document_id", doc.ID),
		slog.String("source_kind", string(kind)),
		slog.Int("chunk_count", len(chunks)))

	return &lab_type.IngestResult{
		Success:    true,
		Document:   doc,
		ChunkCount: len(chunks),
	}
}

// recordFailure persists the document in error status so the library
// shows the failed ingestion. The caller still reports a nil document.
func (p *Processor) recordFailure(ctx context.Context, doc *lab_type.Document) {
	doc.Status = lab_type.StatusError
	if err := p.saveDocument(ctx, doc); err != nil {
		p.logger.Error("Failed to record failed document",
			slog.String("document_id", doc.ID),
			slog.String("error", err.Error()))
	}
}

func (p *Processor) saveDocument(ctx context.Context, doc *lab_type.Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal document metadata: %w", err)
	}

	query := `INSERT INTO documents (id, title, content, source_kind, status, metadata, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = p.db.Exec(ctx, query,
		doc.ID, doc.Title, doc.Content, string(doc.SourceKind), string(doc.Status),
		metadata, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

func failure(err error) *lab_type.IngestResult {
	return &lab_type.IngestResult{Success: false, Error: err.Error()}
}

func getMimeType(ext string) string {
	if mime, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}
