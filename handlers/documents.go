package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/serisow/ailab/lab_type"
	"github.com/serisow/ailab/services/vector_store"
)

// Ingestor runs the ingestion pipeline for one source.
type Ingestor interface {
	IngestFile(ctx context.Context, filename string, data []byte) *lab_type.IngestResult
	IngestURL(ctx context.Context, url string) *lab_type.IngestResult
	IngestText(ctx context.Context, text, title string) *lab_type.IngestResult
}

// DB is the subset of pgxpool.Pool the document handler uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type DocumentHandler struct {
	db       DB
	store    *vector_store.Client
	ingestor Ingestor
	logger   *slog.Logger
}

func NewDocumentHandler(db DB, store *vector_store.Client, ingestor Ingestor, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		db:       db,
		store:    store,
		ingestor: ingestor,
		logger:   logger,
	}
}

type ingestRequest struct {
	URL   string `json:"url,omitempty"`
	Text  string `json:"text,omitempty"`
	Title string `json:"title,omitempty"`
}

// Ingest accepts a multipart file upload, or a JSON body naming a remote
// URL or literal text, and runs the pipeline synchronously.
func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var result *lab_type.IngestResult

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		result = h.ingestUpload(w, r)
		if result == nil {
			return
		}
	} else {
		var req ingestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		switch {
		case req.URL != "":
			result = h.ingestor.IngestURL(r.Context(), req.URL)
		case strings.TrimSpace(req.Text) != "":
			result = h.ingestor.IngestText(r.Context(), req.Text, req.Title)
		default:
			writeJSONError(w, "Request must include a file, url or text", http.StatusBadRequest)
			return
		}
	}

	if !result.Success {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *DocumentHandler) ingestUpload(w http.ResponseWriter, r *http.Request) *lab_type.IngestResult {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Failed to get file from form", http.StatusBadRequest)
		return nil
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return nil
	}

	h.logger.Info("Received file upload",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	return h.ingestor.IngestFile(r.Context(), header.Filename, buf.Bytes())
}

type documentSummary struct {
	ID         string                    `json:"id"`
	Title      string                    `json:"title"`
	SourceKind string                    `json:"source_kind"`
	Status     string                    `json:"status"`
	Metadata   lab_type.DocumentMetadata `json:"metadata"`
	CreatedAt  string                    `json:"created_at"`
	UpdatedAt  string                    `json:"updated_at"`
}

// List returns the document library without content bodies.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(), `
        SELECT id, title, source_kind, status, metadata,
               to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SSZ'),
               to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SSZ')
        FROM documents
        ORDER BY created_at DESC`)
	if err != nil {
		h.logger.Error("Failed to list documents",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to list documents", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	documents := make([]documentSummary, 0)
	for rows.Next() {
		var (
			doc      documentSummary
			metadata []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.SourceKind, &doc.Status,
			&metadata, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			h.logger.Error("Failed to scan document row",
				slog.String("error", err.Error()))
			continue
		}
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			h.logger.Error("Failed to parse document metadata",
				slog.String("document_id", doc.ID),
				slog.String("error", err.Error()))
		}
		documents = append(documents, doc)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// Delete removes a document and cascades the delete to its chunk
// vectors.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var exists string
	err := h.db.QueryRow(r.Context(), "SELECT id FROM documents WHERE id = $1", id).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		writeJSONError(w, "Document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSONError(w, "Failed to look up document", http.StatusInternalServerError)
		return
	}

	if err := h.store.DeleteByDocument(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete document chunks",
			slog.String("document_id", id),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to delete document chunks", http.StatusInternalServerError)
		return
	}

	if _, err := h.db.Exec(r.Context(), "DELETE FROM documents WHERE id = $1", id); err != nil {
		h.logger.Error("Failed to delete document",
			slog.String("document_id", id),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to delete document", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted", "id": id})
}

// Stats reports vector store statistics.
func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to fetch vector store stats",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to fetch stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
