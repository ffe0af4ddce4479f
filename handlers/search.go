package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/serisow/ailab/lab_type"
	"github.com/serisow/ailab/services/vector_store"
)

const (
	defaultTopK = 10
	maxTopK     = 50
)

// Embedder turns a query into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever runs a similarity query against the vector store.
type Retriever interface {
	Query(ctx context.Context, vector []float32, opts vector_store.QueryOptions) ([]lab_type.RetrievalResult, error)
}

type SearchHandler struct {
	embedder  Embedder
	retriever Retriever
	logger    *slog.Logger
}

func NewSearchHandler(embedder Embedder, retriever Retriever, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		embedder:  embedder,
		retriever: retriever,
		logger:    logger,
	}
}

type searchFilter struct {
	DocumentID string `json:"document_id,omitempty"`
	SourceKind string `json:"source_kind,omitempty"`
}

type searchRequest struct {
	Query           string       `json:"query"`
	TopK            int          `json:"top_k,omitempty"`
	Threshold       float64      `json:"threshold,omitempty"`
	Filter          searchFilter `json:"filter,omitempty"`
	IncludeMetadata bool         `json:"include_metadata,omitempty"`
}

// Search embeds the query text and returns the closest chunks above the
// similarity threshold. Zero matches is a successful, empty response.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeJSONError(w, "Search query cannot be empty", http.StatusBadRequest)
		return
	}
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}
	if req.TopK < 1 || req.TopK > maxTopK {
		writeJSONError(w, "top_k must be between 1 and 50", http.StatusBadRequest)
		return
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		writeJSONError(w, "threshold must be between 0 and 1", http.StatusBadRequest)
		return
	}

	vector, err := h.embedder.Embed(r.Context(), req.Query)
	if err != nil {
		h.logger.Error("Failed to embed search query",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to process search query", http.StatusInternalServerError)
		return
	}

	results, err := h.retriever.Query(r.Context(), vector, vector_store.QueryOptions{
		TopK:            req.TopK,
		Threshold:       req.Threshold,
		DocumentID:      req.Filter.DocumentID,
		SourceKind:      lab_type.SourceKind(req.Filter.SourceKind),
		IncludeMetadata: req.IncludeMetadata,
	})
	if err != nil {
		h.logger.Error("Failed to query vector store",
			slog.String("query", req.Query),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to retrieve documents", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}
