package vector_store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/serisow/ailab/lab_type"
)

// Item is one vector to persist together with its chunk record.
type Item struct {
	ID     string
	Vector []float32
	Chunk  lab_type.Chunk
}

type QueryOptions struct {
	TopK            int
	Threshold       float64
	DocumentID      string
	SourceKind      lab_type.SourceKind
	IncludeMetadata bool
}

type Stats struct {
	TotalVectors int64   `json:"total_vectors"`
	Dimension    int     `json:"dimension"`
	Fullness     float64 `json:"fullness"`
}

// Client persists and queries chunk vectors in Postgres/pgvector. All
// operations are scoped to a namespace, a named partition within the
// chunks table.
type Client struct {
	db        *pgxpool.Pool
	namespace string
	dimension int
	capacity  int64
	logger    *slog.Logger
}

func NewClient(db *pgxpool.Pool, namespace string, dimension int, capacity int64, logger *slog.Logger) *Client {
	return &Client{
		db:        db,
		namespace: namespace,
		dimension: dimension,
		capacity:  capacity,
		logger:    logger,
	}
}

func (c *Client) Upsert(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	query := `
        INSERT INTO chunks (id, document_id, namespace, content, chunk_index,
                            start_index, end_index, word_count, char_count,
                            source_kind, title, embedding)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (id) DO UPDATE SET
            content = EXCLUDED.content,
            embedding = EXCLUDED.embedding,
            title = EXCLUDED.title`

	for _, item := range items {
		if len(item.Vector) != c.dimension {
			return &UpsertError{
				Err: fmt.Errorf("vector for %s has dimension %d, expected %d",
					item.ID, len(item.Vector), c.dimension),
			}
		}

		chunk := item.Chunk
		_, err := c.db.Exec(ctx, query,
			item.ID, chunk.DocumentID, c.namespace, chunk.Content, chunk.Index,
			chunk.Start, chunk.End, chunk.WordCount, chunk.CharCount,
			string(chunk.SourceKind), chunk.Title, pgvector.NewVector(item.Vector))
		if err != nil {
			return &UpsertError{Err: fmt.Errorf("failed to store chunk %s: %w", item.ID, err)}
		}
	}

	c.logger.Info("Upserted chunk vectors",
		slog.Int("count", len(items)),
		slog.String("namespace", c.namespace))

	return nil
}

// Query returns chunks with cosine similarity at or above the threshold,
// ordered by descending score and capped at TopK. An empty result is not
// an error.
func (c *Client) Query(ctx context.Context, vector []float32, opts QueryOptions) ([]lab_type.RetrievalResult, error) {
	if len(vector) != c.dimension {
		return nil, &QueryError{
			Err: fmt.Errorf("query vector has dimension %d, expected %d", len(vector), c.dimension),
		}
	}

	query, args := buildQuery(c.namespace, vector, opts)

	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	defer rows.Close()

	results := make([]lab_type.RetrievalResult, 0)
	for rows.Next() {
		var (
			result     lab_type.RetrievalResult
			documentID string
			index      int
			sourceKind string
			title      string
		)
		if err := rows.Scan(&result.ChunkID, &documentID, &result.Content,
			&index, &sourceKind, &title, &result.Score); err != nil {
			return nil, &QueryError{Err: fmt.Errorf("failed to scan row: %w", err)}
		}

		if opts.IncludeMetadata {
			result.Metadata = map[string]interface{}{
				"document_id": documentID,
				"chunk_index": index,
				"source_kind": sourceKind,
				"title":       title,
			}
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Err: err}
	}

	return results, nil
}

// buildQuery assembles the scored-chunk CTE with placeholders numbered
// after the optional filters.
func buildQuery(namespace string, vector []float32, opts QueryOptions) (string, []interface{}) {
	var sb strings.Builder
	args := []interface{}{pgvector.NewVector(vector), namespace}
	sb.WriteString(`
        WITH scored_chunks AS (
            SELECT id, document_id, content, chunk_index, source_kind, title,
                   1 - (embedding <=> $1) AS similarity_score
            FROM chunks
            WHERE namespace = $2`)

	if opts.DocumentID != "" {
		args = append(args, opts.DocumentID)
		fmt.Fprintf(&sb, " AND document_id = $%d", len(args))
	}
	if opts.SourceKind != "" {
		args = append(args, string(opts.SourceKind))
		fmt.Fprintf(&sb, " AND source_kind = $%d", len(args))
	}

	args = append(args, opts.Threshold)
	fmt.Fprintf(&sb, `
        )
        SELECT id, document_id, content, chunk_index, source_kind, title, similarity_score
        FROM scored_chunks
        WHERE similarity_score >= $%d
        ORDER BY similarity_score DESC`, len(args))

	args = append(args, opts.TopK)
	fmt.Fprintf(&sb, " LIMIT $%d", len(args))

	return sb.String(), args
}

func (c *Client) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := c.db.Exec(ctx,
		"DELETE FROM chunks WHERE namespace = $1 AND id = ANY($2)", c.namespace, ids)
	if err != nil {
		return &DeleteError{Err: err}
	}
	return nil
}

// DeleteByDocument removes every chunk vector belonging to a document.
// Cascading from a document delete is the caller's responsibility; this
// is the helper it calls.
func (c *Client) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := c.db.Exec(ctx,
		"DELETE FROM chunks WHERE namespace = $1 AND document_id = $2", c.namespace, documentID)
	if err != nil {
		return &DeleteError{Err: fmt.Errorf("failed to delete chunks for document %s: %w", documentID, err)}
	}
	return nil
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var total int64
	err := c.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM chunks WHERE namespace = $1", c.namespace).Scan(&total)
	if err != nil {
		return nil, &StatsError{Err: err}
	}

	stats := &Stats{
		TotalVectors: total,
		Dimension:    c.dimension,
	}
	if c.capacity > 0 {
		stats.Fullness = float64(total) / float64(c.capacity)
	}
	return stats, nil
}
