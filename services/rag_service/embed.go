package rag_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// embeddingBatchSize is the number of texts sent per upstream call.
	// Sub-batches run sequentially as backpressure against rate limits.
	embeddingBatchSize = 100
	// maxInputTokens is the upstream per-input token budget; longer
	// inputs are truncated, which is lossy.
	maxInputTokens = 8191
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// EmbeddingClient turns text into fixed-length vectors through the
// hosted embeddings API.
type EmbeddingClient struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
	encoder    *tiktoken.Tiktoken
	logger     *slog.Logger
}

func NewEmbeddingClient(apiURL, apiKey, model string, logger *slog.Logger) (*EmbeddingClient, error) {
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoder: %w", err)
	}
	return &EmbeddingClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		encoder:    encoder,
		logger:     logger,
	}, nil
}

// Embed returns the vector for a single text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in sub-batches of 100, awaiting each before
// issuing the next. Any failure fails the whole batch.
func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, &EmbeddingError{Err: fmt.Errorf("no texts to embed")}
	}

	inputs := make([]string, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, &EmbeddingError{Err: fmt.Errorf("text at index %d is empty", i)}
		}
		inputs[i] = c.truncate(text)
	}

	vectors := make([][]float32, 0, len(inputs))
	for start := 0; start < len(inputs); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		batch, err := c.embedOnce(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	c.logger.Debug("Generated embeddings",
		slog.Int("text_count", len(texts)),
		slog.Int("batch_size", embeddingBatchSize))

	return vectors, nil
}

func (c *EmbeddingClient) embedOnce(ctx context.Context, inputs []string) ([][]float32, error) {
	requestBody, err := json.Marshal(embeddingRequest{Input: inputs, Model: c.model})
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("failed to call embedding service: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &EmbeddingError{
			Err: fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(embeddingResp.Data) != len(inputs) {
		return nil, &EmbeddingError{
			Err: fmt.Errorf("expected %d embeddings, received %d", len(inputs), len(embeddingResp.Data)),
		}
	}

	// The API documents index-ordered data; don't rely on it.
	sort.Slice(embeddingResp.Data, func(i, j int) bool {
		return embeddingResp.Data[i].Index < embeddingResp.Data[j].Index
	})

	vectors := make([][]float32, len(embeddingResp.Data))
	for i, d := range embeddingResp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (c *EmbeddingClient) truncate(text string) string {
	if c.encoder == nil {
		return text
	}
	tokens := c.encoder.Encode(text, nil, nil)
	if len(tokens) <= maxInputTokens {
		return text
	}

	c.logger.Warn("Truncating embedding input over token budget",
		slog.Int("token_count", len(tokens)),
		slog.Int("budget", maxInputTokens))

	return c.encoder.Decode(tokens[:maxInputTokens])
}
