package llm_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/serisow/ailab/lab_type"
)

const minPromptLength = 10

var validImageSizes = map[string]bool{
	"1024x1024": true,
	"1792x1024": true,
	"1024x1792": true,
}

// Approximate per-image cost by size and quality.
var imageCosts = map[string]map[string]float64{
	"1024x1024": {"standard": 0.04, "hd": 0.08},
	"1792x1024": {"standard": 0.08, "hd": 0.12},
	"1024x1792": {"standard": 0.08, "hd": 0.12},
}

type OpenAIImageService struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenAIImageService(logger *slog.Logger) *OpenAIImageService {
	return &OpenAIImageService{
		httpClient: &http.Client{Timeout: 300 * time.Second},
		logger:     logger,
	}
}

type imageResponse struct {
	Data []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// GenerateImage validates the request and produces one image. The
// validation failures come back typed so handlers can map them to 400s.
func (s *OpenAIImageService) GenerateImage(ctx context.Context, cfg Config, req lab_type.ImageRequest) (*lab_type.ImageResult, error) {
	if len(strings.TrimSpace(req.Prompt)) < minPromptLength {
		return nil, &lab_type.ValidationError{
			Field:   "prompt",
			Message: fmt.Sprintf("prompt must be at least %d characters", minPromptLength),
		}
	}

	size := req.Size
	if size == "" {
		size = "1024x1024"
	}
	if !validImageSizes[size] {
		return nil, &lab_type.ValidationError{
			Field:   "size",
			Message: fmt.Sprintf("unsupported image size: %s", size),
		}
	}

	quality := req.Quality
	if quality == "" {
		quality = "standard"
	}
	if quality != "standard" && quality != "hd" {
		return nil, &lab_type.ValidationError{
			Field:   "quality",
			Message: fmt.Sprintf("unsupported quality: %s", quality),
		}
	}

	style := req.Style
	if style == "" {
		style = "vivid"
	}
	if style != "vivid" && style != "natural" {
		return nil, &lab_type.ValidationError{
			Field:   "style",
			Message: fmt.Sprintf("unsupported style: %s", style),
		}
	}

	maxRetries := 3
	retryDelay := 5 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := s.callImageAPI(ctx, cfg, req.Prompt, size, quality, style)
		if err == nil {
			return result, nil
		}

		if httpErr, ok := err.(*ProviderHttpError); ok {
			if httpErr.StatusCode == http.StatusTooManyRequests {
				s.logger.Error("Image API quota exceeded",
					slog.String("error_type", httpErr.ErrorType),
					slog.String("error_message", httpErr.Message),
					slog.String("model", cfg.Model))
				return nil, fmt.Errorf("image quota exceeded: %s (Type: %s)", httpErr.Message, httpErr.ErrorType)
			}

			s.logger.Error("Image API error",
				slog.Int("attempt", attempt),
				slog.Int("status_code", httpErr.StatusCode),
				slog.String("error_message", httpErr.Message))
		}

		if attempt == maxRetries {
			return nil, fmt.Errorf("failed to generate image after %d attempts: %w", maxRetries, err)
		}

		s.logger.Warn("Attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("retry_delay", retryDelay),
			slog.String("error", err.Error()))

		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("failed to generate image after exhausting all retry attempts")
}

func (s *OpenAIImageService) callImageAPI(ctx context.Context, cfg Config, prompt, size, quality, style string) (*lab_type.ImageResult, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model":           cfg.Model,
		"prompt":          prompt,
		"n":               1,
		"size":            size,
		"quality":         quality,
		"style":           style,
		"response_format": "url",
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, extractProviderError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var result imageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("no image data in response")
	}

	return &lab_type.ImageResult{
		URL:           result.Data[0].URL,
		RevisedPrompt: result.Data[0].RevisedPrompt,
		CostEstimate:  imageCosts[size][quality],
	}, nil
}
