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

var validDetailLevels = map[string]bool{"low": true, "high": true, "auto": true}

type OpenAIVisionService struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenAIVisionService(logger *slog.Logger) *OpenAIVisionService {
	return &OpenAIVisionService{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger,
	}
}

// AnalyzeImage asks the vision model for a structured description of the
// image and parses the JSON it returns.
func (s *OpenAIVisionService) AnalyzeImage(ctx context.Context, cfg Config, req lab_type.VisionRequest) (*lab_type.VisionAnalysis, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, &lab_type.ValidationError{Field: "image_url", Message: "image reference is required"}
	}

	detail := req.Detail
	if detail == "" {
		detail = "auto"
	}
	if !validDetailLevels[detail] {
		return nil, &lab_type.ValidationError{
			Field:   "detail",
			Message: fmt.Sprintf("unsupported detail level: %s", detail),
		}
	}

	prompt := buildVisionPrompt(req)

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": cfg.Model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": prompt},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url":    req.ImageURL,
							"detail": detail,
						},
					},
				},
			},
		},
		"max_tokens": 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
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

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in vision response")
	}

	analysis, err := parseVisionAnalysis(result.Choices[0].Message.Content)
	if err != nil {
		s.logger.Error("Failed to parse vision analysis",
			slog.String("error", err.Error()))
		return nil, err
	}

	return analysis, nil
}

func buildVisionPrompt(req lab_type.VisionRequest) string {
	var sb strings.Builder
	sb.WriteString("Analyze this image and respond with a single JSON object containing: ")
	sb.WriteString(`"description" (string), "objects" (array of strings), "colors" (array of strings), `)
	sb.WriteString(`"mood" (string), "style" (string), "confidence" (number between 0 and 1)`)
	if req.ExtractText {
		sb.WriteString(`, "extracted_text" (array of strings with any text visible in the image)`)
	}
	if req.GenerateTags {
		sb.WriteString(`, "tags" (array of short descriptive tags)`)
	}
	sb.WriteString(". Respond with JSON only, no prose.")
	return sb.String()
}

// parseVisionAnalysis tolerates models that wrap the JSON in code fences.
func parseVisionAnalysis(content string) (*lab_type.VisionAnalysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var analysis lab_type.VisionAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("vision response is not valid JSON: %w", err)
	}

	if analysis.Confidence < 0 {
		analysis.Confidence = 0
	}
	if analysis.Confidence > 1 {
		analysis.Confidence = 1
	}

	return &analysis, nil
}
