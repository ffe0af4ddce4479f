package llm_service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serisow/ailab/lab_type"
)

func TestAnalyzeImageValidation(t *testing.T) {
	service := NewOpenAIVisionService(slog.Default())
	cfg := Config{APIURL: "http://unused.invalid", Model: "gpt-4o"}

	var validationErr *lab_type.ValidationError

	_, err := service.AnalyzeImage(context.Background(), cfg, lab_type.VisionRequest{ImageURL: "  "})
	if !errors.As(err, &validationErr) || validationErr.Field != "image_url" {
		t.Errorf("expected image_url validation error, got %v", err)
	}

	_, err = service.AnalyzeImage(context.Background(), cfg, lab_type.VisionRequest{
		ImageURL: "https://example.com/cat.jpg",
		Detail:   "maximum",
	})
	if !errors.As(err, &validationErr) || validationErr.Field != "detail" {
		t.Errorf("expected detail validation error, got %v", err)
	}
}

func TestAnalyzeImageParsesStructuredResponse(t *testing.T) {
	// The model wraps its JSON in a code fence; the parser must cope.
	modelOutput := "```json\n{\"description\":\"a cat on a desk\",\"objects\":[\"cat\",\"desk\"]," +
		"\"colors\":[\"orange\"],\"mood\":\"calm\",\"style\":\"photo\",\"confidence\":1.4," +
		"\"tags\":[\"pets\"]}\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, _ := json.Marshal(modelOutput)
		w.Write([]byte(`{"choices":[{"message":{"content":` + string(content) + `}}]}`))
	}))
	defer server.Close()

	service := NewOpenAIVisionService(slog.Default())
	cfg := Config{APIURL: server.URL, APIKey: "test-key", Model: "gpt-4o"}

	analysis, err := service.AnalyzeImage(context.Background(), cfg, lab_type.VisionRequest{
		ImageURL:     "https://example.com/cat.jpg",
		GenerateTags: true,
	})
	if err != nil {
		t.Fatalf("expected analysis to succeed, got error: %v", err)
	}

	if analysis.Description != "a cat on a desk" {
		t.Errorf("unexpected description: %q", analysis.Description)
	}
	if len(analysis.Objects) != 2 || analysis.Objects[0] != "cat" {
		t.Errorf("unexpected objects: %v", analysis.Objects)
	}
	if analysis.Confidence != 1 {
		t.Errorf("expected confidence clamped to 1, got %f", analysis.Confidence)
	}
	if len(analysis.Tags) != 1 || analysis.Tags[0] != "pets" {
		t.Errorf("unexpected tags: %v", analysis.Tags)
	}
}

func TestParseVisionAnalysisRejectsProse(t *testing.T) {
	_, err := parseVisionAnalysis("I see a cat sitting on a desk.")
	if err == nil {
		t.Error("expected error for non-JSON response, got nil")
	}
}
