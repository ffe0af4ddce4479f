package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/serisow/ailab/handlers"
	"github.com/serisow/ailab/lab_type"
	"github.com/serisow/ailab/services/llm_service"
)

type stubGenerator struct {
	result *lab_type.ImageResult
	err    error
}

func (s *stubGenerator) GenerateImage(ctx context.Context, cfg llm_service.Config, req lab_type.ImageRequest) (*lab_type.ImageResult, error) {
	return s.result, s.err
}

func doGenerate(t *testing.T, handler *handlers.ImageHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/images", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Generate(rec, req)
	return rec
}

func TestGenerateImageSuccess(t *testing.T) {
	generator := &stubGenerator{result: &lab_type.ImageResult{
		URL:           "https://images.example.com/out.png",
		RevisedPrompt: "a watercolor fox",
		CostEstimate:  0.04,
	}}
	handler := handlers.NewImageHandler(llm_service.Config{}, generator, slog.Default())

	rec := doGenerate(t, handler, `{"prompt": "a watercolor fox in the snow"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var result lab_type.ImageResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if result.URL != "https://images.example.com/out.png" {
		t.Errorf("unexpected image url: %q", result.URL)
	}
}

func TestGenerateImageValidationErrorMapsToBadRequest(t *testing.T) {
	generator := &stubGenerator{err: &lab_type.ValidationError{Field: "prompt", Message: "prompt must be at least 10 characters"}}
	handler := handlers.NewImageHandler(llm_service.Config{}, generator, slog.Default())

	rec := doGenerate(t, handler, `{"prompt": "short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "prompt") {
		t.Errorf("expected validation message to name the field, got %s", rec.Body.String())
	}
}

func TestGenerateImageUpstreamFailure(t *testing.T) {
	generator := &stubGenerator{err: errors.New("provider timeout")}
	handler := handlers.NewImageHandler(llm_service.Config{}, generator, slog.Default())

	rec := doGenerate(t, handler, `{"prompt": "a long enough prompt"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}

func TestGenerateImageUnsupportedProvider(t *testing.T) {
	handler := handlers.NewImageHandler(llm_service.Config{}, &stubGenerator{}, slog.Default())

	rec := doGenerate(t, handler, `{"prompt": "a long enough prompt", "provider": "stability"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unsupported provider, got %d", rec.Code)
	}
}
