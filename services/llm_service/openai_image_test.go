package llm_service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serisow/ailab/lab_type"
)

func TestGenerateImageValidation(t *testing.T) {
	service := NewOpenAIImageService(slog.Default())
	cfg := Config{APIURL: "http://unused.invalid", Model: "dall-e-3"}

	cases := []struct {
		name  string
		req   lab_type.ImageRequest
		field string
	}{
		{"prompt too short", lab_type.ImageRequest{Prompt: "short"}, "prompt"},
		{"bad size", lab_type.ImageRequest{Prompt: "a long enough prompt", Size: "512x512"}, "size"},
		{"bad quality", lab_type.ImageRequest{Prompt: "a long enough prompt", Quality: "ultra"}, "quality"},
		{"bad style", lab_type.ImageRequest{Prompt: "a long enough prompt", Style: "cubist"}, "style"},
	}

	for _, c := range cases {
		_, err := service.GenerateImage(context.Background(), cfg, c.req)
		var validationErr *lab_type.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("%s: expected ValidationError, got %v", c.name, err)
			continue
		}
		if validationErr.Field != c.field {
			t.Errorf("%s: expected field %q, got %q", c.name, c.field, validationErr.Field)
		}
	}
}

func TestGenerateImageReturnsResultWithCost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"url":"https://img.example.com/1.png","revised_prompt":"a detailed fox"}]}`))
	}))
	defer server.Close()

	service := NewOpenAIImageService(slog.Default())
	cfg := Config{APIURL: server.URL, APIKey: "test-key", Model: "dall-e-3"}

	result, err := service.GenerateImage(context.Background(), cfg, lab_type.ImageRequest{
		Prompt:  "a watercolor fox in the snow",
		Quality: "hd",
	})
	if err != nil {
		t.Fatalf("expected generation to succeed, got error: %v", err)
	}
	if result.URL != "https://img.example.com/1.png" {
		t.Errorf("unexpected url: %q", result.URL)
	}
	if result.RevisedPrompt != "a detailed fox" {
		t.Errorf("unexpected revised prompt: %q", result.RevisedPrompt)
	}
	// Default size 1024x1024 at hd quality.
	if result.CostEstimate != 0.08 {
		t.Errorf("expected cost estimate 0.08, got %f", result.CostEstimate)
	}
}

func TestGenerateImageQuotaExceededDoesNotRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exhausted","type":"insufficient_quota"}}`))
	}))
	defer server.Close()

	service := NewOpenAIImageService(slog.Default())
	cfg := Config{APIURL: server.URL, APIKey: "test-key", Model: "dall-e-3"}

	_, err := service.GenerateImage(context.Background(), cfg, lab_type.ImageRequest{
		Prompt: "a long enough prompt",
	})
	if err == nil {
		t.Fatal("expected quota error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected a single upstream call on quota errors, got %d", calls)
	}
}
