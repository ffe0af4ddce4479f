package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/serisow/ailab/lab_type"
	"github.com/serisow/ailab/services/llm_service"
)

// ImageGenerator produces an image from a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, cfg llm_service.Config, req lab_type.ImageRequest) (*lab_type.ImageResult, error)
}

type ImageHandler struct {
	cfg       llm_service.Config
	generator ImageGenerator
	logger    *slog.Logger
}

func NewImageHandler(cfg llm_service.Config, generator ImageGenerator, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{cfg: cfg, generator: generator, logger: logger}
}

func (h *ImageHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req lab_type.ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Provider != "" && req.Provider != "openai" {
		writeJSONError(w, "Unsupported image provider: "+req.Provider, http.StatusBadRequest)
		return
	}

	result, err := h.generator.GenerateImage(r.Context(), h.cfg, req)
	if err != nil {
		var validationErr *lab_type.ValidationError
		if errors.As(err, &validationErr) {
			writeJSONError(w, validationErr.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Image generation failed",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to generate image", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
