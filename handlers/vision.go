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

// VisionAnalyzer describes an image with a multimodal model.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, cfg llm_service.Config, req lab_type.VisionRequest) (*lab_type.VisionAnalysis, error)
}

type VisionHandler struct {
	cfg      llm_service.Config
	analyzer VisionAnalyzer
	logger   *slog.Logger
}

func NewVisionHandler(cfg llm_service.Config, analyzer VisionAnalyzer, logger *slog.Logger) *VisionHandler {
	return &VisionHandler{cfg: cfg, analyzer: analyzer, logger: logger}
}

func (h *VisionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req lab_type.VisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	analysis, err := h.analyzer.AnalyzeImage(r.Context(), h.cfg, req)
	if err != nil {
		var validationErr *lab_type.ValidationError
		if errors.As(err, &validationErr) {
			writeJSONError(w, validationErr.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Vision analysis failed",
			slog.String("image_url", req.ImageURL),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to analyze image", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}
