package rag_service

import (
	"bytes"
	"fmt"
	"log/slog"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"
)

type DocumentExtractor struct {
	logger *slog.Logger
}

func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
	return &DocumentExtractor{
		logger: logger,
	}
}

// ExtractPDF returns the concatenated page text and the page count.
// An empty result is valid: emptiness is the chunker's concern, not the
// extractor's.
func (e *DocumentExtractor) ExtractPDF(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Error("Failed to create PDF reader",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", 0, &ExtractionError{Source: "pdf", Err: err}
	}

	totalPages := reader.NumPage()
	var fullText string
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			e.logger.Warn("Null page encountered",
				slog.Int("page_number", pageIndex))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Error("Failed to extract text from page",
				slog.Int("page_number", pageIndex),
				slog.String("error", err.Error()))
			return "", 0, &ExtractionError{
				Source: "pdf",
				Err:    fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err),
			}
		}

		fullText += text
	}

	e.logger.Info("Extracted text from PDF",
		slog.Int("total_pages", totalPages),
		slog.Int("text_length", len(fullText)))

	return fullText, totalPages, nil
}

// ExtractWord converts a .doc/.docx body to plain text.
func (e *DocumentExtractor) ExtractWord(data []byte) (string, error) {
	mimeType := "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	result, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert Word document",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", &ExtractionError{Source: "word document", Err: err}
	}

	e.logger.Info("Extracted text from Word document",
		slog.Int("text_length", len(result.Body)))

	return result.Body, nil
}
