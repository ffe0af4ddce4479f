package rag_service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchHTMLPage(t *testing.T) {
	page := `<html>
<head><title>  Release Notes  </title><style>body { color: red }</style></head>
<body>
  <script>console.log("tracking")</script>
  <h1>Release   Notes</h1>
  <p>Version 2.0 ships
  today.</p>
</body>
</html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer server.Close()

	extractor := NewRemoteExtractor(slog.Default())
	text, title, err := extractor.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected fetch to succeed, got error: %v", err)
	}

	if title != "Release Notes" {
		t.Errorf("expected title 'Release Notes', got %q", title)
	}
	if strings.Contains(text, "tracking") || strings.Contains(text, "color: red") {
		t.Errorf("expected script and style content to be stripped, got %q", text)
	}
	if !strings.Contains(text, "Version 2.0 ships today.") {
		t.Errorf("expected whitespace runs collapsed to single spaces, got %q", text)
	}
}

func TestFetchHTMLWithoutTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><p>no title here</p></body></html>"))
	}))
	defer server.Close()

	extractor := NewRemoteExtractor(slog.Default())
	_, title, err := extractor.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected fetch to succeed, got error: %v", err)
	}
	if title != "Untitled" {
		t.Errorf("expected fallback title 'Untitled', got %q", title)
	}
}

func TestFetchPlainTextPassesThrough(t *testing.T) {
	body := "line one\nline two\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(body))
	}))
	defer server.Close()

	extractor := NewRemoteExtractor(slog.Default())
	text, title, err := extractor.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected fetch to succeed, got error: %v", err)
	}
	if text != body {
		t.Errorf("expected plain text body verbatim, got %q", text)
	}
	if title != "Untitled" {
		t.Errorf("expected title 'Untitled', got %q", title)
	}
}

func TestFetchUnsupportedContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0x00, 0x01})
	}))
	defer server.Close()

	extractor := NewRemoteExtractor(slog.Default())
	_, _, err := extractor.Fetch(context.Background(), server.URL)

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if !strings.Contains(err.Error(), "unsupported content type") {
		t.Errorf("expected unsupported content type error, got %v", err)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	extractor := NewRemoteExtractor(slog.Default())
	_, _, err := extractor.Fetch(context.Background(), server.URL)

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError for status 404, got %v", err)
	}
	if extractionErr.Source != server.URL {
		t.Errorf("expected error to carry the source url, got %q", extractionErr.Source)
	}
}
