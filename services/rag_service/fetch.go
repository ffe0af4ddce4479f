package rag_service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultTitle = "Untitled"

var whitespaceRun = regexp.MustCompile(`\s+`)

// RemoteExtractor fetches a page and reduces it to plain text.
type RemoteExtractor struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewRemoteExtractor(logger *slog.Logger) *RemoteExtractor {
	return &RemoteExtractor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Fetch retrieves the URL and returns extracted text plus a recovered
// title. HTML pages are stripped of script/style blocks and tags; plain
// text bodies pass through verbatim. Any other content type is rejected.
// An empty body is not an error here.
func (e *RemoteExtractor) Fetch(ctx context.Context, rawURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", &ExtractionError{Source: rawURL, Err: err}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Error("Failed to fetch remote source",
			slog.String("url", rawURL),
			slog.String("error", err.Error()))
		return "", "", &ExtractionError{Source: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", &ExtractionError{
			Source: rawURL,
			Err:    fmt.Errorf("remote returned status %d", resp.StatusCode),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "text/html"):
		return e.extractHTML(resp.Body, rawURL)
	case strings.HasPrefix(contentType, "text/"):
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", "", &ExtractionError{Source: rawURL, Err: err}
		}
		return string(body), defaultTitle, nil
	default:
		return "", "", &ExtractionError{
			Source: rawURL,
			Err:    fmt.Errorf("unsupported content type: %s", contentType),
		}
	}
}

func (e *RemoteExtractor) extractHTML(body io.Reader, rawURL string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", "", &ExtractionError{Source: rawURL, Err: err}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = defaultTitle
	}

	doc.Find("script, style, noscript").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))

	e.logger.Info("Extracted text from remote page",
		slog.String("url", rawURL),
		slog.String("title", title),
		slog.Int("text_length", len(text)))

	return text, title, nil
}
