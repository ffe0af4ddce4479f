package chunker

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/serisow/ailab/lab_type"
)

// Config controls the sliding window used to split document text.
type Config struct {
	// ChunkSize is the target maximum number of characters per chunk.
	ChunkSize int
	// ChunkOverlap is how many characters consecutive chunks share.
	ChunkOverlap int
	// MinChunkSize discards candidates shorter than this after trimming.
	MinChunkSize int
	// PreserveParagraphs prefers paragraph then sentence boundaries over
	// hard character cuts.
	PreserveParagraphs bool
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:          1000,
		ChunkOverlap:       200,
		MinChunkSize:       100,
		PreserveParagraphs: true,
	}
}

type Chunker struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Chunker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chunker{cfg: cfg, logger: logger}
}

var multiNewline = regexp.MustCompile(`\n{3,}`)

// Normalize canonicalizes line endings, collapses runs of three or more
// newlines down to a paragraph break and trims surrounding whitespace.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// segment is an emitted window before chunk identity is assigned.
// Start and End are offsets into the normalized text, recorded before
// the content was trimmed.
type segment struct {
	content string
	start   int
	end     int
}

// split runs the sliding window over already-normalized text.
//
// A text no longer than ChunkSize is emitted whole, even below
// MinChunkSize. That single chunk may also exceed ChunkSize when the
// overlap configuration is degenerate; the multi-chunk path bounds every
// window at ChunkSize, the short-circuit does not. The asymmetry is
// carried over from the original behavior on purpose.
func (c *Chunker) split(text string) []segment {
	if text == "" {
		return nil
	}
	if len(text) <= c.cfg.ChunkSize {
		return []segment{{content: strings.TrimSpace(text), start: 0, end: len(text)}}
	}

	var segs []segment
	start := 0
	for start < len(text) {
		end := start + c.cfg.ChunkSize
		if end > len(text) {
			end = len(text)
		}

		if c.cfg.PreserveParagraphs && end < len(text) {
			window := text[start:end]
			if p := strings.LastIndex(window, "\n\n"); p > c.cfg.MinChunkSize {
				end = start + p + 2
			} else if p := strings.LastIndexByte(window, '.'); p > c.cfg.MinChunkSize {
				end = start + p + 1
			}
		}

		candidate := strings.TrimSpace(text[start:end])
		if len(candidate) >= c.cfg.MinChunkSize {
			segs = append(segs, segment{content: candidate, start: start, end: end})
		}

		if end >= len(text) {
			break
		}

		// The MinChunkSize floor keeps the window advancing even when
		// ChunkOverlap >= ChunkSize; that configuration is tolerated,
		// not rejected.
		next := end - c.cfg.ChunkOverlap
		if floor := start + c.cfg.MinChunkSize; next < floor {
			next = floor
		}
		if next >= end || next <= start {
			break
		}
		start = next
	}

	return segs
}

// Chunk normalizes text and splits it into chunks owned by the given
// document. A blank input yields an empty list, not an error.
func (c *Chunker) Chunk(documentID, title string, kind lab_type.SourceKind, text string) []lab_type.Chunk {
	normalized := Normalize(text)
	segs := c.split(normalized)

	chunks := make([]lab_type.Chunk, 0, len(segs))
	for i, seg := range segs {
		chunks = append(chunks, lab_type.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Content:    seg.content,
			Index:      i,
			Start:      seg.start,
			End:        seg.end,
			WordCount:  len(strings.Fields(seg.content)),
			CharCount:  len(seg.content),
			SourceKind: kind,
			Title:      title,
		})
	}

	c.logger.Debug("Chunked document text",
		slog.String("document_id", documentID),
		slog.Int("text_length", len(normalized)),
		slog.Int("chunk_count", len(chunks)))

	return chunks
}
