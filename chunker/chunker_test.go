package chunker

import (
	"strings"
	"testing"

	"github.com/serisow/ailab/lab_type"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"windows line endings", "a\r\nb", "a\nb"},
		{"bare carriage returns", "a\rb", "a\nb"},
		{"collapses newline runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"trims surrounding whitespace", "  \n hello \n\t", "hello"},
		{"mixed", "a\r\n\r\n\r\nb", "a\n\nb"},
	}

	for _, c := range cases {
		if got := Normalize(c.input); got != c.want {
			t.Errorf("%s: Normalize(%q) = %q, want %q", c.name, c.input, got, c.want)
		}
	}
}

func TestEmptyInputYieldsNoChunks(t *testing.T) {
	c := New(DefaultConfig(), nil)

	for _, input := range []string{"", "   ", "\n\n\t  \n"} {
		chunks := c.Chunk("doc-1", "Title", lab_type.SourceKindText, input)
		if len(chunks) != 0 {
			t.Errorf("expected no chunks for input %q, got %d", input, len(chunks))
		}
	}
}

func TestSingleChunkShortCircuit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 100
	c := New(cfg, nil)

	// Shorter than MinChunkSize, but the single-chunk path bypasses the
	// minimum-size discard.
	chunks := c.Chunk("doc-1", "Title", lab_type.SourceKindText, "short")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "short" {
		t.Errorf("expected content 'short', got %q", chunks[0].Content)
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
	if chunks[0].Start != 0 || chunks[0].End != 5 {
		t.Errorf("expected offsets [0,5], got [%d,%d]", chunks[0].Start, chunks[0].End)
	}
}

func TestInputExactlyChunkSize(t *testing.T) {
	c := New(DefaultConfig(), nil)
	text := strings.Repeat("a", 1000)

	chunks := c.Chunk("doc-1", "Title", lab_type.SourceKindText, text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for input of exactly ChunkSize, got %d", len(chunks))
	}
	if chunks[0].Content != text {
		t.Error("expected single chunk content to equal the input")
	}
}

func TestInputOneOverChunkSize(t *testing.T) {
	c := New(DefaultConfig(), nil)
	text := strings.Repeat("a", 1001)

	chunks := c.Chunk("doc-1", "Title", lab_type.SourceKindText, text)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks for input one over ChunkSize, got %d", len(chunks))
	}
}

func TestHardCutsOnPlainText(t *testing.T) {
	// 2500 characters without paragraph or sentence boundaries: windows
	// fall at the hard cuts 0-1000, 800-1800, 1600-2500.
	c := New(DefaultConfig(), nil)
	text := strings.Repeat("a", 2500)

	chunks := c.Chunk("doc-1", "Title", lab_type.SourceKindText, text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	wantStarts := []int{0, 800, 1600}
	for i, chunk := range chunks {
		if chunk.Start != wantStarts[i] {
			t.Errorf("chunk %d: expected start %d, got %d", i, wantStarts[i], chunk.Start)
		}
		if chunk.Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, chunk.Index)
		}
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start >= chunks[i-1].End {
			t.Errorf("chunk %d: expected start %d < previous end %d (overlap)",
				i, chunks[i].Start, chunks[i-1].End)
		}
	}
}

func TestParagraphBoundarySnap(t *testing.T) {
	c := New(DefaultConfig(), nil)
	paraA := strings.Repeat("a", 600)
	paraB := strings.Repeat("b", 600)
	text := paraA + "\n\n" + paraB

	chunks := c.Chunk("doc-1", "Title", lab_type.SourceKindText, text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != paraA {
		t.Errorf("expected first chunk to end at the paragraph boundary, got %d chars",
			len(chunks[0].Content))
	}
	if chunks[0].End != 602 {
		t.Errorf("expected first chunk end offset 602 (past the break), got %d", chunks[0].End)
	}
	if chunks[1].Start >= chunks[0].End {
		t.Errorf("expected overlapping windows, second start %d >= first end %d",
			chunks[1].Start, chunks[0].End)
	}
}

func TestSentenceBoundaryFallback(t *testing.T) {
	c := New(DefaultConfig(), nil)
	// No paragraph breaks; periods every 300 characters.
	sentence := strings.Repeat("x", 298) + ". "
	text := strings.TrimSpace(strings.Repeat(sentence, 4))

	chunks := c.Chunk("doc-1", "Title", lab_type.SourceKindText, text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Content, ".") {
		t.Errorf("expected first chunk to end at a sentence boundary, got suffix %q",
			chunks[0].Content[len(chunks[0].Content)-5:])
	}
	if len(chunks[0].Content) >= 1000 {
		t.Errorf("expected sentence snap below the hard cut, got %d chars", len(chunks[0].Content))
	}
}

func TestShortTailDiscarded(t *testing.T) {
	cfg := Config{ChunkSize: 100, ChunkOverlap: 10, MinChunkSize: 50, PreserveParagraphs: true}
	c := New(cfg, nil)
	text := strings.Repeat("a", 120)

	// The 30-character tail window falls below MinChunkSize.
	chunks := c.Chunk("doc-1", "Title", lab_type.SourceKindText, text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk with the short tail discarded, got %d", len(chunks))
	}
	if len(chunks[0].Content) != 100 {
		t.Errorf("expected 100-char chunk, got %d", len(chunks[0].Content))
	}
}

func TestOverlapLargerThanChunkSizeTerminates(t *testing.T) {
	// Degenerate overlap: the MinChunkSize floor still advances the
	// window, so chunking terminates with tightly packed chunks.
	cfg := Config{ChunkSize: 100, ChunkOverlap: 150, MinChunkSize: 40, PreserveParagraphs: false}
	c := New(cfg, nil)
	text := strings.Repeat("a", 400)

	chunks := c.Chunk("doc-1", "Title", lab_type.SourceKindText, text)
	if len(chunks) != 9 {
		t.Fatalf("expected 9 chunks advancing by MinChunkSize, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start <= chunks[i-1].Start {
			t.Fatalf("chunk %d: start %d not strictly increasing", i, chunks[i].Start)
		}
	}
}

func TestChunkingIsDeterministic(t *testing.T) {
	c := New(DefaultConfig(), nil)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 80)

	first := c.Chunk("doc-1", "Title", lab_type.SourceKindText, text)
	second := c.Chunk("doc-1", "Title", lab_type.SourceKindText, text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content ||
			first[i].Start != second[i].Start ||
			first[i].End != second[i].End ||
			first[i].Index != second[i].Index ||
			first[i].WordCount != second[i].WordCount ||
			first[i].CharCount != second[i].CharCount {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestOffsetsSliceBackToContent(t *testing.T) {
	c := New(DefaultConfig(), nil)
	text := strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit. ", 60)
	normalized := Normalize(text)

	chunks := c.Chunk("doc-1", "Title", lab_type.SourceKindText, text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	prevStart := -1
	for i, chunk := range chunks {
		if chunk.Start < 0 || chunk.End > len(normalized) || chunk.Start >= chunk.End {
			t.Fatalf("chunk %d: offsets [%d,%d] out of bounds for text of length %d",
				i, chunk.Start, chunk.End, len(normalized))
		}
		if got := strings.TrimSpace(normalized[chunk.Start:chunk.End]); got != chunk.Content {
			t.Errorf("chunk %d: content does not match its recorded offsets", i)
		}
		if chunk.Start <= prevStart {
			t.Errorf("chunk %d: start %d not strictly greater than previous %d",
				i, chunk.Start, prevStart)
		}
		prevStart = chunk.Start
	}
}

func TestChunkCarriesDocumentFields(t *testing.T) {
	c := New(DefaultConfig(), nil)

	chunks := c.Chunk("doc-42", "Quarterly Report", lab_type.SourceKindPDF, "A compact body of text.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	chunk := chunks[0]
	if chunk.DocumentID != "doc-42" {
		t.Errorf("expected document back-reference 'doc-42', got %q", chunk.DocumentID)
	}
	if chunk.Title != "Quarterly Report" {
		t.Errorf("expected denormalized title, got %q", chunk.Title)
	}
	if chunk.SourceKind != lab_type.SourceKindPDF {
		t.Errorf("expected denormalized source kind, got %q", chunk.SourceKind)
	}
	if chunk.WordCount != 5 {
		t.Errorf("expected word count 5, got %d", chunk.WordCount)
	}
	if chunk.CharCount != len(chunk.Content) {
		t.Errorf("expected char count %d, got %d", len(chunk.Content), chunk.CharCount)
	}
	if chunk.ID == "" {
		t.Error("expected a generated chunk id")
	}
}
