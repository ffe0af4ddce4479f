package vector_store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/serisow/ailab/lab_type"
)

func TestBuildQueryBindsThresholdAndLimit(t *testing.T) {
	query, args := buildQuery("ailab", []float32{0.1, 0.2}, QueryOptions{
		TopK:      10,
		Threshold: 0.3,
	})

	if len(args) != 4 {
		t.Fatalf("expected 4 bound args, got %d: %v", len(args), args)
	}
	if args[1] != "ailab" {
		t.Errorf("expected namespace as second arg, got %v", args[1])
	}
	if args[2] != 0.3 {
		t.Errorf("expected threshold as third arg, got %v", args[2])
	}
	if args[3] != 10 {
		t.Errorf("expected top_k as fourth arg, got %v", args[3])
	}

	if !strings.Contains(query, "1 - (embedding <=> $1)") {
		t.Error("expected cosine similarity scoring against the query vector")
	}
	if !strings.Contains(query, "similarity_score >= $3") {
		t.Error("expected threshold as an inclusive lower bound on the score")
	}
	if !strings.Contains(query, "ORDER BY similarity_score DESC") {
		t.Error("expected results ordered by descending score")
	}
	if !strings.Contains(query, "LIMIT $4") {
		t.Error("expected top_k bound as the limit")
	}
}

func TestBuildQueryAppendsFilters(t *testing.T) {
	query, args := buildQuery("ailab", []float32{0.1}, QueryOptions{
		TopK:       5,
		Threshold:  0.5,
		DocumentID: "doc-1",
		SourceKind: lab_type.SourceKindPDF,
	})

	if len(args) != 6 {
		t.Fatalf("expected 6 bound args, got %d: %v", len(args), args)
	}
	if args[2] != "doc-1" || args[3] != "pdf" {
		t.Errorf("expected filters bound after the namespace, got %v", args)
	}
	if args[4] != 0.5 || args[5] != 5 {
		t.Errorf("expected threshold and top_k renumbered after filters, got %v", args)
	}

	if !strings.Contains(query, "document_id = $3") {
		t.Error("expected document filter at placeholder 3")
	}
	if !strings.Contains(query, "source_kind = $4") {
		t.Error("expected source kind filter at placeholder 4")
	}
	if !strings.Contains(query, "similarity_score >= $5") {
		t.Error("expected threshold shifted to placeholder 5")
	}
	if !strings.Contains(query, "LIMIT $6") {
		t.Error("expected limit shifted to placeholder 6")
	}
}

func TestQueryRejectsDimensionMismatch(t *testing.T) {
	client := NewClient(nil, "ailab", 3, 0, slog.Default())

	_, err := client.Query(context.Background(), []float32{0.1, 0.2}, QueryOptions{TopK: 1})

	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("expected QueryError for wrong vector dimension, got %v", err)
	}
}

func TestUpsertRejectsDimensionMismatch(t *testing.T) {
	client := NewClient(nil, "ailab", 3, 0, slog.Default())

	err := client.Upsert(context.Background(), []Item{
		{ID: "c1", Vector: []float32{0.1}, Chunk: lab_type.Chunk{ID: "c1"}},
	})

	var upsertErr *UpsertError
	if !errors.As(err, &upsertErr) {
		t.Fatalf("expected UpsertError for wrong vector dimension, got %v", err)
	}
}
