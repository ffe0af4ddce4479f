package rag_service

import "fmt"

// ExtractionError reports a source that could not be turned into text:
// a corrupt or unsupported document, or an unreachable remote page.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// EmbeddingError reports empty input or an upstream embedding failure.
// The batch path fails as a whole: there is no partial success.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
