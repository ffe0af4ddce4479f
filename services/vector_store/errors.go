package vector_store

import "fmt"

// Each store operation fails with its own error type so callers can
// surface the failing operation instead of swallowing it.

type UpsertError struct {
	Err error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("vector upsert failed: %v", e.Err)
}

func (e *UpsertError) Unwrap() error { return e.Err }

type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("vector query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

type DeleteError struct {
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("vector delete failed: %v", e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

type StatsError struct {
	Err error
}

func (e *StatsError) Error() string {
	return fmt.Sprintf("vector stats failed: %v", e.Err)
}

func (e *StatsError) Unwrap() error { return e.Err }
