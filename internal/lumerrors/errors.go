// Package lumerrors provides sentinel and custom error types for the pipeline.
package lumerrors

import "errors"

// ErrAssetNotFound is returned by asset repositories when no asset exists for
// an ID. The job processor treats it as a silent no-op, not a failure.
var ErrAssetNotFound = errors.New("asset not found")

// ErrVectorStoreUnavailable indicates the vector index never initialized or
// became unreachable. Vector store methods degrade to no-ops instead of
// returning it to callers; it appears only in logs and stats.
var ErrVectorStoreUnavailable = errors.New("vector store unavailable")

// ExtractionError reports a failed content extraction: missing, oversized, or
// unparsable file, or an unreachable URL. It is recorded on the asset rather
// than propagated across the job boundary.
type ExtractionError struct {
	Source string
	Reason string
	Err    error
}

// NewExtractionError creates an ExtractionError for the given source file.
func NewExtractionError(source, reason string, err error) *ExtractionError {
	return &ExtractionError{Source: source, Reason: reason, Err: err}
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	msg := "extraction failed"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error { return e.Err }

// Is implements the error interface for error comparison.
func (e *ExtractionError) Is(target error) bool {
	_, ok := target.(*ExtractionError)

	return ok
}

// EmbeddingError reports a failed embedding call. It bubbles up as a job
// failure subject to retry.
type EmbeddingError struct {
	Err error
}

// NewEmbeddingError wraps an embedding provider failure.
func NewEmbeddingError(err error) *EmbeddingError {
	return &EmbeddingError{Err: err}
}

// Error implements the error interface.
func (e *EmbeddingError) Error() string {
	if e.Err != nil {
		return "embedding failed: " + e.Err.Error()
	}

	return "embedding failed"
}

// Unwrap returns the underlying cause.
func (e *EmbeddingError) Unwrap() error { return e.Err }

// Is implements the error interface for error comparison.
func (e *EmbeddingError) Is(target error) bool {
	_, ok := target.(*EmbeddingError)

	return ok
}
