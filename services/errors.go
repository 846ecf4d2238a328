package services

import "fmt"

// ValidationError means the content gate rejected a document or the text was
// too short to validate. It is user-correctable and surfaced verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ExtractionError means no usable text could be obtained from an upload.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to extract text from %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("no text could be extracted from %s", e.Path)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmptyResultError means a processing step produced nothing to work with,
// e.g. chunking yielded zero chunks.
type EmptyResultError struct {
	Op string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s produced no results", e.Op)
}

// BackendError wraps a failed embedding, generation, or index call. The
// operation name plus the underlying cause is enough to diagnose without
// leaking credentials.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
