package answer

import (
	"errors"
	"fmt"
)

// ErrEmptyMessage is returned when the request carries no message text.
var ErrEmptyMessage = errors.New("answer: no message provided")

// ErrNotFound is the common cause of every not-found outcome. Callers that
// only need the status class test for it with errors.Is.
var ErrNotFound = errors.New("answer: not found")

var (
	// ErrUnknownProduct is returned when a "Tell me about" request names a
	// category path whose first segment does not exist.
	ErrUnknownProduct = fmt.Errorf("%w: unknown product", ErrNotFound)

	// ErrNoAnswer is returned when generation produced no usable text.
	ErrNoAnswer = fmt.Errorf("%w: empty answer", ErrNotFound)
)

// Pipeline stages reported by UpstreamError.
const (
	StageRetrieval  = "retrieval"
	StageGeneration = "generation"
)

// UpstreamError reports a failed call to an external collaborator. The
// wrapped error carries the detail for server-side logs only.
type UpstreamError struct {
	// Stage is StageRetrieval or StageGeneration.
	Stage string
	// Err is the underlying failure.
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("answer: %s failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
