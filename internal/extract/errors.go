package extract

import (
	"errors"

	"github.com/gloirembonyi/excel-data-extracter/internal/resilience"
	"github.com/gloirembonyi/excel-data-extracter/pkg/gemini"
)

// ExtractionError marks a failure while reading text from the image.
// On the final attempt it fails the item.
type ExtractionError struct {
	Err        error
	StatusCode int
}

func (e *ExtractionError) Error() string { return "extract text: " + e.Err.Error() }

func (e *ExtractionError) Unwrap() error { return e.Err }

// StructuringError marks a failure while shaping extracted text into rows.
// On the final attempt the fallback parser takes over instead of failing
// the item.
type StructuringError struct {
	Err error
}

func (e *StructuringError) Error() string { return "structure text: " + e.Err.Error() }

func (e *StructuringError) Unwrap() error { return e.Err }

// newExtractionError wraps a client failure, tagging retryable API statuses
// as transient so the retry loop can log them as such.
func newExtractionError(err error) *ExtractionError {
	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		if resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			err = resilience.NewTransientError(err, apiErr.StatusCode)
		}
		return &ExtractionError{Err: err, StatusCode: apiErr.StatusCode}
	}
	return &ExtractionError{Err: err}
}
