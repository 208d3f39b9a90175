package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the run-level failure taxonomy. Each terminal failure a
// pipeline run can reach maps to exactly one of these.
var (
	// ErrEmptyOffer is returned when a job offer has no text at all.
	ErrEmptyOffer = errors.New("job offer is empty")
	// ErrOfferTooShort is returned when a job offer is below the minimum length.
	ErrOfferTooShort = errors.New("job offer too short")
	// ErrInvalidContentType is returned for an unrecognised output type.
	ErrInvalidContentType = errors.New("invalid content type")
	// ErrDimensionMismatch is returned when an embedding dimension does not
	// match the vector collection's configured dimension. Fatal, never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrAnalysisFailed is returned when the analyzer output cannot be parsed
	// into a structured JobAnalysis.
	ErrAnalysisFailed = errors.New("job offer analysis failed")
	// ErrNoEvidence is returned when retrieval yields zero documents above the
	// similarity threshold. Generation never proceeds without grounding.
	ErrNoEvidence = errors.New("no evidence found in vector store")
	// ErrUnsupportedProvider is returned when a resolved model provider is not
	// registered.
	ErrUnsupportedProvider = errors.New("unsupported model provider")
	// ErrInvalidParameter is returned when a resolved model parameter is
	// outside its valid range. Never silently clamped.
	ErrInvalidParameter = errors.New("invalid model parameter")
	// ErrInvalidChunking is returned for a non-positive chunk size or an
	// overlap that is not strictly smaller than the size.
	ErrInvalidChunking = errors.New("invalid chunking parameters")
	// ErrMissingSource is returned when an expected source document is absent
	// from an ingestion run.
	ErrMissingSource = errors.New("missing source document")
)

// ValidationError wraps a sentinel with the field and value that failed.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
