package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinOfferLength is the minimum number of characters a job offer must carry
// to be worth analysing.
const MinOfferLength = 50

// ValidateJobOffer checks that an offer is non-empty and substantial enough
// for analysis and retrieval to be meaningful.
func ValidateJobOffer(o JobOffer) error {
	text := strings.TrimSpace(o.Text)
	if text == "" {
		return NewValidationError("text", "", ErrEmptyOffer)
	}
	if utf8.RuneCountInString(text) < MinOfferLength {
		return NewValidationError("text", preview(text, 40), ErrOfferTooShort)
	}
	return nil
}

// ValidateContentType checks the requested output type against the known set.
func ValidateContentType(ct ContentType) error {
	if !ValidContentTypes[ct] {
		return NewValidationError("content_type", string(ct), ErrInvalidContentType)
	}
	return nil
}

// ValidateChunking checks chunker configuration: both values positive and the
// overlap strictly smaller than the size.
func ValidateChunking(size, overlap int) error {
	if size <= 0 {
		return NewValidationError("chunk_size", fmt.Sprintf("%d", size), ErrInvalidChunking)
	}
	if overlap < 0 || overlap >= size {
		return NewValidationError("chunk_overlap", fmt.Sprintf("%d", overlap), ErrInvalidChunking)
	}
	return nil
}

// ValidateSourceDocument checks a document handed to ingestion. An empty text
// is allowed (it simply yields no chunks) but the source tag is mandatory for
// provenance.
func ValidateSourceDocument(d SourceDocument) error {
	if strings.TrimSpace(d.Source) == "" {
		return NewValidationError("source", d.Source, ErrMissingSource)
	}
	return nil
}

// preview truncates s to at most n runes for error messages and logs.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
