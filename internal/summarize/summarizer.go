// Package summarize implements the pipeline's summarization stage.
// The Summarizer interface keeps the application core independent of
// the LLM provider; the shipped implementation talks to Gemini.
package summarize

import (
	"context"
	"errors"

	"github.com/phrazzld/audigest-api/internal/domain"
)

// Common summarization errors.
var (
	// ErrInvalidConfig indicates missing or malformed LLM settings.
	ErrInvalidConfig = errors.New("invalid summarizer configuration")

	// ErrInvalidResponse indicates an unusable model response.
	ErrInvalidResponse = errors.New("invalid model response")

	// ErrTransientFailure indicates a retryable provider failure that
	// exhausted its retries.
	ErrTransientFailure = errors.New("transient summarization failure")
)

// Result is the outcome of a summarization call. Empty is true when
// the transcript carried no summarizable content; that is a legal
// result, not an error.
type Result struct {
	Summary *domain.Summary
	Empty   bool
}

// Summarizer produces a summary record for a media transcript.
type Summarizer interface {
	// Summarize generates a detail summary from the transcript text.
	// The returned summary is not yet persisted.
	Summarize(ctx context.Context, media *domain.Media, transcriptText string) (Result, error)
}
