package domain

import (
	"errors"
	"time"
)

// SummaryTypeDetail is the default summary type produced by the
// pipeline. Other types (short, mindmap) share the same record shape.
const SummaryTypeDetail = "detail"

// Common validation errors for Summary
var (
	ErrEmptySummaryContent = errors.New("summary content cannot be empty")
	ErrEmptySummaryType    = errors.New("summary type cannot be empty")
)

// Summary is an LLM-generated digest of a media transcript. At most one
// summary exists per (media, type) pair; regeneration replaces it.
type Summary struct {
	ID         int64     `json:"id,omitempty"`
	MediaID    int64     `json:"media_id,omitempty"`
	Type       string    `json:"summary_type"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	ModelUsed  string    `json:"model_used"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSummary creates a Summary of the default detail type.
func NewSummary(mediaID int64, content, modelUsed string, tags []string) (*Summary, error) {
	summary := &Summary{
		MediaID:   mediaID,
		Type:      SummaryTypeDetail,
		Content:   content,
		Tags:      tags,
		ModelUsed: modelUsed,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := summary.Validate(); err != nil {
		return nil, err
	}

	return summary, nil
}

// Validate checks if the Summary has valid data.
func (s *Summary) Validate() error {
	if s.Type == "" {
		return ErrEmptySummaryType
	}
	if s.Content == "" {
		return ErrEmptySummaryContent
	}
	return nil
}
