package domain

import (
	"errors"
	"time"
)

// MediaStatus represents the processing state of a media record.
type MediaStatus string

// Possible media status values. The pipeline moves strictly forward
// through the processing statuses; failed is re-entered into pending
// only by an explicit resubmission.
const (
	MediaStatusPending      MediaStatus = "pending"
	MediaStatusDownloading  MediaStatus = "downloading"
	MediaStatusTranscribing MediaStatus = "transcribing"
	MediaStatusSummarizing  MediaStatus = "summarizing"
	MediaStatusCompleted    MediaStatus = "completed"
	MediaStatusFailed       MediaStatus = "failed"
)

// Common validation errors for Media
var (
	ErrEmptyMediaURL      = errors.New("media URL cannot be empty")
	ErrInvalidMediaStatus = errors.New("invalid media status")
)

// Media represents one submitted source URL and its journey through the
// pipeline. OriginalURL is the canonical (cleaned) form and is unique
// across all records: it is the deduplication key for submissions.
type Media struct {
	ID          int64       `json:"id"`
	OriginalURL string      `json:"original_url"`
	Title       string      `json:"title"`
	Author      string      `json:"author,omitempty"`
	Platform    string      `json:"platform"`
	Duration    int64       `json:"duration,omitempty"`
	Status      MediaStatus `json:"status"`

	// LocalAudioPath is the downloaded audio artifact consumed by the
	// transcribe stage. Empty until the download stage completes.
	LocalAudioPath string `json:"-"`

	// ErrorMessage is populated if and only if Status is failed, and
	// cleared on any transition out of failed.
	ErrorMessage string `json:"error_msg,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMedia creates a new pending Media for the given canonical URL and
// detected platform. The placeholder title is replaced by the download
// stage's metadata.
func NewMedia(canonicalURL, platform string) (*Media, error) {
	media := &Media{
		OriginalURL: canonicalURL,
		Title:       "fetching...",
		Platform:    platform,
		Status:      MediaStatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := media.Validate(); err != nil {
		return nil, err
	}

	return media, nil
}

// Validate checks if the Media has valid data.
// Returns an error if any field fails validation.
func (m *Media) Validate() error {
	if m.OriginalURL == "" {
		return ErrEmptyMediaURL
	}

	if !isValidMediaStatus(m.Status) {
		return ErrInvalidMediaStatus
	}

	return nil
}

// Terminal reports whether the status is an end state of the pipeline.
func (s MediaStatus) Terminal() bool {
	return s == MediaStatusCompleted || s == MediaStatusFailed
}

// isValidMediaStatus checks if the given status is a valid MediaStatus.
func isValidMediaStatus(status MediaStatus) bool {
	switch status {
	case MediaStatusPending, MediaStatusDownloading, MediaStatusTranscribing,
		MediaStatusSummarizing, MediaStatusCompleted, MediaStatusFailed:
		return true
	default:
		return false
	}
}
