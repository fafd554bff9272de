package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMedia(t *testing.T) {
	media, err := NewMedia("https://www.youtube.com/watch?v=abc123", "youtube")
	require.NoError(t, err)

	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", media.OriginalURL)
	assert.Equal(t, "youtube", media.Platform)
	assert.Equal(t, MediaStatusPending, media.Status)
	assert.Empty(t, media.ErrorMessage)
	assert.False(t, media.CreatedAt.IsZero())
}

func TestNewMediaEmptyURL(t *testing.T) {
	media, err := NewMedia("", "unknown")
	assert.ErrorIs(t, err, ErrEmptyMediaURL)
	assert.Nil(t, media)
}

func TestMediaValidateStatus(t *testing.T) {
	valid := []MediaStatus{
		MediaStatusPending,
		MediaStatusDownloading,
		MediaStatusTranscribing,
		MediaStatusSummarizing,
		MediaStatusCompleted,
		MediaStatusFailed,
	}

	for _, status := range valid {
		m := Media{OriginalURL: "https://example.com/a.mp3", Status: status}
		assert.NoError(t, m.Validate(), "status %q should validate", status)
	}

	m := Media{OriginalURL: "https://example.com/a.mp3", Status: "processing"}
	assert.ErrorIs(t, m.Validate(), ErrInvalidMediaStatus)
}

func TestMediaStatusTerminal(t *testing.T) {
	assert.True(t, MediaStatusCompleted.Terminal())
	assert.True(t, MediaStatusFailed.Terminal())
	assert.False(t, MediaStatusPending.Terminal())
	assert.False(t, MediaStatusTranscribing.Terminal())
}

func TestTranscriptSegmentValidate(t *testing.T) {
	seg := TranscriptSegment{StartTime: 1.5, EndTime: 3.0, Text: "hello", SpeakerLabel: "Speaker_0"}
	assert.NoError(t, seg.Validate())

	inverted := TranscriptSegment{StartTime: 3.0, EndTime: 1.5}
	assert.ErrorIs(t, inverted.Validate(), ErrSegmentTimesInverted)

	// Zero-length segment is legal.
	point := TranscriptSegment{StartTime: 2.0, EndTime: 2.0}
	assert.NoError(t, point.Validate())
}

func TestNewSummary(t *testing.T) {
	summary, err := NewSummary(7, "# Digest", "gemini-2.0-flash", []string{"go"})
	require.NoError(t, err)
	assert.Equal(t, SummaryTypeDetail, summary.Type)
	assert.Equal(t, int64(7), summary.MediaID)

	_, err = NewSummary(7, "", "gemini-2.0-flash", nil)
	assert.ErrorIs(t, err, ErrEmptySummaryContent)
}
