package domain

import "errors"

// Common validation errors for TranscriptSegment
var (
	ErrSegmentTimesInverted = errors.New("segment start time must not exceed end time")
)

// TranscriptSegment is one attributed utterance of a transcript.
// Segments of a media record are ordered by non-decreasing StartTime;
// the order is produced by the transcription engine and trusted
// downstream, never re-sorted.
type TranscriptSegment struct {
	ID        int64   `json:"id,omitempty"`
	MediaID   int64   `json:"media_id,omitempty"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`

	// SpeakerLabel is the raw engine label, e.g. "Speaker_0".
	SpeakerLabel string `json:"speaker_label"`

	// SpeakerName is an optional resolved real name.
	SpeakerName string `json:"speaker_name,omitempty"`
}

// Validate checks if the TranscriptSegment has valid data.
func (s *TranscriptSegment) Validate() error {
	if s.StartTime > s.EndTime {
		return ErrSegmentTimesInverted
	}
	return nil
}
