// Package transcript persists transcription results: segments go to
// the database as the source of truth, and sidecar files (.json, .txt,
// .srt) are written for direct consumption outside the API.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/audigest-api/internal/domain"
	"github.com/phrazzld/audigest-api/internal/platform/logger"
	"github.com/phrazzld/audigest-api/internal/store"
	"github.com/phrazzld/audigest-api/internal/transcribe"
)

// Writer stores transcripts and emits sidecar files.
type Writer struct {
	segments store.TranscriptStore
	dir      string
}

// NewWriter creates a Writer that persists through the given store and
// writes sidecar files under dir.
func NewWriter(segments store.TranscriptStore, dir string) *Writer {
	return &Writer{segments: segments, dir: dir}
}

// Save converts engine segments to domain records, replaces any
// previous transcript of the media record and writes the sidecar
// files. Sidecar failures are logged but never fail the stage: the
// database copy is authoritative and the files can be regenerated.
func (w *Writer) Save(ctx context.Context, media *domain.Media, raw []transcribe.Segment) ([]domain.TranscriptSegment, error) {
	segments := make([]domain.TranscriptSegment, 0, len(raw))
	for _, s := range raw {
		segments = append(segments, domain.TranscriptSegment{
			MediaID:      media.ID,
			StartTime:    s.Start,
			EndTime:      s.End,
			Text:         s.Text,
			SpeakerLabel: s.Speaker,
		})
	}

	if err := w.segments.ReplaceSegments(ctx, media.ID, segments); err != nil {
		return nil, fmt.Errorf("storing transcript segments: %w", err)
	}

	if err := w.writeSidecars(media, segments); err != nil {
		logger.FromContext(ctx).Warn("writing transcript files failed",
			"media_id", media.ID,
			"error", err)
	}
	return segments, nil
}

// writeSidecars emits <id>.json, <id>.txt and <id>.srt under the
// transcript directory.
func (w *Writer) writeSidecars(media *domain.Media, segments []domain.TranscriptSegment) error {
	if w.dir == "" {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating transcript dir: %w", err)
	}

	stem := filepath.Join(w.dir, fmt.Sprintf("%d", media.ID))

	jsonBytes, err := json.MarshalIndent(transcriptDocument{
		MediaID:  media.ID,
		Title:    media.Title,
		Segments: segments,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding transcript json: %w", err)
	}
	if err := os.WriteFile(stem+".json", jsonBytes, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(stem+".txt", []byte(PlainText(segments)), 0o644); err != nil {
		return err
	}
	return os.WriteFile(stem+".srt", []byte(SRT(segments)), 0o644)
}

type transcriptDocument struct {
	MediaID  int64                      `json:"media_id"`
	Title    string                     `json:"title"`
	Segments []domain.TranscriptSegment `json:"segments"`
}

// PlainText renders segments as readable lines:
//
//	[03:15] Speaker_0: text
func PlainText(segments []domain.TranscriptSegment) string {
	var b strings.Builder
	for _, s := range segments {
		speaker := s.SpeakerName
		if speaker == "" {
			speaker = s.SpeakerLabel
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", FormatSeconds(s.StartTime), speaker, s.Text)
	}
	return b.String()
}

// SRT renders segments in SubRip format.
func SRT(segments []domain.TranscriptSegment) string {
	var b strings.Builder
	for i, s := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(s.StartTime), srtTimestamp(s.EndTime), s.Text)
	}
	return b.String()
}

// FormatSeconds renders a duration as MM:SS, rolling over to HH:MM:SS
// past an hour.
func FormatSeconds(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// srtTimestamp renders HH:MM:SS,mmm as SubRip requires.
func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int(seconds*1000 + 0.5)
	h := ms / 3600000
	m := ms % 3600000 / 60000
	s := ms % 60000 / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}
