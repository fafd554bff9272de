package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/audigest-api/internal/domain"
	"github.com/phrazzld/audigest-api/internal/platform/logger"
	"github.com/phrazzld/audigest-api/internal/store"
)

// TranscriptStore implements the store.TranscriptStore interface using
// PostgreSQL. It needs the raw *sql.DB (not just DBTX) because
// ReplaceSegments runs its delete and inserts inside one transaction.
type TranscriptStore struct {
	db *sql.DB
}

// NewTranscriptStore creates a new TranscriptStore.
func NewTranscriptStore(db *sql.DB) *TranscriptStore {
	return &TranscriptStore{
		db: db,
	}
}

// ReplaceSegments atomically replaces a media record's transcript.
// Delete-then-insert keeps a redelivered pipeline run from duplicating
// segments.
func (s *TranscriptStore) ReplaceSegments(
	ctx context.Context,
	mediaID int64,
	segments []domain.TranscriptSegment,
) error {
	log := logger.FromContext(ctx)

	for i := range segments {
		if err := segments[i].Validate(); err != nil {
			return fmt.Errorf("%w: segment %d: %v", store.ErrInvalidEntity, i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transcript transaction: %w", MapError(err))
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transcript_segment WHERE media_id = $1`, mediaID); err != nil {
		log.Error("failed to delete stale transcript segments",
			"media_id", mediaID,
			"error", err)
		return fmt.Errorf("failed to delete stale transcript segments: %w", MapError(err))
	}

	insert := `
		INSERT INTO transcript_segment
			(media_id, start_time, end_time, text, speaker_label, speaker_name)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range segments {
		seg := &segments[i]
		if _, err := tx.ExecContext(ctx, insert,
			mediaID,
			seg.StartTime,
			seg.EndTime,
			seg.Text,
			seg.SpeakerLabel,
			nullString(seg.SpeakerName),
		); err != nil {
			log.Error("failed to insert transcript segment",
				"media_id", mediaID,
				"segment_index", i,
				"error", err)
			return fmt.Errorf("failed to insert transcript segment: %w", MapError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transcript transaction: %w", MapError(err))
	}

	log.Debug("transcript segments replaced",
		"media_id", mediaID,
		"segment_count", len(segments))
	return nil
}

// GetSegments returns the segments of a media record ordered by start
// time, matching the order the transcription engine produced.
func (s *TranscriptStore) GetSegments(
	ctx context.Context,
	mediaID int64,
) ([]domain.TranscriptSegment, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, media_id, start_time, end_time, text, speaker_label, speaker_name
		FROM transcript_segment
		WHERE media_id = $1
		ORDER BY start_time ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, mediaID)
	if err != nil {
		log.Error("failed to query transcript segments",
			"media_id", mediaID,
			"error", err)
		return nil, fmt.Errorf("failed to query transcript segments: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var segments []domain.TranscriptSegment
	for rows.Next() {
		var seg domain.TranscriptSegment
		var speakerName sql.NullString
		if err := rows.Scan(
			&seg.ID,
			&seg.MediaID,
			&seg.StartTime,
			&seg.EndTime,
			&seg.Text,
			&seg.SpeakerLabel,
			&speakerName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transcript segment: %w", err)
		}
		seg.SpeakerName = speakerName.String
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transcript segments: %w", MapError(err))
	}

	return segments, nil
}
