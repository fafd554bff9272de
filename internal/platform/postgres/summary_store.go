package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phrazzld/audigest-api/internal/domain"
	"github.com/phrazzld/audigest-api/internal/platform/logger"
	"github.com/phrazzld/audigest-api/internal/store"
)

// SummaryStore implements the store.SummaryStore interface using
// PostgreSQL. Tags are stored as a JSONB array.
type SummaryStore struct {
	db store.DBTX
}

// NewSummaryStore creates a new SummaryStore.
func NewSummaryStore(db store.DBTX) *SummaryStore {
	return &SummaryStore{
		db: db,
	}
}

// Upsert inserts the summary or replaces the existing one for the same
// (media, type) pair. The upsert keys on the unique constraint so a
// redelivered pipeline run overwrites instead of appending a duplicate.
func (s *SummaryStore) Upsert(ctx context.Context, summary *domain.Summary) error {
	log := logger.FromContext(ctx)

	if err := summary.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tags := summary.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode summary tags: %w", err)
	}

	query := `
		INSERT INTO summary
			(media_id, summary_type, content, tags, model_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (media_id, summary_type) DO UPDATE
		SET content = EXCLUDED.content,
			tags = EXCLUDED.tags,
			model_used = EXCLUDED.model_used,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	now := time.Now().UTC()
	summary.UpdatedAt = now

	err = s.db.QueryRowContext(ctx, query,
		summary.MediaID,
		summary.Type,
		summary.Content,
		tagsJSON,
		summary.ModelUsed,
		now,
	).Scan(&summary.ID, &summary.CreatedAt)
	if err != nil {
		log.Error("failed to upsert summary",
			"media_id", summary.MediaID,
			"summary_type", summary.Type,
			"error", err)
		return fmt.Errorf("failed to upsert summary: %w", MapError(err))
	}

	return nil
}

// GetByMediaAndType retrieves the summary of the given type for a media
// record.
func (s *SummaryStore) GetByMediaAndType(
	ctx context.Context,
	mediaID int64,
	summaryType string,
) (*domain.Summary, error) {
	query := `
		SELECT id, media_id, summary_type, content, tags, model_used,
			created_at, updated_at
		FROM summary
		WHERE media_id = $1 AND summary_type = $2
	`

	var summary domain.Summary
	var tagsJSON []byte

	err := s.db.QueryRowContext(ctx, query, mediaID, summaryType).Scan(
		&summary.ID,
		&summary.MediaID,
		&summary.Type,
		&summary.Content,
		&tagsJSON,
		&summary.ModelUsed,
		&summary.CreatedAt,
		&summary.UpdatedAt,
	)
	if err != nil {
		if mapped := MapError(err); store.IsNotFoundError(mapped) {
			return nil, store.ErrSummaryNotFound
		}
		return nil, fmt.Errorf("failed to get summary: %w", MapError(err))
	}

	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &summary.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode summary tags: %w", err)
		}
	}

	return &summary, nil
}
