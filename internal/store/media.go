package store

import (
	"context"

	"github.com/phrazzld/audigest-api/internal/domain"
)

// MediaStore defines the interface for persisting media records.
type MediaStore interface {
	// Create saves a new media record and assigns its ID.
	// Returns ErrMediaURLExists if the canonical URL is already taken.
	Create(ctx context.Context, media *domain.Media) error

	// GetByID retrieves a media record by its unique ID.
	// Returns ErrMediaNotFound if no record exists.
	GetByID(ctx context.Context, id int64) (*domain.Media, error)

	// GetByURL retrieves a media record by its canonical URL.
	// Returns ErrMediaNotFound if no record exists.
	GetByURL(ctx context.Context, canonicalURL string) (*domain.Media, error)

	// Update persists all mutable fields of an existing record and
	// refreshes its updated_at timestamp.
	Update(ctx context.Context, media *domain.Media) error

	// UpdateStatus persists a status transition, replacing the error
	// message (empty clears it). Status checkpoints must be visible to
	// other connections as soon as this returns.
	UpdateStatus(ctx context.Context, id int64, status domain.MediaStatus, errorMsg string) error

	// List returns media records ordered by creation time descending.
	List(ctx context.Context, offset, limit int) ([]*domain.Media, error)
}

// TranscriptStore defines the interface for persisting transcript segments.
type TranscriptStore interface {
	// ReplaceSegments atomically deletes any existing segments for the
	// media record and inserts the given ones, preserving their order.
	// Replacing rather than appending keeps queue redeliveries
	// idempotent.
	ReplaceSegments(ctx context.Context, mediaID int64, segments []domain.TranscriptSegment) error

	// GetSegments returns the segments of a media record ordered by
	// start time.
	GetSegments(ctx context.Context, mediaID int64) ([]domain.TranscriptSegment, error)
}

// SummaryStore defines the interface for persisting summaries.
type SummaryStore interface {
	// Upsert inserts the summary or, when one already exists for the
	// same (media, type) pair, replaces its content, tags, model and
	// updated_at.
	Upsert(ctx context.Context, summary *domain.Summary) error

	// GetByMediaAndType retrieves the summary of the given type.
	// Returns ErrSummaryNotFound if none exists.
	GetByMediaAndType(ctx context.Context, mediaID int64, summaryType string) (*domain.Summary, error)
}
