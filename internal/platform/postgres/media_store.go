package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/phrazzld/audigest-api/internal/domain"
	"github.com/phrazzld/audigest-api/internal/platform/logger"
	"github.com/phrazzld/audigest-api/internal/store"
)

// MediaStore implements the store.MediaStore interface using PostgreSQL.
type MediaStore struct {
	db store.DBTX
}

// NewMediaStore creates a new MediaStore.
func NewMediaStore(db store.DBTX) *MediaStore {
	return &MediaStore{
		db: db,
	}
}

// mediaColumns is the scan order shared by all SELECT queries.
const mediaColumns = `id, original_url, title, author, platform, duration,
	status, local_audio_path, error_msg, created_at, updated_at`

// Create saves a new media record to the database and assigns its ID.
func (s *MediaStore) Create(ctx context.Context, media *domain.Media) error {
	log := logger.FromContext(ctx)

	if err := media.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO source_media
			(original_url, title, author, platform, duration, status,
			 local_audio_path, error_msg, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	now := time.Now().UTC()
	media.CreatedAt = now
	media.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, query,
		media.OriginalURL,
		media.Title,
		nullString(media.Author),
		media.Platform,
		nullInt64(media.Duration),
		media.Status,
		nullString(media.LocalAudioPath),
		nullString(media.ErrorMessage),
		media.CreatedAt,
		media.UpdatedAt,
	).Scan(&media.ID)

	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrMediaURLExists, err)
		}
		log.Error("failed to create media record",
			"original_url", media.OriginalURL,
			"error", err)
		return fmt.Errorf("failed to create media record: %w", MapError(err))
	}

	return nil
}

// GetByID retrieves a media record by its unique ID.
func (s *MediaStore) GetByID(ctx context.Context, id int64) (*domain.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM source_media WHERE id = $1`
	return s.scanMedia(ctx, s.db.QueryRowContext(ctx, query, id))
}

// GetByURL retrieves a media record by its canonical URL.
func (s *MediaStore) GetByURL(ctx context.Context, canonicalURL string) (*domain.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM source_media WHERE original_url = $1`
	return s.scanMedia(ctx, s.db.QueryRowContext(ctx, query, canonicalURL))
}

// Update persists all mutable fields of an existing media record.
func (s *MediaStore) Update(ctx context.Context, media *domain.Media) error {
	log := logger.FromContext(ctx)

	if err := media.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE source_media
		SET title = $1, author = $2, platform = $3, duration = $4,
			status = $5, local_audio_path = $6, error_msg = $7, updated_at = $8
		WHERE id = $9
	`

	media.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, query,
		media.Title,
		nullString(media.Author),
		media.Platform,
		nullInt64(media.Duration),
		media.Status,
		nullString(media.LocalAudioPath),
		nullString(media.ErrorMessage),
		media.UpdatedAt,
		media.ID,
	)
	if err != nil {
		log.Error("failed to update media record",
			"media_id", media.ID,
			"error", err)
		return fmt.Errorf("failed to update media record: %w", MapError(err))
	}

	return s.requireRow(result)
}

// UpdateStatus persists a status transition. An empty errorMsg clears
// any previous error message, so transitions out of failed always
// drop the stale error.
func (s *MediaStore) UpdateStatus(
	ctx context.Context,
	id int64,
	status domain.MediaStatus,
	errorMsg string,
) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE source_media
		SET status = $1, error_msg = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		status,
		nullString(errorMsg),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to update media status",
			"media_id", id,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update media status: %w", MapError(err))
	}

	return s.requireRow(result)
}

// List returns media records ordered by creation time descending.
func (s *MediaStore) List(ctx context.Context, offset, limit int) ([]*domain.Media, error) {
	log := logger.FromContext(ctx)

	query := `SELECT ` + mediaColumns + `
		FROM source_media
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		log.Error("failed to list media records", "error", err)
		return nil, fmt.Errorf("failed to list media records: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.Media
	for rows.Next() {
		media, err := scanMediaRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		records = append(records, media)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media rows: %w", MapError(err))
	}

	return records, nil
}

// requireRow converts a zero-rows-affected result into ErrMediaNotFound.
func (s *MediaStore) requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrMediaNotFound
	}
	return nil
}

func (s *MediaStore) scanMedia(ctx context.Context, row *sql.Row) (*domain.Media, error) {
	media, err := scanMediaRow(row.Scan)
	if err != nil {
		if mapped := MapError(err); store.IsNotFoundError(mapped) {
			return nil, store.ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to get media record: %w", MapError(err))
	}
	return media, nil
}

// scanMediaRow scans one row in mediaColumns order.
func scanMediaRow(scan func(dest ...any) error) (*domain.Media, error) {
	var media domain.Media
	var author, localAudioPath, errorMsg sql.NullString
	var duration sql.NullInt64

	err := scan(
		&media.ID,
		&media.OriginalURL,
		&media.Title,
		&author,
		&media.Platform,
		&duration,
		&media.Status,
		&localAudioPath,
		&errorMsg,
		&media.CreatedAt,
		&media.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	media.Author = author.String
	media.LocalAudioPath = localAudioPath.String
	media.ErrorMessage = errorMsg.String
	media.Duration = duration.Int64

	return &media, nil
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt64 converts a zero value to a SQL NULL.
func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
