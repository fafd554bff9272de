// Package ingest implements URL submission: canonicalization,
// deduplication against existing records and handoff to the task
// queue. Submission is idempotent over the canonical URL.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/audigest-api/internal/domain"
	"github.com/phrazzld/audigest-api/internal/platform/logger"
	"github.com/phrazzld/audigest-api/internal/queue"
	"github.com/phrazzld/audigest-api/internal/store"
	"github.com/phrazzld/audigest-api/internal/urlcanon"
)

// ErrInvalidURL is returned for submissions that do not contain a
// usable media identity.
var ErrInvalidURL = errors.New("submission contains no usable URL")

// Submission is the outcome of a Submit call. Enqueued reports whether
// a processing task was scheduled in this call; existing unfailed
// records are returned without re-enqueueing.
type Submission struct {
	Media    *domain.Media
	Created  bool
	Enqueued bool
}

// Gateway accepts media URL submissions.
type Gateway struct {
	media    store.MediaStore
	enqueuer queue.Enqueuer
}

// NewGateway creates a Gateway over the media store and task queue.
func NewGateway(media store.MediaStore, enqueuer queue.Enqueuer) *Gateway {
	return &Gateway{media: media, enqueuer: enqueuer}
}

// Submit registers a raw URL for processing.
//
// The URL is canonicalized first; the canonical form is the identity.
// A new record is created in pending status and a processing task
// enqueued. Resubmitting an in-flight or completed record returns it
// unchanged without a new task. Resubmitting a failed record resets it
// to pending and enqueues a retry.
//
// An enqueue failure after the record is persisted is reported through
// Submission.Enqueued rather than an error: the record exists and can
// be picked up by a later resubmission.
func (g *Gateway) Submit(ctx context.Context, rawURL string) (Submission, error) {
	log := logger.FromContext(ctx)

	canonical := urlcanon.Clean(rawURL)
	if canonical == "" || !strings.HasPrefix(canonical, "http") {
		return Submission{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	platform := urlcanon.DetectPlatform(canonical)

	existing, err := g.media.GetByURL(ctx, canonical)
	switch {
	case err == nil:
		return g.resubmit(ctx, existing)
	case !errors.Is(err, store.ErrMediaNotFound):
		return Submission{}, fmt.Errorf("looking up media by URL: %w", err)
	}

	media, err := domain.NewMedia(canonical, platform)
	if err != nil {
		return Submission{}, fmt.Errorf("building media record: %w", err)
	}

	if err := g.media.Create(ctx, media); err != nil {
		// Concurrent submission of the same URL: the other writer won,
		// treat this call as a resubmission of its record.
		if errors.Is(err, store.ErrMediaURLExists) {
			won, getErr := g.media.GetByURL(ctx, canonical)
			if getErr != nil {
				return Submission{}, fmt.Errorf("refetching media after duplicate create: %w", getErr)
			}
			return g.resubmit(ctx, won)
		}
		return Submission{}, fmt.Errorf("creating media record: %w", err)
	}

	log.Info("media record created",
		"media_id", media.ID,
		"platform", platform,
		"url", canonical)
	return Submission{Media: media, Created: true, Enqueued: g.enqueue(ctx, media)}, nil
}

// resubmit handles a submission whose canonical URL already has a
// record.
func (g *Gateway) resubmit(ctx context.Context, media *domain.Media) (Submission, error) {
	log := logger.FromContext(ctx)

	if media.Status != domain.MediaStatusFailed {
		log.Info("duplicate submission ignored",
			"media_id", media.ID,
			"status", media.Status)
		return Submission{Media: media}, nil
	}

	// Failed records get another attempt: back to pending with the old
	// error cleared, then a fresh task.
	if err := g.media.UpdateStatus(ctx, media.ID, domain.MediaStatusPending, ""); err != nil {
		return Submission{}, fmt.Errorf("resetting failed media %d: %w", media.ID, err)
	}
	media.Status = domain.MediaStatusPending
	media.ErrorMessage = ""

	log.Info("failed media resubmitted", "media_id", media.ID)
	return Submission{Media: media, Enqueued: g.enqueue(ctx, media)}, nil
}

func (g *Gateway) enqueue(ctx context.Context, media *domain.Media) bool {
	if err := g.enqueuer.EnqueueProcessMedia(ctx, media.ID); err != nil {
		logger.FromContext(ctx).Error("enqueueing processing task failed",
			"media_id", media.ID,
			"error", err)
		return false
	}
	return true
}
