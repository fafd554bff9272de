// Package pipeline is the worker-side orchestrator: it consumes
// processing tasks from the queue and drives a media record through
// download, transcription and summarization, checkpointing status in
// the database before each stage.
//
// Tasks are delivered at least once, so every stage is idempotent:
// downloads are skipped when the artifact already exists, transcripts
// replace rather than append, summaries upsert, and a task for an
// already-completed record acks without work.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/phrazzld/audigest-api/internal/domain"
	"github.com/phrazzld/audigest-api/internal/download"
	"github.com/phrazzld/audigest-api/internal/platform/logger"
	"github.com/phrazzld/audigest-api/internal/queue"
	"github.com/phrazzld/audigest-api/internal/redact"
	"github.com/phrazzld/audigest-api/internal/store"
	"github.com/phrazzld/audigest-api/internal/summarize"
	"github.com/phrazzld/audigest-api/internal/transcribe"
	"github.com/phrazzld/audigest-api/internal/transcript"
)

// MediaDownloader fetches the audio artifact of a media source.
type MediaDownloader interface {
	Download(ctx context.Context, canonicalURL, platformHint string) (*download.Result, error)
}

// MediaTranscriber converts an audio artifact into segments.
type MediaTranscriber interface {
	Transcribe(ctx context.Context, audioPath, language string) ([]transcribe.Segment, error)
}

// TranscriptSaver persists a transcript and its sidecar files.
type TranscriptSaver interface {
	Save(ctx context.Context, media *domain.Media, raw []transcribe.Segment) ([]domain.TranscriptSegment, error)
}

// Pipeline executes the processing stages for one media record per
// task. One instance serves all worker goroutines.
type Pipeline struct {
	media       store.MediaStore
	summaries   store.SummaryStore
	downloader  MediaDownloader
	transcriber MediaTranscriber
	transcripts TranscriptSaver
	summarizer  summarize.Summarizer
}

// New wires a Pipeline from its stage implementations.
func New(
	media store.MediaStore,
	summaries store.SummaryStore,
	downloader MediaDownloader,
	transcriber MediaTranscriber,
	transcripts TranscriptSaver,
	summarizer summarize.Summarizer,
) *Pipeline {
	return &Pipeline{
		media:       media,
		summaries:   summaries,
		downloader:  downloader,
		transcriber: transcriber,
		transcripts: transcripts,
		summarizer:  summarizer,
	}
}

// HandleProcessMedia is the asynq handler for queue.TypeProcessMedia.
// A nil return acks the task; a non-nil return triggers redelivery,
// except where wrapped in asynq.SkipRetry.
func (p *Pipeline) HandleProcessMedia(ctx context.Context, task *asynq.Task) error {
	var payload queue.ProcessMediaPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// A payload we cannot parse will never parse; drop it.
		return fmt.Errorf("decoding task payload: %v: %w", err, asynq.SkipRetry)
	}

	log := logger.FromContext(ctx).With("media_id", payload.MediaID)
	ctx = logger.WithContext(ctx, log)

	media, err := p.media.GetByID(ctx, payload.MediaID)
	if err != nil {
		if errors.Is(err, store.ErrMediaNotFound) {
			// The record was deleted after enqueueing. Nothing to do.
			log.Warn("task references missing media record, dropping")
			return nil
		}
		return fmt.Errorf("loading media %d: %w", payload.MediaID, err)
	}

	if media.Status == domain.MediaStatusCompleted {
		// Redelivery of an already-finished task.
		log.Info("media already completed, dropping task")
		return nil
	}

	if err := p.process(ctx, media); err != nil {
		p.markFailed(ctx, media.ID, err)
		// The failure is recorded on the media record; retrying the
		// task would bypass the resubmission flow.
		return fmt.Errorf("processing media %d: %v: %w", media.ID, err, asynq.SkipRetry)
	}
	return nil
}

// process runs the stage sequence. Status is checkpointed before each
// stage so observers see progress while the stage is blocked.
func (p *Pipeline) process(ctx context.Context, media *domain.Media) error {
	log := logger.FromContext(ctx)

	if err := p.setStatus(ctx, media, domain.MediaStatusDownloading); err != nil {
		return err
	}
	if err := p.runDownload(ctx, media); err != nil {
		return fmt.Errorf("download stage: %w", err)
	}

	if err := p.setStatus(ctx, media, domain.MediaStatusTranscribing); err != nil {
		return err
	}
	segments, err := p.runTranscribe(ctx, media)
	if err != nil {
		return fmt.Errorf("transcribe stage: %w", err)
	}

	if err := p.setStatus(ctx, media, domain.MediaStatusSummarizing); err != nil {
		return err
	}
	if err := p.runSummarize(ctx, media, segments); err != nil {
		return fmt.Errorf("summarize stage: %w", err)
	}

	if err := p.setStatus(ctx, media, domain.MediaStatusCompleted); err != nil {
		return err
	}
	log.Info("pipeline completed", "title", media.Title)
	return nil
}

// runDownload fetches the audio artifact and fills in source metadata.
// A prior delivery's artifact on disk short-circuits the stage.
func (p *Pipeline) runDownload(ctx context.Context, media *domain.Media) error {
	log := logger.FromContext(ctx)

	if media.LocalAudioPath != "" {
		if _, err := os.Stat(media.LocalAudioPath); err == nil {
			log.Info("audio artifact already present, skipping download",
				"path", media.LocalAudioPath)
			return nil
		}
		log.Warn("recorded audio artifact missing on disk, re-downloading",
			"path", media.LocalAudioPath)
	}

	result, err := p.downloader.Download(ctx, media.OriginalURL, media.Platform)
	if err != nil {
		return err
	}

	media.LocalAudioPath = result.ArtifactPath
	if result.Title != "" {
		media.Title = result.Title
	}
	if result.Author != "" {
		media.Author = result.Author
	}
	if result.DurationSeconds > 0 {
		media.Duration = result.DurationSeconds
	}
	if err := p.media.Update(ctx, media); err != nil {
		return fmt.Errorf("persisting download metadata: %w", err)
	}
	return nil
}

func (p *Pipeline) runTranscribe(ctx context.Context, media *domain.Media) ([]domain.TranscriptSegment, error) {
	language := transcribe.DetectLanguage(media.Title)
	raw, err := p.transcriber.Transcribe(ctx, media.LocalAudioPath, language)
	if err != nil {
		return nil, err
	}
	return p.transcripts.Save(ctx, media, raw)
}

func (p *Pipeline) runSummarize(ctx context.Context, media *domain.Media, segments []domain.TranscriptSegment) error {
	result, err := p.summarizer.Summarize(ctx, media, transcript.PlainText(segments))
	if err != nil {
		return err
	}
	if result.Empty {
		// Nothing worth summarizing; the record still completes.
		return nil
	}
	if err := p.summaries.Upsert(ctx, result.Summary); err != nil {
		return fmt.Errorf("persisting summary: %w", err)
	}
	return nil
}

func (p *Pipeline) setStatus(ctx context.Context, media *domain.Media, status domain.MediaStatus) error {
	if err := p.media.UpdateStatus(ctx, media.ID, status, ""); err != nil {
		return fmt.Errorf("updating status to %s: %w", status, err)
	}
	media.Status = status
	media.ErrorMessage = ""
	logger.FromContext(ctx).Info("status updated", "status", status)
	return nil
}

// markFailed records the terminal failure on the media record. The
// message is scrubbed of credentials and truncated to keep
// pathological tool output out of the database.
func (p *Pipeline) markFailed(ctx context.Context, mediaID int64, cause error) {
	msg := redact.Error(cause)
	if len(msg) > 1000 {
		msg = msg[:1000]
	}
	msg = strings.ToValidUTF8(msg, "")
	if err := p.media.UpdateStatus(ctx, mediaID, domain.MediaStatusFailed, msg); err != nil {
		logger.FromContext(ctx).Error("recording pipeline failure failed",
			"media_id", mediaID,
			"error", err)
	}
}
