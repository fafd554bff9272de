// Package api implements the HTTP handlers of the service.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/audigest-api/internal/api/shared"
	"github.com/phrazzld/audigest-api/internal/domain"
	"github.com/phrazzld/audigest-api/internal/ingest"
	"github.com/phrazzld/audigest-api/internal/platform/logger"
	"github.com/phrazzld/audigest-api/internal/store"
	"github.com/phrazzld/audigest-api/internal/transcript"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SubmitMediaRequest is the body of POST /api/v1/media.
type SubmitMediaRequest struct {
	URL string `json:"url" validate:"required,min=1"`
}

// SubmitMediaResponse reports the outcome of a submission.
type SubmitMediaResponse struct {
	Media *domain.Media `json:"media"`
	// Created is false when the URL was already known.
	Created bool `json:"created"`
	// Enqueued is false when no processing task was scheduled: either
	// the record is already in flight or the queue is unavailable.
	Enqueued bool `json:"enqueued"`
}

// TranscriptResponse is the body of GET /api/v1/media/{id}/transcript.
type TranscriptResponse struct {
	MediaID  int64                      `json:"media_id"`
	Segments []domain.TranscriptSegment `json:"segments"`
}

// MediaHandler handles media-related HTTP requests.
type MediaHandler struct {
	gateway     *ingest.Gateway
	media       store.MediaStore
	transcripts store.TranscriptStore
	summaries   store.SummaryStore
}

// NewMediaHandler creates a MediaHandler.
func NewMediaHandler(
	gateway *ingest.Gateway,
	media store.MediaStore,
	transcripts store.TranscriptStore,
	summaries store.SummaryStore,
) *MediaHandler {
	return &MediaHandler{
		gateway:     gateway,
		media:       media,
		transcripts: transcripts,
		summaries:   summaries,
	}
}

// Submit handles POST /api/v1/media. Processing is asynchronous, so a
// successful submission answers 202 with the record in its current
// status.
func (h *MediaHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitMediaRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: url is required")
		return
	}

	sub, err := h.gateway.Submit(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidURL) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "No usable media URL in submission")
			return
		}
		logger.FromContext(r.Context()).Error("media submission failed", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to submit media")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitMediaResponse{
		Media:    sub.Media,
		Created:  sub.Created,
		Enqueued: sub.Enqueued,
	})
}

// List handles GET /api/v1/media with page/page_size pagination.
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "page_size", defaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	records, err := h.media.List(r.Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		logger.FromContext(r.Context()).Error("listing media failed", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list media")
		return
	}
	if records == nil {
		records = []*domain.Media{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, records)
}

// Get handles GET /api/v1/media/{id}.
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	media, ok := h.loadMedia(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, media)
}

// GetTranscript handles GET /api/v1/media/{id}/transcript. The
// optional format query selects a plain text or SubRip rendering
// instead of JSON.
func (h *MediaHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	media, ok := h.loadMedia(w, r)
	if !ok {
		return
	}

	segments, err := h.transcripts.GetSegments(r.Context(), media.ID)
	if err != nil {
		logger.FromContext(r.Context()).Error("loading transcript failed",
			"media_id", media.ID,
			"error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to load transcript")
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		shared.RespondWithJSON(w, r, http.StatusOK, TranscriptResponse{
			MediaID:  media.ID,
			Segments: segments,
		})
	case "txt":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(transcript.PlainText(segments)))
	case "srt":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(transcript.SRT(segments)))
	default:
		shared.RespondWithError(w, r, http.StatusBadRequest, "Unknown transcript format")
	}
}

// GetSummary handles GET /api/v1/media/{id}/summary.
func (h *MediaHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	media, ok := h.loadMedia(w, r)
	if !ok {
		return
	}

	summaryType := r.URL.Query().Get("type")
	if summaryType == "" {
		summaryType = domain.SummaryTypeDetail
	}

	summary, err := h.summaries.GetByMediaAndType(r.Context(), media.ID, summaryType)
	if err != nil {
		if errors.Is(err, store.ErrSummaryNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Summary not available")
			return
		}
		logger.FromContext(r.Context()).Error("loading summary failed",
			"media_id", media.ID,
			"error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to load summary")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// loadMedia resolves the {id} URL parameter to a media record, writing
// the error response itself when resolution fails.
func (h *MediaHandler) loadMedia(w http.ResponseWriter, r *http.Request) (*domain.Media, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid media ID")
		return nil, false
	}

	media, err := h.media.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrMediaNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Media not found")
			return nil, false
		}
		logger.FromContext(r.Context()).Error("loading media failed",
			"media_id", id,
			"error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to load media")
		return nil, false
	}
	return media, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
