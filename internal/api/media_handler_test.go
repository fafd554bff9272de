package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/audigest-api/internal/api/middleware"
	"github.com/phrazzld/audigest-api/internal/domain"
	"github.com/phrazzld/audigest-api/internal/ingest"
	"github.com/phrazzld/audigest-api/internal/store"
)

type fakeStore struct {
	media     map[int64]*domain.Media
	segments  map[int64][]domain.TranscriptSegment
	summaries map[int64]*domain.Summary
	nextID    int64
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		media:     make(map[int64]*domain.Media),
		segments:  make(map[int64][]domain.TranscriptSegment),
		summaries: make(map[int64]*domain.Summary),
		nextID:    1,
	}
}

func (f *fakeStore) Create(_ context.Context, media *domain.Media) error {
	for _, m := range f.media {
		if m.OriginalURL == media.OriginalURL {
			return store.ErrMediaURLExists
		}
	}
	media.ID = f.nextID
	f.nextID++
	f.media[media.ID] = media
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*domain.Media, error) {
	if m, ok := f.media[id]; ok {
		return m, nil
	}
	return nil, store.ErrMediaNotFound
}

func (f *fakeStore) GetByURL(_ context.Context, url string) (*domain.Media, error) {
	for _, m := range f.media {
		if m.OriginalURL == url {
			return m, nil
		}
	}
	return nil, store.ErrMediaNotFound
}

func (f *fakeStore) Update(_ context.Context, media *domain.Media) error {
	f.media[media.ID] = media
	return nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id int64, status domain.MediaStatus, errorMsg string) error {
	m, ok := f.media[id]
	if !ok {
		return store.ErrMediaNotFound
	}
	m.Status = status
	m.ErrorMessage = errorMsg
	return nil
}

func (f *fakeStore) List(_ context.Context, offset, limit int) ([]*domain.Media, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.Media
	for id := f.nextID - 1; id >= 1; id-- {
		if m, ok := f.media[id]; ok {
			out = append(out, m)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ReplaceSegments(_ context.Context, mediaID int64, segments []domain.TranscriptSegment) error {
	f.segments[mediaID] = segments
	return nil
}

func (f *fakeStore) GetSegments(_ context.Context, mediaID int64) ([]domain.TranscriptSegment, error) {
	return f.segments[mediaID], nil
}

func (f *fakeStore) Upsert(_ context.Context, s *domain.Summary) error {
	f.summaries[s.MediaID] = s
	return nil
}

func (f *fakeStore) GetByMediaAndType(_ context.Context, mediaID int64, summaryType string) (*domain.Summary, error) {
	if s, ok := f.summaries[mediaID]; ok && s.Type == summaryType {
		return s, nil
	}
	return nil, store.ErrSummaryNotFound
}

type noopEnqueuer struct{ err error }

func (n *noopEnqueuer) EnqueueProcessMedia(_ context.Context, _ int64) error { return n.err }

func newTestRouter(fs *fakeStore, enqueueErr error) http.Handler {
	gateway := ingest.NewGateway(fs, &noopEnqueuer{err: enqueueErr})
	handler := NewMediaHandler(gateway, fs, fs, fs)

	r := chi.NewRouter()
	r.Route("/api/v1/media", func(r chi.Router) {
		r.Post("/", handler.Submit)
		r.Get("/", handler.List)
		r.Get("/{id}", handler.Get)
		r.Get("/{id}/transcript", handler.GetTranscript)
		r.Get("/{id}/summary", handler.GetSummary)
	})
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitMedia(t *testing.T) {
	fs := newFakeStore()
	router := newTestRouter(fs, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/media",
		`{"url":"https://youtu.be/abc123"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp SubmitMediaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Created)
	assert.True(t, resp.Enqueued)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", resp.Media.OriginalURL)
	assert.Equal(t, domain.MediaStatusPending, resp.Media.Status)
}

func TestSubmitMediaDuplicate(t *testing.T) {
	fs := newFakeStore()
	router := newTestRouter(fs, nil)

	first := doRequest(t, router, http.MethodPost, "/api/v1/media",
		`{"url":"https://youtu.be/abc123"}`)
	require.Equal(t, http.StatusAccepted, first.Code)

	second := doRequest(t, router, http.MethodPost, "/api/v1/media",
		`{"url":"https://www.youtube.com/watch?v=abc123&t=10"}`)
	require.Equal(t, http.StatusAccepted, second.Code)

	var resp SubmitMediaResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.False(t, resp.Created)
	assert.False(t, resp.Enqueued)
}

func TestSubmitMediaBadRequests(t *testing.T) {
	router := newTestRouter(newFakeStore(), nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "not json"},
		{name: "missing url", body: `{}`},
		{name: "empty url", body: `{"url":""}`},
		{name: "no usable url", body: `{"url":"just words"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/media", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSubmitMediaQueueDownStillAccepted(t *testing.T) {
	rec := doRequest(t, newTestRouter(newFakeStore(), assert.AnError),
		http.MethodPost, "/api/v1/media", `{"url":"https://youtu.be/abc123"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp SubmitMediaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Created)
	assert.False(t, resp.Enqueued)
}

func TestListMedia(t *testing.T) {
	fs := newFakeStore()
	router := newTestRouter(fs, nil)

	for _, url := range []string{"https://youtu.be/one", "https://youtu.be/two", "https://youtu.be/three"} {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/media", `{"url":"`+url+`"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/media?page=1&page_size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page []*domain.Media
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page, 2)
	// Newest first.
	assert.Equal(t, "https://www.youtube.com/watch?v=three", page[0].OriginalURL)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/media?page=2&page_size=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page, 1)
}

func TestListMediaEmpty(t *testing.T) {
	rec := doRequest(t, newTestRouter(newFakeStore(), nil), http.MethodGet, "/api/v1/media", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestGetMedia(t *testing.T) {
	fs := newFakeStore()
	router := newTestRouter(fs, nil)
	doRequest(t, router, http.MethodPost, "/api/v1/media", `{"url":"https://youtu.be/abc"}`)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/media/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var media domain.Media
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &media))
	assert.Equal(t, int64(1), media.ID)

	assert.Equal(t, http.StatusNotFound,
		doRequest(t, router, http.MethodGet, "/api/v1/media/99", "").Code)
	assert.Equal(t, http.StatusBadRequest,
		doRequest(t, router, http.MethodGet, "/api/v1/media/abc", "").Code)
}

func TestGetTranscriptFormats(t *testing.T) {
	fs := newFakeStore()
	router := newTestRouter(fs, nil)
	doRequest(t, router, http.MethodPost, "/api/v1/media", `{"url":"https://youtu.be/abc"}`)
	fs.segments[1] = []domain.TranscriptSegment{
		{MediaID: 1, StartTime: 0.5, EndTime: 2, Text: "Hello.", SpeakerLabel: "Speaker_0"},
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/media/1/transcript", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TranscriptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.MediaID)
	require.Len(t, resp.Segments, 1)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/media/1/transcript?format=txt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[00:00] Speaker_0: Hello.\n", rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/api/v1/media/1/transcript?format=srt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "00:00:00,500 --> 00:00:02,000")

	assert.Equal(t, http.StatusBadRequest,
		doRequest(t, router, http.MethodGet, "/api/v1/media/1/transcript?format=pdf", "").Code)
}

func TestGetSummary(t *testing.T) {
	fs := newFakeStore()
	router := newTestRouter(fs, nil)
	doRequest(t, router, http.MethodPost, "/api/v1/media", `{"url":"https://youtu.be/abc"}`)

	// Not generated yet.
	assert.Equal(t, http.StatusNotFound,
		doRequest(t, router, http.MethodGet, "/api/v1/media/1/summary", "").Code)

	summary, err := domain.NewSummary(1, "Digest.", "test-model", []string{"go"})
	require.NoError(t, err)
	fs.summaries[1] = summary

	rec := doRequest(t, router, http.MethodGet, "/api/v1/media/1/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Digest.", got.Content)
	assert.Equal(t, []string{"go"}, got.Tags)
}

func TestErrorResponsesCarryTraceID(t *testing.T) {
	fs := newFakeStore()
	gateway := ingest.NewGateway(fs, &noopEnqueuer{})
	handler := NewMediaHandler(gateway, fs, fs, fs)

	r := chi.NewRouter()
	r.Use(middleware.Trace)
	r.Get("/api/v1/media/{id}", handler.Get)

	rec := doRequest(t, r, http.MethodGet, "/api/v1/media/99", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error   string `json:"error"`
		TraceID string `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TraceID)
}
