package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deepgramParagraphResponse = `{
  "results": {
    "channels": [{
      "alternatives": [{
        "paragraphs": {
          "paragraphs": [
            {
              "speaker": 0,
              "sentences": [
                {"text": "Welcome to the show.", "start": 0.5, "end": 2.1},
                {"text": "Today we talk about audio.", "start": 2.3, "end": 4.8}
              ]
            },
            {
              "speaker": 1,
              "sentences": [
                {"text": "Thanks for having me.", "start": 5.0, "end": 6.4}
              ]
            }
          ]
        }
      }]
    }]
  }
}`

const deepgramUtteranceResponse = `{
  "results": {
    "channels": [{"alternatives": [{"paragraphs": {"paragraphs": []}}]}],
    "utterances": [
      {"start": 0.0, "end": 3.2, "transcript": "Hello there.", "speaker": 0},
      {"start": 3.5, "end": 5.0, "transcript": "", "speaker": 1},
      {"start": 5.2, "end": 7.0, "transcript": "General greeting.", "speaker": 1}
    ]
  }
}`

func newTestDeepgram(t *testing.T, handler http.HandlerFunc) *DeepgramEngine {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	e := NewDeepgramEngine("test-key")
	e.baseURL = srv.URL
	return e
}

func TestDeepgramParsesParagraphs(t *testing.T) {
	var gotQuery, gotAuth string
	e := newTestDeepgram(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(deepgramParagraphResponse))
	})

	segs, err := e.Transcribe(context.Background(), writeAudioFixture(t), "en")
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, "Welcome to the show.", segs[0].Text)
	assert.Equal(t, "Speaker_0", segs[0].Speaker)
	assert.InDelta(t, 0.5, segs[0].Start, 1e-9)
	assert.Equal(t, "Speaker_1", segs[2].Speaker)

	assert.Equal(t, "Token test-key", gotAuth)
	assert.Contains(t, gotQuery, "model=nova-2")
	assert.Contains(t, gotQuery, "diarize=true")
	assert.Contains(t, gotQuery, "language=en")
	assert.NotContains(t, gotQuery, "detect_language")
}

func TestDeepgramFallsBackToUtterances(t *testing.T) {
	e := newTestDeepgram(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(deepgramUtteranceResponse))
	})

	segs, err := e.Transcribe(context.Background(), writeAudioFixture(t), LanguageAuto)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "Hello there.", segs[0].Text)
	assert.Equal(t, "General greeting.", segs[1].Text)
	assert.Equal(t, "Speaker_1", segs[1].Speaker)
}

func TestDeepgramAutoLanguageUsesDetection(t *testing.T) {
	var gotQuery string
	e := newTestDeepgram(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"results":{}}`))
	})

	segs, err := e.Transcribe(context.Background(), writeAudioFixture(t), LanguageAuto)
	require.NoError(t, err)
	assert.Empty(t, segs)
	assert.Contains(t, gotQuery, "detect_language=true")
}

func TestDeepgramErrorStatus(t *testing.T) {
	e := newTestDeepgram(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"err_msg":"bad audio"}`))
	})

	_, err := e.Transcribe(context.Background(), writeAudioFixture(t), LanguageAuto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestDeepgramStreamsFileBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.mp3")
	require.NoError(t, os.WriteFile(path, []byte("mp3-bytes"), 0o644))

	var gotLen int64
	e := newTestDeepgram(t, func(w http.ResponseWriter, r *http.Request) {
		gotLen = r.ContentLength
		_, _ = w.Write([]byte(`{"results":{}}`))
	})

	_, err := e.Transcribe(context.Background(), path, LanguageAuto)
	require.NoError(t, err)
	assert.Equal(t, int64(len("mp3-bytes")), gotLen)
}
