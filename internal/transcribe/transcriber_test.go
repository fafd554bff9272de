package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	name     string
	segments []Segment
	err      error
	calls    int
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Transcribe(_ context.Context, _, _ string) ([]Segment, error) {
	s.calls++
	return s.segments, s.err
}

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.mp3")
	require.NoError(t, os.WriteFile(path, []byte("fake-mp3"), 0o644))
	return path
}

func TestTranscribeSelectsCloudWhenEnabled(t *testing.T) {
	cloud := &stubEngine{name: "cloud", segments: []Segment{{Text: "hi", Speaker: "Speaker_0"}}}
	general := &stubEngine{name: "general"}
	cjk := &stubEngine{name: "cjk"}
	tr := NewTranscriberWithEngines(cloud, general, cjk, true)

	segs, err := tr.Transcribe(context.Background(), writeAudioFixture(t), LanguageChinese)
	require.NoError(t, err)
	assert.Len(t, segs, 1)
	// Cloud mode wins even for Chinese content.
	assert.Equal(t, 1, cloud.calls)
	assert.Zero(t, general.calls)
	assert.Zero(t, cjk.calls)
}

func TestTranscribeRoutesLocalByLanguage(t *testing.T) {
	tests := []struct {
		name     string
		language string
		want     string
	}{
		{name: "chinese uses cjk engine", language: LanguageChinese, want: "cjk"},
		{name: "auto uses general engine", language: LanguageAuto, want: "general"},
		{name: "explicit english uses general engine", language: "en", want: "general"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cloud := &stubEngine{name: "cloud"}
			general := &stubEngine{name: "general"}
			cjk := &stubEngine{name: "cjk"}
			tr := NewTranscriberWithEngines(cloud, general, cjk, false)

			_, err := tr.Transcribe(context.Background(), writeAudioFixture(t), tc.language)
			require.NoError(t, err)
			assert.Equal(t, tc.want, tr.selectEngine(tc.language).Name())
			assert.Zero(t, cloud.calls)
		})
	}
}

func TestTranscribeMissingAudio(t *testing.T) {
	tr := NewTranscriberWithEngines(&stubEngine{}, &stubEngine{}, &stubEngine{}, false)
	_, err := tr.Transcribe(context.Background(), "/nonexistent/audio.mp3", LanguageAuto)
	assert.ErrorIs(t, err, ErrAudioMissing)
}

func TestTranscribeWrapsEngineFailure(t *testing.T) {
	general := &stubEngine{name: "general", err: assert.AnError}
	tr := NewTranscriberWithEngines(&stubEngine{}, general, &stubEngine{}, false)

	_, err := tr.Transcribe(context.Background(), writeAudioFixture(t), LanguageAuto)
	assert.ErrorIs(t, err, ErrEngineFailed)
}

func TestTranscribeEmptyResultIsNotAnError(t *testing.T) {
	general := &stubEngine{name: "general", segments: nil}
	tr := NewTranscriberWithEngines(&stubEngine{}, general, &stubEngine{}, false)

	segs, err := tr.Transcribe(context.Background(), writeAudioFixture(t), LanguageAuto)
	require.NoError(t, err)
	assert.Empty(t, segs)
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "An English Podcast Episode", want: LanguageAuto},
		{title: "硅谷101: 人工智能的未来", want: LanguageChinese},
		{title: "Mixed 播客 title", want: LanguageChinese},
		{title: "", want: LanguageAuto},
		{title: "日本語タイトル漢字入り", want: LanguageChinese},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DetectLanguage(tc.title), "title %q", tc.title)
	}
}
