package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/audigest-api/internal/config"
	"github.com/phrazzld/audigest-api/internal/urlcanon"
)

func newTestDownloader(t *testing.T) (*Downloader, string) {
	t.Helper()
	dir := t.TempDir()
	d := NewDownloader(config.DownloadConfig{
		OutputDir:      dir,
		YtDlpPath:      "yt-dlp",
		ProxyURL:       "http://127.0.0.1:7890",
		ForeignDomains: []string{"youtube", "youtu.be", "twitter", "x.com"},
	})
	return d, dir
}

func TestDownloadParsesMetadata(t *testing.T) {
	d, dir := newTestDownloader(t)

	var gotArgs []string
	d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		// yt-dlp writes the artifact then prints the info dict.
		stem := artifactStem(t, args)
		require.NoError(
			t,
			os.WriteFile(filepath.Join(dir, stem+".mp3"), []byte("mp3"), 0o644),
		)
		return []byte(`[download] progress noise` + "\n" +
			`{"title":"Talk","uploader":"Alice","duration":120.7}`), nil
	})

	result, err := d.Download(context.Background(), "https://www.youtube.com/watch?v=abc", urlcanon.PlatformYouTube)
	require.NoError(t, err)

	assert.Equal(t, "Talk", result.Title)
	assert.Equal(t, "Alice", result.Author)
	assert.Equal(t, int64(120), result.DurationSeconds)
	assert.FileExists(t, result.ArtifactPath)

	// youtube is a foreign domain, so the proxy must be passed through.
	assert.Contains(t, gotArgs, "--proxy")
	assert.Contains(t, gotArgs, "http://127.0.0.1:7890")
}

func TestDownloadNoProxyForDomesticDomain(t *testing.T) {
	d, dir := newTestDownloader(t)

	var gotArgs []string
	d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		stem := artifactStem(t, args)
		require.NoError(
			t,
			os.WriteFile(filepath.Join(dir, stem+".mp3"), []byte("mp3"), 0o644),
		)
		return []byte(`{"title":"国内视频"}`), nil
	})

	_, err := d.Download(context.Background(), "https://www.bilibili.com/video/BV1", urlcanon.PlatformBilibili)
	require.NoError(t, err)
	assert.NotContains(t, gotArgs, "--proxy")
}

func TestDownloadMissingArtifact(t *testing.T) {
	d, _ := newTestDownloader(t)

	d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		// Tool exits 0 but never writes the file.
		return []byte(`{"title":"x"}`), nil
	})

	result, err := d.Download(context.Background(), "https://example.com/a.mp3", urlcanon.PlatformDirectFile)
	assert.ErrorIs(t, err, ErrNoArtifact)
	assert.Nil(t, result)
}

func TestDownloadToolFailure(t *testing.T) {
	d, _ := newTestDownloader(t)

	d.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, assert.AnError
	})

	result, err := d.Download(context.Background(), "https://example.com/a.mp3", urlcanon.PlatformDirectFile)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, result)
}

// artifactStem extracts the uuid stem from the --output template arg.
func artifactStem(t *testing.T, args []string) string {
	t.Helper()
	for i, arg := range args {
		if arg == "--output" && i+1 < len(args) {
			base := filepath.Base(args[i+1])
			stem, ok := strings.CutSuffix(base, ".%(ext)s")
			require.True(t, ok, "unexpected output template %q", base)
			return stem
		}
	}
	t.Fatal("no --output argument found")
	return ""
}

func TestResolverFeed(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss><channel>
  <item>
    <enclosure url="https://cdn.example.com/ep1.mp3" type="audio/mpeg"/>
  </item>
  <item>
    <enclosure url="https://cdn.example.com/ep0.mp3" type="audio/mpeg"/>
  </item>
</channel></rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer server.Close()

	resolver := NewResolver()
	resolved, err := resolver.Resolve(context.Background(), server.URL, urlcanon.PlatformPodcast)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/ep1.mp3", resolved)
}

func TestResolverPageOGAudio(t *testing.T) {
	page := `<html><head>
<meta property="og:audio" content="https://media.example.com/ep.m4a" />
</head></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	resolver := NewResolver()
	resolved, err := resolver.Resolve(context.Background(), server.URL, urlcanon.PlatformXiaoyuzhou)
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.com/ep.m4a", resolved)
}

func TestResolverPassThrough(t *testing.T) {
	resolver := NewResolver()
	url := "https://www.youtube.com/watch?v=abc"
	resolved, err := resolver.Resolve(context.Background(), url, urlcanon.PlatformYouTube)
	require.NoError(t, err)
	assert.Equal(t, url, resolved)
}
