package download

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/audigest-api/internal/config"
	"github.com/phrazzld/audigest-api/internal/platform/logger"
)

// ErrNoArtifact is returned when yt-dlp finishes without producing a
// playable audio file on disk.
var ErrNoArtifact = errors.New("download produced no audio artifact")

// Result is the output of a successful download: the audio artifact
// plus best-effort descriptive metadata.
type Result struct {
	// ArtifactPath is the local path of the extracted mp3.
	ArtifactPath string
	Title        string
	Author       string
	// DurationSeconds is 0 when the source does not report a duration.
	DurationSeconds int64
}

// commandRunner executes an external command and returns its stdout.
// Swappable for tests.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Downloader drives yt-dlp to fetch and extract audio.
// A single instance is shared by all concurrent pipeline executions;
// it keeps no per-download state.
type Downloader struct {
	cfg      config.DownloadConfig
	resolver *Resolver
	run      commandRunner
}

// NewDownloader creates a Downloader from configuration.
func NewDownloader(cfg config.DownloadConfig) *Downloader {
	return &Downloader{
		cfg:      cfg,
		resolver: NewResolver(),
		run:      runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *Downloader) WithCommandRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	d.run = run
}

// ytdlpInfo is the subset of yt-dlp's JSON info dict we consume.
type ytdlpInfo struct {
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Artist   string  `json:"artist"`
	Duration float64 `json:"duration"`
}

// Download fetches the audio of the given canonical URL into the
// configured output directory. platformHint selects resolver behavior
// for indirect sources; it may be empty.
func (d *Downloader) Download(ctx context.Context, canonicalURL, platformHint string) (*Result, error) {
	log := logger.FromContext(ctx)

	realURL, err := d.resolver.Resolve(ctx, canonicalURL, platformHint)
	if err != nil {
		// Resolution is best-effort; fall back to the canonical URL and
		// let yt-dlp try it directly.
		log.Warn("source resolution failed, using canonical URL",
			"url", canonicalURL,
			"error", err)
		realURL = canonicalURL
	}

	if err := os.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure download dir: %w", err)
	}

	stem := uuid.NewString()
	outTemplate := filepath.Join(d.cfg.OutputDir, stem+".%(ext)s")

	args := []string{
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "192K",
		"--no-playlist",
		"--restrict-filenames",
		"--no-cache-dir",
		"--print-json",
		"--no-warnings",
		"--output", outTemplate,
	}
	if proxy := d.proxyFor(realURL); proxy != "" {
		log.Debug("foreign domain detected, using proxy", "proxy", proxy)
		args = append(args, "--proxy", proxy)
	}
	args = append(args, realURL)

	log.Info("starting download",
		"url", realURL,
		"artifact_stem", stem)

	stdout, err := d.run(ctx, d.cfg.YtDlpPath, args...)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp failed for %s: %w", canonicalURL, err)
	}

	artifact := filepath.Join(d.cfg.OutputDir, stem+".mp3")
	if _, statErr := os.Stat(artifact); statErr != nil {
		return nil, fmt.Errorf("%w: expected %s", ErrNoArtifact, artifact)
	}

	result := &Result{ArtifactPath: artifact}

	var info ytdlpInfo
	if err := json.Unmarshal(lastJSONLine(stdout), &info); err != nil {
		// Metadata is best-effort; a parse failure does not fail the stage.
		log.Warn("failed to parse yt-dlp metadata", "error", err)
	} else {
		result.Title = info.Title
		result.Author = info.Uploader
		if result.Author == "" {
			result.Author = info.Artist
		}
		result.DurationSeconds = int64(info.Duration)
	}

	log.Info("download completed",
		"artifact", artifact,
		"title", result.Title,
		"duration_seconds", result.DurationSeconds)

	return result, nil
}

// proxyFor returns the configured proxy when the URL belongs to one of
// the configured foreign domains, otherwise empty.
func (d *Downloader) proxyFor(rawURL string) string {
	if d.cfg.ProxyURL == "" {
		return ""
	}
	for _, domain := range d.cfg.ForeignDomains {
		if strings.Contains(rawURL, domain) {
			return d.cfg.ProxyURL
		}
	}
	return ""
}

// lastJSONLine picks the final non-empty line of yt-dlp output, which
// carries the info dict when --print-json is set. Progress noise on
// earlier lines is ignored.
func lastJSONLine(out []byte) []byte {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "{") {
			return []byte(line)
		}
	}
	return []byte("{}")
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.Output()
	if err != nil {
		return stdout, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout, nil
}
