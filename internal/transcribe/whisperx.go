package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/phrazzld/audigest-api/internal/config"
)

// commandRunner executes an external command and returns its stdout.
// Swappable for tests.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// WhisperXEngine runs the whisperx CLI for local transcription with
// optional speaker diarization.
type WhisperXEngine struct {
	binPath string
	device  string
	hfToken string
	run     commandRunner
	workDir func() (string, error)
}

// NewWhisperXEngine creates the general-purpose local engine.
func NewWhisperXEngine(cfg config.TranscribeConfig) *WhisperXEngine {
	bin := cfg.WhisperXPath
	if bin == "" {
		bin = "whisperx"
	}
	return &WhisperXEngine{
		binPath: bin,
		device:  cfg.Device,
		hfToken: cfg.HFToken,
		run:     runCommand,
		workDir: func() (string, error) { return os.MkdirTemp("", "whisperx-*") },
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *WhisperXEngine) WithCommandRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	e.run = run
}

// Name implements Engine.
func (e *WhisperXEngine) Name() string { return "whisperx" }

// Transcribe implements Engine. Output goes to a scratch directory as
// JSON, which is parsed and discarded.
func (e *WhisperXEngine) Transcribe(ctx context.Context, audioPath, language string) ([]Segment, error) {
	outDir, err := e.workDir()
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	args := []string{
		audioPath,
		"--output_dir", outDir,
		"--output_format", "json",
		"--compute_type", "int8",
	}
	if e.device != "" {
		args = append(args, "--device", e.device)
	}
	if language != "" && language != LanguageAuto {
		args = append(args, "--language", language)
	}
	// Diarization needs a HuggingFace token for the pyannote models.
	if e.hfToken != "" {
		args = append(args, "--diarize", "--hf_token", e.hfToken)
	}

	if _, err := e.run(ctx, e.binPath, args...); err != nil {
		return nil, fmt.Errorf("running whisperx: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	resultPath := filepath.Join(outDir, stem+".json")
	data, err := os.ReadFile(resultPath)
	if err != nil {
		return nil, fmt.Errorf("reading whisperx output: %w", err)
	}
	return parseWhisperXResult(data)
}

type whisperXResult struct {
	Segments []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Text    string  `json:"text"`
		Speaker string  `json:"speaker"`
	} `json:"segments"`
}

func parseWhisperXResult(data []byte) ([]Segment, error) {
	var parsed whisperXResult
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decoding whisperx output: %w", err)
	}
	var out []Segment
	for _, s := range parsed.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		speaker := s.Speaker
		if speaker == "" {
			// Without diarization all segments belong to one voice.
			speaker = speakerLabel(0)
		}
		out = append(out, Segment{
			Start:   s.Start,
			End:     s.End,
			Text:    text,
			Speaker: speaker,
		})
	}
	return out, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return stdout, nil
}
