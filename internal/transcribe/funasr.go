package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/audigest-api/internal/config"
)

// FunASREngine runs the funasr CLI, which outperforms general-purpose
// models on Chinese audio. It handles diarization natively.
type FunASREngine struct {
	binPath string
	device  string
	run     commandRunner
}

// NewFunASREngine creates the CJK-specialized local engine.
func NewFunASREngine(cfg config.TranscribeConfig) *FunASREngine {
	bin := cfg.FunASRPath
	if bin == "" {
		bin = "funasr-transcribe"
	}
	return &FunASREngine{
		binPath: bin,
		device:  cfg.Device,
		run:     runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *FunASREngine) WithCommandRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	e.run = run
}

// Name implements Engine.
func (e *FunASREngine) Name() string { return "funasr" }

// Transcribe implements Engine. The tool prints its result as JSON on
// stdout with sentence timestamps in milliseconds.
func (e *FunASREngine) Transcribe(ctx context.Context, audioPath, language string) ([]Segment, error) {
	args := []string{"--json", audioPath}
	if e.device != "" {
		args = append(args, "--device", e.device)
	}
	stdout, err := e.run(ctx, e.binPath, args...)
	if err != nil {
		return nil, fmt.Errorf("running funasr: %w", err)
	}
	return parseFunASRResult(stdout)
}

type funASRResult struct {
	SentenceInfo []struct {
		StartMs int64  `json:"start"`
		EndMs   int64  `json:"end"`
		Text    string `json:"text"`
		Speaker int    `json:"spk"`
	} `json:"sentence_info"`
}

func parseFunASRResult(data []byte) ([]Segment, error) {
	var parsed funASRResult
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decoding funasr output: %w", err)
	}
	var out []Segment
	for _, s := range parsed.SentenceInfo {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		out = append(out, Segment{
			Start:   float64(s.StartMs) / 1000,
			End:     float64(s.EndMs) / 1000,
			Text:    text,
			Speaker: speakerLabel(s.Speaker),
		})
	}
	return out, nil
}
