// Package transcribe implements the pipeline's transcription stage.
//
// Three engine variants share one contract: a cloud API (Deepgram), a
// general local engine (WhisperX) and a CJK-specialized local engine
// (FunASR). The Transcriber selects among them with an explicit policy
// over configured mode and language hint; callers stay agnostic to
// which variant runs.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/phrazzld/audigest-api/internal/config"
	"github.com/phrazzld/audigest-api/internal/platform/logger"
)

// Language hints passed to engines.
const (
	LanguageAuto    = "auto"
	LanguageChinese = "zh"
)

// Common transcription errors.
var (
	// ErrAudioMissing is returned when the audio artifact does not
	// exist at the given path.
	ErrAudioMissing = errors.New("audio file does not exist")

	// ErrEngineFailed wraps unrecoverable engine failures.
	ErrEngineFailed = errors.New("transcription engine failed")
)

// Segment is one attributed utterance produced by an engine. Engines
// emit segments ordered by non-decreasing start time; that order is
// trusted downstream.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker"`
}

// Engine is one transcription engine variant. Implementations must be
// stateless and safe for concurrent use: a single instance is shared
// across all pipeline executions.
type Engine interface {
	// Name identifies the engine for logging.
	Name() string

	// Transcribe converts the audio file into an ordered segment
	// sequence. An empty sequence is a legal result (silence); errors
	// are reserved for unrecoverable engine failures.
	Transcribe(ctx context.Context, audioPath, language string) ([]Segment, error)
}

// Transcriber selects an engine per invocation: cloud mode always uses
// the cloud engine; local mode routes Chinese audio to the
// CJK-specialized engine and everything else to the general one.
type Transcriber struct {
	cloud    Engine
	general  Engine
	cjk      Engine
	useCloud bool
}

// NewTranscriber builds a Transcriber with the engine set implied by
// the configuration. Cloud mode is selected by the presence of a
// Deepgram API key.
func NewTranscriber(cfg config.TranscribeConfig) *Transcriber {
	return &Transcriber{
		cloud:    NewDeepgramEngine(cfg.DeepgramAPIKey),
		general:  NewWhisperXEngine(cfg),
		cjk:      NewFunASREngine(cfg),
		useCloud: cfg.CloudTranscription(),
	}
}

// NewTranscriberWithEngines wires explicit engine implementations.
// Used by tests and by deployments with custom engines.
func NewTranscriberWithEngines(cloud, general, cjk Engine, useCloud bool) *Transcriber {
	return &Transcriber{
		cloud:    cloud,
		general:  general,
		cjk:      cjk,
		useCloud: useCloud,
	}
}

// Transcribe runs the selected engine against the audio artifact.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, language string) ([]Segment, error) {
	log := logger.FromContext(ctx)

	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAudioMissing, audioPath)
	}

	engine := t.selectEngine(language)
	log.Info("starting transcription",
		"engine", engine.Name(),
		"audio", audioPath,
		"language", language)

	segments, err := engine.Transcribe(ctx, audioPath, language)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineFailed, engine.Name(), err)
	}

	log.Info("transcription completed",
		"engine", engine.Name(),
		"segment_count", len(segments))
	return segments, nil
}

func (t *Transcriber) selectEngine(language string) Engine {
	if t.useCloud {
		return t.cloud
	}
	if language == LanguageChinese {
		return t.cjk
	}
	return t.general
}
