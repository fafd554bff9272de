package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Queue      QueueConfig      `mapstructure:"queue"      validate:"required"`
	Download   DownloadConfig   `mapstructure:"download"   validate:"required"`
	Transcribe TranscribeConfig `mapstructure:"transcribe"`
	Storage    StorageConfig    `mapstructure:"storage"    validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// QueueConfig contains the Redis broker settings shared by the API
// server (producer) and the worker (consumer).
type QueueConfig struct {
	RedisAddr string `mapstructure:"redis_addr" validate:"required"`
	RedisDB   int    `mapstructure:"redis_db"   validate:"gte=0"`
	Name      string `mapstructure:"name"       validate:"required"`

	// TaskTimeout is the broker-enforced wall clock budget for one
	// pipeline run. A run that exceeds it is terminated by asynq and
	// eventually redelivered; the media row keeps its last persisted
	// status.
	TaskTimeout time.Duration `mapstructure:"task_timeout" validate:"required"`

	// Concurrency overrides the worker pool size when non-zero.
	// Zero means "decide from the transcription mode": 5 with a
	// Deepgram key, 1 for local inference.
	Concurrency int `mapstructure:"concurrency" validate:"gte=0"`
}

// DownloadConfig configures the yt-dlp download stage.
type DownloadConfig struct {
	OutputDir string `mapstructure:"output_dir" validate:"required"`

	// YtDlpPath is the yt-dlp binary to invoke. Resolved via PATH when
	// left as the bare name.
	YtDlpPath string `mapstructure:"ytdlp_path" validate:"required"`

	// ProxyURL, when set, is passed to yt-dlp only for URLs whose host
	// matches one of ForeignDomains.
	ProxyURL       string   `mapstructure:"proxy_url"`
	ForeignDomains []string `mapstructure:"foreign_domains"`
}

// TranscribeConfig configures the transcription stage. The presence of
// DeepgramAPIKey selects cloud mode; otherwise local engines run.
type TranscribeConfig struct {
	DeepgramAPIKey string `mapstructure:"deepgram_api_key"`

	// HFToken enables speaker diarization in the local WhisperX engine.
	HFToken string `mapstructure:"hf_token"`

	Device       string `mapstructure:"device"`
	WhisperXPath string `mapstructure:"whisperx_path"`
	FunASRPath   string `mapstructure:"funasr_path"`
}

// StorageConfig configures transcript artifact storage.
type StorageConfig struct {
	TranscriptDir string `mapstructure:"transcript_dir" validate:"required"`
}

// LLMConfig contains all LLM integration related settings. An empty
// GeminiAPIKey disables the summarize stage's real client; the worker
// refuses to start without one unless summaries are explicitly
// disabled.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key"`
	ModelName          string `mapstructure:"model_name"`
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
}

// CloudTranscription reports whether the deployment is configured for
// the remote transcription API. It drives the worker concurrency
// policy: cloud mode parallelizes, local mode must not.
func (c TranscribeConfig) CloudTranscription() bool {
	return c.DeepgramAPIKey != ""
}

// WorkerConcurrency resolves the effective worker pool size.
// Local-mode concurrency is clamped to 1 regardless of any override:
// local inference engines are assumed to monopolize a single shared
// accelerator.
func (c *Config) WorkerConcurrency() int {
	if !c.Transcribe.CloudTranscription() {
		return 1
	}
	if c.Queue.Concurrency > 0 {
		return c.Queue.Concurrency
	}
	return 5
}
