package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and optionally a
// config file. Environment variables (AUDIGEST_ prefix, underscores for
// nesting, e.g. AUDIGEST_DATABASE_URL) take precedence over values from
// the config file, which takes precedence over defaults.
// Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("AUDIGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment alone can
		// provide a complete configuration.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Keys without meaningful defaults still need to be registered so
	// AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("download.proxy_url", "")
	v.SetDefault("transcribe.deepgram_api_key", "")
	v.SetDefault("transcribe.hf_token", "")
	v.SetDefault("llm.gemini_api_key", "")

	v.SetDefault("queue.redis_addr", "127.0.0.1:6379")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.name", "media")
	v.SetDefault("queue.task_timeout", time.Hour)
	v.SetDefault("queue.concurrency", 0)

	v.SetDefault("download.output_dir", "data/audio")
	v.SetDefault("download.ytdlp_path", "yt-dlp")
	v.SetDefault(
		"download.foreign_domains",
		[]string{"youtube", "youtu.be", "twitter", "x.com", "tiktok"},
	)

	v.SetDefault("transcribe.device", "auto")
	v.SetDefault("transcribe.whisperx_path", "whisperx")
	v.SetDefault("transcribe.funasr_path", "funasr-transcribe")

	v.SetDefault("storage.transcript_dir", "data/transcripts")

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.prompt_template_path", "prompts/summary_detail.md")
}
