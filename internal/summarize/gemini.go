package summarize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/audigest-api/internal/config"
	"github.com/phrazzld/audigest-api/internal/domain"
	"github.com/phrazzld/audigest-api/internal/platform/logger"
	"google.golang.org/genai"
)

const (
	defaultModelName = "gemini-2.0-flash"
	maxAttempts      = 3
	retryBaseDelay   = 2 * time.Second
)

// generateFunc sends a prompt to the model and returns the raw
// response text. Swappable for tests.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// GeminiSummarizer implements Summarizer on the Gemini API.
type GeminiSummarizer struct {
	model      string
	template   *template.Template
	generate   generateFunc
	retryDelay time.Duration
}

// promptData is the template input.
type promptData struct {
	Title      string
	Author     string
	Transcript string
}

// NewGeminiSummarizer creates a summarizer from configuration,
// loading the prompt template from disk.
func NewGeminiSummarizer(ctx context.Context, cfg config.LLMConfig) (*GeminiSummarizer, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	model := cfg.ModelName
	if model == "" {
		model = defaultModelName
	}

	tmpl, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating gemini client: %v", ErrInvalidConfig, err)
	}

	s := &GeminiSummarizer{
		model:      model,
		template:   tmpl,
		retryDelay: retryBaseDelay,
	}
	s.generate = func(ctx context.Context, prompt string) (string, error) {
		return callGemini(ctx, client, model, prompt)
	}
	return s, nil
}

func loadPromptTemplate(path string) (*template.Template, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: prompt template path cannot be empty", ErrInvalidConfig)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading prompt template %s: %v", ErrInvalidConfig, path, err)
	}
	tmpl, err := template.New("summary").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing prompt template: %v", ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// Summarize implements Summarizer. Transient provider failures are
// retried with exponential backoff; unusable responses are not.
func (s *GeminiSummarizer) Summarize(ctx context.Context, media *domain.Media, transcriptText string) (Result, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(transcriptText) == "" {
		log.Info("skipping summary of empty transcript", "media_id", media.ID)
		return Result{Empty: true}, nil
	}

	var promptBuf bytes.Buffer
	err := s.template.Execute(&promptBuf, promptData{
		Title:      media.Title,
		Author:     media.Author,
		Transcript: transcriptText,
	})
	if err != nil {
		return Result{}, fmt.Errorf("executing prompt template: %w", err)
	}

	text, err := s.generateWithRetry(ctx, promptBuf.String())
	if err != nil {
		return Result{}, err
	}

	content, tags := splitTags(text)
	if content == "" {
		return Result{}, fmt.Errorf("%w: model returned no summary text", ErrInvalidResponse)
	}

	summary, err := domain.NewSummary(media.ID, content, s.model, tags)
	if err != nil {
		return Result{}, fmt.Errorf("building summary record: %w", err)
	}

	log.Info("summary generated",
		"media_id", media.ID,
		"model", s.model,
		"tag_count", len(tags),
		"content_length", len(content))
	return Result{Summary: summary}, nil
}

func (s *GeminiSummarizer) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := s.generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		log.Warn("model call failed",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err)

		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(s.retryDelay << (attempt - 1)):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrTransientFailure, ctx.Err())
		}
	}
	return "", fmt.Errorf("%w: %v", ErrTransientFailure, lastErr)
}

func callGemini(ctx context.Context, client *genai.Client, model, prompt string) (string, error) {
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response")
	}
	return text, nil
}
