// Package main implements the pipeline worker: it consumes processing
// tasks from the Redis queue and runs the download, transcription and
// summarization stages for each media record.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/audigest-api/internal/config"
	"github.com/phrazzld/audigest-api/internal/download"
	"github.com/phrazzld/audigest-api/internal/pipeline"
	"github.com/phrazzld/audigest-api/internal/platform/logger"
	"github.com/phrazzld/audigest-api/internal/platform/postgres"
	"github.com/phrazzld/audigest-api/internal/queue"
	"github.com/phrazzld/audigest-api/internal/summarize"
	"github.com/phrazzld/audigest-api/internal/transcribe"
	"github.com/phrazzld/audigest-api/internal/transcript"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}

	concurrency := cfg.WorkerConcurrency()
	appLogger.Info("worker configuration loaded",
		"queue", cfg.Queue.Name,
		"concurrency", concurrency,
		"cloud_transcription", cfg.Transcribe.CloudTranscription(),
		"task_timeout", cfg.Queue.TaskTimeout)

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	p, err := buildPipeline(cfg, db)
	if err != nil {
		return err
	}

	srv := newWorkerServer(cfg, appLogger)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeProcessMedia, p.HandleProcessMedia)

	appLogger.Info("worker starting")
	// Run blocks until SIGINT/SIGTERM, then drains in-flight tasks.
	if err := srv.Run(mux); err != nil {
		return fmt.Errorf("running worker server: %w", err)
	}
	appLogger.Info("worker stopped")
	return nil
}

// newWorkerServer builds the asynq consumer with the concurrency
// policy applied. Local inference binds a GPU or saturates the CPU;
// without a cloud transcription key the pool runs one task at a time.
func newWorkerServer(cfg *config.Config, appLogger *slog.Logger) *asynq.Server {
	return asynq.NewServer(queue.RedisOpt(cfg.Queue), asynq.Config{
		Concurrency: cfg.WorkerConcurrency(),
		Queues:      map[string]int{cfg.Queue.Name: 1},
		Logger:      &asynqSlogLogger{logger: appLogger},
	})
}

// buildPipeline constructs the stage implementations from
// configuration.
func buildPipeline(cfg *config.Config, db *sql.DB) (*pipeline.Pipeline, error) {
	mediaStore := postgres.NewMediaStore(db)
	transcriptStore := postgres.NewTranscriptStore(db)
	summaryStore := postgres.NewSummaryStore(db)

	downloader := download.NewDownloader(cfg.Download)
	transcriber := transcribe.NewTranscriber(cfg.Transcribe)
	writer := transcript.NewWriter(transcriptStore, cfg.Storage.TranscriptDir)

	summarizer, err := summarize.NewGeminiSummarizer(context.Background(), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("building summarizer: %w", err)
	}

	return pipeline.New(mediaStore, summaryStore, downloader, transcriber, writer, summarizer), nil
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// The worker holds few connections; each task touches the database
	// only at stage boundaries.
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// asynqSlogLogger adapts slog to asynq's logger interface.
type asynqSlogLogger struct {
	logger *slog.Logger
}

func (l *asynqSlogLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqSlogLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqSlogLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqSlogLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
func (l *asynqSlogLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}
