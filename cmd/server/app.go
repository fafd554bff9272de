package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/audigest-api/internal/api"
	"github.com/phrazzld/audigest-api/internal/config"
	"github.com/phrazzld/audigest-api/internal/ingest"
	"github.com/phrazzld/audigest-api/internal/platform/postgres"
	"github.com/phrazzld/audigest-api/internal/queue"
)

// application holds the wired components of the server process.
type application struct {
	config *config.Config
	logger *slog.Logger

	db          *sql.DB
	queueClient *queue.Client

	mediaHandler *api.MediaHandler
}

// newApplication connects the database and broker and builds the
// handler graph.
func newApplication(cfg *config.Config, appLogger *slog.Logger) (*application, error) {
	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	mediaStore := postgres.NewMediaStore(db)
	transcriptStore := postgres.NewTranscriptStore(db)
	summaryStore := postgres.NewSummaryStore(db)

	queueClient := queue.NewClient(cfg.Queue)
	gateway := ingest.NewGateway(mediaStore, queueClient)

	return &application{
		config:       cfg,
		logger:       appLogger,
		db:           db,
		queueClient:  queueClient,
		mediaHandler: api.NewMediaHandler(gateway, mediaStore, transcriptStore, summaryStore),
	}, nil
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

func (app *application) cleanup() {
	if app.queueClient != nil {
		if err := app.queueClient.Close(); err != nil {
			app.logger.Error("closing queue client failed", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("closing database failed", "error", err)
		}
	}
}
