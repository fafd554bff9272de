package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/audigest-api/internal/api/middleware"
	"github.com/phrazzld/audigest-api/internal/api/shared"
)

// routes builds the HTTP router.
func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Trace)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", app.healthHandler)

	r.Route("/api/v1/media", func(r chi.Router) {
		r.Post("/", app.mediaHandler.Submit)
		r.Get("/", app.mediaHandler.List)
		r.Get("/{id}", app.mediaHandler.Get)
		r.Get("/{id}/transcript", app.mediaHandler.GetTranscript)
		r.Get("/{id}/summary", app.mediaHandler.GetSummary)
	})

	return r
}

// healthHandler reports process, database and broker health.
func (app *application) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.db.PingContext(r.Context()); err != nil {
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	if err := app.queueClient.Ping(r.Context()); err != nil {
		shared.RespondWithError(w, r, http.StatusServiceUnavailable, "task broker unavailable")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
