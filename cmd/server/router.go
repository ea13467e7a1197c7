package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vocabforge/vocab-api/internal/api"
	apiMiddleware "github.com/vocabforge/vocab-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.Timeout(app.config.Server.RequestTimeout()))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	progressHandler := api.NewProgressHandler(
		app.progressService,
		app.srsService,
		app.config.Progress,
		app.logger,
	)

	r.Route("/api/progress", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/review", progressHandler.RecordReview)
		r.Post("/session", progressHandler.RecordSession)
		r.Get("/due", progressHandler.GetDueWords)
		r.Get("/stats", progressHandler.GetStats)
		r.Put("/words/{wordID}", progressHandler.EnsureProgress)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
