package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter creates and configures the Chi router
func NewRouter(h *Handler, apiToken string, log logrus.FieldLogger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Recoverer(log))
	r.Use(Logger(log))
	r.Use(CORS)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(JSONContentType)
		r.Use(BearerAuth(apiToken))

		r.Route("/vocabulary", func(r chi.Router) {
			r.Get("/", h.ListVocabulary)
			r.Post("/upload", h.UploadVocabulary)
			r.Post("/import", h.ImportVocabulary)
			r.Get("/export", h.ExportVocabulary)
			r.Get("/review", h.GetReviewWords)
			r.Get("/range/{start}/{end}", h.ListVocabularyRange)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetWord)
				r.Get("/definition", h.GetWordDefinition)
			})
		})

		r.Route("/study", func(r chi.Router) {
			r.Post("/session", h.CreateSession)
			r.Route("/session/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Patch("/", h.UpdateSession)
				r.Get("/result", h.GetSessionResult)
			})

			r.Post("/progress", h.RecordProgress)
			r.Get("/progress/{sessionId}", h.GetSessionProgress)

			r.Post("/runs", h.BeginRun)
			r.Route("/runs/{id}", func(r chi.Router) {
				r.Get("/", h.GetRun)
				r.Post("/mark", h.MarkRun)
				r.Post("/skip", h.SkipRun)
				r.Post("/finish", h.FinishRun)
			})
		})
	})

	return r
}
