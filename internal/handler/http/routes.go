package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/user/register", h.register)
		r.Post("/api/user/login", h.login)
		r.Get("/health", h.health)
	})

	// routes protected by JWT auth
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/sync/push", h.push)
		r.Get("/sync/pull", h.pull)
		r.Get("/sync/status", h.status)
	})

	return router
}
