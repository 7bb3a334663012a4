package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trial routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/trials", func(r chi.Router) {
		r.Post("/", h.HandleRunTrials)
	})
}
