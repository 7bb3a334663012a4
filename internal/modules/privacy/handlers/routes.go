package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all privacy routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/privacy", func(r chi.Router) {
		r.Post("/stats", h.HandleStats)
	})
}
