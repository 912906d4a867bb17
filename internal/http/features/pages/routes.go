package pages

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the landing page routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/how-it-works/", h.HowItWorks)
}
