package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the account routes. limit guards the credential
// form against guessing.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Get("/login/", h.LoginPage)
	r.With(limit).Post("/login/", h.Submit)
	r.Post("/logout/", h.Logout)
}
