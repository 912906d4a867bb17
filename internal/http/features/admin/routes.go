package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the back-office routes behind requireOwner.
func (h *Handler) RegisterRoutes(r chi.Router, requireOwner func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireOwner)

		r.Get("/dashboard/", h.Dashboard)

		r.Get("/category-management/", h.Categories)
		r.Post("/category-management/", h.CreateCategory)
		r.Post("/category-management/{id}/", h.UpdateCategory)
		r.Post("/delete-category-ajax/", h.DeleteCategoryAJAX)

		r.Get("/menu-management/", h.Items)
		r.Post("/menu-management/", h.CreateItem)
		r.Post("/menu-management/{id}/", h.UpdateItem)
		r.Post("/delete-menu-item-ajax/", h.DeleteItemAJAX)

		r.Get("/settings/", h.Settings)
		r.Post("/settings/", h.UpdateSettings)
		r.Post("/settings/delete/", h.DeleteAccount)
	})
}
