package menu

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the share routes behind requireOwner and the
// public menu routes. limitQR throttles QR rendering.
func (h *Handler) RegisterRoutes(r chi.Router, requireOwner, limitQR func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireOwner)
		r.Get("/share/", h.Share)
		r.With(limitQR).Get("/qr-image/", h.QRImage)
		r.With(limitQR).Get("/qr-download/", h.QRDownload)
	})

	r.Get("/{menuPath}/", h.PublicMenu)
	r.With(limitQR).Get("/{menuPath}/qr.png", h.PublicQR)
}
