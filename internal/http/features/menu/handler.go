package menu

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/digimenu/internal/http/features/pages"
	"github.com/tendant/digimenu/internal/http/middleware"
	"github.com/tendant/digimenu/internal/metrics"
	"github.com/tendant/digimenu/pkg/catalog"
	"github.com/tendant/digimenu/pkg/domain"
	"github.com/tendant/digimenu/pkg/qrcode"
	"github.com/tendant/digimenu/pkg/slug"
)

const menuSuffix = "-menu"

// Handler serves public menus and the owner's share tools.
type Handler struct {
	logger     *slog.Logger
	renderer   *pages.Renderer
	menus      *catalog.MenuService
	metrics    *metrics.Metrics
	appBaseURL string
}

// NewHandler creates a new menu handler.
func NewHandler(logger *slog.Logger, renderer *pages.Renderer, menus *catalog.MenuService, m *metrics.Metrics, appBaseURL string) *Handler {
	return &Handler{
		logger:     logger,
		renderer:   renderer,
		menus:      menus,
		metrics:    m,
		appBaseURL: appBaseURL,
	}
}

type sharePage struct {
	MenuURL string
}

// PublicMenu renders a restaurant's menu for guests.
// GET /{slug}-menu/
func (h *Handler) PublicMenu(w http.ResponseWriter, r *http.Request) {
	menu, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.metrics.IncrementMenuViews()
	h.renderer.Render(w, r, http.StatusOK, "public_menu", pages.PageData{
		Title: menu.Restaurant.Name,
		Data:  menu,
	})
}

// PublicQR serves the QR code of any public menu, for printed material.
// GET /{slug}-menu/qr.png
func (h *Handler) PublicQR(w http.ResponseWriter, r *http.Request) {
	menu, ok := h.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	h.writeQR(w, menu.Restaurant, qrcode.InlineBoxSize, "inline")
}

// Share renders the owner's public link and QR preview.
// GET /share/
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	rest, _ := middleware.GetRestaurant(r.Context())
	h.renderer.Render(w, r, http.StatusOK, "share", pages.PageData{
		Title:      "Share your menu",
		Restaurant: rest,
		Data:       sharePage{MenuURL: h.menuURL(rest)},
	})
}

// QRImage serves the owner's QR code for display.
// GET /qr-image/
func (h *Handler) QRImage(w http.ResponseWriter, r *http.Request) {
	rest, _ := middleware.GetRestaurant(r.Context())
	w.Header().Set("Cache-Control", "private, no-cache")
	h.writeQR(w, rest, qrcode.InlineBoxSize, "inline")
}

// QRDownload serves the owner's QR code as a file download.
// GET /qr-download/
func (h *Handler) QRDownload(w http.ResponseWriter, r *http.Request) {
	rest, _ := middleware.GetRestaurant(r.Context())
	w.Header().Set("Content-Disposition", `attachment; filename="`+rest.Slug+`-menu-qr.png"`)
	h.writeQR(w, rest, qrcode.DownloadBoxSize, "attachment")
}

// lookup resolves {menuPath} to a public menu, rendering the 404 page when
// the path is not a menu address or names no restaurant.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*catalog.PublicMenu, bool) {
	s, ok := strings.CutSuffix(chi.URLParam(r, "menuPath"), menuSuffix)
	if !ok || !slug.Valid(s) {
		h.renderer.NotFound(w, r)
		return nil, false
	}

	menu, err := h.menus.PublicMenu(r.Context(), s)
	if err != nil {
		if errors.Is(err, domain.ErrRestaurantNotFound) {
			h.renderer.NotFound(w, r)
			return nil, false
		}
		h.logger.Error("failed to load public menu", "slug", s, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	return menu, true
}

func (h *Handler) writeQR(w http.ResponseWriter, rest *domain.Restaurant, boxSize int, disposition string) {
	png, err := qrcode.Encode(h.menuURL(rest), qrcode.Options{BoxSize: boxSize, Border: qrcode.DefaultBorder})
	if err != nil {
		h.logger.Error("failed to encode QR code", "restaurant_id", rest.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.metrics.IncrementQRCodes(disposition)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}

func (h *Handler) menuURL(rest *domain.Restaurant) string {
	return h.appBaseURL + rest.MenuPath()
}
