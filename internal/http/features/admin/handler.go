package admin

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/digimenu/internal/http/features/pages"
	"github.com/tendant/digimenu/internal/http/middleware"
	"github.com/tendant/digimenu/internal/httputil"
	"github.com/tendant/digimenu/internal/metrics"
	"github.com/tendant/digimenu/pkg/auth"
	"github.com/tendant/digimenu/pkg/catalog"
	"github.com/tendant/digimenu/pkg/domain"
	"github.com/tendant/digimenu/pkg/media"
)

// Handler serves the owner's back office. Every route runs behind
// middleware.RequireOwner, which puts the acting restaurant in the context.
type Handler struct {
	logger          *slog.Logger
	renderer        *pages.Renderer
	catalog         *catalog.Service
	restaurants     *catalog.RestaurantService
	passwordService *auth.PasswordService
	metrics         *metrics.Metrics
	cookieConfig    httputil.CookieConfig
	appBaseURL      string
	maxUploadSize   int64
}

// NewHandler creates a new admin handler.
func NewHandler(
	logger *slog.Logger,
	renderer *pages.Renderer,
	catalogService *catalog.Service,
	restaurants *catalog.RestaurantService,
	passwordService *auth.PasswordService,
	m *metrics.Metrics,
	cookieConfig httputil.CookieConfig,
	appBaseURL string,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		logger:          logger,
		renderer:        renderer,
		catalog:         catalogService,
		restaurants:     restaurants,
		passwordService: passwordService,
		metrics:         m,
		cookieConfig:    cookieConfig,
		appBaseURL:      appBaseURL,
		maxUploadSize:   maxUploadSize,
	}
}

type dashboardPage struct {
	MenuURL string
	Stats   domain.Stats
}

// Dashboard renders the summary counts.
// GET /dashboard/
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rest := restaurant(r)
	stats, err := h.catalog.Dashboard(r.Context(), rest)
	if err != nil {
		h.serverError(w, r, "failed to load dashboard", err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, "dashboard", pages.PageData{
		Title:      "Dashboard",
		Restaurant: rest,
		Data:       dashboardPage{MenuURL: h.appBaseURL + rest.MenuPath(), Stats: stats},
	})
}

func restaurant(r *http.Request) *domain.Restaurant {
	rest, _ := middleware.GetRestaurant(r.Context())
	return rest
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "error", err, "path", r.URL.Path)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// userMessage returns the text shown to the owner for an expected failure.
// ok is false for errors that should be logged and reported generically.
func userMessage(err error) (msg string, ok bool) {
	var inUse *domain.CategoryInUseError
	if errors.As(err, &inUse) {
		return sentence(inUse.Error()), true
	}
	for _, known := range []error{
		domain.ErrNameRequired,
		domain.ErrNameTooLong,
		domain.ErrInvalidPrice,
		domain.ErrUnsupportedImage,
		domain.ErrImageDimensions,
		domain.ErrUploadTooLarge,
		domain.ErrDuplicateCategory,
		domain.ErrCategoryNotFound,
		domain.ErrItemNotFound,
	} {
		if errors.Is(err, known) {
			return sentence(known.Error()), true
		}
	}
	return "", false
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToUpper(s[:1]) + s[1:]
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}

// parseForm accepts both multipart and urlencoded bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(32 << 20)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return domain.ErrUploadTooLarge
	}
	return err
}

// upload reads an optional image field. A missing or empty file yields nil.
func (h *Handler) upload(r *http.Request, field string) (*media.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		return nil, domain.ErrUploadTooLarge
	}
	reader := io.Reader(file)
	if h.maxUploadSize > 0 {
		reader = io.LimitReader(file, h.maxUploadSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if h.maxUploadSize > 0 && int64(len(data)) > h.maxUploadSize {
		return nil, domain.ErrUploadTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &media.Upload{Filename: header.Filename, Data: data}, nil
}

// checked reads an HTML checkbox value.
func checked(r *http.Request, field string) bool {
	switch strings.ToLower(r.PostFormValue(field)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
