package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tendant/digimenu/internal/config"
	"github.com/tendant/digimenu/internal/http/features/account"
	"github.com/tendant/digimenu/internal/http/features/admin"
	"github.com/tendant/digimenu/internal/http/features/menu"
	"github.com/tendant/digimenu/internal/http/features/pages"
	"github.com/tendant/digimenu/internal/http/middleware"
	"github.com/tendant/digimenu/internal/httputil"
	"github.com/tendant/digimenu/internal/metrics"
	"github.com/tendant/digimenu/pkg/auth"
	"github.com/tendant/digimenu/pkg/catalog"
	"github.com/tendant/digimenu/pkg/media"
	"github.com/tendant/digimenu/web"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger            *slog.Logger
	PasswordService   *auth.PasswordService
	SessionService    *auth.SessionService
	CatalogService    *catalog.Service
	RestaurantService *catalog.RestaurantService
	MenuService       *catalog.MenuService
	Assets            media.Store
	Mailer            account.WelcomeMailer // nil disables welcome mail
	Metrics           *metrics.Metrics      // nil disables /metrics
	AppBaseURL        string
	CookieSecure      bool
	// MediaRoot and MediaURL are set when assets live on local disk and
	// must be served by this process.
	MediaRoot       string
	MediaURL        string
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	renderer, err := pages.NewRenderer(web.Templates, cfg.Assets, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("load page templates: %w", err)
	}

	cookies := httputil.DefaultCookieConfig()
	cookies.Secure = cfg.CookieSecure
	authn := middleware.NewAuthenticator(cfg.SessionService, cfg.RestaurantService, cookies, cfg.Logger)

	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(cfg.Metrics.Middleware)
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize, cfg.Validation.MaxUploadSize))

	r.NotFound(renderer.NotFound)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	if cfg.MediaRoot != "" {
		prefix := "/" + strings.Trim(cfg.MediaURL, "/") + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, noDirListing(http.FileServer(http.Dir(cfg.MediaRoot)))))
	}

	// Create rate limiters for different endpoint types
	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	pages.NewHandler(renderer, authn.SignedIn).RegisterRoutes(r)

	account.NewHandler(
		cfg.Logger,
		renderer,
		cfg.PasswordService,
		cfg.SessionService,
		authn.SignedIn,
		cfg.Mailer,
		cfg.Metrics,
		cookies,
		cfg.AppBaseURL,
	).RegisterRoutes(r, rateLimiters[middleware.LimitAuth])

	admin.NewHandler(
		cfg.Logger,
		renderer,
		cfg.CatalogService,
		cfg.RestaurantService,
		cfg.PasswordService,
		cfg.Metrics,
		cookies,
		cfg.AppBaseURL,
		cfg.Validation.MaxUploadSize,
	).RegisterRoutes(r, authn.RequireOwner)

	// Registered last: {menuPath} only matches what no static route took.
	menu.NewHandler(
		cfg.Logger,
		renderer,
		cfg.MenuService,
		cfg.Metrics,
		cfg.AppBaseURL,
	).RegisterRoutes(r, authn.RequireOwner, rateLimiters[middleware.LimitQR])

	return r, nil
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
