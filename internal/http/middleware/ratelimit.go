package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/tendant/digimenu/internal/config"
	"github.com/tendant/digimenu/internal/httputil"
)

// Limiter classes handed out by CreateRateLimiters.
const (
	LimitAuth = "auth"
	LimitQR   = "qr"
)

// RateLimitConfig holds rate limiting configuration for a specific endpoint type.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
	// TrustProxy keys on True-Client-IP, X-Real-IP or X-Forwarded-For.
	// Only set it behind a proxy that overwrites those headers.
	TrustProxy bool
}

// RateLimit creates an IP-based rate limiter middleware with logging. Browsers
// get a flash message and a redirect back; scripts get a JSON 429.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := httprate.KeyByIP
	if cfg.TrustProxy {
		keyFunc = httprate.KeyByRealIP
	}
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
			const msg = "Too many requests. Please try again in a minute."
			if r.Method == http.MethodPost && !httputil.WantsJSON(r) {
				httputil.Redirect(w, r, r.URL.Path, httputil.FlashError, msg)
				return
			}
			httputil.Error(w, http.StatusTooManyRequests, msg)
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// CreateRateLimiters creates rate limiting middleware functions based on configuration.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) map[string]func(http.Handler) http.Handler {
	if !cfg.Enabled {
		noOp := NoRateLimit()
		return map[string]func(http.Handler) http.Handler{
			LimitAuth: noOp,
			LimitQR:   noOp,
		}
	}

	return map[string]func(http.Handler) http.Handler{
		LimitAuth: RateLimit(RateLimitConfig{
			Requests:   cfg.AuthRequestsPerMinute,
			Window:     time.Duration(cfg.AuthWindowMinutes) * time.Minute,
			Logger:     logger,
			TrustProxy: cfg.TrustProxy,
		}),
		LimitQR: RateLimit(RateLimitConfig{
			Requests:   cfg.QRRequestsPerMinute,
			Window:     time.Duration(cfg.QRWindowMinutes) * time.Minute,
			Logger:     logger,
			TrustProxy: cfg.TrustProxy,
		}),
	}
}
