package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/tendant/digimenu/internal/httputil"
	"github.com/tendant/digimenu/pkg/auth"
	"github.com/tendant/digimenu/pkg/domain"
)

type contextKey string

const (
	// UserIDKey is the context key for the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// ClaimsKey is the context key for the token claims.
	ClaimsKey contextKey = "claims"
	// RestaurantKey is the context key for the signed-in owner's restaurant.
	RestaurantKey contextKey = "restaurant"
)

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login/"

// RestaurantLookup finds the restaurant an owner manages.
type RestaurantLookup interface {
	GetByOwner(ctx context.Context, userID uuid.UUID) (*domain.Restaurant, error)
}

// Authenticator resolves the signed-in owner from the auth cookies.
type Authenticator struct {
	sessions    *auth.SessionService
	restaurants RestaurantLookup
	cookies     httputil.CookieConfig
	logger      *slog.Logger
}

// NewAuthenticator creates a new authenticator.
func NewAuthenticator(sessions *auth.SessionService, restaurants RestaurantLookup, cookies httputil.CookieConfig, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		sessions:    sessions,
		restaurants: restaurants,
		cookies:     cookies,
		logger:      logger,
	}
}

// RequireOwner only lets through requests from a signed-in owner whose
// restaurant still exists, and puts user ID, claims and restaurant into the
// context. An expired access token is renewed from the refresh cookie.
// Browsers are redirected to the login page, scripts get a JSON 401.
func (a *Authenticator) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.claims(w, r)
		if !ok {
			a.reject(w, r)
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			a.reject(w, r)
			return
		}

		rest, err := a.restaurants.GetByOwner(r.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrRestaurantNotFound) {
				a.reject(w, r)
				return
			}
			a.logger.Error("failed to load restaurant", "user_id", userID, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, ClaimsKey, claims)
		ctx = context.WithValue(ctx, RestaurantKey, rest)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SignedIn reports whether the request carries a valid access token. It never
// refreshes and never writes to w.
func (a *Authenticator) SignedIn(r *http.Request) bool {
	token := bearerToken(r)
	if token == "" {
		token, _ = httputil.GetAccessTokenFromCookie(r)
	}
	if token == "" {
		return false
	}
	_, err := a.sessions.ValidateAccessToken(token)
	return err == nil
}

func (a *Authenticator) claims(w http.ResponseWriter, r *http.Request) (*auth.AccessTokenClaims, bool) {
	token := bearerToken(r)
	if token == "" {
		token, _ = httputil.GetAccessTokenFromCookie(r)
	}
	if token != "" {
		if claims, err := a.sessions.ValidateAccessToken(token); err == nil {
			return claims, true
		}
	}

	refresh, ok := httputil.GetRefreshTokenFromCookie(r)
	if !ok {
		return nil, false
	}
	pair, err := a.sessions.RefreshSession(r.Context(), refresh, auth.IssueSessionOpts{Request: r})
	if err != nil {
		if errors.Is(err, domain.ErrSessionFingerprint) {
			a.logger.Warn("refresh token presented from a different device", "ip", auth.ClientIP(r))
		}
		return nil, false
	}
	httputil.SetAccessCookie(w, pair.AccessToken, a.sessions.AccessTokenTTL(), a.cookies)

	claims, err := a.sessions.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request) {
	httputil.ClearAuthCookies(w, a.cookies)
	if httputil.WantsJSON(r) {
		httputil.JSON(w, http.StatusUnauthorized, httputil.Result{Success: false, Message: "Please sign in again."})
		return
	}
	target := LoginPath
	if r.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetUserID extracts the user ID from the request context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetClaims extracts the token claims from the request context.
func GetClaims(ctx context.Context) (*auth.AccessTokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.AccessTokenClaims)
	return claims, ok
}

// GetRestaurant extracts the owner's restaurant from the request context.
func GetRestaurant(ctx context.Context) (*domain.Restaurant, bool) {
	rest, ok := ctx.Value(RestaurantKey).(*domain.Restaurant)
	return rest, ok
}

// WithRestaurant returns a copy of ctx carrying rest, for handler tests.
func WithRestaurant(ctx context.Context, rest *domain.Restaurant) context.Context {
	return context.WithValue(ctx, RestaurantKey, rest)
}
