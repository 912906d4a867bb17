package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/digimenu/internal/httputil"
	"github.com/tendant/digimenu/pkg/auth"
	"github.com/tendant/digimenu/pkg/catalog"
	"github.com/tendant/digimenu/pkg/domain"
	"github.com/tendant/digimenu/pkg/repository/memstore"
)

type authFixture struct {
	store    *memstore.Store
	sessions *auth.SessionService
	authn    *Authenticator
	user     *domain.User
	rest     *domain.Restaurant
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	store := memstore.New()
	passwords := auth.NewPasswordService(store.Users(), store.Credentials(), store.Accounts(), store.Restaurants(), nil, auth.EmailPolicy{})
	user, rest, err := passwords.Register(context.Background(), auth.RegisterInput{
		RestaurantName: "Harbor Grill",
		Phone:          "555-0101",
		Email:          "grill@example.com",
		Password:       "grill-password",
		TermsAccepted:  true,
	})
	require.NoError(t, err)

	sessions := auth.NewSessionService(auth.SessionConfig{
		JWTSecret: []byte("test-secret"),
	}, store.Sessions(), store.Users())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	restaurants := catalog.NewRestaurantService(store.Restaurants(), store.Items(), nil, nil, logger)

	return &authFixture{
		store:    store,
		sessions: sessions,
		authn:    NewAuthenticator(sessions, restaurants, httputil.DefaultCookieConfig(), logger),
		user:     user,
		rest:     rest,
	}
}

func (f *authFixture) handler() http.Handler {
	return f.authn.RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest, ok := GetRestaurant(r.Context())
		if !ok {
			http.Error(w, "no restaurant", http.StatusInternalServerError)
			return
		}
		userID, _ := GetUserID(r.Context())
		if userID != rest.OwnerID {
			http.Error(w, "owner mismatch", http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, rest.Slug)
	}))
}

func (f *authFixture) login(t *testing.T) *domain.TokenPair {
	t.Helper()
	pair, err := f.sessions.IssueSession(context.Background(), f.user.ID, auth.IssueSessionOpts{})
	require.NoError(t, err)
	return pair
}

func TestRequireOwner_ValidAccessCookie(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.login(t)

	req := httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(&http.Cookie{Name: httputil.AccessTokenCookie, Value: pair.AccessToken})
	rec := httptest.NewRecorder()
	f.handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "harbor-grill", rec.Body.String())
}

func TestRequireOwner_BearerHeader(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.login(t)

	req := httptest.NewRequest("GET", "/dashboard/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	f.handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireOwner_RefreshesExpiredAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	expired := auth.NewSessionService(auth.SessionConfig{
		JWTSecret:      []byte("test-secret"),
		AccessTokenTTL: -time.Minute,
	}, f.store.Sessions(), f.store.Users())
	pair, err := expired.IssueSession(context.Background(), f.user.ID, auth.IssueSessionOpts{})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(&http.Cookie{Name: httputil.AccessTokenCookie, Value: pair.AccessToken})
	req.AddCookie(&http.Cookie{Name: httputil.RefreshTokenCookie, Value: pair.RefreshToken})
	rec := httptest.NewRecorder()
	f.handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireOwner_RefreshOnlyCookie(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.login(t)

	req := httptest.NewRequest("GET", "/settings/", nil)
	req.AddCookie(&http.Cookie{Name: httputil.RefreshTokenCookie, Value: pair.RefreshToken})
	rec := httptest.NewRecorder()
	f.handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var renewed bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == httputil.AccessTokenCookie && c.Value != "" {
			renewed = true
		}
	}
	assert.True(t, renewed, "expected a fresh access cookie")
}

func TestRequireOwner_BrowserRedirectsToLogin(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest("GET", "/menu-management/?page=2", nil)
	rec := httptest.NewRecorder()
	f.handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/?next=%2Fmenu-management%2F%3Fpage%3D2", rec.Header().Get("Location"))
}

func TestRequireOwner_AjaxGetsJSON(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest("POST", "/delete-menu-item-ajax/", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Please sign in again."}`, rec.Body.String())
}

func TestRequireOwner_DeletedRestaurant(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.login(t)
	require.NoError(t, f.store.Restaurants().Delete(context.Background(), f.rest.ID))

	req := httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(&http.Cookie{Name: httputil.AccessTokenCookie, Value: pair.AccessToken})
	rec := httptest.NewRecorder()
	f.handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSignedIn(t *testing.T) {
	f := newAuthFixture(t)
	pair := f.login(t)

	req := httptest.NewRequest("GET", "/login/", nil)
	assert.False(t, f.authn.SignedIn(req))

	req.AddCookie(&http.Cookie{Name: httputil.AccessTokenCookie, Value: pair.AccessToken})
	assert.True(t, f.authn.SignedIn(req))
}
