package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/digimenu/internal/http/features/pages"
	"github.com/tendant/digimenu/internal/httputil"
	"github.com/tendant/digimenu/pkg/auth"
	"github.com/tendant/digimenu/pkg/repository/memstore"
	"github.com/tendant/digimenu/web"
)

type sentMail struct {
	to, name, menuURL string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendWelcomeEmail(to, restaurantName, menuURL string) error {
	m.sent = append(m.sent, sentMail{to, restaurantName, menuURL})
	return m.err
}

type fixture struct {
	store     *memstore.Store
	passwords *auth.PasswordService
	sessions  *auth.SessionService
	mailer    *fakeMailer
	router    http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newPolicyFixture(t, nil, auth.EmailPolicy{})
}

func newPolicyFixture(t *testing.T, policy *auth.PasswordPolicy, emails auth.EmailPolicy) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	passwords := auth.NewPasswordService(store.Users(), store.Credentials(), store.Accounts(), store.Restaurants(), policy, emails)
	sessions := auth.NewSessionService(auth.SessionConfig{JWTSecret: []byte("test-secret")}, store.Sessions(), store.Users())
	renderer, err := pages.NewRenderer(web.Templates, nil, logger)
	require.NoError(t, err)

	signedIn := func(r *http.Request) bool {
		token, ok := httputil.GetAccessTokenFromCookie(r)
		if !ok {
			return false
		}
		_, err := sessions.ValidateAccessToken(token)
		return err == nil
	}

	mailer := &fakeMailer{}
	h := NewHandler(logger, renderer, passwords, sessions, signedIn, mailer, nil,
		httputil.DefaultCookieConfig(), "http://localhost:8080")
	r := chi.NewRouter()
	h.RegisterRoutes(r, func(next http.Handler) http.Handler { return next })

	return &fixture{store: store, passwords: passwords, sessions: sessions, mailer: mailer, router: r}
}

func (f *fixture) post(form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func registration() url.Values {
	return url.Values{
		"restaurantName":   {"Harbor Grill"},
		"phoneNumber":      {"555-0101"},
		"registerEmail":    {"Owner@Example.com"},
		"registerPassword": {"harbor-password"},
		"terms":            {"on"},
	}
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginPage(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest("GET", "/login/?next=/settings/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="registerEmail"`)
	assert.Contains(t, rec.Body.String(), `name="next" value="/settings/"`)
}

func TestLoginPage_SignedInRedirects(t *testing.T) {
	f := newFixture(t)
	rec := f.post(registration())
	access := cookieNamed(rec, httputil.AccessTokenCookie)
	require.NotNil(t, access)

	req := httptest.NewRequest("GET", "/login/", nil)
	req.AddCookie(access)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/", rec.Header().Get("Location"))
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	rec := f.post(registration())

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/", rec.Header().Get("Location"))
	assert.NotNil(t, cookieNamed(rec, httputil.AccessTokenCookie))
	assert.NotNil(t, cookieNamed(rec, httputil.RefreshTokenCookie))

	user, err := f.store.Users().GetByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	rest, err := f.store.Restaurants().GetByOwnerID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "harbor-grill", rest.Slug)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, sentMail{"owner@example.com", "Harbor Grill", "http://localhost:8080/harbor-grill-menu/"}, f.mailer.sent[0])
}

func TestRegister_MailFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	rec := f.post(registration())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRegister_Failures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(url.Values)
		wantCode int
		wantMsg  string
	}{
		{"missing name", func(v url.Values) { v.Del("restaurantName") }, http.StatusUnprocessableEntity, "Restaurant name is required"},
		{"missing phone", func(v url.Values) { v.Set("phoneNumber", "  ") }, http.StatusUnprocessableEntity, "Phone number is required"},
		{"missing password", func(v url.Values) { v.Del("registerPassword") }, http.StatusUnprocessableEntity, "Password is required"},
		{"terms not accepted", func(v url.Values) { v.Del("terms") }, http.StatusUnprocessableEntity, "You must accept the Terms of Service"},
		{"bad email", func(v url.Values) { v.Set("registerEmail", "not-an-email") }, http.StatusUnprocessableEntity, "That does not look like an email address."},
		{"long phone", func(v url.Values) { v.Set("phoneNumber", strings.Repeat("5", 21)) }, http.StatusUnprocessableEntity, "Phone number must be at most 20 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			form := registration()
			tt.mutate(form)

			rec := f.post(form)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			assert.Nil(t, cookieNamed(rec, httputil.AccessTokenCookie))
			exists, err := f.store.Users().ExistsByEmail(context.Background(), "owner@example.com")
			require.NoError(t, err)
			assert.False(t, exists)
			assert.Empty(t, f.mailer.sent)
		})
	}
}

func TestLoginPage_PasswordHint(t *testing.T) {
	f := newPolicyFixture(t, &auth.PasswordPolicy{MinLength: 10, RequireNumber: true}, auth.EmailPolicy{})

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest("GET", "/login/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<small class="hint">Use at least 10 characters and a number.</small>`)
}

func TestLoginPage_NoHintWithoutPolicy(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest("GET", "/login/", nil))

	assert.NotContains(t, rec.Body.String(), `class="hint"`)
}

func TestRegister_PolicyFailures(t *testing.T) {
	policy := &auth.PasswordPolicy{MinLength: 10, RequireNumber: true}
	emails := auth.EmailPolicy{BlockedDomains: map[string]struct{}{"mailinator.com": {}}}

	tests := []struct {
		name    string
		mutate  func(url.Values)
		wantMsg string
	}{
		{"weak password", func(v url.Values) { v.Set("registerPassword", "grill") }, "Password is too weak. Use at least 10 characters and a number."},
		{"blocked domain", func(v url.Values) { v.Set("registerEmail", "cook@mailinator.com") }, "That email provider is not accepted, use your restaurant&#39;s address."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPolicyFixture(t, policy, emails)
			form := registration()
			form.Set("registerPassword", "harbor-grill-1")
			tt.mutate(form)

			rec := f.post(form)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, tt.wantMsg)
			assert.Contains(t, body, "Use at least 10 characters and a number.")
			assert.Nil(t, cookieNamed(rec, httputil.AccessTokenCookie))
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusSeeOther, f.post(registration()).Code)

	form := registration()
	form.Set("restaurantName", "Second Place")
	form.Set("registerEmail", "OWNER@example.com")
	rec := f.post(form)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "An account with this email already exists.")
	assert.Contains(t, rec.Body.String(), `value="Second Place"`)
	_, err := f.store.Restaurants().GetBySlug(context.Background(), "second-place")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusSeeOther, f.post(registration()).Code)

	rec := f.post(url.Values{"email": {"owner@example.com"}, "password": {"harbor-password"}})

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/", rec.Header().Get("Location"))
	assert.NotNil(t, cookieNamed(rec, httputil.AccessTokenCookie))

	flash := cookieNamed(rec, "flash")
	require.NotNil(t, flash)
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(flash)
	got := httputil.PopFlash(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	assert.Equal(t, "Welcome back, Harbor Grill!", got.Message)
}

func TestLogin_Next(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/menu-management/", "/menu-management/"},
		{"//evil.example.com/", "/dashboard/"},
		{"https://evil.example.com/", "/dashboard/"},
		{"", "/dashboard/"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			f := newFixture(t)
			require.Equal(t, http.StatusSeeOther, f.post(registration()).Code)

			rec := f.post(url.Values{"email": {"owner@example.com"}, "password": {"harbor-password"}, "next": {tt.next}})
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		wantCode int
		wantMsg  string
	}{
		{"wrong password", url.Values{"email": {"owner@example.com"}, "password": {"nope"}}, http.StatusUnauthorized, "Invalid email or password."},
		{"unknown email", url.Values{"email": {"ghost@example.com"}, "password": {"harbor-password"}}, http.StatusUnauthorized, "Invalid email or password."},
		{"missing password", url.Values{"email": {"owner@example.com"}}, http.StatusUnprocessableEntity, "Password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.Equal(t, http.StatusSeeOther, f.post(registration()).Code)

			rec := f.post(tt.form)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			assert.Nil(t, cookieNamed(rec, httputil.AccessTokenCookie))
		})
	}
}

func TestLogin_Lockout(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusSeeOther, f.post(registration()).Code)

	for i := 0; i < 5; i++ {
		f.post(url.Values{"email": {"owner@example.com"}, "password": {"wrong"}})
	}
	rec := f.post(url.Values{"email": {"owner@example.com"}, "password": {"harbor-password"}})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "try again in 15 minutes")
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	rec := f.post(registration())
	refresh := cookieNamed(rec, httputil.RefreshTokenCookie)
	require.NotNil(t, refresh)

	req := httptest.NewRequest("POST", "/logout/", nil)
	req.AddCookie(refresh)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login/", rec.Header().Get("Location"))
	cleared := cookieNamed(rec, httputil.RefreshTokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	_, err := f.sessions.RefreshSession(context.Background(), refresh.Value, auth.IssueSessionOpts{})
	assert.Error(t, err)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/share/", safeNext("/share/"))
	assert.Equal(t, "", safeNext("//example.com"))
	assert.Equal(t, "", safeNext("/\\example.com"))
	assert.Equal(t, "", safeNext("dashboard"))
}
