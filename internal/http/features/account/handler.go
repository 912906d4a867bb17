package account

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/digimenu/internal/http/features/pages"
	"github.com/tendant/digimenu/internal/httputil"
	"github.com/tendant/digimenu/internal/metrics"
	"github.com/tendant/digimenu/pkg/auth"
	"github.com/tendant/digimenu/pkg/domain"
)

const dashboardPath = "/dashboard/"

// WelcomeMailer sends the registration greeting.
type WelcomeMailer interface {
	SendWelcomeEmail(to, restaurantName, menuURL string) error
}

// Handler handles sign-in, registration and sign-out.
type Handler struct {
	logger          *slog.Logger
	renderer        *pages.Renderer
	passwordService *auth.PasswordService
	sessionService  *auth.SessionService
	signedIn        func(*http.Request) bool
	mailer          WelcomeMailer
	metrics         *metrics.Metrics
	cookieConfig    httputil.CookieConfig
	appBaseURL      string
}

// NewHandler creates a new account handler. mailer and m may be nil.
func NewHandler(
	logger *slog.Logger,
	renderer *pages.Renderer,
	passwordService *auth.PasswordService,
	sessionService *auth.SessionService,
	signedIn func(*http.Request) bool,
	mailer WelcomeMailer,
	m *metrics.Metrics,
	cookieConfig httputil.CookieConfig,
	appBaseURL string,
) *Handler {
	return &Handler{
		logger:          logger,
		renderer:        renderer,
		passwordService: passwordService,
		sessionService:  sessionService,
		signedIn:        signedIn,
		mailer:          mailer,
		metrics:         m,
		cookieConfig:    cookieConfig,
		appBaseURL:      appBaseURL,
	}
}

// LoginForm is the sign-in half of the login page.
type LoginForm struct {
	Email    string `validate:"required,max=254" label:"email"`
	Password string `validate:"required" label:"password"`
}

// RegisterForm is the registration half of the login page.
type RegisterForm struct {
	RestaurantName string `validate:"required,max=255" label:"restaurant name"`
	Phone          string `validate:"required,max=20" label:"phone number"`
	Email          string `validate:"required,max=254" label:"email"`
	Password       string `validate:"required" label:"password"`
	Terms          bool   `validate:"required" label:"Terms of Service"`
}

// loginPage repopulates the forms after a failed attempt. Passwords are
// never echoed back.
type loginPage struct {
	Next           string
	Email          string
	RestaurantName string
	Phone          string
	RegisterEmail  string
	PasswordHint   string
}

// LoginPage renders the combined sign-in and registration page.
// GET /login/
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.signedIn != nil && h.signedIn(r) {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, loginPage{Next: safeNext(r.URL.Query().Get("next"))}, nil)
}

// Submit handles both forms of the login page. The registration form is
// recognised by its registerEmail field.
// POST /login/
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, loginPage{}, errorFlash("Invalid form submission."))
		return
	}
	if r.PostForm.Has("registerEmail") {
		h.register(w, r)
		return
	}
	h.login(w, r)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	form := LoginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	page := loginPage{Next: safeNext(r.PostFormValue("next")), Email: form.Email}

	if err := httputil.Validate(form); err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, page, errorFlash(err.Error()))
		return
	}

	userID, err := h.passwordService.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		h.metrics.IncrementLoginFailures()
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			h.render(w, r, http.StatusUnauthorized, page, errorFlash("Invalid email or password."))
		case errors.Is(err, domain.ErrAccountLocked):
			h.logger.Warn("login attempt on locked account", "email", auth.NormalizeEmail(form.Email))
			h.render(w, r, http.StatusTooManyRequests, page, errorFlash("Too many failed attempts. Please try again in 15 minutes."))
		default:
			h.logger.Error("authentication failed", "error", err)
			h.render(w, r, http.StatusInternalServerError, page, errorFlash("Sign in failed. Please try again."))
		}
		return
	}

	user, err := h.passwordService.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load user", "error", err, "user_id", userID)
		h.render(w, r, http.StatusInternalServerError, page, errorFlash("Sign in failed. Please try again."))
		return
	}

	if !h.startSession(w, r, user) {
		h.render(w, r, http.StatusInternalServerError, page, errorFlash("Sign in failed. Please try again."))
		return
	}

	h.logger.Info("owner signed in", "user_id", user.ID)
	target := page.Next
	if target == "" {
		target = dashboardPath
	}
	httputil.Redirect(w, r, target, httputil.FlashSuccess, "Welcome back, "+user.Name+"!")
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	form := RegisterForm{
		RestaurantName: strings.TrimSpace(r.PostFormValue("restaurantName")),
		Phone:          strings.TrimSpace(r.PostFormValue("phoneNumber")),
		Email:          strings.TrimSpace(r.PostFormValue("registerEmail")),
		Password:       r.PostFormValue("registerPassword"),
		Terms:          checked(r.PostFormValue("terms")),
	}
	page := loginPage{
		RestaurantName: form.RestaurantName,
		Phone:          form.Phone,
		RegisterEmail:  form.Email,
	}

	if err := httputil.Validate(form); err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, page, errorFlash(err.Error()))
		return
	}

	user, rest, err := h.passwordService.Register(r.Context(), auth.RegisterInput{
		RestaurantName: form.RestaurantName,
		Phone:          form.Phone,
		Email:          form.Email,
		Password:       form.Password,
		TermsAccepted:  form.Terms,
	})
	if err != nil {
		status, msg := registerFailure(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("registration failed", "error", err)
		}
		h.render(w, r, status, page, errorFlash(msg))
		return
	}

	h.logger.Info("restaurant registered", "user_id", user.ID, "restaurant_id", rest.ID, "slug", rest.Slug)
	h.metrics.IncrementRegistrations()

	if h.mailer != nil {
		menuURL := h.appBaseURL + rest.MenuPath()
		if err := h.mailer.SendWelcomeEmail(user.Email, rest.Name, menuURL); err != nil {
			h.logger.Error("failed to send welcome email", "error", err, "user_id", user.ID)
		} else {
			h.logger.Info("welcome email sent", "user_id", user.ID)
		}
	}

	if !h.startSession(w, r, user) {
		httputil.Redirect(w, r, "/login/", httputil.FlashSuccess, "Account created successfully! Please log in.")
		return
	}
	httputil.Redirect(w, r, dashboardPath, httputil.FlashSuccess, "Account created successfully! Welcome to DigiMenu.")
}

// Logout revokes the current session and clears the auth cookies.
// POST /logout/
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if refresh, ok := httputil.GetRefreshTokenFromCookie(r); ok {
		if err := h.sessionService.RevokeSession(r.Context(), refresh); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			h.logger.Error("failed to revoke session", "error", err)
		}
	}
	httputil.ClearAuthCookies(w, h.cookieConfig)
	httputil.Redirect(w, r, "/login/", httputil.FlashSuccess, "You have been logged out successfully.")
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *domain.User) bool {
	pair, err := h.sessionService.IssueSession(r.Context(), user.ID, auth.IssueSessionOpts{Request: r})
	if err != nil {
		h.logger.Error("failed to issue session", "error", err, "user_id", user.ID)
		return false
	}
	httputil.SetAuthCookies(w, pair.AccessToken, pair.RefreshToken,
		h.sessionService.AccessTokenTTL(), h.sessionService.RefreshTokenTTL(), h.cookieConfig)
	return true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page loginPage, flash *httputil.Flash) {
	page.PasswordHint = h.passwordService.PasswordHint()
	h.renderer.Render(w, r, status, "login", pages.PageData{
		Title: "Sign in",
		Flash: flash,
		Data:  page,
	})
}

func registerFailure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return http.StatusConflict, "An account with this email already exists."
	case errors.Is(err, domain.ErrTermsNotAccepted):
		return http.StatusUnprocessableEntity, "You must agree to the Terms of Service."
	case errors.Is(err, domain.ErrInvalidEmail):
		return http.StatusUnprocessableEntity, sentence(reason(err), "Please enter a valid email address.")
	case errors.Is(err, domain.ErrWeakPassword):
		return http.StatusUnprocessableEntity, "Password is too weak. " + sentence(reason(err), "")
	case errors.Is(err, domain.ErrNameRequired), errors.Is(err, domain.ErrPhoneRequired):
		return http.StatusUnprocessableEntity, "All fields are required."
	case errors.Is(err, domain.ErrNameTooLong):
		return http.StatusUnprocessableEntity, "Restaurant name is too long."
	default:
		return http.StatusInternalServerError, "Registration failed. Please try again."
	}
}

// reason is the detail a service appended after the sentinel.
func reason(err error) string {
	_, detail, _ := strings.Cut(err.Error(), ": ")
	return detail
}

// sentence capitalizes s and ends it with a period, or returns fallback
// when s is empty.
func sentence(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func errorFlash(msg string) *httputil.Flash {
	return &httputil.Flash{Level: httputil.FlashError, Message: msg}
}

// checked reads an HTML checkbox value.
func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// safeNext only allows local absolute paths as post-login targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return ""
	}
	return next
}
