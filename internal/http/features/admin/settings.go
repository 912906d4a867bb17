package admin

import (
	"net/http"
	"strings"

	"github.com/tendant/digimenu/internal/http/features/pages"
	"github.com/tendant/digimenu/internal/http/middleware"
	"github.com/tendant/digimenu/internal/httputil"
	"github.com/tendant/digimenu/pkg/catalog"
)

const settingsPath = "/settings/"

// SettingsForm is the restaurant profile form.
type SettingsForm struct {
	Name        string `validate:"required,max=255" label:"restaurant name"`
	ContactInfo string `validate:"max=2000" label:"contact information"`
}

// Settings renders the restaurant profile form.
// GET /settings/
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "settings", pages.PageData{
		Title:      "Settings",
		Restaurant: restaurant(r),
	})
}

// UpdateSettings renames the restaurant, updates contact info and replaces
// or removes the logo. The public slug stays the same.
// POST /settings/
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		msg, ok := userMessage(err)
		if !ok {
			msg = "Invalid form submission."
		}
		httputil.Redirect(w, r, settingsPath, httputil.FlashError, msg)
		return
	}

	form := SettingsForm{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		ContactInfo: strings.TrimSpace(r.PostFormValue("contact_info")),
	}
	if err := httputil.Validate(form); err != nil {
		httputil.Redirect(w, r, settingsPath, httputil.FlashError, err.Error())
		return
	}

	logo, err := h.upload(r, "logo")
	if err != nil {
		msg, ok := userMessage(err)
		if !ok {
			h.logger.Warn("failed to read logo", "error", err)
			msg = "Could not read the uploaded image."
		}
		httputil.Redirect(w, r, settingsPath, httputil.FlashError, msg)
		return
	}

	rest := restaurant(r)
	if _, err := h.restaurants.UpdateProfile(r.Context(), rest, catalog.ProfileInput{
		Name:        form.Name,
		ContactInfo: form.ContactInfo,
		Logo:        logo,
		RemoveLogo:  checked(r, "remove_logo"),
	}); err != nil {
		msg, ok := userMessage(err)
		if !ok {
			h.logger.Error("failed to update restaurant", "error", err, "restaurant_id", rest.ID)
			msg = "Something went wrong. Please try again."
		}
		httputil.Redirect(w, r, settingsPath, httputil.FlashError, msg)
		return
	}

	h.metrics.IncrementCatalogMutation("restaurant", "update")
	httputil.Redirect(w, r, settingsPath, httputil.FlashSuccess, "Settings updated successfully.")
}

// DeleteAccount removes the restaurant with its catalog and images, then the
// owner's account and sessions.
// POST /settings/delete/
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	rest := restaurant(r)
	userID, _ := middleware.GetUserID(r.Context())

	if err := h.restaurants.Delete(r.Context(), rest); err != nil {
		h.logger.Error("failed to delete restaurant", "error", err, "restaurant_id", rest.ID)
		httputil.Redirect(w, r, settingsPath, httputil.FlashError, "Could not delete your account. Please try again.")
		return
	}
	if err := h.passwordService.DeleteUser(r.Context(), userID); err != nil {
		h.logger.Error("failed to delete user", "error", err, "user_id", userID)
		httputil.Redirect(w, r, settingsPath, httputil.FlashError, "Could not delete your account. Please try again.")
		return
	}

	h.logger.Info("account deleted", "user_id", userID, "restaurant_id", rest.ID, "slug", rest.Slug)
	h.metrics.IncrementCatalogMutation("restaurant", "delete")
	httputil.ClearAuthCookies(w, h.cookieConfig)
	httputil.Redirect(w, r, "/", httputil.FlashSuccess, "Your account has been deleted.")
}
