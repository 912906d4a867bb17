package pages

import (
	"net/http"
)

// Handler serves the landing pages.
type Handler struct {
	renderer *Renderer
	signedIn func(*http.Request) bool
}

// NewHandler creates a new pages handler. signedIn decides whether the
// navigation offers the dashboard or the sign-in link.
func NewHandler(renderer *Renderer, signedIn func(*http.Request) bool) *Handler {
	return &Handler{
		renderer: renderer,
		signedIn: signedIn,
	}
}

// Home renders the landing page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "home", PageData{SignedIn: h.isSignedIn(r)})
}

// HowItWorks renders the feature walkthrough.
func (h *Handler) HowItWorks(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "how_it_works", PageData{
		Title:    "How it works",
		SignedIn: h.isSignedIn(r),
	})
}

func (h *Handler) isSignedIn(r *http.Request) bool {
	return h.signedIn != nil && h.signedIn(r)
}
