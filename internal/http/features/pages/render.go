package pages

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tendant/digimenu/internal/httputil"
	"github.com/tendant/digimenu/pkg/domain"
	"github.com/tendant/digimenu/pkg/media"
)

const layoutFile = "layout.html"

// PageData holds data for template rendering.
type PageData struct {
	Title string
	Flash *httputil.Flash
	// Restaurant is the signed-in owner's restaurant; nil on public pages.
	Restaurant *domain.Restaurant
	SignedIn   bool
	Data       any
}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses every templates/*.html page in fsys together with the
// layout. Asset keys are turned into URLs by assets.
func NewRenderer(fsys fs.FS, assets media.Store, logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"mediaURL": func(key string) string {
			if key == "" || assets == nil {
				return ""
			}
			return assets.URL(key)
		},
		"price": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
	}

	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := path.Base(file)
		if name == layoutFile {
			continue
		}
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, "templates/"+layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes page name with status. A pending flash message is picked up
// when data carries none.
func (rr *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data PageData) {
	tmpl, ok := rr.pages[name]
	if !ok {
		rr.logger.Error("unknown page template", "page", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if data.Flash == nil {
		data.Flash = httputil.PopFlash(w, r)
	}
	if data.Restaurant != nil {
		data.SignedIn = true
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		rr.logger.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NotFound renders the 404 page.
func (rr *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rr.Render(w, r, http.StatusNotFound, "not_found", PageData{Title: "Not found"})
}
