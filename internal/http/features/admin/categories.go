package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tendant/digimenu/internal/http/features/pages"
	"github.com/tendant/digimenu/internal/httputil"
	"github.com/tendant/digimenu/pkg/catalog"
	"github.com/tendant/digimenu/pkg/domain"
)

const categoriesPath = "/category-management/"

// CategoryForm is the create/edit form for a category.
type CategoryForm struct {
	Name        string `validate:"required,max=100" label:"category name"`
	Description string `validate:"max=2000" label:"description"`
}

// DeleteCategoryRequest is the AJAX body for deleting a category.
type DeleteCategoryRequest struct {
	CategoryID string `json:"category_id" validate:"required,uuid" label:"category_id"`
}

type categoriesPage struct {
	Categories []*domain.Category
}

// Categories lists the owner's categories.
// GET /category-management/
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	rest := restaurant(r)
	categories, err := h.catalog.ListCategories(r.Context(), rest)
	if err != nil {
		h.serverError(w, r, "failed to list categories", err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, "category_management", pages.PageData{
		Title:      "Categories",
		Restaurant: rest,
		Data:       categoriesPage{Categories: categories},
	})
}

// CreateCategory adds a category.
// POST /category-management/
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	form, ok := h.categoryForm(w, r)
	if !ok {
		return
	}
	c, err := h.catalog.CreateCategory(r.Context(), restaurant(r), catalog.CategoryInput{
		Name:        form.Name,
		Description: form.Description,
	})
	if err != nil {
		h.categoryFailure(w, r, "failed to create category", err)
		return
	}
	h.metrics.IncrementCatalogMutation("category", "create")
	httputil.Redirect(w, r, categoriesPath, httputil.FlashSuccess, fmt.Sprintf("Category %q added successfully.", c.Name))
}

// UpdateCategory edits a category.
// POST /category-management/{id}/
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Redirect(w, r, categoriesPath, httputil.FlashError, "Category not found.")
		return
	}
	form, ok := h.categoryForm(w, r)
	if !ok {
		return
	}
	c, err := h.catalog.UpdateCategory(r.Context(), restaurant(r), id, catalog.CategoryInput{
		Name:        form.Name,
		Description: form.Description,
	})
	if err != nil {
		h.categoryFailure(w, r, "failed to update category", err)
		return
	}
	h.metrics.IncrementCatalogMutation("category", "update")
	httputil.Redirect(w, r, categoriesPath, httputil.FlashSuccess, fmt.Sprintf("Category %q updated successfully.", c.Name))
}

// DeleteCategoryAJAX deletes an empty category.
// POST /delete-category-ajax/
func (h *Handler) DeleteCategoryAJAX(w http.ResponseWriter, r *http.Request) {
	var req DeleteCategoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.JSON(w, http.StatusBadRequest, httputil.Result{Message: sentence(err.Error())})
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.JSON(w, http.StatusBadRequest, httputil.Result{Message: err.Error()})
		return
	}

	c, err := h.catalog.DeleteCategory(r.Context(), restaurant(r), uuid.MustParse(req.CategoryID))
	if err != nil {
		h.ajaxFailure(w, "failed to delete category", err)
		return
	}
	h.metrics.IncrementCatalogMutation("category", "delete")
	httputil.JSON(w, http.StatusOK, httputil.Result{
		Success: true,
		Message: fmt.Sprintf("Category %q deleted successfully.", c.Name),
	})
}

func (h *Handler) categoryForm(w http.ResponseWriter, r *http.Request) (CategoryForm, bool) {
	if err := r.ParseForm(); err != nil {
		httputil.Redirect(w, r, categoriesPath, httputil.FlashError, "Invalid form submission.")
		return CategoryForm{}, false
	}
	form := CategoryForm{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	if err := httputil.Validate(form); err != nil {
		httputil.Redirect(w, r, categoriesPath, httputil.FlashError, err.Error())
		return CategoryForm{}, false
	}
	return form, true
}

func (h *Handler) categoryFailure(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	msg, ok := userMessage(err)
	if !ok {
		h.logger.Error(logMsg, "error", err, "restaurant_id", restaurant(r).ID)
		msg = "Something went wrong. Please try again."
	}
	httputil.Redirect(w, r, categoriesPath, httputil.FlashError, msg)
}

func (h *Handler) ajaxFailure(w http.ResponseWriter, logMsg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound), errors.Is(err, domain.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrCategoryInUse):
		status = http.StatusConflict
	}
	msg, ok := userMessage(err)
	if !ok {
		h.logger.Error(logMsg, "error", err)
		msg = "Something went wrong. Please try again."
	}
	httputil.JSON(w, status, httputil.Result{Message: msg})
}
