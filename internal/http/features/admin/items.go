package admin

import (
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

const itemsPath = "/menu-management/"

// ItemForm is the create/edit form for a menu item.
type ItemForm struct {
	Name        string `validate:"required,max=255" label:"item name"`
	Description string `validate:"max=2000" label:"description"`
	Price       string `validate:"required" label:"price"`
	Category    string `validate:"omitempty,uuid" label:"category"`
}

// DeleteItemRequest is the AJAX body for deleting a menu item.
type DeleteItemRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid" label:"item_id"`
}

type itemsPage struct {
	Categories []*domain.Category
	Items      []*domain.Item
}

// Items lists the owner's menu items with the category picker.
// GET /menu-management/
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	rest := restaurant(r)
	categories, err := h.catalog.ListCategories(r.Context(), rest)
	if err != nil {
		h.serverError(w, r, "failed to list categories", err)
		return
	}
	items, err := h.catalog.ListItems(r.Context(), rest)
	if err != nil {
		h.serverError(w, r, "failed to list items", err)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, "menu_management", pages.PageData{
		Title:      "Menu items",
		Restaurant: rest,
		Data:       itemsPage{Categories: categories, Items: items},
	})
}

// CreateItem adds a menu item from a multipart form.
// POST /menu-management/
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	in, ok := h.itemInput(w, r)
	if !ok {
		return
	}
	it, err := h.catalog.CreateItem(r.Context(), restaurant(r), in)
	if err != nil {
		h.itemFailure(w, r, "failed to create item", err)
		return
	}
	h.metrics.IncrementCatalogMutation("item", "create")
	httputil.Redirect(w, r, itemsPath, httputil.FlashSuccess, fmt.Sprintf("Menu item %q added successfully.", it.Name))
}

// UpdateItem edits a menu item. The image is kept unless a new one is sent.
// POST /menu-management/{id}/
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Redirect(w, r, itemsPath, httputil.FlashError, "Menu item not found.")
		return
	}
	in, ok := h.itemInput(w, r)
	if !ok {
		return
	}
	it, err := h.catalog.UpdateItem(r.Context(), restaurant(r), id, in)
	if err != nil {
		h.itemFailure(w, r, "failed to update item", err)
		return
	}
	h.metrics.IncrementCatalogMutation("item", "update")
	httputil.Redirect(w, r, itemsPath, httputil.FlashSuccess, fmt.Sprintf("Menu item %q updated successfully.", it.Name))
}

// DeleteItemAJAX deletes a menu item and its image.
// POST /delete-menu-item-ajax/
func (h *Handler) DeleteItemAJAX(w http.ResponseWriter, r *http.Request) {
	var req DeleteItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.JSON(w, http.StatusBadRequest, httputil.Result{Message: sentence(err.Error())})
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.JSON(w, http.StatusBadRequest, httputil.Result{Message: err.Error()})
		return
	}

	it, err := h.catalog.DeleteItem(r.Context(), restaurant(r), uuid.MustParse(req.ItemID))
	if err != nil {
		h.ajaxFailure(w, "failed to delete item", err)
		return
	}
	h.metrics.IncrementCatalogMutation("item", "delete")
	httputil.JSON(w, http.StatusOK, httputil.Result{
		Success: true,
		Message: fmt.Sprintf("Menu item %q deleted successfully.", it.Name),
	})
}

func (h *Handler) itemInput(w http.ResponseWriter, r *http.Request) (catalog.ItemInput, bool) {
	if err := parseForm(r); err != nil {
		msg, ok := userMessage(err)
		if !ok {
			msg = "Invalid form submission."
		}
		httputil.Redirect(w, r, itemsPath, httputil.FlashError, msg)
		return catalog.ItemInput{}, false
	}

	form := ItemForm{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Price:       strings.TrimSpace(r.PostFormValue("price")),
		Category:    strings.TrimSpace(r.PostFormValue("category")),
	}
	if err := httputil.Validate(form); err != nil {
		httputil.Redirect(w, r, itemsPath, httputil.FlashError, err.Error())
		return catalog.ItemInput{}, false
	}

	image, err := h.upload(r, "image")
	if err != nil {
		msg, ok := userMessage(err)
		if !ok {
			h.logger.Warn("failed to read item image", "error", err)
			msg = "Could not read the uploaded image."
		}
		httputil.Redirect(w, r, itemsPath, httputil.FlashError, msg)
		return catalog.ItemInput{}, false
	}

	in := catalog.ItemInput{
		Name:        form.Name,
		Description: form.Description,
		Price:       form.Price,
		IsAvailable: checked(r, "is_available"),
		IsFeatured:  checked(r, "is_featured"),
		IsSpecial:   checked(r, "is_special"),
		Image:       image,
	}
	if form.Category != "" {
		in.CategoryID = uuid.NullUUID{UUID: uuid.MustParse(form.Category), Valid: true}
	}
	return in, true
}

func (h *Handler) itemFailure(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	msg, ok := userMessage(err)
	if !ok {
		h.logger.Error(logMsg, "error", err, "restaurant_id", restaurant(r).ID)
		msg = "Something went wrong. Please try again."
	}
	httputil.Redirect(w, r, itemsPath, httputil.FlashError, msg)
}
