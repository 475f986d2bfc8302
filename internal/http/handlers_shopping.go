package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/larderhq/larder-go/internal/domain/model"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/service"
)

// ShoppingHandlers exposes the household shopping list.
type ShoppingHandlers struct {
	Svc *service.ShoppingService
}

// List handles GET /api/shopping.
// Query parameters: search, category, due_within (Go duration), include_checked.
func (h *ShoppingHandlers) List(w http.ResponseWriter, r *http.Request) {
	opts, err := shoppingOptionsFromQuery(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	items, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		writeAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// Grouped handles GET /api/shopping/grouped.
func (h *ShoppingHandlers) Grouped(w http.ResponseWriter, r *http.Request) {
	opts, err := shoppingOptionsFromQuery(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	sections, err := h.Svc.Grouped(r.Context(), opts)
	if err != nil {
		writeAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

// Create handles POST /api/shopping.
func (h *ShoppingHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateShoppingItemRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	item, err := h.Svc.Add(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}

// Toggle handles POST /api/shopping/{id}/toggle.
func (h *ShoppingHandlers) Toggle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeAppError(w, apperrors.Validation("item id is required"))
		return
	}

	item, err := h.Svc.Toggle(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/shopping/{id}.
func (h *ShoppingHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeAppError(w, apperrors.Validation("item id is required"))
		return
	}

	if err := h.Svc.Remove(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func shoppingOptionsFromQuery(r *http.Request) (model.ShoppingListOptions, error) {
	q := r.URL.Query()
	opts := model.ShoppingListOptions{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}

	if raw := q.Get("include_checked"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, apperrors.ValidationField("include_checked", "must be a boolean")
		}
		opts.IncludeChecked = include
	}

	if raw := q.Get("due_within"); raw != "" {
		window, err := time.ParseDuration(raw)
		if err != nil || window <= 0 {
			return opts, apperrors.ValidationField("due_within", "must be a positive duration such as 72h")
		}
		opts.DueWithin = window
	}

	return opts, nil
}
