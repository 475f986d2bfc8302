package httpx

import (
	"net/http"

	"github.com/larderhq/larder-go/internal/domain/model"
	"github.com/larderhq/larder-go/internal/service"
)

// ProfileHandlers exposes the current subject's profile.
type ProfileHandlers struct {
	Svc *service.ProfileService
}

// Get handles GET /api/profile.
func (h *ProfileHandlers) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Svc.Current(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// Update handles PATCH /api/profile.
func (h *ProfileHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var update model.ProfileUpdate
	if !DecodeJSON(w, r, &update) {
		return
	}

	profile, err := h.Svc.Update(r.Context(), update)
	if err != nil {
		writeAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}
