package httpx

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/larderhq/larder-go/internal/domain/model"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/ports"
	"github.com/larderhq/larder-go/internal/service"
)

// AuthHandlers exposes the session lifecycle over HTTP. Sign-in and sign-up
// return the settled context once the resulting hydration lands, so callers
// get session plus metadata in one round trip.
type AuthHandlers struct {
	Engine *service.SessionEngine
	Logger *slog.Logger

	// SettleTimeout bounds how long sign-in and sign-out wait for the
	// resulting session event to land before returning the snapshot as-is.
	SettleTimeout time.Duration
}

const defaultSettleTimeout = 5 * time.Second

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// sessionView is the wire shape of a session. Tokens never leave the agent.
type sessionView struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type contextResponse struct {
	Loading   bool             `json:"loading"`
	SignedIn  bool             `json:"signed_in"`
	Session   *sessionView     `json:"session,omitempty"`
	Profile   *model.Profile   `json:"profile,omitempty"`
	Household *model.Household `json:"household,omitempty"`
}

func contextFromSnapshot(snap service.Snapshot) contextResponse {
	resp := contextResponse{
		Loading:   snap.Loading,
		SignedIn:  snap.SignedIn(),
		Profile:   snap.Profile,
		Household: snap.Household,
	}
	if snap.Session != nil {
		view := sessionView{UserID: snap.Session.UserID, Email: snap.Session.Email}
		if !snap.Session.ExpiresAt.IsZero() {
			expires := snap.Session.ExpiresAt
			view.ExpiresAt = &expires
		}
		resp.Session = &view
	}
	return resp
}

// GetContext handles GET /api/context.
func (h *AuthHandlers) GetContext(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, contextFromSnapshot(h.Engine.Snapshot()))
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeAppError(w, apperrors.Validation("email and password are required"))
		return
	}

	if err := h.Engine.SignIn(r.Context(), req.Email, req.Password); err != nil {
		writeAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.waitForContext(r, func(snap service.Snapshot) bool {
		return !snap.Loading && snap.SignedIn()
	}))
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeAppError(w, apperrors.Validation("email and password are required"))
		return
	}

	err := h.Engine.SignUp(r.Context(), ports.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.DisplayName),
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, h.waitForContext(r, func(snap service.Snapshot) bool {
		return !snap.Loading && snap.SignedIn()
	}))
}

// SignOut handles POST /api/auth/signout.
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.SignOut(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.waitForContext(r, func(snap service.Snapshot) bool {
		return !snap.Loading && !snap.SignedIn()
	}))
}

// Refresh handles POST /api/auth/refresh: it re-runs metadata hydration for
// the current subject and returns the refreshed context.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	h.Engine.RefreshMetadata(r.Context())
	WriteJSON(w, http.StatusOK, contextFromSnapshot(h.Engine.Snapshot()))
}

// waitForContext returns the snapshot once cond holds, bounded by
// SettleTimeout. Session events and hydration run asynchronously; waiting
// here lets sign-in and sign-out respond with the state they produced. On
// timeout the current snapshot is returned as-is.
func (h *AuthHandlers) waitForContext(r *http.Request, cond func(service.Snapshot) bool) contextResponse {
	timeout := h.SettleTimeout
	if timeout <= 0 {
		timeout = defaultSettleTimeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ch, unsub := h.Engine.Watch()
	defer unsub()

	for {
		snap := h.Engine.Snapshot()
		if cond(snap) {
			return contextFromSnapshot(snap)
		}
		select {
		case _, ok := <-ch:
			if !ok {
				return contextFromSnapshot(h.Engine.Snapshot())
			}
		case <-deadline.C:
			return contextFromSnapshot(h.Engine.Snapshot())
		case <-r.Context().Done():
			return contextFromSnapshot(h.Engine.Snapshot())
		}
	}
}
