package http

import (
	"net/http"

	"github.com/aussiebroadwan/accountd/internal/accounts/service"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/idx"
)

type MeHandler struct {
	AccountService *service.AccountService
}

// HandleGet returns the caller's own profile.
func (h *MeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid or missing access token")
		return
	}

	profile, err := h.AccountService.Profile(ctx, idx.ID(userID))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profile)
}

// HandleDelete removes the caller's account. The bearer token keeps
// verifying until it expires, but every lookup for the deleted id is a 404.
func (h *MeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid or missing access token")
		return
	}

	if err := h.AccountService.DeleteAccount(ctx, idx.ID(userID)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
