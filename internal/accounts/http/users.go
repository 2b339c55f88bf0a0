package http

import (
	"net/http"

	"github.com/aussiebroadwan/accountd/internal/accounts/domain"
	"github.com/aussiebroadwan/accountd/internal/accounts/service"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
)

type UsersHandler struct {
	AccountService *service.AccountService
}

type usersResponse struct {
	Users []domain.Summary `json:"users"`
}

// ServeHTTP lists every account's username and email. Any authenticated
// caller may list; authentication is enforced by the route middleware.
func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.AccountService.ListUsers(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if users == nil {
		users = []domain.Summary{}
	}

	httpx.WriteJSON(w, http.StatusOK, usersResponse{Users: users})
}
