package http

import (
	"net/http"

	"github.com/aussiebroadwan/accountd/internal/accounts/service"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/idx"
)

type RegisterHandler struct {
	AccountService *service.AccountService
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerResponse struct {
	UserID idx.ID `json:"user_id"`
}

// ServeHTTP creates a new account. The password is hashed before storage;
// a clashing username or email yields 409 with no account created.
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.AccountService.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, registerResponse{UserID: id})
}
