package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/accountd/internal/accounts/service"
	"github.com/aussiebroadwan/accountd/internal/accounts/store"
	"github.com/aussiebroadwan/accountd/pkg/httpx"
	"github.com/aussiebroadwan/accountd/pkg/slogx"
)

// writeServiceError translates a service/store error into the API status
// mapping. Unrecognised errors get a generic 500 body; the cause only goes
// to the log, never to the client.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	log := slogx.FromContext(ctx)

	switch {
	case errors.Is(err, store.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, store.ErrDuplicate):
		httpx.WriteError(w, http.StatusConflict, "username or email already taken")
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, store.ErrUnavailable):
		log.Error("store unavailable", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		log.Error("unhandled service error", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
