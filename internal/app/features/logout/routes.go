package logout

import (
	"github.com/go-chi/chi/v5"
)

// Routes serves /logout. Signing out without a session is harmless, so no
// auth gate is applied.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogout)
	r.Post("/", h.ServeLogout)
	return r
}
