// internal/app/features/me/routes.go
package me

import (
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/me.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Get("/", h.ServeMe)
	return r
}
