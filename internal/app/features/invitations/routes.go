package invitations

import (
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// APIRoutes mounts under /api/invitations.
func APIRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// Invitees are usually unaffiliated.
		pr.Get("/verify", h.ServeVerify)
		pr.Post("/{id}/accept", h.HandleAccept)

		pr.Group(func(hr chi.Router) {
			hr.Use(sm.RequireCompany, authz.Require(authz.CapHR))
			hr.Get("/", h.ServeList)
			hr.Post("/", h.HandleIssue)
			hr.Delete("/{id}", h.HandleRevoke)
		})
	})

	return r
}

// LinkRoutes mounts under /invitations and serves the emailed accept link.
func LinkRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Get("/accept", h.ServeAcceptLink)
	return r
}
