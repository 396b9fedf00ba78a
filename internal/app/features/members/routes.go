// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts member routes. Typically: r.Mount("/api/members", members.Routes(h, sm))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn, sm.RequireCompany, authz.Require(authz.CapHR))

		pr.Get("/", h.ServeList)
		pr.Patch("/{id}/role", h.HandleChangeRole)
	})

	return r
}
