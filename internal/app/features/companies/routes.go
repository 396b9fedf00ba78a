package companies

import (
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts company routes. Typically: r.Mount("/api/companies", companies.Routes(h, sm))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// Unaffiliated users pick or create their tenant.
		pr.Post("/", h.HandleCreate)
		pr.Post("/join", h.HandleJoin)

		pr.Group(func(cr chi.Router) {
			cr.Use(sm.RequireCompany)
			cr.Get("/current", h.ServeCurrent)
			cr.With(authz.Require(authz.CapAdmin)).Patch("/current/settings", h.HandleUpdateSettings)
		})
	})

	return r
}
