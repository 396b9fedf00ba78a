package auditlog

import (
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/audit. Only admin-capable roles read the trail,
// and only for their own company.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn, sm.RequireCompany, authz.Require(authz.CapAdmin))
	r.Get("/", h.ServeList)
	return r
}
