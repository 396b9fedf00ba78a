package onboarding

import (
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/onboarding.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn, sm.RequireCompany)

	r.Get("/me", h.ServeMine)
	r.Post("/me/tasks/{taskId}/complete", h.HandleCompleteTask)
	r.Post("/me/policies/acknowledge", h.HandleAcknowledgePolicy)

	r.Group(func(hr chi.Router) {
		hr.Use(authz.Require(authz.CapHR))
		hr.Get("/", h.ServeList)
		hr.Get("/{employeeId}", h.ServeEmployee)
		hr.Put("/{employeeId}/tasks", h.HandleSetTasks)
	})
	return r
}
