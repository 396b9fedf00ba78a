package documents

import (
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

func tenantRouter(sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn, sm.RequireCompany)
	return r
}

// DocumentRoutes mounts under /api/documents.
func DocumentRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := tenantRouter(sm)
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleUpload)
	r.Get("/{id}", h.ServeDownload)
	r.Delete("/{id}", h.HandleDelete)
	r.With(authz.Require(authz.CapHR)).Post("/{id}/review", h.HandleReview)
	return r
}

// PolicyRoutes mounts under /api/policies.
func PolicyRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := tenantRouter(sm)
	r.Get("/", h.ServeListPolicies)
	r.Get("/{id}", h.ServeDownloadPolicy)
	r.Get("/{id}/text", h.ServePolicyText)
	r.Group(func(hr chi.Router) {
		hr.Use(authz.Require(authz.CapHR))
		hr.Post("/", h.HandleUploadPolicy)
		hr.Delete("/{id}", h.HandleDeletePolicy)
	})
	return r
}

// ResumeRoutes mounts under /api/resumes.
func ResumeRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := tenantRouter(sm)
	r.Get("/", h.ServeListResumes)
	r.Post("/", h.HandleUploadResume)
	r.Get("/{id}", h.ServeDownloadResume)
	r.Delete("/{id}", h.HandleDeleteResume)
	return r
}
