package integrations

import (
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the browser OAuth flow under /integrations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/{provider}/connect", h.ServeConnect)
	r.Get("/{provider}/callback", h.ServeCallback)
	r.Post("/{provider}/disconnect", h.HandleDisconnect)
	return r
}

// APIRoutes mounts status and the proxies under /api/integrations.
func APIRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeStatus)
	r.Get("/github/repos", h.ServeGitHubRepos)
	r.Get("/jira/projects", h.ServeJiraProjects)
	r.Get("/notion/search", h.ServeNotionSearch)
	return r
}
