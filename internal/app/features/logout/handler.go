package logout

import (
	"net/http"

	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// LinkClearer drops per-browser state tied to the signed-in user, such as
// integration cookies.
type LinkClearer interface {
	ClearAll(w http.ResponseWriter)
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Links      LinkClearer
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, links LinkClearer, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Links:      links,
	}
}

// ServeLogout handles GET and POST /logout. Browsers are sent home; API
// callers get a JSON envelope.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	u, signedIn := auth.CurrentUser(r)

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	if h.Links != nil {
		h.Links.ClearAll(w)
	}
	if signedIn && h.AuditLog != nil {
		h.AuditLog.Logout(r.Context(), r, u.ID, u.CompanyID)
	}

	if auth.WantsHTML(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	respond.OK(w, map[string]bool{"signedOut": true})
}
