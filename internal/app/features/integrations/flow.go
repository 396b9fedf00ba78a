package integrations

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	"github.com/dalemusser/onboardhub/internal/app/store/oauthstate"
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const stateTTL = 10 * time.Minute

func (h *Handler) lookup(r *http.Request) (*provider, bool) {
	p, ok := h.providers[chi.URLParam(r, "provider")]
	return p, ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /integrations/{provider}/connect                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeConnect(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	a, ok := authz.ActorFrom(r)
	if !ok {
		redirectError(w, r, p.name, "unauthenticated")
		return
	}
	if !p.configured() {
		h.Log.Warn("integration not configured", zap.String("provider", p.name))
		redirectError(w, r, p.name, "not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		redirectError(w, r, p.name, "internal")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.StateStore.Save(ctx, oauthstate.State{
		State:     state,
		Provider:  p.name,
		ReturnURL: query.Get(r, "return"),
		UserID:    a.UserID.Hex(),
		ExpiresAt: time.Now().UTC().Add(stateTTL),
	})
	if err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err), zap.String("provider", p.name))
		redirectError(w, r, p.name, "internal")
		return
	}

	http.Redirect(w, r, p.oauth.AuthCodeURL(state, p.authOpts...), http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /integrations/{provider}/callback                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	a, ok := authz.ActorFrom(r)
	if !ok {
		redirectError(w, r, p.name, "unauthenticated")
		return
	}

	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("integration OAuth error",
			zap.String("provider", p.name),
			zap.String("error", errParam),
			zap.String("description", query.Get(r, "error_description")))
		redirectError(w, r, p.name, "denied")
		return
	}

	shortCtx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, valid, err := h.StateStore.Validate(shortCtx, query.Get(r, "state"), p.name)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		redirectError(w, r, p.name, "internal")
		return
	}
	// The state must have been issued to this same signed-in user.
	if !valid || st.UserID != a.UserID.Hex() {
		h.Log.Warn("invalid integration OAuth state", zap.String("provider", p.name))
		redirectError(w, r, p.name, "invalid_state")
		return
	}

	code := query.Get(r, "code")
	if code == "" {
		redirectError(w, r, p.name, "invalid_code")
		return
	}

	upCtx, upCancel := context.WithTimeout(r.Context(), timeouts.Upstream())
	defer upCancel()

	tok, err := p.oauth.Exchange(upCtx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err), zap.String("provider", p.name))
		redirectError(w, r, p.name, "token_exchange")
		return
	}
	profile, err := p.profile(upCtx, h, tok)
	if err != nil {
		h.Log.Error("failed to fetch provider profile", zap.Error(err), zap.String("provider", p.name))
		redirectError(w, r, p.name, "user_info")
		return
	}

	if err := h.setLink(w, p.name, link{UserID: a.UserID.Hex(), AccessToken: tok.AccessToken, Profile: profile}); err != nil {
		h.Log.Error("failed to encode integration cookie", zap.Error(err), zap.String("provider", p.name))
		redirectError(w, r, p.name, "internal")
		return
	}

	h.AuditLog.Integration(shortCtx, r, audit.EventIntegrationLinked, a.UserID, p.name)
	h.Log.Info("integration linked",
		zap.String("user_id", a.UserID.Hex()),
		zap.String("provider", p.name))

	http.Redirect(w, r, urlutil.SafeReturn(st.ReturnURL, "", "/?connected="+p.name), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /integrations/{provider}/disconnect                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	_, linked := h.readLink(r, p.name)
	h.clearLink(w, p.name)
	if linked {
		h.AuditLog.Integration(r.Context(), r, audit.EventIntegrationUnlinked, a.UserID, p.name)
	}

	if auth.WantsHTML(r) {
		http.Redirect(w, r, "/?disconnected="+p.name, http.StatusSeeOther)
		return
	}
	respond.OK(w, map[string]any{"provider": p.name, "connected": false})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func redirectError(w http.ResponseWriter, r *http.Request, providerName, code string) {
	http.Redirect(w, r, "/?error="+providerName+"_"+code, http.StatusSeeOther)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
