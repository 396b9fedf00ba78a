// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// Provider tags state tokens issued by this flow.
	Provider = "google"

	stateTTL       = 10 * time.Minute
	defaultUserURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Handler handles Google OAuth sign-in.
type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://onboardhub.example/auth/google/callback"

	// Overridable for tests.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:        userstore.New(db),
		Log:          logger,
		SessionMgr:   sessionMgr,
		AuditLog:     audit,
		StateStore:   oauthstate.New(db),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  defaultUserURL,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Starts the flow by redirecting to Google's consent screen.                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		redirectError(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		redirectError(w, r, "internal")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	returnURL := query.Get(r, "return")
	err = h.StateStore.Save(ctx, oauthstate.State{
		State:     state,
		Provider:  Provider,
		ReturnURL: returnURL,
		ExpiresAt: time.Now().UTC().Add(stateTTL),
	})
	if err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		redirectError(w, r, "internal")
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, fetches the profile, upserts the user and signs in.      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", query.Get(r, "error_description")))
		redirectError(w, r, "google_denied")
		return
	}

	state := query.Get(r, "state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		redirectError(w, r, "invalid_state")
		return
	}

	shortCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	st, valid, err := h.StateStore.Validate(shortCtx, state, Provider)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		redirectError(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		redirectError(w, r, "invalid_state")
		return
	}

	code := query.Get(r, "code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		redirectError(w, r, "invalid_code")
		return
	}

	upCtx, upCancel := context.WithTimeout(ctx, timeouts.Upstream())
	defer upCancel()

	token, err := h.oauth2Config().Exchange(upCtx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		redirectError(w, r, "token_exchange")
		return
	}

	info, err := h.fetchUserInfo(upCtx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		redirectError(w, r, "user_info")
		return
	}
	if info.Email == "" || !info.EmailVerified {
		h.Log.Info("Google account has no verified email", zap.String("google_id", info.ID))
		redirectError(w, r, "email_unverified")
		return
	}

	u, err := h.Users.UpsertOAuthUser(shortCtx, userstore.OAuthProfile{
		Method:    models.AuthMethodGoogle,
		Subject:   info.ID,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	})
	if err != nil {
		h.Log.Error("failed to upsert user", zap.Error(err), zap.String("email", info.Email))
		redirectError(w, r, "internal")
		return
	}
	if !u.IsActive {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, u.Email)
		redirectError(w, r, "account_disabled")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		redirectError(w, r, "session")
		return
	}

	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.CompanyID, models.AuthMethodGoogle, u.Email)
	h.Log.Info("user signed in via Google",
		zap.String("user_id", u.ID.Hex()),
		zap.Bool("has_company", u.HasCompany()))

	fallback := "/"
	if !u.HasCompany() {
		fallback = "/onboarding"
	}
	http.Redirect(w, r, urlutil.SafeReturn(st.ReturnURL, "", fallback), http.StatusSeeOther)
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.oauth2Config().Client(ctx, token)

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func redirectError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/?error="+code, http.StatusSeeOther)
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
