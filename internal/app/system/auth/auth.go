// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// LoginPath is where unauthenticated browser requests are sent.
const LoginPath = "/auth/google"

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the resolved identity for one request. CompanyID is the
// hex ObjectID of the user's tenant, or "" when unaffiliated.
type SessionUser struct {
	ID        string
	Email     string
	Name      string
	Role      string
	CompanyID string
	AvatarURL string
}

// HasCompany reports whether the user belongs to a tenant.
func (u *SessionUser) HasCompany() bool {
	return u != nil && u.CompanyID != ""
}

// UserFetcher loads fresh user data by ID. It returns nil when the user
// no longer exists or is inactive.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

type ctxKey string

const (
	currentUserKey ctxKey = "currentUser"
	resolvedKey    ctxKey = "userResolved"
)

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context as if LoadSessionUser had
// resolved it.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the cookie store and resolves the signed-in user.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager. The secure flag
// controls the Secure attribute. SameSite is Lax in every environment so
// cross-site subrequests never carry the session.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "onboardhub-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher installs the lookup used by LoadSessionUser. Without one,
// requests are never authenticated.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) {
	sm.fetcher = f
}

// GetSession returns the named session. On a decode error a fresh session
// is returned together with the error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// SignIn marks the session as authenticated for userID and saves it.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		sm.log.Debug("replacing unreadable session", zap.Error(err))
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.GetSession(r)
	delete(sess.Values, isAuthKey)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser resolves the signed-in user once per request and caches
// the result in the request context. Every later consumer in the same
// request reads the cached value.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if resolved, _ := r.Context().Value(resolvedKey).(bool); resolved {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), resolvedKey, true)
		r = r.WithContext(ctx)

		if u := sm.resolve(r); u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

func (sm *SessionManager) resolve(r *http.Request) *SessionUser {
	if sm.fetcher == nil {
		return nil
	}
	sess, err := sm.GetSession(r)
	if err != nil {
		return nil
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return nil
	}
	id, _ := sess.Values[userIDKey].(string)
	if id == "" {
		return nil
	}
	return sm.fetcher.FetchUser(r.Context(), id)
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTML: 303 redirect to the login flow with a return param
//   - API:  401 with the JSON error envelope
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		if WantsHTML(r) {
			http.Redirect(w, r, LoginPath+"?return="+url.QueryEscape(currentURI(r)), http.StatusSeeOther)
			return
		}
		respond.Fail(w, http.StatusUnauthorized, "authentication required")
	})
}

// RequireCompany sends unaffiliated users away from tenant-scoped endpoints.
// It assumes RequireSignedIn ran first.
func (sm *SessionManager) RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			respond.Fail(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !u.HasCompany() {
			respond.Fail(w, http.StatusForbidden, "join or create a company first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WantsHTML reports whether r is a browser navigation rather than an API call.
func WantsHTML(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}
