package authgoogle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/features/authgoogle"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/auth"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/dalemusser/onboardhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func newTestHandler(t *testing.T, clientID, clientSecret string) (*authgoogle.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only-32", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	h := authgoogle.NewHandler(db, sessionMgr, auditlog.NewNopLogger(), clientID, clientSecret, "http://localhost:8080", logger)
	return h, db
}

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, profile map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "google-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer google-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func pointAt(h *authgoogle.Handler, srv *httptest.Server) {
	h.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	h.UserInfoURL = srv.URL + "/userinfo"
}

// startLogin runs ServeLogin and returns the issued state.
func startLogin(t *testing.T, h *authgoogle.Handler, target string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", target, nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("ServeLogin: expected %d, got %d", http.StatusTemporaryRedirect, rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatalf("no state in %q", loc)
	}
	return state
}

func TestIsConfigured(t *testing.T) {
	h, _ := newTestHandler(t, "id", "secret")
	if !h.IsConfigured() {
		t.Error("IsConfigured() should return true with client ID and secret")
	}
	h, _ = newTestHandler(t, "", "")
	if h.IsConfigured() {
		t.Error("IsConfigured() should return false without client ID and secret")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h, _ := newTestHandler(t, "", "")

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", "/auth/google", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "error=google_not_configured") {
		t.Errorf("Location = %q, want to contain 'error=google_not_configured'", loc)
	}
}

func TestServeLogin_RedirectsToGoogle(t *testing.T) {
	h, _ := newTestHandler(t, "id", "secret")

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", "/auth/google", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Errorf("expected status %d, got %d", http.StatusTemporaryRedirect, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "accounts.google.com") {
		t.Errorf("Location = %q, want to contain 'accounts.google.com'", loc)
	}
}

func TestServeCallback_Errors(t *testing.T) {
	h, _ := newTestHandler(t, "id", "secret")

	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"provider error", "/auth/google/callback?error=access_denied", "google_denied"},
		{"missing state", "/auth/google/callback?code=x", "invalid_state"},
		{"unknown state", "/auth/google/callback?code=x&state=forged", "invalid_state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeCallback(rec, httptest.NewRequest("GET", tt.target, nil))
			if rec.Code != http.StatusSeeOther {
				t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/?error="+tt.code {
				t.Errorf("Location = %q, want %q", loc, "/?error="+tt.code)
			}
		})
	}
}

func TestServeCallback_CreatesUserAndSignsIn(t *testing.T) {
	h, db := newTestHandler(t, "id", "secret")
	pointAt(h, fakeGoogle(t, map[string]any{
		"id":             "g-123",
		"email":          "Ana@Example.com",
		"verified_email": true,
		"name":           "Ana Lima",
		"picture":        "https://example.com/ana.png",
	}))

	state := startLogin(t, h, "/auth/google")

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?code=good-code&state="+url.QueryEscape(state), nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d (Location=%q)", http.StatusSeeOther, rec.Code, rec.Header().Get("Location"))
	}
	if loc := rec.Header().Get("Location"); loc != "/onboarding" {
		t.Errorf("unaffiliated user should land on onboarding, got %q", loc)
	}
	var hasSession bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.Value != "" {
			hasSession = true
		}
	}
	if !hasSession {
		t.Error("expected a session cookie")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := userstore.New(db).GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Role != models.RoleEmployee || u.HasCompany() || u.AuthReturnID != "g-123" {
		t.Errorf("unexpected user: %+v", u)
	}

	// States are single use.
	rec = httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?code=good-code&state="+url.QueryEscape(state), nil))
	if loc := rec.Header().Get("Location"); loc != "/?error=invalid_state" {
		t.Errorf("replayed state: Location = %q", loc)
	}
}

func TestServeCallback_HonoursReturnURL(t *testing.T) {
	h, _ := newTestHandler(t, "id", "secret")
	pointAt(h, fakeGoogle(t, map[string]any{"id": "g-9", "email": "bo@example.com", "verified_email": true, "name": "Bo"}))

	state := startLogin(t, h, "/auth/google?return=%2Finvitations%2Faccept%3Finvitation%3Dabc")

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?code=good-code&state="+url.QueryEscape(state), nil))
	if loc := rec.Header().Get("Location"); loc != "/invitations/accept?invitation=abc" {
		t.Errorf("Location = %q", loc)
	}
}

func TestServeCallback_UnverifiedEmail(t *testing.T) {
	h, _ := newTestHandler(t, "id", "secret")
	pointAt(h, fakeGoogle(t, map[string]any{"id": "g-1", "email": "eve@example.com", "verified_email": false}))

	state := startLogin(t, h, "/auth/google")

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?code=good-code&state="+url.QueryEscape(state), nil))
	if loc := rec.Header().Get("Location"); loc != "/?error=email_unverified" {
		t.Errorf("Location = %q", loc)
	}
}

func TestServeCallback_BadCode(t *testing.T) {
	h, _ := newTestHandler(t, "id", "secret")
	pointAt(h, fakeGoogle(t, nil))

	state := startLogin(t, h, "/auth/google")

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?code=bad&state="+url.QueryEscape(state), nil))
	if loc := rec.Header().Get("Location"); loc != "/?error=token_exchange" {
		t.Errorf("Location = %q", loc)
	}
}
