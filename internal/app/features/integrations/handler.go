// Package integrations links a user's GitHub, Jira and Notion accounts and
// proxies a few read-only calls to them. The provider access token is kept
// in a signed, encrypted, HTTP-only cookie per provider, never in the
// database.
package integrations

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/dalemusser/onboardhub/internal/app/features/errors"
	"github.com/dalemusser/onboardhub/internal/app/store/oauthstate"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Credentials are one provider's OAuth client settings.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// APIs are the provider API base URLs.
type APIs struct {
	GitHub    string
	Atlassian string
	Notion    string
}

// DefaultAPIs are the public provider APIs.
var DefaultAPIs = APIs{
	GitHub:    "https://api.github.com",
	Atlassian: "https://api.atlassian.com",
	Notion:    "https://api.notion.com",
}

// Config configures the integrations handler.
type Config struct {
	BaseURL string
	GitHub  Credentials
	Jira    Credentials
	Notion  Credentials

	// HashKey signs the cookie (32 or 64 bytes); BlockKey encrypts it
	// (16, 24 or 32 bytes).
	HashKey  []byte
	BlockKey []byte
	Secure   bool

	// Zero fields fall back to DefaultAPIs.
	APIs APIs
	// Endpoints overrides the OAuth endpoints per provider.
	Endpoints map[string]oauth2.Endpoint
}

type Handler struct {
	Log        *zap.Logger
	ErrLog     *apierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store
	Cookies    *securecookie.SecureCookie
	HTTPClient *http.Client
	APIs       APIs
	Secure     bool

	providers map[string]*provider
}

func NewHandler(db *mongo.Database, cfg Config, errLog *apierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) (*Handler, error) {
	if n := len(cfg.HashKey); n != 32 && n != 64 {
		return nil, fmt.Errorf("integration cookie hash key must be 32 or 64 bytes, got %d", n)
	}
	if n := len(cfg.BlockKey); n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("integration cookie block key must be 16, 24 or 32 bytes, got %d", n)
	}

	sc := securecookie.New(cfg.HashKey, cfg.BlockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(int(cookieMaxAge.Seconds()))

	apis := cfg.APIs
	if apis.GitHub == "" {
		apis.GitHub = DefaultAPIs.GitHub
	}
	if apis.Atlassian == "" {
		apis.Atlassian = DefaultAPIs.Atlassian
	}
	if apis.Notion == "" {
		apis.Notion = DefaultAPIs.Notion
	}
	apis.GitHub = strings.TrimRight(apis.GitHub, "/")
	apis.Atlassian = strings.TrimRight(apis.Atlassian, "/")
	apis.Notion = strings.TrimRight(apis.Notion, "/")

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Handler{
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   audit,
		StateStore: oauthstate.New(db),
		Cookies:    sc,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		APIs:       apis,
		Secure:     cfg.Secure,
		providers:  newProviders(cfg),
	}, nil
}

// Status is one row of GET /api/integrations.
type Status struct {
	Provider   string   `json:"provider"`
	Configured bool     `json:"configured"`
	Connected  bool     `json:"connected"`
	Profile    *Profile `json:"profile,omitempty"`
}

// ServeStatus handles GET /api/integrations.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	out := make([]Status, 0, len(Order))
	for _, name := range Order {
		st := Status{Provider: name, Configured: h.providers[name].configured()}
		if l, ok := h.readLink(r, name); ok {
			p := l.Profile
			st.Connected = true
			st.Profile = &p
		}
		out = append(out, st)
	}
	respond.OK(w, out)
}
