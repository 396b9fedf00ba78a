package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Provider names, also used in routes and cookie names.
const (
	GitHub = "github"
	Jira   = "jira"
	Notion = "notion"
)

// Order is the order providers are listed in.
var Order = []string{GitHub, Jira, Notion}

// Public OAuth endpoints for the providers without one in x/oauth2.
var (
	AtlassianEndpoint = oauth2.Endpoint{
		AuthURL:  "https://auth.atlassian.com/authorize",
		TokenURL: "https://auth.atlassian.com/oauth/token",
	}
	NotionEndpoint = oauth2.Endpoint{
		AuthURL:   "https://api.notion.com/v1/oauth/authorize",
		TokenURL:  "https://api.notion.com/v1/oauth/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}
)

// Profile is the linked account as shown to the user. It travels in the
// integration cookie, so keep it small.
type Profile struct {
	ID        string `json:"id"`
	Login     string `json:"login,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Workspace string `json:"workspace,omitempty"`
	SiteID    string `json:"siteId,omitempty"` // Jira cloud id
}

type provider struct {
	name     string
	oauth    *oauth2.Config
	authOpts []oauth2.AuthCodeOption
	profile  func(ctx context.Context, h *Handler, tok *oauth2.Token) (Profile, error)
}

func (p *provider) configured() bool {
	return p.oauth.ClientID != "" && p.oauth.ClientSecret != ""
}

func newProviders(cfg Config) map[string]*provider {
	endpoint := func(name string, def oauth2.Endpoint) oauth2.Endpoint {
		if ep, ok := cfg.Endpoints[name]; ok {
			return ep
		}
		return def
	}
	conf := func(name string, c Credentials, ep oauth2.Endpoint, scopes ...string) *oauth2.Config {
		return &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  cfg.BaseURL + "/integrations/" + name + "/callback",
			Endpoint:     endpoint(name, ep),
			Scopes:       scopes,
		}
	}

	return map[string]*provider{
		GitHub: {
			name:    GitHub,
			oauth:   conf(GitHub, cfg.GitHub, github.Endpoint, "read:user", "user:email", "repo"),
			profile: githubProfile,
		},
		Jira: {
			name:  Jira,
			oauth: conf(Jira, cfg.Jira, AtlassianEndpoint, "read:me", "read:jira-user", "read:jira-work"),
			authOpts: []oauth2.AuthCodeOption{
				oauth2.SetAuthURLParam("audience", "api.atlassian.com"),
				oauth2.SetAuthURLParam("prompt", "consent"),
			},
			profile: jiraProfile,
		},
		Notion: {
			name:     Notion,
			oauth:    conf(Notion, cfg.Notion, NotionEndpoint),
			authOpts: []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("owner", "user")},
			profile:  notionProfile,
		},
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Profile lookups                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func githubProfile(ctx context.Context, h *Handler, tok *oauth2.Token) (Profile, error) {
	var u struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := h.call(ctx, http.MethodGet, h.APIs.GitHub+"/user", tok.AccessToken, nil, githubHeaders, &u); err != nil {
		return Profile{}, err
	}
	return Profile{
		ID:        strconv.FormatInt(u.ID, 10),
		Login:     u.Login,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}, nil
}

type jiraSite struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (h *Handler) jiraSites(ctx context.Context, token string) ([]jiraSite, error) {
	var sites []jiraSite
	err := h.call(ctx, http.MethodGet, h.APIs.Atlassian+"/oauth/token/accessible-resources", token, nil, nil, &sites)
	return sites, err
}

func jiraProfile(ctx context.Context, h *Handler, tok *oauth2.Token) (Profile, error) {
	var me struct {
		AccountID string `json:"account_id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		Picture   string `json:"picture"`
	}
	if err := h.call(ctx, http.MethodGet, h.APIs.Atlassian+"/me", tok.AccessToken, nil, nil, &me); err != nil {
		return Profile{}, err
	}
	p := Profile{ID: me.AccountID, Name: me.Name, Email: me.Email, AvatarURL: me.Picture}

	sites, err := h.jiraSites(ctx, tok.AccessToken)
	if err != nil {
		return Profile{}, err
	}
	if len(sites) > 0 {
		p.SiteID = sites[0].ID
		p.Workspace = sites[0].Name
	}
	return p, nil
}

// notionProfile reads the owner returned with the token; Notion has no
// separate user-info call for integrations.
func notionProfile(_ context.Context, _ *Handler, tok *oauth2.Token) (Profile, error) {
	var owner struct {
		User struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			AvatarURL string `json:"avatar_url"`
			Person    struct {
				Email string `json:"email"`
			} `json:"person"`
		} `json:"user"`
	}
	if raw := tok.Extra("owner"); raw != nil {
		b, err := json.Marshal(raw)
		if err != nil {
			return Profile{}, fmt.Errorf("notion owner: %w", err)
		}
		if err := json.Unmarshal(b, &owner); err != nil {
			return Profile{}, fmt.Errorf("notion owner: %w", err)
		}
	}
	p := Profile{
		ID:        owner.User.ID,
		Name:      owner.User.Name,
		Email:     owner.User.Person.Email,
		AvatarURL: owner.User.AvatarURL,
	}
	if ws, ok := tok.Extra("workspace_name").(string); ok {
		p.Workspace = ws
	}
	if p.ID == "" {
		if id, ok := tok.Extra("bot_id").(string); ok {
			p.ID = id
		}
	}
	return p, nil
}
