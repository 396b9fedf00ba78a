package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

const (
	defaultLimit = 30
	maxLimit     = 100
)

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(query.Get(r, "limit"))
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

// proxy runs fn with the caller's token for providerName and writes its
// result. A missing link answers 401; a provider that rejects the token
// also drops the cookie.
func (h *Handler) proxy(w http.ResponseWriter, r *http.Request, providerName string, fn func(ctx context.Context, l link) (any, error)) {
	l, ok := h.readLink(r, providerName)
	if !ok {
		h.ErrLog.Write(w, r, apperr.NewUnauthenticated(providerName+" is not connected"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upstream())
	defer cancel()

	out, err := fn(ctx, l)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			h.ErrLog.Write(w, r, err)
			return
		}
		var ue *upstreamError
		if errors.As(err, &ue) && ue.Status == http.StatusUnauthorized {
			h.clearLink(w, providerName)
			h.Log.Info("integration token rejected", zap.String("provider", providerName))
			h.ErrLog.Write(w, r, apperr.NewUnauthenticated(providerName+" authorization expired; reconnect"))
			return
		}
		h.ErrLog.Write(w, r, apperr.NewUpstream(providerName+" request failed", err))
		return
	}
	respond.OK(w, out)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GitHub                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Repo is a GitHub repository summary.
type Repo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"fullName"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Private     bool   `json:"private"`
	Language    string `json:"language,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// ServeGitHubRepos handles GET /api/integrations/github/repos.
func (h *Handler) ServeGitHubRepos(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r)
	h.proxy(w, r, GitHub, func(ctx context.Context, l link) (any, error) {
		var raw []struct {
			ID          int64  `json:"id"`
			Name        string `json:"name"`
			FullName    string `json:"full_name"`
			Description string `json:"description"`
			HTMLURL     string `json:"html_url"`
			Private     bool   `json:"private"`
			Language    string `json:"language"`
			UpdatedAt   string `json:"updated_at"`
		}
		u := h.APIs.GitHub + "/user/repos?sort=updated&per_page=" + strconv.Itoa(limit)
		if err := h.call(ctx, http.MethodGet, u, l.AccessToken, nil, githubHeaders, &raw); err != nil {
			return nil, err
		}
		repos := make([]Repo, 0, len(raw))
		for _, g := range raw {
			repos = append(repos, Repo{
				ID:          g.ID,
				Name:        g.Name,
				FullName:    g.FullName,
				Description: g.Description,
				URL:         g.HTMLURL,
				Private:     g.Private,
				Language:    g.Language,
				UpdatedAt:   g.UpdatedAt,
			})
		}
		return repos, nil
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Jira                                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// Project is a Jira project summary.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// ServeJiraProjects handles GET /api/integrations/jira/projects.
func (h *Handler) ServeJiraProjects(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r)
	h.proxy(w, r, Jira, func(ctx context.Context, l link) (any, error) {
		site := l.Profile.SiteID
		if site == "" {
			sites, err := h.jiraSites(ctx, l.AccessToken)
			if err != nil {
				return nil, err
			}
			if len(sites) == 0 {
				return nil, apperr.NewNotFound("no accessible Jira site")
			}
			site = sites[0].ID
		}

		var page struct {
			Values []struct {
				ID             string `json:"id"`
				Key            string `json:"key"`
				Name           string `json:"name"`
				ProjectTypeKey string `json:"projectTypeKey"`
			} `json:"values"`
		}
		u := h.APIs.Atlassian + "/ex/jira/" + url.PathEscape(site) +
			"/rest/api/3/project/search?maxResults=" + strconv.Itoa(limit)
		if err := h.call(ctx, http.MethodGet, u, l.AccessToken, nil, nil, &page); err != nil {
			return nil, err
		}
		out := make([]Project, 0, len(page.Values))
		for _, p := range page.Values {
			out = append(out, Project{ID: p.ID, Key: p.Key, Name: p.Name, Type: p.ProjectTypeKey})
		}
		return out, nil
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Notion                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Page is a Notion search hit (page or database).
type Page struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type notionResult struct {
	ID         string                     `json:"id"`
	Object     string                     `json:"object"`
	URL        string                     `json:"url"`
	Title      []richText                 `json:"title"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// title reads a database's own title, or a page's title-typed property.
func (n notionResult) title() string {
	if len(n.Title) > 0 {
		return joinText(n.Title)
	}
	for _, raw := range n.Properties {
		var prop struct {
			Type  string     `json:"type"`
			Title []richText `json:"title"`
		}
		if json.Unmarshal(raw, &prop) == nil && prop.Type == "title" {
			return joinText(prop.Title)
		}
	}
	return ""
}

func joinText(parts []richText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}

// ServeNotionSearch handles GET /api/integrations/notion/search?q=.
func (h *Handler) ServeNotionSearch(w http.ResponseWriter, r *http.Request) {
	q := query.Get(r, "q")
	limit := limitParam(r)
	h.proxy(w, r, Notion, func(ctx context.Context, l link) (any, error) {
		body := map[string]any{"page_size": limit}
		if q != "" {
			body["query"] = q
		}
		var res struct {
			Results []notionResult `json:"results"`
		}
		if err := h.call(ctx, http.MethodPost, h.APIs.Notion+"/v1/search", l.AccessToken, body, notionHeaders, &res); err != nil {
			return nil, err
		}
		out := make([]Page, 0, len(res.Results))
		for _, n := range res.Results {
			out = append(out, Page{ID: n.ID, Object: n.Object, Title: n.title(), URL: n.URL})
		}
		return out, nil
	})
}
