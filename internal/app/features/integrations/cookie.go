package integrations

import (
	"net/http"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/system/auth"
)

const (
	cookiePrefix = "integration_"
	cookieMaxAge = 30 * 24 * time.Hour
)

// link is the integration cookie payload. UserID pins it to the user who
// completed the flow.
type link struct {
	UserID      string  `json:"user_id"`
	AccessToken string  `json:"access_token"`
	Profile     Profile `json:"profile"`
}

func cookieName(providerName string) string {
	return cookiePrefix + providerName
}

func (h *Handler) setLink(w http.ResponseWriter, providerName string, l link) error {
	name := cookieName(providerName)
	value, err := h.Cookies.Encode(name, l)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// readLink returns the caller's link for providerName. A missing, tampered
// or expired cookie reads as not linked, as does one issued to another user.
func (h *Handler) readLink(r *http.Request, providerName string) (link, bool) {
	name := cookieName(providerName)
	c, err := r.Cookie(name)
	if err != nil {
		return link{}, false
	}
	var l link
	if err := h.Cookies.Decode(name, c.Value, &l); err != nil || l.AccessToken == "" {
		return link{}, false
	}
	u, ok := auth.CurrentUser(r)
	if !ok || u.ID == "" || l.UserID != u.ID {
		return link{}, false
	}
	return l, true
}

func (h *Handler) clearLink(w http.ResponseWriter, providerName string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(providerName),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAll expires every provider's link cookie. Logout calls it so the
// next user of the browser starts unlinked.
func (h *Handler) ClearAll(w http.ResponseWriter) {
	for _, name := range Order {
		h.clearLink(w, name)
	}
}
