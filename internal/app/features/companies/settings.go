package companies

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	companystore "github.com/dalemusser/onboardhub/internal/app/store/companies"
	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/onboardhub/internal/app/system/inputval"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
)

type settingsInput struct {
	AllowSelfRegistration    *bool   `json:"allowSelfRegistration"`
	RequireEmailVerification *bool   `json:"requireEmailVerification"`
	ContactEmail             *string `json:"contactEmail" validate:"omitempty,email,max=254"`
	ContactPhone             *string `json:"contactPhone" validate:"omitempty,max=40"`
	Address                  *string `json:"address" validate:"omitempty,max=300"`
}

// HandleUpdateSettings handles PATCH /api/companies/current/settings.
// Fields left out of the body are unchanged.
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	if err := authz.Check(a, authz.CapAdmin); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	var in settingsInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body", err)
		return
	}
	if err := inputval.Struct(in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	for _, p := range []*string{in.ContactPhone, in.Address} {
		if p != nil {
			*p = htmlsanitize.PlainText(*p)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Companies.UpdateSettings(ctx, a.CompanyID, companystore.SettingsUpdate{
		AllowSelfRegistration:    in.AllowSelfRegistration,
		RequireEmailVerification: in.RequireEmailVerification,
		ContactEmail:             in.ContactEmail,
		ContactPhone:             in.ContactPhone,
		Address:                  in.Address,
	})
	if errors.Is(err, companystore.ErrNotFound) {
		h.ErrLog.Write(w, r, apperr.NewNotFound("company not found"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "could not update settings", err)
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: audit.EventCompanySettings,
		ActorID:   a.UserID,
		CompanyID: a.CompanyID,
		Details: map[string]string{
			"allow_self_registration":    strconv.FormatBool(c.Settings.AllowSelfRegistration),
			"require_email_verification": strconv.FormatBool(c.Settings.RequireEmailVerification),
		},
	})
	respond.OK(w, c)
}
