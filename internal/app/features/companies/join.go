package companies

import (
	"context"
	"errors"
	"net/http"

	companystore "github.com/dalemusser/onboardhub/internal/app/store/companies"
	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/normalize"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/onboardhub/internal/app/system/txn"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.uber.org/zap"
)

type joinResult struct {
	Company    *models.Company          `json:"company"`
	Onboarding *models.OnboardingRecord `json:"onboarding"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/companies/join                                                     |
| Self-registration: join the company that owns the caller's email domain,     |
| as an employee, when that company allows it.                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	if a.HasCompany() {
		h.ErrLog.Write(w, r, apperr.NewConflict("you already belong to a company"))
		return
	}
	domain := normalize.EmailDomain(a.Email)
	if domain == "" {
		h.ErrLog.Write(w, r, apperr.NewValidation("your account has no email domain"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	company, err := h.Companies.GetByDomain(ctx, domain)
	if errors.Is(err, companystore.ErrNotFound) {
		h.ErrLog.Write(w, r, apperr.NewNotFound("no company is registered for your email domain"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "company lookup failed", err)
		return
	}
	if !company.Settings.AllowSelfRegistration {
		h.ErrLog.Write(w, r, apperr.NewForbidden("this company only accepts members by invitation"))
		return
	}

	var rec *models.OnboardingRecord
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		err := h.Users.JoinCompany(ctx, a.UserID, userstore.Affiliation{CompanyID: company.ID, Role: models.RoleEmployee})
		switch {
		case errors.Is(err, userstore.ErrOtherCompany):
			return apperr.NewConflict("you already belong to a company")
		case errors.Is(err, userstore.ErrNotFound):
			return apperr.NewNotFound("user not found")
		case err != nil:
			return apperr.NewInternal("could not join company", err)
		}
		rec, err = h.Tracker.Start(ctx, company.ID, a.UserID)
		return err
	})
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	target := a.UserID
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: audit.EventCompanyJoined,
		ActorID:   a.UserID,
		CompanyID: company.ID,
		TargetID:  &target,
		Details:   map[string]string{"domain": domain},
	})
	h.Log.Info("user joined company by domain",
		zap.String("company_id", company.ID.Hex()),
		zap.String("user_id", a.UserID.Hex()))

	respond.OK(w, joinResult{Company: company, Onboarding: rec})
}
