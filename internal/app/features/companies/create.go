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
	"github.com/dalemusser/onboardhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/onboardhub/internal/app/system/inputval"
	"github.com/dalemusser/onboardhub/internal/app/system/normalize"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/onboardhub/internal/app/system/txn"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.uber.org/zap"
)

type createInput struct {
	Name         string `json:"name" validate:"required,max=120"`
	Domain       string `json:"domain" validate:"required,fqdn,max=253"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email,max=254"`
	ContactPhone string `json:"contactPhone" validate:"max=40"`
	Address      string `json:"address" validate:"max=300"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/companies                                                          |
| An unaffiliated user creates a tenant and becomes its company_admin.         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	if a.HasCompany() {
		h.ErrLog.Write(w, r, apperr.NewConflict("you already belong to a company"))
		return
	}

	var in createInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body", err)
		return
	}
	in.Name = htmlsanitize.PlainText(in.Name)
	in.Domain = normalize.Domain(in.Domain)
	if err := inputval.Struct(in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var created models.Company
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		creator := a.UserID
		c, err := h.Companies.Create(ctx, models.Company{
			Name:         in.Name,
			Domain:       in.Domain,
			ContactEmail: in.ContactEmail,
			ContactPhone: htmlsanitize.PlainText(in.ContactPhone),
			Address:      htmlsanitize.PlainText(in.Address),
			CreatedByID:  &creator,
		})
		if errors.Is(err, companystore.ErrDuplicateDomain) {
			return apperr.NewConflict("a company with this domain already exists")
		}
		if err != nil {
			return apperr.NewInternal("could not create company", err)
		}
		created = c

		err = h.Users.JoinCompany(ctx, a.UserID, userstore.Affiliation{CompanyID: c.ID, Role: models.RoleCompanyAdmin})
		switch {
		case errors.Is(err, userstore.ErrOtherCompany):
			return apperr.NewConflict("you already belong to a company")
		case errors.Is(err, userstore.ErrNotFound):
			return apperr.NewNotFound("user not found")
		case err != nil:
			return apperr.NewInternal("could not join company", err)
		}
		return nil
	})
	if err != nil {
		// Without transactions a failed join leaves the company behind.
		if !created.ID.IsZero() {
			h.undoCreate(created)
		}
		h.ErrLog.Write(w, r, err)
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: audit.EventCompanyCreated,
		ActorID:   a.UserID,
		CompanyID: created.ID,
		Details:   map[string]string{"name": created.Name, "domain": created.Domain},
	})
	h.Log.Info("company created",
		zap.String("company_id", created.ID.Hex()),
		zap.String("domain", created.Domain),
		zap.String("user_id", a.UserID.Hex()))

	respond.Created(w, created)
}

func (h *Handler) undoCreate(c models.Company) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()
	if err := h.Companies.Delete(ctx, c.ID); err != nil {
		h.Log.Warn("could not remove orphaned company", zap.String("company_id", c.ID.Hex()), zap.Error(err))
	}
}
