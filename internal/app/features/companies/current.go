package companies

import (
	"context"
	"errors"
	"net/http"

	companystore "github.com/dalemusser/onboardhub/internal/app/store/companies"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
)

// ServeCurrent handles GET /api/companies/current.
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Companies.GetByID(ctx, a.CompanyID)
	if errors.Is(err, companystore.ErrNotFound) {
		h.ErrLog.Write(w, r, apperr.NewNotFound("company not found"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "company lookup failed", err)
		return
	}
	respond.OK(w, c)
}
