// internal/app/features/me/handler.go
package me

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/onboardhub/internal/app/features/errors"
	companystore "github.com/dalemusser/onboardhub/internal/app/store/companies"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own view of the system.
type Handler struct {
	Log       *zap.Logger
	ErrLog    *apierrors.ErrorLogger
	Users     *userstore.Store
	Companies *companystore.Store
	Tracker   *onboarding.Tracker
}

func NewHandler(db *mongo.Database, tracker *onboarding.Tracker, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:       logger,
		ErrLog:    errLog,
		Users:     userstore.New(db),
		Companies: companystore.New(db),
		Tracker:   tracker,
	}
}

// View is the GET /api/me payload. NeedsOnboarding is true while the user
// has no company; the client then offers company setup or an invitation.
type View struct {
	User            *models.User             `json:"user"`
	Company         *models.Company          `json:"company,omitempty"`
	NeedsOnboarding bool                     `json:"needsOnboarding"`
	Onboarding      *models.OnboardingRecord `json:"onboarding,omitempty"`
}

// ServeMe handles GET /api/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, a.UserID)
	if errors.Is(err, userstore.ErrNotFound) {
		h.ErrLog.Write(w, r, apperr.NewUnauthenticated("account no longer exists"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "user lookup failed", err)
		return
	}

	view := View{User: u, NeedsOnboarding: !u.HasCompany()}
	if view.NeedsOnboarding {
		respond.OK(w, view)
		return
	}

	c, err := h.Companies.GetByID(ctx, *u.CompanyID)
	switch {
	case errors.Is(err, companystore.ErrNotFound):
		h.Log.Warn("user references missing company",
			zap.String("user_id", u.ID.Hex()),
			zap.String("company_id", u.CompanyID.Hex()))
		view.NeedsOnboarding = true
		respond.OK(w, view)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "company lookup failed", err)
		return
	}
	view.Company = c

	// Only employees carry a checklist; a missing record is not an error.
	rec, err := h.Tracker.Get(ctx, c.ID, u.ID)
	switch {
	case err == nil:
		view.Onboarding = rec
	case apperr.Is(err, apperr.NotFound):
	default:
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.OK(w, view)
}
