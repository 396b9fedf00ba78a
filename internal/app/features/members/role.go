package members

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/onboardhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type roleInput struct {
	Role string `json:"role"`
}

// HandleChangeRole handles PATCH /api/members/{id}/role.
func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	if err := authz.Check(a, authz.CapHR); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, apperr.NewNotFound("member not found"))
		return
	}
	var in roleInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target, err := h.Users.GetInCompany(ctx, a.CompanyID, targetID)
	if errors.Is(err, userstore.ErrNotFound) {
		h.ErrLog.Write(w, r, apperr.NewNotFound("member not found"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "member lookup failed", err)
		return
	}
	if err := memberpolicy.CheckRoleChange(a, target, in.Role); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	previous := target.Role
	updated, err := h.Users.UpdateRole(ctx, a.CompanyID, targetID, in.Role)
	if errors.Is(err, userstore.ErrNotFound) {
		h.ErrLog.Write(w, r, apperr.NewNotFound("member not found"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "role update failed", err)
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: audit.EventMemberRoleChanged,
		ActorID:   a.UserID,
		CompanyID: a.CompanyID,
		TargetID:  &targetID,
		Details:   map[string]string{"from": previous, "to": updated.Role},
	})
	h.Log.Info("member role changed",
		zap.String("company_id", a.CompanyID.Hex()),
		zap.String("user_id", targetID.Hex()),
		zap.String("role", updated.Role))

	respond.OK(w, toRow(*updated))
}
