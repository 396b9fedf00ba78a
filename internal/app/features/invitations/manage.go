package invitations

import (
	"context"
	"net/http"

	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/onboardhub/internal/app/workflow/invitations"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleIssue handles POST /api/invitations.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	var in invitations.IssueInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	issued, err := h.Svc.Issue(ctx, a, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	inv := issued.Invitation
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: audit.EventInvitationIssued,
		ActorID:   a.UserID,
		CompanyID: a.CompanyID,
		Details: map[string]string{
			"invitation_id": inv.ID.Hex(),
			"email":         inv.Email,
			"role":          inv.Role,
		},
	})
	h.Log.Info("invitation issued",
		zap.String("company_id", a.CompanyID.Hex()),
		zap.String("invitation_id", inv.ID.Hex()))

	respond.Created(w, issued)
}

// ServeList handles GET /api/invitations?status=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Svc.List(ctx, a, query.Get(r, "status"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.OK(w, list)
}

// HandleRevoke handles DELETE /api/invitations/{id}.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, apperr.NewNotFound("invitation not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inv, err := h.Svc.Revoke(ctx, a, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: audit.EventInvitationRevoked,
		ActorID:   a.UserID,
		CompanyID: a.CompanyID,
		Details:   map[string]string{"invitation_id": inv.ID.Hex(), "email": inv.Email},
	})
	respond.OK(w, inv)
}
