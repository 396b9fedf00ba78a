package invitations

import (
	"context"
	"net/http"
	"net/url"

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

// verifyView is what an invitee may see before accepting.
type verifyView struct {
	ID         primitive.ObjectID `json:"id"`
	CompanyID  primitive.ObjectID `json:"companyId"`
	Email      string             `json:"email"`
	Role       string             `json:"role"`
	Department string             `json:"department,omitempty"`
	Position   string             `json:"position,omitempty"`
	InvitedBy  string             `json:"invitedBy,omitempty"`
	ExpiresAt  string             `json:"expiresAt"`
}

// ServeVerify handles GET /api/invitations/verify?company=. The email is
// always the caller's own.
func (h *Handler) ServeVerify(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	companyID, err := primitive.ObjectIDFromHex(query.Get(r, "company"))
	if err != nil {
		h.ErrLog.Write(w, r, apperr.NewValidation("company is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	inv, err := h.Svc.Verify(ctx, a.Email, companyID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.OK(w, verifyView{
		ID:         inv.ID,
		CompanyID:  inv.CompanyID,
		Email:      inv.Email,
		Role:       inv.Role,
		Department: inv.Department,
		Position:   inv.Position,
		InvitedBy:  inv.InvitedByName,
		ExpiresAt:  inv.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}

// HandleAccept handles POST /api/invitations/{id}/accept.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	res, err := h.accept(r, chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.OK(w, res)
}

// ServeAcceptLink handles GET /invitations/accept?invitation=&company=, the
// link in the invitation email. It changes nothing: a pending invitation for
// the caller is handed to the app's confirmation screen, which accepts with
// POST /api/invitations/{id}/accept.
func (h *Handler) ServeAcceptLink(w http.ResponseWriter, r *http.Request) {
	fail := func(err error) {
		http.Redirect(w, r, "/?error=invitation_"+apperr.KindOf(err).String(), http.StatusSeeOther)
	}
	a, ok := authz.ActorFrom(r)
	if !ok {
		fail(apperr.NewUnauthenticated("authentication required"))
		return
	}
	id, err1 := primitive.ObjectIDFromHex(query.Get(r, "invitation"))
	companyID, err2 := primitive.ObjectIDFromHex(query.Get(r, "company"))
	if err1 != nil || err2 != nil {
		fail(apperr.NewNotFound("invitation not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	inv, err := h.Svc.Verify(ctx, a.Email, companyID)
	if err != nil {
		fail(err)
		return
	}
	if inv.ID != id {
		fail(apperr.NewNotFound("invitation not found"))
		return
	}

	q := url.Values{}
	q.Set("invitation", inv.ID.Hex())
	q.Set("company", inv.CompanyID.Hex())
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

func (h *Handler) accept(r *http.Request, rawID string) (*invitations.Accepted, error) {
	a, ok := authz.ActorFrom(r)
	if !ok {
		return nil, apperr.NewUnauthenticated("authentication required")
	}
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return nil, apperr.NewNotFound("invitation not found")
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Svc.Accept(ctx, id, a.UserID, a.Email)
	if err != nil {
		return nil, err
	}

	target := a.UserID
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: audit.EventInvitationAccepted,
		ActorID:   a.UserID,
		CompanyID: res.Invitation.CompanyID,
		TargetID:  &target,
		Details:   map[string]string{"invitation_id": id.Hex(), "role": res.Invitation.Role},
	})
	h.Log.Info("invitation accepted",
		zap.String("company_id", res.Invitation.CompanyID.Hex()),
		zap.String("user_id", a.UserID.Hex()))
	return res, nil
}
