package onboarding

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeMine handles GET /api/onboarding/me.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, err := h.Tracker.Get(ctx, a.CompanyID, a.UserID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.OK(w, rec)
}

// HandleCompleteTask handles POST /api/onboarding/me/tasks/{taskId}/complete.
func (h *Handler) HandleCompleteTask(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "taskId")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	start := time.Now()
	rec, err := h.Tracker.RecordTaskCompletion(ctx, a.CompanyID, a.UserID, taskID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.noteCompletion(ctx, r, a, rec, start)
	respond.OK(w, rec)
}

type acknowledgeInput struct {
	PolicyName string `json:"policyName"`
}

// HandleAcknowledgePolicy handles POST /api/onboarding/me/policies/acknowledge.
func (h *Handler) HandleAcknowledgePolicy(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	var in acknowledgeInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body", err)
		return
	}
	name := strings.TrimSpace(in.PolicyName)
	if name == "" {
		h.ErrLog.Write(w, r, apperr.NewValidation("policyName is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	start := time.Now()
	rec, err := h.Tracker.RecordPolicyAcknowledgment(ctx, a.CompanyID, a.UserID, name)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.noteCompletion(ctx, r, a, rec, start)
	respond.OK(w, rec)
}

func (h *Handler) noteCompletion(ctx context.Context, r *http.Request, a authz.Actor, rec *models.OnboardingRecord, start time.Time) {
	if !rec.CompletedSince(start) {
		return
	}
	employee := rec.EmployeeID
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: audit.EventOnboardingCompleted,
		ActorID:   a.UserID,
		CompanyID: a.CompanyID,
		TargetID:  &employee,
	})
	h.Log.Info("onboarding completed",
		zap.String("company_id", a.CompanyID.Hex()),
		zap.String("employee_id", employee.Hex()))
}
