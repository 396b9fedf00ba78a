package onboarding

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/onboardhub/internal/app/system/inputval"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	onboardingwf "github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxTasks = 50

// ServeList handles GET /api/onboarding?status=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	if err := authz.Check(a, authz.CapHR); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	recs, err := h.Tracker.List(ctx, a.CompanyID, query.Get(r, "status"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.OK(w, recs)
}

// employee resolves {employeeId} to a member of a's company.
func (h *Handler) employee(ctx context.Context, r *http.Request, a authz.Actor) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "employeeId"))
	if err != nil {
		return primitive.NilObjectID, apperr.NewNotFound("employee not found")
	}
	if _, err := h.Users.GetInCompany(ctx, a.CompanyID, id); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return primitive.NilObjectID, apperr.NewNotFound("employee not found")
		}
		return primitive.NilObjectID, apperr.NewInternal("user lookup failed", err)
	}
	return id, nil
}

// ServeEmployee handles GET /api/onboarding/{employeeId}.
func (h *Handler) ServeEmployee(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	if err := authz.Check(a, authz.CapHR); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, err := h.employee(ctx, r, a)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	rec, err := h.Tracker.Get(ctx, a.CompanyID, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.OK(w, rec)
}

// HandleSetTasks handles PUT /api/onboarding/{employeeId}/tasks. The body is
// the full checklist; tasks resubmitted with their id keep their progress.
func (h *Handler) HandleSetTasks(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	if err := authz.Check(a, authz.CapHR); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var tasks []onboardingwf.TaskInput
	if err := respond.DecodeJSON(r, &tasks); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body", err)
		return
	}
	if len(tasks) > maxTasks {
		h.ErrLog.Write(w, r, apperr.NewValidation("a checklist holds at most "+strconv.Itoa(maxTasks)+" tasks"))
		return
	}
	for i := range tasks {
		tasks[i].Title = htmlsanitize.PlainText(tasks[i].Title)
		tasks[i].Description = htmlsanitize.PlainText(tasks[i].Description)
		if err := inputval.Struct(tasks[i]); err != nil {
			h.ErrLog.Write(w, r, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, err := h.employee(ctx, r, a)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	start := time.Now()
	rec, err := h.Tracker.SetTasks(ctx, a.CompanyID, id, tasks)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: audit.EventOnboardingTasksReset,
		ActorID:   a.UserID,
		CompanyID: a.CompanyID,
		TargetID:  &id,
		Details:   map[string]string{"task_count": strconv.Itoa(len(rec.Tasks))},
	})
	h.noteCompletion(ctx, r, a, rec, start)
	respond.OK(w, rec)
}
