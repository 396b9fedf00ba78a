package documents

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	docworkflow "github.com/dalemusser/onboardhub/internal/app/workflow/documents"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleUpload handles POST /api/documents (multipart: file, documentType).
// A second upload of the same type replaces the first.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	up, err := h.readUpload(w, r)
	if err != nil {
		h.writeUploadErr(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	doc, rec, err := h.Svc.UploadEmployeeDocument(ctx, a, r.FormValue("documentType"), up)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Log.Info("employee document uploaded",
		zap.String("company_id", a.CompanyID.Hex()),
		zap.String("user_id", a.UserID.Hex()),
		zap.String("document_type", doc.Type))

	respond.Created(w, map[string]any{"document": doc, "onboarding": rec})
}

// ServeList handles GET /api/documents?documentType=&owner=. Employees always
// get their own documents; owner narrows the list for HR.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, models.CategoryEmployeeDocument)
}

func (h *Handler) serveList(w http.ResponseWriter, r *http.Request, category string) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	f := docworkflow.ListFilter{Category: category, DocumentType: query.Get(r, "documentType")}
	if raw := query.Get(r, "owner"); raw != "" {
		owner, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.ErrLog.Write(w, r, apperr.NewValidation("owner must be a user id"))
			return
		}
		f.OwnerID = &owner
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Svc.List(ctx, a, f)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.OK(w, list)
}

// ServeDownload handles GET /api/documents/{id}.
func (h *Handler) ServeDownload(w http.ResponseWriter, r *http.Request) {
	h.serveDownload(w, r, models.CategoryEmployeeDocument)
}

func (h *Handler) serveDownload(w http.ResponseWriter, r *http.Request, category string) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	id, err := fileID(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	f, data, err := h.Svc.Download(ctx, a, id, category)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	writeFile(w, r, f, data)
}

// HandleDelete handles DELETE /api/documents/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, models.CategoryEmployeeDocument, audit.EventDocumentDeleted)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, category, event string) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	id, err := fileID(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	f, err := h.Svc.Delete(ctx, a, id, category)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	owner := f.Metadata.OwnerID
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: event,
		ActorID:   a.UserID,
		CompanyID: a.CompanyID,
		TargetID:  &owner,
		Details:   map[string]string{"file_id": id.Hex(), "file_name": f.Metadata.OriginalName},
	})
	respond.OK(w, map[string]any{"deleted": id})
}

type reviewInput struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason" validate:"max=1000"`
}

// HandleReview handles POST /api/documents/{id}/review. Rejection needs a
// reason.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	id, err := fileID(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var in reviewInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid JSON body", err)
		return
	}
	in.Reason = htmlsanitize.PlainText(in.Reason)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	start := time.Now()
	rec, err := h.Svc.ReviewDocument(ctx, a, id, in.Approve, in.Reason)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	event := audit.EventDocumentRejected
	details := map[string]string{"document_id": id.Hex()}
	if in.Approve {
		event = audit.EventDocumentApproved
	} else {
		details["reason"] = in.Reason
	}
	employee := rec.EmployeeID
	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: event,
		ActorID:   a.UserID,
		CompanyID: a.CompanyID,
		TargetID:  &employee,
		Details:   details,
	})
	if rec.CompletedSince(start) {
		h.AuditLog.Admin(ctx, r, auditlog.Action{
			EventType: audit.EventOnboardingCompleted,
			ActorID:   a.UserID,
			CompanyID: a.CompanyID,
			TargetID:  &employee,
		})
	}
	respond.OK(w, rec)
}
