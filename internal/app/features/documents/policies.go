package documents

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/onboardhub/internal/app/system/inputval"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	docworkflow "github.com/dalemusser/onboardhub/internal/app/workflow/documents"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"go.uber.org/zap"
)

// HandleUploadPolicy handles POST /api/policies (multipart: file, name,
// description, required).
func (h *Handler) HandleUploadPolicy(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	// Refuse before reading a large body.
	if err := authz.Check(a, authz.CapHR); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	up, err := h.readUpload(w, r)
	if err != nil {
		h.writeUploadErr(w, r, err)
		return
	}

	required, _ := strconv.ParseBool(r.FormValue("required"))
	in := docworkflow.PolicyInput{
		Name:        htmlsanitize.PlainText(r.FormValue("name")),
		Description: htmlsanitize.PlainText(r.FormValue("description")),
		Required:    required,
	}
	if err := inputval.Struct(in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	ps, err := h.Svc.UploadPolicy(ctx, a, in, up)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.AuditLog.Admin(ctx, r, auditlog.Action{
		EventType: audit.EventPolicyUploaded,
		ActorID:   a.UserID,
		CompanyID: a.CompanyID,
		Details: map[string]string{
			"policy_id": ps.ID.Hex(),
			"name":      in.Name,
			"has_text":  strconv.FormatBool(ps.Text != nil),
		},
	})
	h.Log.Info("policy uploaded",
		zap.String("company_id", a.CompanyID.Hex()),
		zap.String("policy_id", ps.ID.Hex()))
	respond.Created(w, ps)
}

// ServeListPolicies handles GET /api/policies.
func (h *Handler) ServeListPolicies(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Svc.ListPolicies(ctx, a)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.OK(w, list)
}

// ServeDownloadPolicy handles GET /api/policies/{id}.
func (h *Handler) ServeDownloadPolicy(w http.ResponseWriter, r *http.Request) {
	h.serveDownload(w, r, models.CategoryPolicy)
}

// ServePolicyText handles GET /api/policies/{id}/text.
func (h *Handler) ServePolicyText(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	id, err := fileID(r)
	if err != nil {
		h.ErrLog.Write(w, r, apperr.NewNotFound("policy not found"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, data, err := h.Svc.DownloadPolicyText(ctx, a, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	writeFile(w, r, f, data)
}

// HandleDeletePolicy handles DELETE /api/policies/{id}. The extracted text
// goes with it.
func (h *Handler) HandleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, models.CategoryPolicy, audit.EventPolicyDeleted)
}
