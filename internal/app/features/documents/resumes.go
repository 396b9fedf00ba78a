package documents

import (
	"context"
	"net/http"

	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/onboardhub/internal/app/system/inputval"
	"github.com/dalemusser/onboardhub/internal/app/system/normalize"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	docworkflow "github.com/dalemusser/onboardhub/internal/app/workflow/documents"
	"github.com/dalemusser/onboardhub/internal/domain/models"
)

// HandleUploadResume handles POST /api/resumes (multipart: file,
// candidateName, candidateEmail, position).
func (h *Handler) HandleUploadResume(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.MustActor(w, r)
	if !ok {
		return
	}
	up, err := h.readUpload(w, r)
	if err != nil {
		h.writeUploadErr(w, r, err)
		return
	}
	in := docworkflow.ResumeInput{
		CandidateName:  htmlsanitize.PlainText(r.FormValue("candidateName")),
		CandidateEmail: normalize.Email(r.FormValue("candidateEmail")),
		Position:       htmlsanitize.PlainText(r.FormValue("position")),
	}
	if err := inputval.Struct(in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	sum, err := h.Svc.UploadResume(ctx, a, in, up)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	respond.Created(w, sum)
}

// ServeListResumes handles GET /api/resumes. HR sees every resume in the
// company; others see their own.
func (h *Handler) ServeListResumes(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, models.CategoryResume)
}

// ServeDownloadResume handles GET /api/resumes/{id}.
func (h *Handler) ServeDownloadResume(w http.ResponseWriter, r *http.Request) {
	h.serveDownload(w, r, models.CategoryResume)
}

// HandleDeleteResume handles DELETE /api/resumes/{id}.
func (h *Handler) HandleDeleteResume(w http.ResponseWriter, r *http.Request) {
	h.handleDelete(w, r, models.CategoryResume, audit.EventDocumentDeleted)
}
