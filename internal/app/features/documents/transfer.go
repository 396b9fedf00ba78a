package documents

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/limits"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	docworkflow "github.com/dalemusser/onboardhub/internal/app/workflow/documents"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	fileField = "file"

	// formMemory is what ParseMultipartForm keeps in RAM; the rest spills
	// to temporary files.
	formMemory = 1 << 20
)

var errTooLarge = errors.New("request body too large")

// readUpload parses a multipart request carrying one file in the "file"
// field. The body is capped before anything is read.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (docworkflow.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+limits.MaxFormOverhead)

	if err := r.ParseMultipartForm(formMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
			return docworkflow.Upload{}, errTooLarge
		}
		return docworkflow.Upload{}, apperr.Wrap(err, apperr.Validation, "expected a multipart/form-data upload")
	}

	file, header, err := r.FormFile(fileField)
	if err != nil {
		return docworkflow.Upload{}, apperr.Wrap(err, apperr.Validation, "file is required")
	}
	defer file.Close()

	if header.Size > h.MaxBytes {
		return docworkflow.Upload{}, apperr.NewValidation(fmt.Sprintf("file exceeds the %d MB limit", h.MaxBytes>>20))
	}
	data, err := io.ReadAll(io.LimitReader(file, h.MaxBytes+1))
	if err != nil {
		return docworkflow.Upload{}, apperr.Wrap(err, apperr.Validation, "could not read file")
	}
	return docworkflow.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// writeUploadErr reports a failed readUpload.
func (h *Handler) writeUploadErr(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errTooLarge) {
		respond.Fail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds the %d MB limit", h.MaxBytes>>20))
		return
	}
	h.ErrLog.Write(w, r, err)
}

// fileID parses the {id} route parameter. A malformed id reads as not found.
func fileID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apperr.NewNotFound("document not found")
	}
	return id, nil
}

// writeFile sends a stored file as a download, or inline with ?inline=1.
func writeFile(w http.ResponseWriter, r *http.Request, f *models.StoredFile, data []byte) {
	disposition := "attachment"
	if query.Get(r, "inline") == "1" {
		disposition = "inline"
	}
	ct := f.Metadata.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": f.Metadata.OriginalName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
