// Package documents serves the tenant document store over HTTP: employee
// verification documents, company policies and resumes.
package documents

import (
	apierrors "github.com/dalemusser/onboardhub/internal/app/features/errors"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	docworkflow "github.com/dalemusser/onboardhub/internal/app/workflow/documents"
	"go.uber.org/zap"
)

type Handler struct {
	Log      *zap.Logger
	ErrLog   *apierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Svc      *docworkflow.Service

	// MaxBytes is the per-file limit, never above docworkflow.MaxUploadBytes.
	MaxBytes int64
}

// NewHandler builds a Handler. maxBytes <= 0 selects the hard ceiling.
func NewHandler(svc *docworkflow.Service, maxBytes int64, errLog *apierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if maxBytes <= 0 || maxBytes > docworkflow.MaxUploadBytes {
		maxBytes = docworkflow.MaxUploadBytes
	}
	return &Handler{Log: logger, ErrLog: errLog, AuditLog: audit, Svc: svc, MaxBytes: maxBytes}
}
