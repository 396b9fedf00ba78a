package invitations

import (
	apierrors "github.com/dalemusser/onboardhub/internal/app/features/errors"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/workflow/invitations"
	"go.uber.org/zap"
)

// Handler exposes the invitation workflow over HTTP.
type Handler struct {
	Log      *zap.Logger
	ErrLog   *apierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Svc      *invitations.Service
}

func NewHandler(svc *invitations.Service, errLog *apierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, ErrLog: errLog, AuditLog: audit, Svc: svc}
}
