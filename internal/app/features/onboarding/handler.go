package onboarding

import (
	apierrors "github.com/dalemusser/onboardhub/internal/app/features/errors"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	onboardingwf "github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves onboarding progress: an employee's own checklist and the
// HR view over the company.
type Handler struct {
	Log      *zap.Logger
	ErrLog   *apierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Users    *userstore.Store
	Tracker  *onboardingwf.Tracker
}

func NewHandler(db *mongo.Database, tracker *onboardingwf.Tracker, errLog *apierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Users:    userstore.New(db),
		Tracker:  tracker,
	}
}
