package companies

import (
	apierrors "github.com/dalemusser/onboardhub/internal/app/features/errors"
	companystore "github.com/dalemusser/onboardhub/internal/app/store/companies"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"github.com/dalemusser/onboardhub/internal/app/system/auditlog"
	"github.com/dalemusser/onboardhub/internal/app/workflow/onboarding"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves tenant creation, settings and self-registration.
type Handler struct {
	DB        *mongo.Database
	Log       *zap.Logger
	ErrLog    *apierrors.ErrorLogger
	AuditLog  *auditlog.Logger
	Companies *companystore.Store
	Users     *userstore.Store
	Tracker   *onboarding.Tracker
}

func NewHandler(db *mongo.Database, tracker *onboarding.Tracker, errLog *apierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Log:       logger,
		ErrLog:    errLog,
		AuditLog:  audit,
		Companies: companystore.New(db),
		Users:     userstore.New(db),
		Tracker:   tracker,
	}
}
