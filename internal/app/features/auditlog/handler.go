// Package auditlog serves a company's audit trail to its admins.
package auditlog

import (
	apierrors "github.com/dalemusser/onboardhub/internal/app/features/errors"
	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log    *zap.Logger
	ErrLog *apierrors.ErrorLogger
	Events *audit.Store
	Users  *userstore.Store
}

func NewHandler(db *mongo.Database, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		ErrLog: errLog,
		Events: audit.New(db),
		Users:  userstore.New(db),
	}
}
