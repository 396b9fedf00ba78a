// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	invitationstore "github.com/dalemusser/onboardhub/internal/app/store/invitations"
	"github.com/dalemusser/onboardhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/onboardhub/internal/app/store/users"
	"github.com/dalemusser/onboardhub/internal/app/system/tasks"
	"github.com/dalemusser/onboardhub/internal/app/system/timeouts"
	"github.com/dalemusser/onboardhub/internal/app/system/workers"
	"github.com/dalemusser/onboardhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// jobs is started in Startup and stopped in Shutdown.
var jobs *workers.Runner

// Startup runs after the schema is in place and before the handler is
// built: it applies timeouts, bootstraps the super admin and starts the
// maintenance jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(appCfg.Timeouts)
	logger.Debug("timeouts configured", zap.Any("timeouts", timeouts.Current()))

	if appCfg.SuperAdminEmail != "" {
		saCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		if err := ensureSuperAdmin(saCtx, deps, appCfg.SuperAdminEmail, logger); err != nil {
			return err
		}
	}

	jobs = workers.NewRunner(logger,
		tasks.InvitationExpiryJob(invitationstore.New(deps.MongoDatabase), logger),
		tasks.OAuthStateCleanupJob(oauthstate.New(deps.MongoDatabase), logger),
	)
	jobs.Start()
	return nil
}

// ensureSuperAdmin promotes the configured email to super_admin, creating
// the user when it has never signed in. Company affiliation is kept.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	err := users.SetRoleByEmail(ctx, email, models.RoleSuperAdmin, false)
	if err == nil {
		logger.Info("super admin ensured", zap.String("email", email))
		return nil
	}
	if !errors.Is(err, userstore.ErrNotFound) {
		logger.Error("failed to promote super admin", zap.Error(err))
		return err
	}

	_, err = users.Create(ctx, models.User{
		Email:      email,
		FullName:   email,
		AuthMethod: "google",
		Role:       models.RoleSuperAdmin,
		IsActive:   true,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Created concurrently by a first sign-in; promote that row.
		return users.SetRoleByEmail(ctx, email, models.RoleSuperAdmin, false)
	}
	if err != nil {
		logger.Error("failed to create super admin", zap.Error(err))
		return err
	}
	logger.Info("super admin created", zap.String("email", email))
	return nil
}
