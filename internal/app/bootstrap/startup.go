// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/store/mongostore"
	"github.com/dalemusser/fieldaudit/internal/app/store/oauthstate"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after the schema is ensured and before the handler is
// built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := ensureSuperuser(ctx, mongostore.New(deps.MongoDatabase, logger), appCfg, logger); err != nil {
		return err
	}
	if deps.Jobs != nil {
		deps.Jobs.Start(tasks.OAuthStateCleanupJob(oauthstate.New(deps.MongoDatabase), logger))
	}
	return nil
}

// ensureSuperuser creates the configured bootstrap superuser if that login
// does not exist yet. An existing identity is never modified.
func ensureSuperuser(ctx context.Context, r repo.Repository, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.SuperuserLogin == "" {
		return nil
	}
	created, err := provisioning.New(r, logger, nil).
		EnsureSuperuser(ctx, appCfg.SuperuserLogin, appCfg.SuperuserEmail, appCfg.SuperuserPassword)
	if err != nil {
		logger.Error("bootstrap superuser failed", zap.Error(err))
		return err
	}
	if !created {
		logger.Info("bootstrap superuser already present", zap.String("login_name", appCfg.SuperuserLogin))
	}
	return nil
}
