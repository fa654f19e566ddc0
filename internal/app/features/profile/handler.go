// internal/app/features/profile/handler.go
package profile

import (
	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own identity.
type Handler struct {
	Repo     repo.Repository
	Service  *provisioning.Service
	AuditLog *auditlog.Logger
	ErrLog   *errorsfeature.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(r repo.Repository, svc *provisioning.Service, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Repo:     r,
		Service:  svc,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}
