// internal/app/features/coordinators/handler.go
package coordinators

import (
	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves coordinator administration. Every route is superuser-only.
type Handler struct {
	Repo         repo.Repository
	Provisioning *provisioning.Service
	AuditLog     *auditlog.Logger
	ErrLog       *errorsfeature.ErrorLogger
	Log          *zap.Logger
}

func NewHandler(r repo.Repository, svc *provisioning.Service, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Repo:         r,
		Provisioning: svc,
		AuditLog:     audit,
		ErrLog:       errLog,
		Log:          logger,
	}
}
