// internal/app/features/patients/handler.go
package patients

import (
	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves patient records. The audit feature mounts ServeAuditList
// and HandleCreate under /audits/{id}/patients.
type Handler struct {
	Repo     repo.Repository
	Records  *records.Service
	AuditLog *auditlog.Logger
	ErrLog   *errorsfeature.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(r repo.Repository, svc *records.Service, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Repo:     r,
		Records:  svc,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}
