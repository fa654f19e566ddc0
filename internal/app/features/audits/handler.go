// internal/app/features/audits/handler.go
package audits

import (
	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves field audits within the caller's district scope.
type Handler struct {
	Repo     repo.Repository
	Records  *records.Service
	AuditLog *auditlog.Logger
	ErrLog   *errorsfeature.ErrorLogger
	Log      *zap.Logger
}

// NewHandler constructs an audits handler.
func NewHandler(r repo.Repository, svc *records.Service, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Repo:     r,
		Records:  svc,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}
