// internal/app/features/actionlogs/handler.go
package actionlogs

import (
	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/services/actions"
	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves the coordinator action trail and the bulk actions that
// append to it.
type Handler struct {
	Repo     repo.Repository
	Actions  *actions.Service
	Records  *records.Service
	AuditLog *auditlog.Logger
	ErrLog   *errorsfeature.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(r repo.Repository, acts *actions.Service, recs *records.Service, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Repo:     r,
		Actions:  acts,
		Records:  recs,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}
