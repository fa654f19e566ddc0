// internal/app/features/users/handler.go
package users

import (
	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler manages identities that are not owned by a coordinator:
// superusers and staff auditors.
type Handler struct {
	Provisioning *provisioning.Service
	AuditLog     *auditlog.Logger
	ErrLog       *errorsfeature.ErrorLogger
	Log          *zap.Logger
}

func NewHandler(svc *provisioning.Service, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Provisioning: svc,
		AuditLog:     audit,
		ErrLog:       errLog,
		Log:          logger,
	}
}
