// internal/app/features/securityevents/handler.go
package securityevents

import (
	"context"
	"time"

	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"go.uber.org/zap"
)

// Querier reads stored security events. *audit.Store satisfies it.
type Querier interface {
	Query(ctx context.Context, f audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, f audit.QueryFilter) (int64, error)
	FailedLogins(ctx context.Context, since time.Time, limit int64) ([]audit.Event, error)
}

type Handler struct {
	Events Querier
	Repo   repo.Repository
	Log    *zap.Logger
	ErrLog *errorsfeature.ErrorLogger

	Now func() time.Time
}

// NewHandler constructs the security event viewer. Names of actors,
// targets and districts are resolved through r.
func NewHandler(events Querier, r repo.Repository, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Repo:   r,
		Log:    logger,
		ErrLog: errLog,
		Now:    time.Now,
	}
}
