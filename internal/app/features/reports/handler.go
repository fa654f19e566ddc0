// internal/app/features/reports/handler.go
package reports

import (
	"time"

	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/services/reporting"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/app/system/metrics"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves dashboard aggregates and spreadsheet exports, always
// restricted to the caller's scope.
type Handler struct {
	Repo      repo.Repository
	Reporting *reporting.Service
	AuditLog  *auditlog.Logger
	Metrics   *metrics.Metrics
	ErrLog    *errorsfeature.ErrorLogger
	Log       *zap.Logger

	// Now stamps export filenames and anchors the monthly window.
	Now func() time.Time
}

func NewHandler(r repo.Repository, svc *reporting.Service, audit *auditlog.Logger, m *metrics.Metrics, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Repo:      r,
		Reporting: svc,
		AuditLog:  audit,
		Metrics:   m,
		ErrLog:    errLog,
		Log:       logger,
		Now:       time.Now,
	}
}

// Routes mounts the report routes (typically at "/reports").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(shared.ResolveScope(h.Repo.Coordinators(), h.ErrLog))

		pr.Get("/summary", h.ServeSummary)
		pr.Get("/districts", h.ServeDistricts)
		pr.Get("/compliance", h.ServeCompliance)
		pr.Get("/monthly", h.ServeMonthly)

		pr.Get("/export.xlsx", h.ServeExportXLSX)
		pr.Get("/export.csv", h.ServeExportCSV)
		pr.Get("/hospitals/{hospitalID}/export.xlsx", h.ServeHospitalExport)
	})
	return r
}
