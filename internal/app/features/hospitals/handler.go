// internal/app/features/hospitals/handler.go
package hospitals

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/features/patients"
	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the facility views: every audited hospital, and one
// hospital's latest audit with all of its patients.
type Handler struct {
	Repo    repo.Repository
	Records *records.Service
	ErrLog  *errorsfeature.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(r repo.Repository, svc *records.Service, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Repo: r, Records: svc, ErrLog: errLog, Log: logger}
}

// Routes mounts the hospital routes (typically at "/hospitals").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(shared.ResolveScope(h.Repo.Coordinators(), h.ErrLog))

		pr.Get("/", h.ServeList)
		pr.Get("/{hospitalID}", h.ServeDetail)
	})
	return r
}

type listResponse struct {
	Items []records.HospitalRow `json:"items"`
}

type detailResponse struct {
	Audit    models.FieldAudit      `json:"audit"`
	Patients []patients.PatientView `json:"patients"`
}

// ServeList handles GET /hospitals.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Records.ListHospitals(ctx, shared.Scope(r))
	if err != nil {
		h.ErrLog.Fail(w, r, "list hospitals", err)
		return
	}
	if rows == nil {
		rows = []records.HospitalRow{}
	}
	viewdata.OK(w, listResponse{Items: rows})
}

// ServeDetail handles GET /hospitals/{hospitalID}.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, err := h.Records.LatestAuditForHospital(ctx, shared.Scope(r), chi.URLParam(r, "hospitalID"))
	if err != nil {
		h.ErrLog.Fail(w, r, "hospital detail", err)
		return
	}
	viewdata.OK(w, detailResponse{Audit: d.Audit, Patients: patients.ViewsOf(d.Patients)})
}
