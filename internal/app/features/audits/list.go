// internal/app/features/audits/list.go
package audits

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/features/patients"
	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/normalize"
	"github.com/dalemusser/fieldaudit/internal/app/system/paging"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /audits?hospital_id=&status=&search=&since=&limit=&offset=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	since, err := formutil.QueryDate(r, "since")
	if err != nil {
		h.ErrLog.Fail(w, r, "audit filter", err)
		return
	}
	page := paging.Parse(r)
	f := repo.AuditFilter{
		HospitalID:   query.Get(r, "hospital_id"),
		Status:       query.Get(r, "status"),
		Search:       normalize.QueryParam(query.Get(r, "search")),
		CreatedSince: since,
		Limit:        page.Limit,
		Offset:       page.Offset,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, total, err := h.Records.ListAudits(ctx, shared.Scope(r), f)
	if err != nil {
		h.ErrLog.Fail(w, r, "list audits", err)
		return
	}
	viewdata.OK(w, paging.NewList(rows, total, page))
}

// ServeView handles GET /audits/{id}: the audit with its patients.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "audit id", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ps, err := h.Records.AuditDetail(ctx, shared.Scope(r), id)
	if err != nil {
		h.ErrLog.Fail(w, r, "load audit", err)
		return
	}
	viewdata.OK(w, detailResponse{Audit: a, Patients: patients.ViewsOf(ps)})
}
