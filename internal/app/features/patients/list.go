// internal/app/features/patients/list.go
package patients

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/normalize"
	"github.com/dalemusser/fieldaudit/internal/app/system/paging"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /patients with optional filters:
// audit_id, hospital_id, money_collection, missing_records,
// non_compliant, search, limit and offset.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "patient filter", err)
		return
	}
	h.serve(w, r, f)
}

// ServeAuditList handles GET /audits/{id}/patients.
func (h *Handler) ServeAuditList(w http.ResponseWriter, r *http.Request) {
	auditID, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "audit id", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	// Resolves to not found when the audit is outside scope.
	if _, err := h.Records.GetAudit(ctx, shared.Scope(r), auditID); err != nil {
		h.ErrLog.Fail(w, r, "load audit", err)
		return
	}

	f, err := listFilter(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "patient filter", err)
		return
	}
	f.AuditID = &auditID
	h.serve(w, r, f)
}

func listFilter(r *http.Request) (repo.PatientFilter, error) {
	var f repo.PatientFilter
	var err error
	if f.AuditID, err = formutil.QueryObjectID(r, "audit_id"); err != nil {
		return f, err
	}
	if f.MoneyCollection, err = formutil.QueryBool(r, "money_collection"); err != nil {
		return f, err
	}
	if f.MissingRecords, err = formutil.QueryBool(r, "missing_records"); err != nil {
		return f, err
	}
	nonCompliant, err := formutil.QueryBool(r, "non_compliant")
	if err != nil {
		return f, err
	}
	f.NonCompliant = nonCompliant != nil && *nonCompliant
	f.HospitalID = query.Get(r, "hospital_id")
	f.Search = normalize.QueryParam(query.Get(r, "search"))
	return f, nil
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, f repo.PatientFilter) {
	page := paging.Parse(r)
	f.Limit, f.Offset = page.Limit, page.Offset

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, total, err := h.Records.ListPatients(ctx, shared.Scope(r), f)
	if err != nil {
		h.ErrLog.Fail(w, r, "list patients", err)
		return
	}
	viewdata.OK(w, paging.NewList(ViewsOf(rows), total, page))
}

// ServeView handles GET /patients/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "patient id", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, a, err := h.Records.GetPatient(ctx, shared.Scope(r), id)
	if err != nil {
		h.ErrLog.Fail(w, r, "load patient", err)
		return
	}
	viewdata.OK(w, detailResponse{Patient: ViewOf(p), Audit: a})
}
