// internal/app/features/patients/edit.go
package patients

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
)

// HandleCreate handles POST /audits/{id}/patients. The body is JSON, or
// multipart with a "payload" JSON part and optional attachment parts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	auditID, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "audit id", err)
		return
	}

	var in patientInput
	files, cleanup, err := formutil.DecodeRequest(w, r, &in, UploadFields...)
	defer cleanup()
	if err != nil {
		h.ErrLog.Fail(w, r, "decode patient", err)
		return
	}
	svcIn, err := in.toService()
	if err != nil {
		h.ErrLog.Fail(w, r, "decode patient", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	p, err := h.Records.CreatePatient(ctx, shared.Scope(r), auditID, svcIn, shared.Uploads(files))
	if err != nil {
		h.ErrLog.Fail(w, r, "create patient", err)
		return
	}
	viewdata.Created(w, ViewOf(p))
}

// HandleEdit handles PUT /patients/{id}. Attachments that are not
// re-uploaded are kept.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "patient id", err)
		return
	}

	var in patientInput
	files, cleanup, err := formutil.DecodeRequest(w, r, &in, UploadFields...)
	defer cleanup()
	if err != nil {
		h.ErrLog.Fail(w, r, "decode patient", err)
		return
	}
	svcIn, err := in.toService()
	if err != nil {
		h.ErrLog.Fail(w, r, "decode patient", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	p, err := h.Records.UpdatePatient(ctx, shared.Scope(r), id, svcIn, shared.Uploads(files))
	if err != nil {
		h.ErrLog.Fail(w, r, "update patient", err)
		return
	}
	viewdata.OK(w, ViewOf(p))
}

// HandleDelete handles DELETE /patients/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "patient id", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	scope := shared.Scope(r)
	_, a, err := h.Records.GetPatient(ctx, scope, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "load patient", err)
		return
	}
	p, err := h.Records.DeletePatient(ctx, scope, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "delete patient", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventPatientDeleted, shared.Caller(r).UserID, &p.ID, &a.DistrictID,
		map[string]string{"case_id": p.CaseID, "audit_id": a.ID.Hex()})
	viewdata.NoContent(w)
}
