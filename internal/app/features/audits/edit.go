// internal/app/features/audits/edit.go
package audits

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
)

// HandleCreate handles POST /audits.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in auditInput
	files, cleanup, err := formutil.DecodeRequest(w, r, &in, records.FieldAuditPhotos)
	defer cleanup()
	if err != nil {
		h.ErrLog.Fail(w, r, "decode audit", err)
		return
	}
	svcIn, err := in.toService()
	if err != nil {
		h.ErrLog.Fail(w, r, "decode audit", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	a, err := h.Records.CreateAudit(ctx, shared.Scope(r), svcIn, shared.Uploads(files))
	if err != nil {
		h.ErrLog.Fail(w, r, "create audit", err)
		return
	}
	viewdata.Created(w, a)
}

// HandleEdit handles PUT /audits/{id}. Uploaded photos are appended.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "audit id", err)
		return
	}

	var in auditInput
	files, cleanup, err := formutil.DecodeRequest(w, r, &in, records.FieldAuditPhotos)
	defer cleanup()
	if err != nil {
		h.ErrLog.Fail(w, r, "decode audit", err)
		return
	}
	svcIn, err := in.toService()
	if err != nil {
		h.ErrLog.Fail(w, r, "decode audit", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	a, err := h.Records.UpdateAudit(ctx, shared.Scope(r), id, svcIn, shared.Uploads(files))
	if err != nil {
		h.ErrLog.Fail(w, r, "update audit", err)
		return
	}
	viewdata.OK(w, a)
}

// HandleDelete handles DELETE /audits/{id}; its patients go with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "audit id", err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, err := h.Records.DeleteAudit(ctx, shared.Scope(r), id)
	if err != nil {
		h.ErrLog.Fail(w, r, "delete audit", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventAuditDeleted, shared.Caller(r).UserID, &a.ID, &a.DistrictID,
		map[string]string{"hospital_id": a.HospitalID})
	viewdata.NoContent(w)
}
