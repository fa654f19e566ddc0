// internal/app/features/districts/edit.go
package districts

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
)

type districtInput struct {
	Name string `json:"name"`
}

// HandleCreate handles POST /districts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in districtInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode district", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Records.CreateDistrict(ctx, shared.Scope(r), in.Name)
	if err != nil {
		h.ErrLog.Fail(w, r, "create district", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventDistrictCreated, shared.Caller(r).UserID, nil, &d.ID,
		map[string]string{"name": d.Name})
	viewdata.Created(w, d)
}

// HandleRename handles PUT /districts/{id}.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "district id", err)
		return
	}
	var in districtInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode district", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := h.Records.RenameDistrict(ctx, shared.Scope(r), id, in.Name)
	if err != nil {
		h.ErrLog.Fail(w, r, "rename district", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventDistrictRenamed, shared.Caller(r).UserID, nil, &d.ID,
		map[string]string{"name": d.Name})
	viewdata.OK(w, d)
}
