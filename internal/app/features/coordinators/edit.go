// internal/app/features/coordinators/edit.go
package coordinators

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
)

// HandleEdit handles PUT /coordinators/{id}.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "coordinator id", err)
		return
	}
	var in coordinatorInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode coordinator", err)
		return
	}
	districtID, err := in.districtID()
	if err != nil {
		h.ErrLog.Fail(w, r, "decode coordinator", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Provisioning.UpdateProfile(ctx, id, provisioning.ProfileInput{
		Name:          in.Name,
		EmployeeID:    in.EmployeeID,
		DistrictID:    districtID,
		ContactNumber: in.ContactNumber,
		Email:         in.Email,
		IsActive:      in.IsActive == nil || *in.IsActive,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "update coordinator", err)
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventCoordinatorUpdated, shared.Caller(r).UserID, &c.UserID, c.DistrictID, nil)
	viewdata.OK(w, h.view(ctx, c))
}

// HandleDelete handles DELETE /coordinators/{id}. The identity goes with
// the coordinator; action logs stay.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "coordinator id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Provisioning.Delete(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "delete coordinator", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventCoordinatorDeleted, shared.Caller(r).UserID, &c.UserID, c.DistrictID,
		map[string]string{"employee_id": c.EmployeeID})
	viewdata.NoContent(w)
}

// HandleResetCredential handles POST /coordinators/{id}/reset-credential.
func (h *Handler) HandleResetCredential(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "coordinator id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cred, c, err := h.Provisioning.ResetCredential(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "reset credential", err)
		return
	}
	h.AuditLog.CredentialReset(ctx, r, shared.Caller(r).UserID, c.UserID)
	viewdata.OK(w, credentialResponse{Coordinator: h.view(ctx, c), Credential: cred})
}
