// internal/app/features/coordinators/new.go
package coordinators

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
)

// HandleCreate handles POST /coordinators. The response carries the
// generated credential; it is not retrievable later.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
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

	// bcrypt plus a transaction with retries.
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Provisioning.Provision(ctx, provisioning.Input{
		Name:          in.Name,
		EmployeeID:    in.EmployeeID,
		DistrictID:    districtID,
		ContactNumber: in.ContactNumber,
		Email:         in.Email,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "provision coordinator", err)
		return
	}

	h.AuditLog.CoordinatorProvisioned(ctx, r, shared.Caller(r).UserID, res.User.ID,
		res.Coordinator.DistrictID, res.Coordinator.EmployeeID, res.User.LoginName)

	viewdata.Created(w, credentialResponse{
		Coordinator: coordinatorView{Coordinator: res.Coordinator, LoginName: res.User.LoginName},
		Credential:  res.Credential,
	})
}
