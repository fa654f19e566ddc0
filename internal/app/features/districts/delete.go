// internal/app/features/districts/delete.go
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

// HandleDelete handles DELETE /districts/{id}. A district that still has
// audits answers 409.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "district id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Records.DeleteDistrict(ctx, shared.Scope(r), id); err != nil {
		h.ErrLog.Fail(w, r, "delete district", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventDistrictDeleted, shared.Caller(r).UserID, nil, &id, nil)
	viewdata.NoContent(w)
}
