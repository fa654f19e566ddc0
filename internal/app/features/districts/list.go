// internal/app/features/districts/list.go
package districts

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

type listResponse struct {
	Items []models.District `json:"items"`
}

// ServeList handles GET /districts?search=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, err := h.Records.ListDistricts(ctx, shared.Scope(r), query.Get(r, "search"))
	if err != nil {
		h.ErrLog.Fail(w, r, "list districts", err)
		return
	}
	if rows == nil {
		rows = []models.District{}
	}
	viewdata.OK(w, listResponse{Items: rows})
}
