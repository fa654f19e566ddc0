// internal/app/features/actionlogs/list.go
package actionlogs

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/paging"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /action-logs. Filters: coordinator_id, patient_id,
// action_type, since, until (yyyy-mm-dd, until inclusive), limit, offset.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "action log filter", err)
		return
	}
	page := paging.Parse(r)
	f.Limit, f.Offset = page.Limit, page.Offset

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, total, err := h.Actions.List(ctx, shared.Scope(r), f)
	if err != nil {
		h.ErrLog.Fail(w, r, "list action logs", err)
		return
	}
	viewdata.OK(w, paging.NewList(rows, total, page))
}

func listFilter(r *http.Request) (repo.ActionLogFilter, error) {
	var f repo.ActionLogFilter
	var err error
	if f.CoordinatorID, err = formutil.QueryObjectID(r, "coordinator_id"); err != nil {
		return f, err
	}
	if f.PatientID, err = formutil.QueryObjectID(r, "patient_id"); err != nil {
		return f, err
	}
	if f.Since, err = formutil.QueryDate(r, "since"); err != nil {
		return f, err
	}
	if f.Until, err = formutil.QueryDate(r, "until"); err != nil {
		return f, err
	}
	if f.Until != nil {
		end := f.Until.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.Until = &end
	}
	if t := strings.ToUpper(query.Get(r, "action_type")); t != "" {
		if !models.ValidActionType(t) {
			return f, apperr.Invalid("action_type", "unknown action type")
		}
		f.ActionType = t
	}
	return f, nil
}
