// internal/app/features/coordinators/list.go
package coordinators

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/normalize"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /coordinators?district_id=&active=true&search=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	districtID, err := formutil.QueryObjectID(r, "district_id")
	if err != nil {
		h.ErrLog.Fail(w, r, "coordinator filter", err)
		return
	}
	active, err := formutil.QueryBool(r, "active")
	if err != nil {
		h.ErrLog.Fail(w, r, "coordinator filter", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, err := h.Repo.Coordinators().List(ctx, repo.CoordinatorFilter{
		DistrictID: districtID,
		ActiveOnly: active != nil && *active,
		Search:     normalize.QueryParam(query.Get(r, "search")),
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "list coordinators", err)
		return
	}
	if rows == nil {
		rows = []models.Coordinator{}
	}
	viewdata.OK(w, listResponse{Items: rows})
}

// ServeView handles GET /coordinators/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "coordinator id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Repo.Coordinators().GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "load coordinator", err)
		return
	}
	viewdata.OK(w, h.view(ctx, c))
}

// view looks up the login name; a missing identity leaves it empty.
func (h *Handler) view(ctx context.Context, c models.Coordinator) coordinatorView {
	v := coordinatorView{Coordinator: c}
	if u, err := h.Repo.Users().GetByID(ctx, c.UserID); err == nil {
		v.LoginName = u.LoginName
	}
	return v
}
