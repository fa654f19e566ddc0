// internal/app/features/users/list.go
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/normalize"
	"github.com/dalemusser/fieldaudit/internal/app/system/paging"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /users?search=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, err := h.Provisioning.ListUsers(ctx, repo.UserFilter{
		Search: normalize.QueryParam(query.Get(r, "search")),
		Limit:  paging.Parse(r).Limit,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "list users", err)
		return
	}
	out := listResponse{Items: make([]userView, 0, len(rows))}
	for _, u := range rows {
		out.Items = append(out.Items, viewOf(u))
	}
	viewdata.OK(w, out)
}
