// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/authz"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
)

// profileView is the caller's identity plus, for coordinators, the
// coordinator record and its district name.
type profileView struct {
	ID          string              `json:"id"`
	LoginName   string              `json:"login_name"`
	FullName    string              `json:"full_name"`
	Email       string              `json:"email,omitempty"`
	Role        string              `json:"role"`
	LastLoginAt *time.Time          `json:"last_login_at,omitempty"`
	Coordinator *models.Coordinator `json:"coordinator,omitempty"`
	District    string              `json:"district,omitempty"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /profile                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		errorsfeature.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Repo.Users().GetByID(ctx, uid)
	if err != nil {
		h.ErrLog.Fail(w, r, "load profile", err)
		return
	}
	view := profileView{
		ID:          u.ID.Hex(),
		LoginName:   u.LoginName,
		FullName:    u.FullName,
		Email:       u.EmailValue(),
		Role:        u.Role(),
		LastLoginAt: u.LastLoginAt,
	}

	c, err := h.Repo.Coordinators().GetByUserID(ctx, uid)
	switch {
	case err == nil:
		view.Coordinator = &c
		if c.DistrictID != nil {
			if d, err := h.Repo.Districts().GetByID(ctx, *c.DistrictID); err == nil {
				view.District = d.Name
			}
		}
	case !errors.Is(err, apperr.ErrNotFound):
		h.ErrLog.Fail(w, r, "load coordinator", err)
		return
	}

	viewdata.OK(w, map[string]profileView{"profile": view})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /profile/password                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		errorsfeature.RenderUnauthorized(w, r)
		return
	}

	var in passwordRequest
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode password change", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Service.ChangePassword(ctx, uid, in.CurrentPassword, in.NewPassword); err != nil {
		h.ErrLog.Fail(w, r, "change password", err)
		return
	}
	h.AuditLog.PasswordChanged(ctx, r, uid)
	viewdata.NoContent(w)
}
