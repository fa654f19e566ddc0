// internal/app/features/users/edit.go
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
)

// HandleCreate handles POST /users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode user", err)
		return
	}
	svcIn, err := in.toService()
	if err != nil {
		h.ErrLog.Fail(w, r, "decode user", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, generated, err := h.Provisioning.CreateUser(ctx, svcIn)
	if err != nil {
		h.ErrLog.Fail(w, r, "create user", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventUserCreated, shared.Caller(r).UserID, &u.ID, nil,
		map[string]string{"login_name": u.LoginName, "role": u.Role()})
	viewdata.Created(w, createResponse{User: viewOf(u), Credential: generated})
}

// HandleEdit handles PUT /users/{id}. An empty password keeps the current one.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "user id", err)
		return
	}
	var in userInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode user", err)
		return
	}
	svcIn, err := in.toService()
	if err != nil {
		h.ErrLog.Fail(w, r, "decode user", err)
		return
	}

	caller := shared.Caller(r)
	if id == caller.UserID && (!svcIn.IsSuperuser || !svcIn.IsActive) {
		h.ErrLog.Fail(w, r, "edit self", apperr.Invalid("role", "you cannot demote or deactivate yourself"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Provisioning.UpdateUser(ctx, id, svcIn)
	if err != nil {
		h.ErrLog.Fail(w, r, "update user", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventUserUpdated, caller.UserID, &u.ID, nil,
		map[string]string{"role": u.Role()})
	viewdata.OK(w, viewOf(u))
}

// HandleDelete handles DELETE /users/{id}. Identities owned by a
// coordinator answer 409; delete the coordinator instead.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(r, "id")
	if err != nil {
		h.ErrLog.Fail(w, r, "user id", err)
		return
	}
	caller := shared.Caller(r)
	if id == caller.UserID {
		h.ErrLog.Fail(w, r, "delete self", apperr.Invalid("id", "you cannot delete yourself"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Provisioning.DeleteUser(ctx, id)
	if err != nil {
		h.ErrLog.Fail(w, r, "delete user", err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventUserDeleted, caller.UserID, &u.ID, nil,
		map[string]string{"login_name": u.LoginName})
	viewdata.NoContent(w)
}
