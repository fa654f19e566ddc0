// Package authz answers role questions about the signed-in user.
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's lowercased role, name, ObjectID and a found
// flag. A missing user or a malformed id yields "visitor", "", NilObjectID,
// false, so ok=true always comes with a usable id.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsSuperuser reports whether the caller is a superuser.
func IsSuperuser(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleSuperuser
}

// IsStaff reports whether the caller is a staff auditor.
func IsStaff(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleStaff
}

// IsCoordinator reports whether the caller is a coordinator.
func IsCoordinator(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleCoordinator
}
