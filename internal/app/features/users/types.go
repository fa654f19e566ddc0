// internal/app/features/users/types.go
package users

import (
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
)

type userInput struct {
	LoginName string `json:"login_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`      // superuser | staff
	IsActive  *bool  `json:"is_active"` // default true
}

func (in userInput) toService() (provisioning.UserInput, error) {
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role != models.RoleSuperuser && role != models.RoleStaff {
		return provisioning.UserInput{}, apperr.Invalid("role", "must be superuser or staff")
	}
	return provisioning.UserInput{
		LoginName:   in.LoginName,
		FullName:    in.FullName,
		Email:       in.Email,
		Password:    in.Password,
		IsSuperuser: role == models.RoleSuperuser,
		IsStaff:     true,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}, nil
}

type userView struct {
	models.User
	Role string `json:"role"`
}

func viewOf(u models.User) userView { return userView{User: u, Role: u.Role()} }

type createResponse struct {
	User userView `json:"user"`
	// Credential is set only when the server generated the password.
	Credential string `json:"credential,omitempty"`
}

type listResponse struct {
	Items []userView `json:"items"`
}
