// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a login identity. Coordinators own one each; superusers and staff
// auditors are created directly.
//
// NOTE:
//   - PasswordHash is a bcrypt hash; the clear credential is never stored.
//   - Email is optional but unique when present (sparse index).
type User struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	LoginName    string             `bson:"login_name" json:"login_name"`
	LoginNameCI  string             `bson:"login_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        *string            `bson:"email,omitempty" json:"email,omitempty"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	IsSuperuser  bool               `bson:"is_superuser" json:"is_superuser"`
	IsStaff      bool               `bson:"is_staff" json:"is_staff"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	Groups       []string           `bson:"groups,omitempty" json:"groups,omitempty"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// EmailValue returns the email or "" when none is set.
func (u User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// Role collapses the identity flags into the session role string.
func (u User) Role() string {
	switch {
	case u.IsSuperuser:
		return RoleSuperuser
	case u.IsStaff:
		return RoleStaff
	default:
		return RoleCoordinator
	}
}

// Session roles.
const (
	RoleSuperuser   = "superuser"
	RoleStaff       = "staff"
	RoleCoordinator = "coordinator"
)
