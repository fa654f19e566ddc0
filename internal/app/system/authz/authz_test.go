package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func reqAs(role, id string) *http.Request {
	req := httptest.NewRequest("GET", "/test", nil)
	if role == "" && id == "" {
		return req
	}
	return auth.WithTestUser(req, &auth.SessionUser{ID: id, Name: "Test", Role: role})
}

func TestRolePredicates(t *testing.T) {
	id := primitive.NewObjectID().Hex()

	tests := []struct {
		name                     string
		req                      *http.Request
		super, staff, coordinate bool
	}{
		{"superuser", reqAs("superuser", id), true, false, false},
		{"staff", reqAs("staff", id), false, true, false},
		{"coordinator", reqAs("coordinator", id), false, false, true},
		{"uppercase", reqAs("SUPERUSER", id), true, false, false},
		{"no user", reqAs("", ""), false, false, false},
		{"malformed id", reqAs("superuser", "nope"), false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := authz.IsSuperuser(tc.req); got != tc.super {
				t.Errorf("IsSuperuser = %v, want %v", got, tc.super)
			}
			if got := authz.IsStaff(tc.req); got != tc.staff {
				t.Errorf("IsStaff = %v, want %v", got, tc.staff)
			}
			if got := authz.IsCoordinator(tc.req); got != tc.coordinate {
				t.Errorf("IsCoordinator = %v, want %v", got, tc.coordinate)
			}
		})
	}
}

func TestUserCtx(t *testing.T) {
	oid := primitive.NewObjectID()
	role, name, uid, ok := authz.UserCtx(reqAs("Staff", oid.Hex()))
	if !ok || role != "staff" || name != "Test" || uid != oid {
		t.Errorf("UserCtx = (%q, %q, %v, %v)", role, name, uid, ok)
	}

	role, _, uid, ok = authz.UserCtx(reqAs("", ""))
	if ok || role != "visitor" || !uid.IsZero() {
		t.Errorf("expected visitor, got (%q, %v, %v)", role, uid, ok)
	}
}

func TestHasAnyRole(t *testing.T) {
	req := reqAs("coordinator", primitive.NewObjectID().Hex())
	if !authz.HasAnyRole(req, "superuser", " Coordinator ") {
		t.Error("expected coordinator to match")
	}
	if authz.HasAnyRole(req, "superuser", "staff") {
		t.Error("expected no match")
	}
	if authz.HasAnyRole(reqAs("", ""), "coordinator") {
		t.Error("expected no match without a user")
	}
	if role, ok := authz.Role(req); !ok || role != "coordinator" {
		t.Errorf("Role = (%q, %v)", role, ok)
	}
}
