package users_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/features/users"
	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/fieldaudit/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newRouter(t *testing.T) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	logger := zap.NewNop()
	fx, r := testutil.NewMemoryFixtures(t)
	svc := provisioning.New(r, logger, nil)
	svc.BcryptCost = bcrypt.MinCost
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "s", "", time.Hour, false, logger)
	if err != nil {
		t.Fatal(err)
	}
	h := users.NewHandler(svc, auditlog.New(nil, logger, auditlog.Config{}), errorsfeature.NewErrorLogger(logger), logger)
	root := chi.NewRouter()
	root.Mount("/users", users.Routes(h, sm))
	return root, fx
}

func serve(router http.Handler, req *http.Request, u testutil.TestUser) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(req, u))
	return rec
}

func TestCreateAndList(t *testing.T) {
	router, _ := newRouter(t)
	super := testutil.SuperUser()

	rec := serve(router, testutil.NewJSONRequest(t, "POST", "/users", map[string]string{
		"login_name": "Staff One",
		"full_name":  "Staff One",
		"role":       "staff",
	}), super)
	rec.AssertStatus(t, http.StatusCreated)
	var created struct {
		User struct {
			ID        string `json:"id"`
			LoginName string `json:"login_name"`
			Role      string `json:"role"`
		} `json:"user"`
		Credential string `json:"credential"`
	}
	rec.DecodeJSON(t, &created)
	if created.User.Role != models.RoleStaff || created.Credential == "" {
		t.Errorf("created = %+v", created)
	}
	rec.AssertContains(t, `"login_name":"staff_one"`)

	rec = serve(router, testutil.NewRequest("GET", "/users?search=staff"), super)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, created.User.ID)
}

func TestCreate_Validation(t *testing.T) {
	router, _ := newRouter(t)
	super := testutil.SuperUser()

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad role", map[string]string{"login_name": "x", "role": "coordinator"}},
		{"missing login", map[string]string{"role": "staff"}},
		{"short password", map[string]string{"login_name": "y", "role": "staff", "password": "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, testutil.NewJSONRequest(t, "POST", "/users", tt.body), super)
			rec.AssertStatus(t, http.StatusUnprocessableEntity)
		})
	}
}

func TestDelete_CoordinatorIdentityProtected(t *testing.T) {
	router, fx := newRouter(t)
	ctx := context.Background()
	d := fx.CreateDistrict(ctx, "Alpha")
	_, cu := fx.CreateCoordinator(ctx, "E1", &d)

	rec := serve(router, testutil.NewRequest("DELETE", "/users/"+cu.ID.Hex()), testutil.SuperUser())
	rec.AssertStatus(t, http.StatusConflict)
}

func TestEdit_CannotDemoteSelf(t *testing.T) {
	router, fx := newRouter(t)
	me := fx.CreateUser(context.Background(), "root", "Root", models.RoleSuperuser)

	rec := serve(router, testutil.NewJSONRequest(t, "PUT", "/users/"+me.ID.Hex(), map[string]string{
		"login_name": "root",
		"role":       "staff",
	}), testutil.UserFor(me))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)

	rec = serve(router, testutil.NewRequest("DELETE", "/users/"+me.ID.Hex()), testutil.UserFor(me))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestRoutes_StaffForbidden(t *testing.T) {
	router, _ := newRouter(t)
	serve(router, testutil.NewRequest("GET", "/users"), testutil.StaffUser()).AssertStatus(t, http.StatusForbidden)
}
