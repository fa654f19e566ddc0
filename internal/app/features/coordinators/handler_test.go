package coordinators_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/features/coordinators"
	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/store/memory"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/fieldaudit/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	router http.Handler
	repo   *memory.Repo
	alpha  models.District
	super  testutil.TestUser
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zap.NewNop()
	fx, r := testutil.NewMemoryFixtures(t)
	alpha := fx.CreateDistrict(context.Background(), "Alpha")

	svc := provisioning.New(r, logger, nil)
	svc.BcryptCost = bcrypt.MinCost

	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "s", "", time.Hour, false, logger)
	if err != nil {
		t.Fatal(err)
	}
	h := coordinators.NewHandler(r, svc, auditlog.New(nil, logger, auditlog.Config{}), errorsfeature.NewErrorLogger(logger), logger)
	root := chi.NewRouter()
	root.Mount("/coordinators", coordinators.Routes(h, sm))
	return &env{router: root, repo: r, alpha: alpha, super: testutil.SuperUser()}
}

func (e *env) do(t *testing.T, req *http.Request, u testutil.TestUser) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.WithUser(req, u))
	return rec
}

type credentialBody struct {
	Coordinator struct {
		models.Coordinator
		LoginName string `json:"login_name"`
	} `json:"coordinator"`
	Credential string `json:"credential"`
}

func (e *env) provision(t *testing.T, employeeID, email string) credentialBody {
	t.Helper()
	rec := e.do(t, testutil.NewJSONRequest(t, "POST", "/coordinators", map[string]string{
		"name":           "Field Coordinator",
		"employee_id":    employeeID,
		"district_id":    e.alpha.ID.Hex(),
		"contact_number": "9876543210",
		"email":          email,
	}), e.super)
	rec.AssertStatus(t, http.StatusCreated)
	var body credentialBody
	rec.DecodeJSON(t, &body)
	return body
}

func TestCreate_ReturnsCredentialOnce(t *testing.T) {
	e := newEnv(t)

	first := e.provision(t, "EMP-1", "a@example.org")
	if first.Coordinator.LoginName != "emp_1" || first.Credential == "" {
		t.Errorf("first = %+v", first)
	}
	second := e.provision(t, "emp 1", "b@example.org")
	if second.Coordinator.LoginName != "emp_1_1" {
		t.Errorf("second login name = %q, want emp_1_1", second.Coordinator.LoginName)
	}

	rec := e.do(t, testutil.NewRequest("GET", "/coordinators/"+first.Coordinator.ID.Hex()), e.super)
	rec.AssertStatus(t, http.StatusOK)
	if got := rec.Body.String(); strings.Contains(got, first.Credential) {
		t.Error("credential must not be retrievable after creation")
	}
}

func TestCreate_Errors(t *testing.T) {
	e := newEnv(t)
	e.provision(t, "E1", "taken@example.org")

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"duplicate email", map[string]string{"name": "X", "employee_id": "E2", "email": "TAKEN@example.org"}, http.StatusConflict, "duplicate_email"},
		{"missing name", map[string]string{"employee_id": "E3", "email": "c@example.org"}, http.StatusUnprocessableEntity, "validation_error"},
		{"bad district id", map[string]string{"name": "X", "employee_id": "E4", "email": "d@example.org", "district_id": "zz"}, http.StatusUnprocessableEntity, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, testutil.NewJSONRequest(t, "POST", "/coordinators", tt.body), e.super)
			rec.AssertStatus(t, tt.status)
			if rec.ErrorCode() != tt.code {
				t.Errorf("code = %q, want %q", rec.ErrorCode(), tt.code)
			}
		})
	}
}

func TestRoutes_SuperuserOnly(t *testing.T) {
	e := newEnv(t)
	e.do(t, testutil.NewRequest("GET", "/coordinators"), testutil.StaffUser()).AssertStatus(t, http.StatusForbidden)
}

func TestEditResetDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.provision(t, "E9", "e9@example.org")
	path := "/coordinators/" + c.Coordinator.ID.Hex()

	inactive := false
	rec := e.do(t, testutil.NewJSONRequest(t, "PUT", path, map[string]any{
		"name":        "Renamed",
		"employee_id": "E9",
		"email":       "new@example.org",
		"is_active":   inactive,
	}), e.super)
	rec.AssertStatus(t, http.StatusOK)

	u, err := e.repo.Users().GetByID(ctx, c.Coordinator.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if u.IsActive || u.EmailValue() != "new@example.org" || u.FullName != "Renamed" {
		t.Errorf("identity not updated: %+v", u)
	}

	rec = e.do(t, testutil.NewRequest("POST", path+"/reset-credential"), e.super)
	rec.AssertStatus(t, http.StatusOK)
	var reset credentialBody
	rec.DecodeJSON(t, &reset)
	if reset.Credential == "" || reset.Credential == c.Credential {
		t.Error("expected a fresh credential")
	}
	u, _ = e.repo.Users().GetByID(ctx, c.Coordinator.UserID)
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(reset.Credential)) != nil {
		t.Error("stored hash does not match the new credential")
	}

	e.do(t, testutil.NewRequest("DELETE", path), e.super).AssertStatus(t, http.StatusNoContent)
	if _, err := e.repo.Users().GetByID(ctx, c.Coordinator.UserID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("identity should be gone, got %v", err)
	}
	e.do(t, testutil.NewRequest("GET", path), e.super).AssertStatus(t, http.StatusNotFound)
}
