package shared_test

import (
	"context"
	"net/http"
	"testing"

	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/testutil"
	"go.uber.org/zap"
)

func TestResolveScope(t *testing.T) {
	ctx := context.Background()
	fx, r := testutil.NewMemoryFixtures(t)
	alpha := fx.CreateDistrict(ctx, "Alpha")
	_, coordUser := fx.CreateCoordinator(ctx, "E1", &alpha)

	var seen repo.Scope
	h := shared.ResolveScope(r.Coordinators(), errorsfeature.NewErrorLogger(zap.NewNop()))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = shared.Scope(r)
		}))

	tests := []struct {
		name   string
		user   *testutil.TestUser
		status int
		check  func(repo.Scope) bool
	}{
		{"anonymous", nil, http.StatusUnauthorized, nil},
		{"superuser", ptr(testutil.SuperUser()), http.StatusOK, func(s repo.Scope) bool { return s.All }},
		{"coordinator", ptr(testutil.UserFor(coordUser)), http.StatusOK, func(s repo.Scope) bool {
			return s.DistrictID != nil && *s.DistrictID == alpha.ID
		}},
		{"staff without coordinator", ptr(testutil.StaffUser()), http.StatusOK, func(s repo.Scope) bool { return s.Empty() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = repo.Scope{}
			req := testutil.NewRequest("GET", "/audits")
			if tt.user != nil {
				req = testutil.WithUser(req, *tt.user)
			}
			rec := testutil.NewRecorder()
			h.ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.status)
			if tt.check != nil && !tt.check(seen) {
				t.Errorf("scope = %+v", seen)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
