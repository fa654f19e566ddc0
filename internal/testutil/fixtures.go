package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/memory"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures creates entities through a repo.Repository, so the same helpers
// seed the in-memory repository and a Mongo-backed one.
type Fixtures struct {
	repo repo.Repository
	t    *testing.T
}

// NewFixtures wraps r.
func NewFixtures(t *testing.T, r repo.Repository) *Fixtures {
	t.Helper()
	return &Fixtures{repo: r, t: t}
}

// NewMemoryFixtures returns fixtures over a fresh in-memory repository.
func NewMemoryFixtures(t *testing.T) (*Fixtures, *memory.Repo) {
	t.Helper()
	r := memory.New()
	return NewFixtures(t, r), r
}

// Repo returns the underlying repository.
func (f *Fixtures) Repo() repo.Repository { return f.repo }

// CreateDistrict creates a district with the given name.
func (f *Fixtures) CreateDistrict(ctx context.Context, name string) models.District {
	f.t.Helper()
	d, err := f.repo.Districts().Create(ctx, models.District{Name: name})
	if err != nil {
		f.t.Fatalf("create district %q: %v", name, err)
	}
	return d
}

// CreateUser creates an active identity with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, loginName, fullName, role string) models.User {
	f.t.Helper()
	u, err := f.repo.Users().Create(ctx, models.User{
		LoginName:   loginName,
		FullName:    fullName,
		IsSuperuser: role == models.RoleSuperuser,
		IsStaff:     role == models.RoleStaff,
		IsActive:    true,
	})
	if err != nil {
		f.t.Fatalf("create user %q: %v", loginName, err)
	}
	return u
}

// CreateCoordinator creates a coordinator identity assigned to district.
func (f *Fixtures) CreateCoordinator(ctx context.Context, employeeID string, district *models.District) (models.Coordinator, models.User) {
	f.t.Helper()
	u := f.CreateUser(ctx, "coord_"+employeeID, "Coordinator "+employeeID, models.RoleCoordinator)
	c := models.Coordinator{
		UserID:        u.ID,
		Name:          u.FullName,
		EmployeeID:    employeeID,
		ContactNumber: "9000000000",
		Email:         employeeID + "@example.org",
		IsActive:      true,
	}
	if district != nil {
		id := district.ID
		c.DistrictID = &id
	}
	c, err := f.repo.Coordinators().Create(ctx, c)
	if err != nil {
		f.t.Fatalf("create coordinator %q: %v", employeeID, err)
	}
	return c, u
}

// CreateAudit creates a pending audit of hospitalID in district.
func (f *Fixtures) CreateAudit(ctx context.Context, district models.District, hospitalID, ehcpName string) models.FieldAudit {
	f.t.Helper()
	a := models.FieldAudit{
		DistrictID:    district.ID,
		HospitalID:    hospitalID,
		EHCPName:      ehcpName,
		EHCPType:      models.EHCPPrivate,
		AuditorName:   "Test Auditor",
		Designation:   "Auditor",
		VisitDate:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		VisitTime:     "10:30:00",
		Location:      "Ward 1",
		EKGPPatients:  2,
		PMJAYPatients: 3,
		Status:        models.AuditPending,
	}
	a.Recompute()
	a, err := f.repo.Audits().Create(ctx, a)
	if err != nil {
		f.t.Fatalf("create audit %q: %v", hospitalID, err)
	}
	return a
}

// CreatePatient creates a patient under audit. Flags are applied by mutate.
func (f *Fixtures) CreatePatient(ctx context.Context, audit models.FieldAudit, caseID string, mutate func(*models.Patient)) models.Patient {
	f.t.Helper()
	p := models.Patient{
		AuditID:       audit.ID,
		CaseID:        caseID,
		PatientName:   "Patient " + caseID,
		AdmissionDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PackageName:   "General",
		CaseSummary:   "Routine admission",
	}
	if mutate != nil {
		mutate(&p)
	}
	p.Recompute()
	p, err := f.repo.Patients().Create(ctx, p)
	if err != nil {
		f.t.Fatalf("create patient %q: %v", caseID, err)
	}
	return p
}

// ObjectIDPtr returns a pointer to a copy of id.
func ObjectIDPtr(id primitive.ObjectID) *primitive.ObjectID { return &id }
