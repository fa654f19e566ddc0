package records_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/store/memory"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/blobstore"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	repo  *memory.Repo
	blobs *blobstore.AferoStore
	svc   *records.Service
	alpha models.District
	beta  models.District
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	r := memory.New()
	alpha, err := r.Districts().Create(ctx, models.District{Name: "Alpha"})
	require.NoError(t, err)
	beta, err := r.Districts().Create(ctx, models.District{Name: "Beta"})
	require.NoError(t, err)
	blobs := blobstore.NewMemory()
	return &fixture{
		repo:  r,
		blobs: blobs,
		svc:   records.New(r, blobs, zap.NewNop(), nil),
		alpha: alpha,
		beta:  beta,
	}
}

func auditInput(district string) records.AuditInput {
	return records.AuditInput{
		District:      district,
		HospitalID:    "H-100",
		EHCPName:      "City General",
		EHCPType:      models.EHCPPrivate,
		AuditorName:   "R. Menon",
		Designation:   "Auditor",
		VisitDate:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		VisitTime:     "10:30",
		EKGPPatients:  4,
		PMJAYPatients: 6,
		Beneficiaries: 1,
	}
}

func patientInput(caseID string) records.PatientInput {
	return records.PatientInput{
		CaseID:        caseID,
		PatientName:   "Meera Das",
		MobileNumber:  "9876543210",
		AdmissionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PackageName:   "Cataract",
		TotalOOPE:     125.5,
	}
}

func (f *fixture) audit(t *testing.T, district string) models.FieldAudit {
	t.Helper()
	a, err := f.svc.CreateAudit(context.Background(), repo.AllRows(), auditInput(district), nil)
	require.NoError(t, err)
	return a
}

func upload(field, name string, size int64) records.Upload {
	return records.Upload{Field: field, Filename: name, Size: size, Body: strings.NewReader("data")}
}

// mockStore is a blobstore.Store whose calls are scripted per test.
type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, p string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, p, r, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, p string) error {
	return m.Called(ctx, p).Error(0)
}
