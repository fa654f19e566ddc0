package records_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListHospitals(t *testing.T) {
	f := newFixture(t)
	f.audit(t, "Alpha")
	f.audit(t, "Alpha")
	in := auditInput("Beta")
	in.HospitalID = "H-200"
	in.EHCPName = "District Hospital"
	_, err := f.svc.CreateAudit(context.Background(), repo.AllRows(), in, nil)
	require.NoError(t, err)

	rows, err := f.svc.ListHospitals(context.Background(), repo.AllRows())
	require.NoError(t, err)
	require.Len(t, rows, 2, "repeat visits collapse into one row")
	assert.Equal(t, "Alpha", rows[0].DistrictName)
	assert.Equal(t, "H-200", rows[1].HospitalID)

	rows, err = f.svc.ListHospitals(context.Background(), repo.InDistrict(f.beta.ID))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Beta", rows[0].DistrictName)
}

func TestLatestAuditForHospital(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.audit(t, "Alpha")
	in := auditInput("Alpha")
	in.VisitDate = in.VisitDate.AddDate(0, 1, 0)
	latest, err := f.svc.CreateAudit(ctx, repo.AllRows(), in, nil)
	require.NoError(t, err)

	older := patientInput("P-1")
	older.AdmissionDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.CreatePatient(ctx, repo.AllRows(), first.ID, older, nil)
	require.NoError(t, err)
	_, err = f.svc.CreatePatient(ctx, repo.AllRows(), latest.ID, patientInput("P-2"), nil)
	require.NoError(t, err)

	d, err := f.svc.LatestAuditForHospital(ctx, repo.AllRows(), "H-100")
	require.NoError(t, err)
	assert.Equal(t, latest.ID, d.Audit.ID)
	require.Len(t, d.Patients, 2, "patients from every visit are listed")
	assert.Equal(t, "P-2", d.Patients[0].CaseID, "newest admission first")

	_, err = f.svc.LatestAuditForHospital(ctx, repo.InDistrict(f.beta.ID), "H-100")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
