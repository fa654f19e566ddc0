package records_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAudit_DerivedFields(t *testing.T) {
	f := newFixture(t)
	a := f.audit(t, "alpha")

	assert.Equal(t, f.alpha.ID, a.DistrictID)
	assert.Equal(t, 10, a.Beneficiaries, "beneficiaries is always ekgp + pmjay")
	assert.Equal(t, "City General", a.Location, "empty location falls back to ehcp name")
	assert.Equal(t, "10:30:00", a.VisitTime)
	assert.Equal(t, models.AuditPending, a.Status)
}

func TestCreateAudit_RequiredFields(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		field string
		clear func(*records.AuditInput)
	}{
		{"district", func(in *records.AuditInput) { in.District = " " }},
		{"hospital_id", func(in *records.AuditInput) { in.HospitalID = "" }},
		{"ehcp_name", func(in *records.AuditInput) { in.EHCPName = "" }},
		{"ehcp_type", func(in *records.AuditInput) { in.EHCPType = "" }},
		{"auditor_name", func(in *records.AuditInput) { in.AuditorName = "" }},
		{"designation", func(in *records.AuditInput) { in.Designation = "" }},
		{"visit_date", func(in *records.AuditInput) { in.VisitDate = time.Time{} }},
		{"visit_time", func(in *records.AuditInput) { in.VisitTime = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			in := auditInput("Alpha")
			tt.clear(&in)
			_, err := f.svc.CreateAudit(context.Background(), repo.AllRows(), in, nil)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCreateAudit_InvalidValues(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		field  string
		mutate func(*records.AuditInput)
	}{
		{"ehcp_type", func(in *records.AuditInput) { in.EHCPType = "Charity" }},
		{"status", func(in *records.AuditInput) { in.Status = "Done" }},
		{"visit_time", func(in *records.AuditInput) { in.VisitTime = "25:00" }},
		{"hnqa_value", func(in *records.AuditInput) { in.Findings.HNQAValue = "Maybe" }},
		{"findings_type", func(in *records.AuditInput) { in.Findings.FindingsType = "other" }},
		{"ekgp_patients", func(in *records.AuditInput) { in.EKGPPatients = -1 }},
		{"scores.infrastructure", func(in *records.AuditInput) { in.Scores.Infrastructure = -1 }},
		{"scores.feedback", func(in *records.AuditInput) { in.Scores.Feedback = -3 }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			in := auditInput("Alpha")
			tt.mutate(&in)
			_, err := f.svc.CreateAudit(context.Background(), repo.AllRows(), in, nil)
			assert.Equal(t, tt.field, apperr.Field(err))
		})
	}
}

func TestCreateAudit_UnknownDistrict(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateAudit(context.Background(), repo.AllRows(), auditInput("Gamma"), nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateAudit_OutsideScopeIsForbidden(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateAudit(context.Background(), repo.InDistrict(f.alpha.ID), auditInput("Beta"), nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.CreateAudit(context.Background(), repo.NoRows(), auditInput("Alpha"), nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateAudit_SanitizesFreeText(t *testing.T) {
	f := newFixture(t)
	in := auditInput("Alpha")
	in.Observations = `<script>alert(1)</script>Beds <b>clean</b>`
	a, err := f.svc.CreateAudit(context.Background(), repo.AllRows(), in, nil)
	require.NoError(t, err)
	assert.NotContains(t, a.Observations, "<")
	assert.Contains(t, a.Observations, "clean")
}

func TestCreateAudit_StoresPhotos(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.CreateAudit(context.Background(), repo.AllRows(), auditInput("Alpha"),
		[]records.Upload{upload(records.FieldAuditPhotos, "ward.jpg", 1024)})
	require.NoError(t, err)
	require.Len(t, a.Photos, 1)
	assert.Contains(t, a.Photos[0], "audit_photos/")
}

func TestUpdateAudit_Scope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.audit(t, "Alpha")
	alphaOnly := repo.InDistrict(f.alpha.ID)
	betaOnly := repo.InDistrict(f.beta.ID)

	in := auditInput("Alpha")
	in.PMJAYPatients = 1
	in.Status = models.AuditInProgress
	got, err := f.svc.UpdateAudit(ctx, alphaOnly, a.ID, in, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Beneficiaries)
	assert.Equal(t, models.AuditInProgress, got.Status)

	_, err = f.svc.UpdateAudit(ctx, betaOnly, a.ID, in, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "audit outside scope is invisible")

	_, err = f.svc.UpdateAudit(ctx, alphaOnly, a.ID, auditInput("Beta"), nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden, "moving into another district")
}

func TestGetAudit_OutsideScopeNotFound(t *testing.T) {
	f := newFixture(t)
	a := f.audit(t, "Alpha")

	_, err := f.svc.GetAudit(context.Background(), repo.InDistrict(f.beta.ID), a.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := f.svc.GetAudit(context.Background(), repo.InDistrict(f.alpha.ID), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestDeleteAudit_CascadesPatientsAndBlobs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.audit(t, "Alpha")
	p, err := f.svc.CreatePatient(ctx, repo.AllRows(), a.ID, patientInput("C-1"),
		[]records.Upload{upload(records.FieldCaseFile, "case.pdf", 100)})
	require.NoError(t, err)
	require.NotEmpty(t, p.Attachments.CaseFile)

	_, err = f.svc.DeleteAudit(ctx, repo.AllRows(), a.ID)
	require.NoError(t, err)

	_, err = f.repo.Patients().GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.False(t, f.blobs.Exists(strings.TrimPrefix(p.Attachments.CaseFile, "mem://")))
}

func TestListAudits_ScopedWithTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for range 3 {
		f.audit(t, "Alpha")
	}
	f.audit(t, "Beta")

	rows, total, err := f.svc.ListAudits(ctx, repo.InDistrict(f.alpha.ID), repo.AuditFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.EqualValues(t, 3, total)

	rows, total, err = f.svc.ListAudits(ctx, repo.NoRows(), repo.AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, total)
}
