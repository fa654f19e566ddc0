package records_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreatePatient_DeviationsFollowFlags(t *testing.T) {
	f := newFixture(t)
	a := f.audit(t, "Alpha")

	in := patientInput("C-1")
	in.IncompleteRecords = true
	in.MoneyCollection = true
	p, err := f.svc.CreatePatient(context.Background(), repo.AllRows(), a.ID, in, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{models.DeviationMoneyCollection, models.DeviationIncompleteRecords}, p.Deviations)
	assert.EqualValues(t, 12550, p.TotalOOPECents)
	assert.Equal(t, "NA", p.PackageCode)

	in.MoneyCollection = false
	in.IncompleteRecords = false
	in.PackageUpcoding = true
	p, err = f.svc.UpdatePatient(context.Background(), repo.AllRows(), p.ID, in, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{models.DeviationPackageUpcoding}, p.Deviations)
}

func TestCreatePatient_Validation(t *testing.T) {
	f := newFixture(t)
	a := f.audit(t, "Alpha")
	tests := []struct {
		field  string
		mutate func(*records.PatientInput)
	}{
		{"case_id", func(in *records.PatientInput) { in.CaseID = "" }},
		{"patient_name", func(in *records.PatientInput) { in.PatientName = "  " }},
		{"admission_date", func(in *records.PatientInput) { in.AdmissionDate = time.Time{} }},
		{"package_name", func(in *records.PatientInput) { in.PackageName = "" }},
		{"mobile_number", func(in *records.PatientInput) { in.MobileNumber = "98765-43210" }},
		{"total_oope", func(in *records.PatientInput) { in.TotalOOPE = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			in := patientInput("C-1")
			tt.mutate(&in)
			_, err := f.svc.CreatePatient(context.Background(), repo.AllRows(), a.ID, in, nil)
			assert.Equal(t, tt.field, apperr.Field(err))
		})
	}
}

func TestCreatePatient_DateOrdering(t *testing.T) {
	f := newFixture(t)
	a := f.audit(t, "Alpha")
	in := patientInput("C-1")

	before := in.AdmissionDate.AddDate(0, 0, -1)
	in.DischargeDate = &before
	_, err := f.svc.CreatePatient(context.Background(), repo.AllRows(), a.ID, in, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidDateRange)

	same := in.AdmissionDate
	in.DischargeDate = &same
	_, err = f.svc.CreatePatient(context.Background(), repo.AllRows(), a.ID, in, nil)
	assert.NoError(t, err, "same-day discharge is allowed")
}

func TestUpdatePatient_DateOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.audit(t, "Alpha")
	p, err := f.svc.CreatePatient(ctx, repo.AllRows(), a.ID, patientInput("C-1"), nil)
	require.NoError(t, err)

	in := patientInput("C-1")
	in.PatientName = "Renamed"
	before := in.AdmissionDate.AddDate(0, 0, -2)
	in.DischargeDate = &before
	_, err = f.svc.UpdatePatient(ctx, repo.AllRows(), p.ID, in, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidDateRange)

	stored, err := f.repo.Patients().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.PatientName, stored.PatientName)
	assert.Nil(t, stored.DischargeDate)
}

func TestCreatePatient_DuplicateCaseID(t *testing.T) {
	f := newFixture(t)
	a := f.audit(t, "Alpha")
	_, err := f.svc.CreatePatient(context.Background(), repo.AllRows(), a.ID, patientInput("C-1"), nil)
	require.NoError(t, err)
	_, err = f.svc.CreatePatient(context.Background(), repo.AllRows(), a.ID, patientInput("C-1"), nil)
	assert.ErrorIs(t, err, apperr.ErrDuplicateCaseID)
}

func TestCreatePatient_AuditOutsideScope(t *testing.T) {
	f := newFixture(t)
	a := f.audit(t, "Alpha")
	_, err := f.svc.CreatePatient(context.Background(), repo.InDistrict(f.beta.ID), a.ID, patientInput("C-1"), nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreatePatient_AttachmentsRejectedBeforeWrite(t *testing.T) {
	tests := []struct {
		name   string
		upload records.Upload
		reason string
	}{
		{"photo extension", upload(records.FieldPatientPhoto, "face.gif", 10), apperr.ReasonExtension},
		{"photo size", upload(records.FieldPatientPhoto, "face.png", 5<<20+1), apperr.ReasonSize},
		{"bills docx", upload(records.FieldBillsDocuments, "bill.docx", 10), apperr.ReasonExtension},
		{"case file size", upload(records.FieldCaseFile, "case.pdf", 10<<20+1), apperr.ReasonSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			store := &mockStore{}
			svc := records.New(f.repo, store, zap.NewNop(), nil)
			audit, err := svc.CreateAudit(context.Background(), repo.AllRows(), auditInput("Alpha"), nil)
			require.NoError(t, err)

			uploads := []records.Upload{upload(records.FieldDischargeSummary, "ok.pdf", 10), tt.upload}
			_, err = svc.CreatePatient(context.Background(), repo.AllRows(), audit.ID, patientInput("C-"+tt.name), uploads)

			var ar *apperr.AttachmentRejected
			require.ErrorAs(t, err, &ar)
			assert.Equal(t, tt.upload.Field, ar.Field)
			assert.Equal(t, tt.reason, ar.Reason)
			store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreatePatient_PersistFailureRemovesBlobs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.audit(t, "Alpha")
	_, err := f.svc.CreatePatient(ctx, repo.AllRows(), a.ID, patientInput("C-1"), nil)
	require.NoError(t, err)

	store := &mockStore{}
	store.On("Put", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "patient_photos/")
	}), mock.Anything, int64(10), "image/png").Return("mem://photo", nil)
	store.On("Delete", mock.Anything, "mem://photo").Return(nil)

	svc := records.New(f.repo, store, zap.NewNop(), nil)
	photo := upload(records.FieldPatientPhoto, "face.png", 10)
	photo.ContentType = "image/png"
	_, err = svc.CreatePatient(ctx, repo.AllRows(), a.ID, patientInput("C-1"), []records.Upload{photo})

	assert.ErrorIs(t, err, apperr.ErrDuplicateCaseID)
	store.AssertExpectations(t)
}

func TestCreatePatient_BlobFailureCleansUpEarlierWrites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.audit(t, "Alpha")

	store := &mockStore{}
	store.On("Put", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "case_files/")
	}), mock.Anything, mock.Anything, mock.Anything).Return("mem://case", nil)
	store.On("Put", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "bills/")
	}), mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket unavailable"))
	store.On("Delete", mock.Anything, "mem://case").Return(nil)

	svc := records.New(f.repo, store, zap.NewNop(), nil)
	_, err := svc.CreatePatient(ctx, repo.AllRows(), a.ID, patientInput("C-9"), []records.Upload{
		upload(records.FieldCaseFile, "case.pdf", 10),
		upload(records.FieldBillsDocuments, "bill.pdf", 10),
	})
	require.Error(t, err)
	store.AssertExpectations(t)

	n, err := f.repo.Patients().Count(ctx, repo.PatientFilter{Scope: repo.AllRows()})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdatePatient_ReplacesAttachment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.audit(t, "Alpha")
	p, err := f.svc.CreatePatient(ctx, repo.AllRows(), a.ID, patientInput("C-1"), []records.Upload{
		upload(records.FieldDischargeSummary, "summary.docx", 10),
		upload(records.FieldBillsDocuments, "bill.pdf", 10),
	})
	require.NoError(t, err)
	oldSummary := p.Attachments.DischargeSummary

	p2, err := f.svc.UpdatePatient(ctx, repo.AllRows(), p.ID, patientInput("C-1"), []records.Upload{
		upload(records.FieldDischargeSummary, "summary-v2.pdf", 10),
	})
	require.NoError(t, err)

	assert.NotEqual(t, oldSummary, p2.Attachments.DischargeSummary)
	assert.Equal(t, p.Attachments.BillsDocuments, p2.Attachments.BillsDocuments, "untouched attachment is kept")
	assert.False(t, f.blobs.Exists(strings.TrimPrefix(oldSummary, "mem://")))
	assert.True(t, f.blobs.Exists(strings.TrimPrefix(p2.Attachments.DischargeSummary, "mem://")))
}

func TestPatientsScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alphaAudit := f.audit(t, "Alpha")
	betaAudit := f.audit(t, "Beta")
	pa, err := f.svc.CreatePatient(ctx, repo.AllRows(), alphaAudit.ID, patientInput("A-1"), nil)
	require.NoError(t, err)
	_, err = f.svc.CreatePatient(ctx, repo.AllRows(), betaAudit.ID, patientInput("B-1"), nil)
	require.NoError(t, err)

	alphaOnly := repo.InDistrict(f.alpha.ID)
	rows, total, err := f.svc.ListPatients(ctx, alphaOnly, repo.PatientFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A-1", rows[0].CaseID)
	assert.EqualValues(t, 1, total)

	_, _, err = f.svc.GetPatient(ctx, repo.InDistrict(f.beta.ID), pa.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.DeletePatient(ctx, repo.InDistrict(f.beta.ID), pa.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.DeletePatient(ctx, alphaOnly, pa.ID)
	require.NoError(t, err)
}
