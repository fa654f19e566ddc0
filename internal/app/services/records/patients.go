package records

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fieldaudit/internal/app/system/normalize"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PatientInput is the writable part of a Patient. Deviations are derived
// from the flags and never accepted from callers.
type PatientInput struct {
	CaseID        string
	PatientName   string
	MobileNumber  string
	AdmissionDate time.Time
	DischargeDate *time.Time
	PackageName   string
	PackageCode   string

	MissingRecords    bool
	MoneyCollection   bool
	PackageUpcoding   bool
	IncompleteRecords bool

	CaseSummary      string
	Remarks          string
	TotalOOPE        float64
	DigitalSignature string
}

var patientFields = []field[PatientInput]{
	{"case_id", true, func(in PatientInput) string { return in.CaseID }},
	{"patient_name", true, func(in PatientInput) string { return in.PatientName }},
	{"admission_date", true, func(in PatientInput) string { return dateValue(in.AdmissionDate) }},
	{"package_name", true, func(in PatientInput) string { return in.PackageName }},
	{"mobile_number", false, func(in PatientInput) string { return in.MobileNumber }},
	{"case_summary", false, func(in PatientInput) string { return in.CaseSummary }},
}

func (in PatientInput) validate() (PatientInput, error) {
	in.CaseID = strings.TrimSpace(in.CaseID)
	in.PatientName = normalize.Name(in.PatientName)
	in.MobileNumber = strings.TrimSpace(in.MobileNumber)
	in.PackageName = normalize.Name(in.PackageName)
	in.PackageCode = strings.TrimSpace(in.PackageCode)
	in.CaseSummary = htmlsanitize.PlainText(in.CaseSummary)
	in.Remarks = htmlsanitize.PlainText(in.Remarks)

	if err := checkRequired(patientFields, in); err != nil {
		return in, err
	}
	if in.MobileNumber != "" && (!normalize.Digits(in.MobileNumber) || len(in.MobileNumber) > 15) {
		return in, apperr.Invalid("mobile_number", "must be up to 15 digits")
	}
	if in.TotalOOPE < 0 || math.IsNaN(in.TotalOOPE) || math.IsInf(in.TotalOOPE, 0) {
		return in, apperr.Invalid("total_oope", "must be a non-negative amount")
	}
	in.AdmissionDate = dateOnly(in.AdmissionDate)
	if in.DischargeDate != nil {
		d := dateOnly(*in.DischargeDate)
		if d.Before(in.AdmissionDate) {
			return in, apperr.ErrInvalidDateRange
		}
		in.DischargeDate = &d
	}
	return in, nil
}

func (in PatientInput) apply(p *models.Patient) {
	p.CaseID = in.CaseID
	p.PatientName = in.PatientName
	p.MobileNumber = in.MobileNumber
	p.AdmissionDate = in.AdmissionDate
	p.DischargeDate = in.DischargeDate
	p.PackageName = in.PackageName
	p.PackageCode = in.PackageCode
	p.MissingRecords = in.MissingRecords
	p.MoneyCollection = in.MoneyCollection
	p.PackageUpcoding = in.PackageUpcoding
	p.IncompleteRecords = in.IncompleteRecords
	p.CaseSummary = in.CaseSummary
	p.Remarks = in.Remarks
	p.TotalOOPECents = int64(math.Round(in.TotalOOPE * 100))
	p.DigitalSignature = in.DigitalSignature
	p.Recompute()
}

// CreatePatient adds a patient under auditID. Uploads are validated before
// any blob is written and removed again if the record cannot be saved.
func (s *Service) CreatePatient(ctx context.Context, scope repo.Scope, auditID primitive.ObjectID, in PatientInput, uploads []Upload) (models.Patient, error) {
	in, err := in.validate()
	if err != nil {
		return models.Patient{}, err
	}
	if err := validatePatientUploads(uploads); err != nil {
		return models.Patient{}, err
	}
	if _, err := s.visibleAudit(ctx, scope, auditID); err != nil {
		return models.Patient{}, err
	}

	p := models.Patient{AuditID: auditID}
	in.apply(&p)
	written, _, err := s.putAttachments(ctx, &p.Attachments, uploads)
	if err != nil {
		return models.Patient{}, err
	}
	err = s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.Patients().Create(ctx, p)
		return err
	})
	if err != nil {
		s.deleteBlobs(ctx, written)
		return models.Patient{}, err
	}
	s.metrics.RecordWrite("patient", "create")
	return p, nil
}

// visiblePatient loads a patient and hides it when its audit is outside scope.
func (s *Service) visiblePatient(ctx context.Context, scope repo.Scope, id primitive.ObjectID) (models.Patient, models.FieldAudit, error) {
	p, err := s.repo.Patients().GetByID(ctx, id)
	if err != nil {
		return models.Patient{}, models.FieldAudit{}, err
	}
	a, err := s.visibleAudit(ctx, scope, p.AuditID)
	if err != nil {
		return models.Patient{}, models.FieldAudit{}, err
	}
	return p, a, nil
}

// GetPatient returns the patient with its audit.
func (s *Service) GetPatient(ctx context.Context, scope repo.Scope, id primitive.ObjectID) (models.Patient, models.FieldAudit, error) {
	return s.visiblePatient(ctx, scope, id)
}

// UpdatePatient replaces the writable fields. Attachments not re-uploaded
// are kept; replaced blobs are deleted after the write commits.
func (s *Service) UpdatePatient(ctx context.Context, scope repo.Scope, id primitive.ObjectID, in PatientInput, uploads []Upload) (models.Patient, error) {
	in, err := in.validate()
	if err != nil {
		return models.Patient{}, err
	}
	if err := validatePatientUploads(uploads); err != nil {
		return models.Patient{}, err
	}
	p, _, err := s.visiblePatient(ctx, scope, id)
	if err != nil {
		return models.Patient{}, err
	}

	in.apply(&p)
	written, replaced, err := s.putAttachments(ctx, &p.Attachments, uploads)
	if err != nil {
		return models.Patient{}, err
	}
	err = s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Patients().Update(ctx, p); err != nil {
			return err
		}
		p, err = s.repo.Patients().GetByID(ctx, p.ID)
		return err
	})
	if err != nil {
		s.deleteBlobs(ctx, written)
		return models.Patient{}, err
	}
	s.deleteBlobs(ctx, replaced)
	s.metrics.RecordWrite("patient", "update")
	return p, nil
}

// DeletePatient removes the patient and its attachments.
func (s *Service) DeletePatient(ctx context.Context, scope repo.Scope, id primitive.ObjectID) (models.Patient, error) {
	p, _, err := s.visiblePatient(ctx, scope, id)
	if err != nil {
		return models.Patient{}, err
	}
	if err := s.repo.Patients().Delete(ctx, p.ID); err != nil {
		return models.Patient{}, err
	}
	s.deleteBlobs(ctx, attachmentPaths(p.Attachments))
	s.metrics.RecordWrite("patient", "delete")
	s.logger.Info("patient deleted", zap.String("patient_id", p.ID.Hex()), zap.String("case_id", p.CaseID))
	return p, nil
}

// ListPatients returns one page of patients in scope plus the total count.
func (s *Service) ListPatients(ctx context.Context, scope repo.Scope, f repo.PatientFilter) ([]models.Patient, int64, error) {
	f.Scope = scope
	rows, err := s.repo.Patients().List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Patients().Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
