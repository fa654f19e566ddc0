package records

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/policy/scopepolicy"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fieldaudit/internal/app/system/normalize"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AuditInput is the writable part of a FieldAudit. Beneficiaries is
// accepted but always recomputed.
type AuditInput struct {
	District      string // district name
	HospitalID    string
	EHCPName      string
	EHCPType      string
	AuditorName   string
	Designation   string
	VisitDate     time.Time
	VisitTime     string
	Location      string
	Latitude      *float64
	Longitude     *float64
	EKGPPatients  int
	PMJAYPatients int
	Beneficiaries int

	Findings models.Findings
	Scores   models.Scores

	Signature       string
	Observations    string
	Recommendations string
	Status          string
}

var auditFields = []field[AuditInput]{
	{"district", true, func(in AuditInput) string { return in.District }},
	{"hospital_id", true, func(in AuditInput) string { return in.HospitalID }},
	{"ehcp_name", true, func(in AuditInput) string { return in.EHCPName }},
	{"ehcp_type", true, func(in AuditInput) string { return in.EHCPType }},
	{"auditor_name", true, func(in AuditInput) string { return in.AuditorName }},
	{"designation", true, func(in AuditInput) string { return in.Designation }},
	{"visit_date", true, func(in AuditInput) string { return dateValue(in.VisitDate) }},
	{"visit_time", true, func(in AuditInput) string { return in.VisitTime }},
	{"current_location", false, func(in AuditInput) string { return in.Location }},
	{"observations", false, func(in AuditInput) string { return in.Observations }},
	{"recommendations", false, func(in AuditInput) string { return in.Recommendations }},
}

func (in AuditInput) validate() (AuditInput, error) {
	in.District = normalize.Name(in.District)
	in.HospitalID = strings.TrimSpace(in.HospitalID)
	in.EHCPName = normalize.Name(in.EHCPName)
	in.AuditorName = normalize.Name(in.AuditorName)
	in.Designation = normalize.Name(in.Designation)
	in.Location = normalize.Name(in.Location)
	in.Observations = htmlsanitize.PlainText(in.Observations)
	in.Recommendations = htmlsanitize.PlainText(in.Recommendations)

	if err := checkRequired(auditFields, in); err != nil {
		return in, err
	}
	clock, ok := normalizeClock(in.VisitTime)
	if !ok {
		return in, apperr.Invalid("visit_time", "must be HH:MM or HH:MM:SS")
	}
	in.VisitTime = clock
	in.VisitDate = dateOnly(in.VisitDate)
	if in.Status == "" {
		in.Status = models.AuditPending
	}

	f := in.Findings
	for _, err := range []error{
		oneOf("ehcp_type", in.EHCPType, models.EHCPPublic, models.EHCPPrivate),
		oneOf("status", in.Status, models.AuditPending, models.AuditInProgress, models.AuditCompleted),
		oneOf("findings_type", f.FindingsType, models.FindingsAudit, models.FindingsHNQA, models.FindingsFraudulent),
		yesNo("audit_findings_value", f.AuditFindingsValue),
		yesNo("hnqa_value", f.HNQAValue),
		yesNo("fraudulent_value", f.FraudulentValue),
	} {
		if err != nil {
			return in, err
		}
	}
	switch {
	case in.EKGPPatients < 0:
		return in, apperr.Invalid("ekgp_patients", "must not be negative")
	case in.PMJAYPatients < 0:
		return in, apperr.Invalid("pmjay_patients", "must not be negative")
	case in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90):
		return in, apperr.Invalid("latitude", "out of range")
	case in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180):
		return in, apperr.Invalid("longitude", "out of range")
	}
	sc := in.Scores
	for _, s := range []struct {
		field string
		v     int
	}{
		{"scores.infrastructure", sc.Infrastructure},
		{"scores.service", sc.Service},
		{"scores.documentation", sc.Documentation},
		{"scores.feedback", sc.Feedback},
	} {
		if s.v < 0 {
			return in, apperr.Invalid(s.field, "must not be negative")
		}
	}
	return in, nil
}

func (in AuditInput) apply(a *models.FieldAudit, districtID primitive.ObjectID) {
	a.DistrictID = districtID
	a.HospitalID = in.HospitalID
	a.EHCPName = in.EHCPName
	a.EHCPType = in.EHCPType
	a.AuditorName = in.AuditorName
	a.Designation = in.Designation
	a.VisitDate = in.VisitDate
	a.VisitTime = in.VisitTime
	a.Location = in.Location
	a.Latitude = in.Latitude
	a.Longitude = in.Longitude
	a.EKGPPatients = in.EKGPPatients
	a.PMJAYPatients = in.PMJAYPatients
	a.Findings = in.Findings
	a.Scores = in.Scores
	a.Signature = in.Signature
	a.Observations = in.Observations
	a.Recommendations = in.Recommendations
	a.Status = in.Status
	a.Recompute()
}

// resolveDistrict looks the district up by name and checks it is writable
// under scope.
func (s *Service) resolveDistrict(ctx context.Context, scope repo.Scope, name string) (models.District, error) {
	d, err := s.repo.Districts().GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.District{}, fmt.Errorf("district %q: %w", name, apperr.ErrNotFound)
		}
		return models.District{}, err
	}
	if err := scopepolicy.RequireDistrict(scope, d.ID); err != nil {
		return models.District{}, err
	}
	return d, nil
}

// CreateAudit validates in, stores any photos and saves the audit.
func (s *Service) CreateAudit(ctx context.Context, scope repo.Scope, in AuditInput, photos []Upload) (models.FieldAudit, error) {
	in, err := in.validate()
	if err != nil {
		return models.FieldAudit{}, err
	}
	if err := validatePhotos(photos); err != nil {
		return models.FieldAudit{}, err
	}
	d, err := s.resolveDistrict(ctx, scope, in.District)
	if err != nil {
		return models.FieldAudit{}, err
	}

	written, err := s.putPhotos(ctx, photos)
	if err != nil {
		return models.FieldAudit{}, err
	}

	var a models.FieldAudit
	in.apply(&a, d.ID)
	a.Photos = written
	err = s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.Audits().Create(ctx, a)
		return err
	})
	if err != nil {
		s.deleteBlobs(ctx, written)
		return models.FieldAudit{}, err
	}
	s.metrics.RecordWrite("audit", "create")
	return a, nil
}

// visibleAudit loads an audit and hides it when it is outside scope.
func (s *Service) visibleAudit(ctx context.Context, scope repo.Scope, id primitive.ObjectID) (models.FieldAudit, error) {
	a, err := s.repo.Audits().GetByID(ctx, id)
	if err != nil {
		return models.FieldAudit{}, err
	}
	if !scope.Allows(a.DistrictID) {
		return models.FieldAudit{}, apperr.ErrNotFound
	}
	return a, nil
}

// GetAudit returns the audit when scope can see it.
func (s *Service) GetAudit(ctx context.Context, scope repo.Scope, id primitive.ObjectID) (models.FieldAudit, error) {
	return s.visibleAudit(ctx, scope, id)
}

// AuditDetail returns the audit with its patients, newest admission first.
func (s *Service) AuditDetail(ctx context.Context, scope repo.Scope, id primitive.ObjectID) (models.FieldAudit, []models.Patient, error) {
	a, err := s.visibleAudit(ctx, scope, id)
	if err != nil {
		return models.FieldAudit{}, nil, err
	}
	patients, err := s.repo.Patients().List(ctx, repo.PatientFilter{Scope: scope, AuditID: &a.ID})
	if err != nil {
		return models.FieldAudit{}, nil, err
	}
	return a, patients, nil
}

// UpdateAudit replaces the writable fields of an audit. New photos are
// appended to the existing ones.
func (s *Service) UpdateAudit(ctx context.Context, scope repo.Scope, id primitive.ObjectID, in AuditInput, photos []Upload) (models.FieldAudit, error) {
	in, err := in.validate()
	if err != nil {
		return models.FieldAudit{}, err
	}
	if err := validatePhotos(photos); err != nil {
		return models.FieldAudit{}, err
	}
	a, err := s.visibleAudit(ctx, scope, id)
	if err != nil {
		return models.FieldAudit{}, err
	}
	d, err := s.resolveDistrict(ctx, scope, in.District)
	if err != nil {
		return models.FieldAudit{}, err
	}

	written, err := s.putPhotos(ctx, photos)
	if err != nil {
		return models.FieldAudit{}, err
	}
	in.apply(&a, d.ID)
	a.Photos = append(slices.Clone(a.Photos), written...)

	err = s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Audits().Update(ctx, a); err != nil {
			return err
		}
		a, err = s.repo.Audits().GetByID(ctx, a.ID)
		return err
	})
	if err != nil {
		s.deleteBlobs(ctx, written)
		return models.FieldAudit{}, err
	}
	s.metrics.RecordWrite("audit", "update")
	return a, nil
}

// DeleteAudit removes the audit and its patients, then their blobs.
func (s *Service) DeleteAudit(ctx context.Context, scope repo.Scope, id primitive.ObjectID) (models.FieldAudit, error) {
	a, err := s.visibleAudit(ctx, scope, id)
	if err != nil {
		return models.FieldAudit{}, err
	}
	patients, err := s.repo.Patients().List(ctx, repo.PatientFilter{Scope: scope, AuditID: &a.ID})
	if err != nil {
		return models.FieldAudit{}, err
	}
	if err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Audits().Delete(ctx, a.ID)
	}); err != nil {
		return models.FieldAudit{}, err
	}

	blobs := slices.Clone(a.Photos)
	for _, p := range patients {
		blobs = append(blobs, attachmentPaths(p.Attachments)...)
	}
	s.deleteBlobs(ctx, blobs)
	s.metrics.RecordWrite("audit", "delete")
	s.logger.Info("audit deleted",
		zap.String("audit_id", a.ID.Hex()), zap.Int("patients", len(patients)))
	return a, nil
}

// ListAudits returns one page of audits in scope plus the total count.
func (s *Service) ListAudits(ctx context.Context, scope repo.Scope, f repo.AuditFilter) ([]models.FieldAudit, int64, error) {
	f.Scope = scope
	rows, err := s.repo.Audits().List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Audits().Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
