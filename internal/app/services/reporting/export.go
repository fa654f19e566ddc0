package reporting

import (
	"context"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/sheet"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AllDataHeader is the column set of the all-data export.
var AllDataHeader = []string{
	"Hospital ID", "Hospital Name", "District", "Hospital Type", "Visit Date",
	"Visit Time", "Auditor Name", "Designation", "Location", "EKGP Patients",
	"PMJAY Patients", "Total Beneficiaries", "Findings Type", "Audit Findings Value",
	"Finding Type", "Abuse Type", "OOPE Type", "HNQA Value", "HNQA Type",
	"Infrastructure Type", "HR Type", "Services Type", "Fraudulent Value",
	"Fraudulent Type", "Observations", "Case ID", "Patient Name", "Mobile Number",
	"Admission Date", "Discharge Date", "Package Name", "Package Code",
	"Mandatory Records", "Money Collection", "Case Summary", "Deviations",
	"Total OOPE", "Patient Photo", "Case File", "Discharge Summary",
	"Bills & Documents",
}

// HospitalHeader is the column set of the per-hospital export.
var HospitalHeader = []string{
	"Hospital Name", "Hospital ID", "District", "Case ID", "Patient Name",
	"Mobile Number", "Admission Date", "Discharge Date", "Package Name",
	"Package Code", "Mandatory Records", "Deviations", "OOPE Amount", "Documents",
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// yesNo renders a flag the way the spreadsheets show it.
func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// mandatoryRecords is "Yes" when the mandatory records are maintained.
func mandatoryRecords(p models.Patient) string { return yesNo(!p.MissingRecords) }

func deviations(p models.Patient) string {
	if len(p.Deviations) == 0 {
		return "None"
	}
	return strings.Join(p.Deviations, ", ")
}

func dischargeDate(p models.Patient) string {
	if p.DischargeDate == nil {
		return "N/A"
	}
	return sheet.Cell(*p.DischargeDate)
}

func (s *Service) districtNames(ctx context.Context, scope repo.Scope) (map[primitive.ObjectID]string, error) {
	ds, err := s.repo.Districts().List(ctx, repo.DistrictFilter{Scope: scope})
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(ds))
	for _, d := range ds {
		names[d.ID] = d.Name
	}
	return names, nil
}

// ExportAll returns one row per patient, joined with its audit, audits by
// newest visit first.
func (s *Service) ExportAll(ctx context.Context, scope repo.Scope) (sheet.Table, error) {
	t := sheet.Table{Name: "Audit Data", Header: AllDataHeader}
	audits, err := s.repo.Audits().List(ctx, repo.AuditFilter{Scope: scope})
	if err != nil {
		return t, err
	}
	if len(audits) == 0 {
		return t, nil
	}
	names, err := s.districtNames(ctx, scope)
	if err != nil {
		return t, err
	}
	ids := make([]primitive.ObjectID, len(audits))
	for i, a := range audits {
		ids[i] = a.ID
	}
	patients, err := s.repo.Patients().List(ctx, repo.PatientFilter{Scope: scope, AuditIDs: ids})
	if err != nil {
		return t, err
	}
	byAudit := make(map[primitive.ObjectID][]models.Patient, len(audits))
	for _, p := range patients {
		byAudit[p.AuditID] = append(byAudit[p.AuditID], p)
	}

	for _, a := range audits {
		for _, p := range byAudit[a.ID] {
			if s.MaxExportRows > 0 && len(t.Rows) >= s.MaxExportRows {
				s.logger.Warn("export truncated", zap.Int("max_rows", s.MaxExportRows))
				return t, nil
			}
			t.Rows = append(t.Rows, allDataRow(a, names[a.DistrictID], p))
		}
	}
	return t, nil
}

func allDataRow(a models.FieldAudit, district string, p models.Patient) []any {
	f := a.Findings
	return []any{
		a.HospitalID, a.EHCPName, orNA(district), a.EHCPType, a.VisitDate,
		orNA(a.VisitTime), a.AuditorName, a.Designation, a.Location, a.EKGPPatients,
		a.PMJAYPatients, a.Beneficiaries, orNA(f.FindingsType), orNA(f.AuditFindingsValue),
		orNA(f.FindingType), orNA(f.AbuseType), orNA(f.OOPEType), orNA(f.HNQAValue), orNA(f.HNQAType),
		orNA(f.InfrastructureType), orNA(f.HRType), orNA(f.ServicesType), orNA(f.FraudulentValue),
		orNA(f.FraudulentType), a.Observations, p.CaseID, p.PatientName, orNA(p.MobileNumber),
		p.AdmissionDate, dischargeDate(p), p.PackageName, orNA(p.PackageCode),
		mandatoryRecords(p), yesNo(p.MoneyCollection), p.CaseSummary, deviations(p),
		p.TotalOOPE(), orDefault(p.Attachments.PatientPhoto, "No Photo"),
		orDefault(p.Attachments.CaseFile, "No File"),
		orDefault(p.Attachments.DischargeSummary, "No Summary"),
		orDefault(p.Attachments.BillsDocuments, "No Documents"),
	}
}

func documents(att models.Attachments) string {
	var docs []string
	for _, d := range []struct{ path, label string }{
		{att.PatientPhoto, "Photo"},
		{att.CaseFile, "Case File"},
		{att.DischargeSummary, "Discharge Summary"},
		{att.BillsDocuments, "Bills"},
	} {
		if d.path != "" {
			docs = append(docs, d.label)
		}
	}
	if len(docs) == 0 {
		return "None"
	}
	return strings.Join(docs, ", ")
}

// ExportHospital returns every patient recorded at hospitalID, headed by
// the facility's latest audit. ErrNotFound when no audit in scope has it.
func (s *Service) ExportHospital(ctx context.Context, scope repo.Scope, hospitalID string) (sheet.Table, models.FieldAudit, error) {
	t := sheet.Table{Name: "Patient Data", Header: HospitalHeader}
	hospitalID = strings.TrimSpace(hospitalID)
	audits, err := s.repo.Audits().List(ctx, repo.AuditFilter{Scope: scope, HospitalID: hospitalID, Limit: 1})
	if err != nil {
		return t, models.FieldAudit{}, err
	}
	if hospitalID == "" || len(audits) == 0 {
		return t, models.FieldAudit{}, apperr.ErrNotFound
	}
	a := audits[0]
	d, err := s.repo.Districts().GetByID(ctx, a.DistrictID)
	if err != nil {
		return t, models.FieldAudit{}, err
	}
	patients, err := s.repo.Patients().List(ctx, repo.PatientFilter{Scope: scope, HospitalID: hospitalID})
	if err != nil {
		return t, models.FieldAudit{}, err
	}
	for _, p := range patients {
		t.Rows = append(t.Rows, []any{
			a.EHCPName, a.HospitalID, d.Name, p.CaseID, p.PatientName,
			p.MobileNumber, p.AdmissionDate, p.DischargeDate, p.PackageName,
			p.PackageCode, mandatoryRecords(p), deviations(p), p.TotalOOPE(),
			documents(p.Attachments),
		})
	}
	return t, a, nil
}
