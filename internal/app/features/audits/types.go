// internal/app/features/audits/types.go
package audits

import (
	"github.com/dalemusser/fieldaudit/internal/app/features/patients"
	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
)

// auditInput is the JSON body, or the "payload" part of a multipart body
// whose "photos" parts carry visit photos.
type auditInput struct {
	District      string   `json:"district"` // district name
	HospitalID    string   `json:"hospital_id"`
	EHCPName      string   `json:"ehcp_name"`
	EHCPType      string   `json:"ehcp_type"`
	AuditorName   string   `json:"auditor_name"`
	Designation   string   `json:"designation"`
	VisitDate     string   `json:"visit_date"` // yyyy-mm-dd
	VisitTime     string   `json:"visit_time"`
	Location      string   `json:"current_location"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	EKGPPatients  int      `json:"ekgp_patients"`
	PMJAYPatients int      `json:"pmjay_patients"`
	Beneficiaries int      `json:"beneficiaries"`

	Findings models.Findings `json:"findings"`
	Scores   models.Scores   `json:"scores"`

	Signature       string `json:"signature"`
	Observations    string `json:"observations"`
	Recommendations string `json:"recommendations"`
	Status          string `json:"status"`
}

func (in auditInput) toService() (records.AuditInput, error) {
	visited, err := formutil.Date("visit_date", in.VisitDate)
	if err != nil {
		return records.AuditInput{}, err
	}
	return records.AuditInput{
		District:        in.District,
		HospitalID:      in.HospitalID,
		EHCPName:        in.EHCPName,
		EHCPType:        in.EHCPType,
		AuditorName:     in.AuditorName,
		Designation:     in.Designation,
		VisitDate:       visited,
		VisitTime:       in.VisitTime,
		Location:        in.Location,
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		EKGPPatients:    in.EKGPPatients,
		PMJAYPatients:   in.PMJAYPatients,
		Beneficiaries:   in.Beneficiaries,
		Findings:        in.Findings,
		Scores:          in.Scores,
		Signature:       in.Signature,
		Observations:    in.Observations,
		Recommendations: in.Recommendations,
		Status:          in.Status,
	}, nil
}

type detailResponse struct {
	Audit    models.FieldAudit      `json:"audit"`
	Patients []patients.PatientView `json:"patients"`
}
