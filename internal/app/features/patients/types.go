// internal/app/features/patients/types.go
package patients

import (
	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
)

// UploadFields are the multipart file parts a patient form may carry.
var UploadFields = []string{
	records.FieldPatientPhoto,
	records.FieldCaseFile,
	records.FieldDischargeSummary,
	records.FieldBillsDocuments,
}

// patientInput is the JSON body, or the "payload" part of a multipart body.
type patientInput struct {
	CaseID        string  `json:"case_id"`
	PatientName   string  `json:"patient_name"`
	MobileNumber  string  `json:"mobile_number"`
	AdmissionDate string  `json:"admission_date"` // yyyy-mm-dd
	DischargeDate *string `json:"discharge_date"`
	PackageName   string  `json:"package_name"`
	PackageCode   string  `json:"package_code"`

	MissingRecords    bool `json:"missing_records"`
	MoneyCollection   bool `json:"money_collection"`
	PackageUpcoding   bool `json:"package_upcoding"`
	IncompleteRecords bool `json:"incomplete_records"`

	CaseSummary      string  `json:"case_summary"`
	Remarks          string  `json:"remarks"`
	TotalOOPE        float64 `json:"total_oope"`
	DigitalSignature string  `json:"digital_signature"`
}

func (in patientInput) toService() (records.PatientInput, error) {
	admitted, err := formutil.Date("admission_date", in.AdmissionDate)
	if err != nil {
		return records.PatientInput{}, err
	}
	discharged, err := formutil.OptionalDate("discharge_date", in.DischargeDate)
	if err != nil {
		return records.PatientInput{}, err
	}
	return records.PatientInput{
		CaseID:            in.CaseID,
		PatientName:       in.PatientName,
		MobileNumber:      in.MobileNumber,
		AdmissionDate:     admitted,
		DischargeDate:     discharged,
		PackageName:       in.PackageName,
		PackageCode:       in.PackageCode,
		MissingRecords:    in.MissingRecords,
		MoneyCollection:   in.MoneyCollection,
		PackageUpcoding:   in.PackageUpcoding,
		IncompleteRecords: in.IncompleteRecords,
		CaseSummary:       in.CaseSummary,
		Remarks:           in.Remarks,
		TotalOOPE:         in.TotalOOPE,
		DigitalSignature:  in.DigitalSignature,
	}, nil
}

// PatientView is a stored patient with its decimal amount and compliance.
type PatientView struct {
	models.Patient
	TotalOOPE float64 `json:"total_oope"`
	Compliant bool    `json:"compliant"`
}

// ViewOf builds the response shape for p.
func ViewOf(p models.Patient) PatientView {
	return PatientView{Patient: p, TotalOOPE: p.TotalOOPE(), Compliant: p.Compliant()}
}

// ViewsOf maps a slice of patients; nil becomes empty.
func ViewsOf(ps []models.Patient) []PatientView {
	out := make([]PatientView, 0, len(ps))
	for _, p := range ps {
		out = append(out, ViewOf(p))
	}
	return out
}

type detailResponse struct {
	Patient PatientView       `json:"patient"`
	Audit   models.FieldAudit `json:"audit"`
}
