// internal/domain/models/patient.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Deviation tags, in canonical order.
const (
	DeviationMoneyCollection   = "money_collection"
	DeviationPackageUpcoding   = "package_upcoding"
	DeviationIncompleteRecords = "incomplete_records"
)

// Attachments holds blob-store paths for a patient's uploaded files.
type Attachments struct {
	PatientPhoto     string `bson:"patient_photo,omitempty" json:"patient_photo,omitempty"`
	CaseFile         string `bson:"case_file,omitempty" json:"case_file,omitempty"`
	DischargeSummary string `bson:"discharge_summary,omitempty" json:"discharge_summary,omitempty"`
	BillsDocuments   string `bson:"bills_documents,omitempty" json:"bills_documents,omitempty"`
}

// Patient is a case examined during a FieldAudit. It is owned by its audit
// and removed with it.
//
// MissingRecords is the direct flag: true means mandatory records are missing.
// TotalOOPECents holds the out-of-pocket expense in paise/cents.
type Patient struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	AuditID       primitive.ObjectID `bson:"audit_id" json:"audit_id"`
	CaseID        string             `bson:"case_id" json:"case_id"`
	PatientName   string             `bson:"patient_name" json:"patient_name"`
	PatientNameCI string             `bson:"patient_name_ci" json:"-"`
	MobileNumber  string             `bson:"mobile_number,omitempty" json:"mobile_number,omitempty"`
	AdmissionDate time.Time          `bson:"admission_date" json:"admission_date"`
	DischargeDate *time.Time         `bson:"discharge_date,omitempty" json:"discharge_date,omitempty"`
	PackageName   string             `bson:"package_name" json:"package_name"`
	PackageCode   string             `bson:"package_code" json:"package_code"`

	MissingRecords    bool `bson:"missing_records" json:"missing_records"`
	MoneyCollection   bool `bson:"money_collection" json:"money_collection"`
	PackageUpcoding   bool `bson:"package_upcoding" json:"package_upcoding"`
	IncompleteRecords bool `bson:"incomplete_records" json:"incomplete_records"`

	CaseSummary      string      `bson:"case_summary" json:"case_summary"`
	Remarks          string      `bson:"remarks,omitempty" json:"remarks,omitempty"`
	Deviations       []string    `bson:"deviations" json:"deviations"`
	TotalOOPECents   int64       `bson:"total_oope_cents" json:"total_oope_cents"`
	DigitalSignature string      `bson:"digital_signature,omitempty" json:"digital_signature,omitempty"`
	Attachments      Attachments `bson:"attachments" json:"attachments"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Recompute rebuilds the deviation set from the explicit flags. The previous
// value is discarded, so the result depends only on the flags.
func (p *Patient) Recompute() {
	devs := make([]string, 0, 3)
	if p.MoneyCollection {
		devs = append(devs, DeviationMoneyCollection)
	}
	if p.PackageUpcoding {
		devs = append(devs, DeviationPackageUpcoding)
	}
	if p.IncompleteRecords {
		devs = append(devs, DeviationIncompleteRecords)
	}
	p.Deviations = devs
	if p.PackageCode == "" {
		p.PackageCode = "NA"
	}
}

// Compliant reports whether neither money was collected nor records are missing.
func (p Patient) Compliant() bool {
	return !p.MoneyCollection && !p.MissingRecords
}

// TotalOOPE returns the out-of-pocket expense as a decimal amount.
func (p Patient) TotalOOPE() float64 {
	return float64(p.TotalOOPECents) / 100
}
