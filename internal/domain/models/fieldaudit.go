// internal/domain/models/fieldaudit.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit statuses.
const (
	AuditPending    = "Pending"
	AuditInProgress = "In Progress"
	AuditCompleted  = "Completed"
)

// EHCP (empanelled health care provider) types.
const (
	EHCPPublic  = "Public"
	EHCPPrivate = "Private"
)

// Findings categories.
const (
	FindingsAudit      = "audit_findings"
	FindingsHNQA       = "hnqa_related"
	FindingsFraudulent = "other_fraudulent_activities"
)

// Findings groups the optional observations recorded during a visit.
// Yes/No values are stored as "Yes", "No" or "".
type Findings struct {
	FindingsType       string `bson:"findings_type,omitempty" json:"findings_type,omitempty"`
	AuditFindingsValue string `bson:"audit_findings_value,omitempty" json:"audit_findings_value,omitempty"`
	FindingType        string `bson:"finding_type,omitempty" json:"finding_type,omitempty"`
	AbuseType          string `bson:"abuse_type,omitempty" json:"abuse_type,omitempty"`
	OOPEType           string `bson:"oope_type,omitempty" json:"oope_type,omitempty"`

	HNQAValue          string `bson:"hnqa_value,omitempty" json:"hnqa_value,omitempty"`
	HNQAType           string `bson:"hnqa_type,omitempty" json:"hnqa_type,omitempty"`
	InfrastructureType string `bson:"infrastructure_type,omitempty" json:"infrastructure_type,omitempty"`
	HRType             string `bson:"hr_type,omitempty" json:"hr_type,omitempty"`
	ServicesType       string `bson:"services_type,omitempty" json:"services_type,omitempty"`

	FraudulentValue string `bson:"fraudulent_value,omitempty" json:"fraudulent_value,omitempty"`
	FraudulentType  string `bson:"fraudulent_type,omitempty" json:"fraudulent_type,omitempty"`
}

// Scores are the 0-based assessment scores of a visit.
type Scores struct {
	Infrastructure int `bson:"infrastructure" json:"infrastructure"`
	Service        int `bson:"service" json:"service"`
	Documentation  int `bson:"documentation" json:"documentation"`
	Feedback       int `bson:"feedback" json:"feedback"`
}

// FieldAudit is one recorded visit to a facility. Beneficiaries is derived
// (EKGPPatients + PMJAYPatients) and rewritten on every save.
type FieldAudit struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	DistrictID    primitive.ObjectID `bson:"district_id" json:"district_id"`
	HospitalID    string             `bson:"hospital_id" json:"hospital_id"`
	EHCPName      string             `bson:"ehcp_name" json:"ehcp_name"`
	EHCPNameCI    string             `bson:"ehcp_name_ci" json:"-"`
	EHCPType      string             `bson:"ehcp_type" json:"ehcp_type"`
	AuditorName   string             `bson:"auditor_name" json:"auditor_name"`
	Designation   string             `bson:"designation" json:"designation"`
	VisitDate     time.Time          `bson:"visit_date" json:"visit_date"`
	VisitTime     string             `bson:"visit_time" json:"visit_time"` // HH:MM:SS
	Location      string             `bson:"current_location" json:"current_location"`
	Latitude      *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude     *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
	EKGPPatients  int                `bson:"ekgp_patients" json:"ekgp_patients"`
	PMJAYPatients int                `bson:"pmjay_patients" json:"pmjay_patients"`
	Beneficiaries int                `bson:"beneficiaries" json:"beneficiaries"`

	Findings Findings `bson:"findings" json:"findings"`
	Scores   Scores   `bson:"scores" json:"scores"`

	Signature       string   `bson:"signature,omitempty" json:"signature,omitempty"`
	Photos          []string `bson:"photos,omitempty" json:"photos,omitempty"`
	Observations    string   `bson:"observations" json:"observations"`
	Recommendations string   `bson:"recommendations" json:"recommendations"`
	Status          string   `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Recompute refreshes the derived fields before a write.
func (a *FieldAudit) Recompute() {
	a.Beneficiaries = a.EKGPPatients + a.PMJAYPatients
	if a.Location == "" {
		a.Location = a.EHCPName
	}
}
