// internal/app/store/repo/filters.go
package repo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DistrictFilter selects districts. Search is a case-insensitive prefix on name.
type DistrictFilter struct {
	Scope  Scope
	Search string
}

// CoordinatorFilter selects coordinators.
type CoordinatorFilter struct {
	DistrictID *primitive.ObjectID
	ActiveOnly bool
	Search     string
}

// UserFilter selects login identities.
type UserFilter struct {
	Search string
	Limit  int64
}

// AuditFilter selects field audits. Scope is always applied.
type AuditFilter struct {
	Scope        Scope
	HospitalID   string
	Status       string
	Search       string // prefix on ehcp name
	CreatedSince *time.Time
	Limit        int64
	Offset       int64
}

// PatientFilter selects patients. Scope is applied through the audit's district.
type PatientFilter struct {
	Scope           Scope
	AuditID         *primitive.ObjectID
	AuditIDs        []primitive.ObjectID
	IDs             []primitive.ObjectID
	HospitalID      string
	MoneyCollection *bool
	MissingRecords  *bool
	// NonCompliant selects rows with money collected OR records missing.
	NonCompliant bool
	Search       string // prefix on patient name
	Limit        int64
	Offset       int64
}

// ActionLogFilter selects action logs, newest first.
type ActionLogFilter struct {
	Scope         Scope
	CoordinatorID *primitive.ObjectID
	PatientID     *primitive.ObjectID
	ActionType    string
	Since         *time.Time
	Until         *time.Time
	Limit         int64
	Offset        int64
}

// DistrictTotals is one row of the per-district aggregation.
type DistrictTotals struct {
	DistrictID         primitive.ObjectID
	AuditCount         int64
	TotalBeneficiaries int64
}

// MonthCount is the number of audits created in one calendar month.
type MonthCount struct {
	Year  int
	Month time.Month
	Count int64
}

// Hospital is a distinct facility seen across audits.
type Hospital struct {
	HospitalID string
	EHCPName   string
	DistrictID primitive.ObjectID
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
