// internal/domain/models/actionlog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action types.
const (
	ActionAudit         = "AUDIT"
	ActionPatientUpdate = "PATIENT_UPDATE"
	ActionRecordCheck   = "RECORD_CHECK"
	ActionMoneyVerify   = "MONEY_VERIFY"
	ActionOther         = "OTHER"
)

// ActionStatusCompleted is the default ActionLog status.
const ActionStatusCompleted = "completed"

// ValidActionType reports whether t is one of the known action types.
func ValidActionType(t string) bool {
	switch t {
	case ActionAudit, ActionPatientUpdate, ActionRecordCheck, ActionMoneyVerify, ActionOther:
		return true
	}
	return false
}

// ActionLog is an append-only record of something a coordinator did.
// PatientID may point at a patient that has since been deleted.
type ActionLog struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	CoordinatorID primitive.ObjectID  `bson:"coordinator_id" json:"coordinator_id"`
	ActionType    string              `bson:"action_type" json:"action_type"`
	Description   string              `bson:"description" json:"description"`
	PatientID     *primitive.ObjectID `bson:"patient_id,omitempty" json:"patient_id,omitempty"`
	DistrictID    primitive.ObjectID  `bson:"district_id" json:"district_id"`
	Timestamp     time.Time           `bson:"timestamp" json:"timestamp"`
	Status        string              `bson:"status" json:"status"`
	Notes         string              `bson:"notes,omitempty" json:"notes,omitempty"`
}
