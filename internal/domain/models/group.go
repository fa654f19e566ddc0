// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoordinatorsGroup is the shared permission group every provisioned
// coordinator identity joins.
const CoordinatorsGroup = "Coordinators"

// Permission codes carried by groups.
const (
	PermViewFieldAudit = "view_fieldaudit"
	PermViewPatient    = "view_patient"
	PermViewActionLog  = "view_actionlog"
)

// CoordinatorPermissions is the read-only capability set of CoordinatorsGroup.
var CoordinatorPermissions = []string{PermViewFieldAudit, PermViewPatient, PermViewActionLog}

// Group is a named permission set that identities join by name.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Permissions []string           `bson:"permissions" json:"permissions"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
