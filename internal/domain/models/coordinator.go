// internal/domain/models/coordinator.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coordinator is a district-scoped reviewer. Every coordinator owns exactly
// one login identity (UserID); deleting the coordinator removes it.
// A nil DistrictID means the coordinator sees nothing.
type Coordinator struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	UserID        primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Name          string              `bson:"name" json:"name"`
	NameCI        string              `bson:"name_ci" json:"-"`
	EmployeeID    string              `bson:"employee_id" json:"employee_id"`
	DistrictID    *primitive.ObjectID `bson:"district_id,omitempty" json:"district_id,omitempty"`
	ContactNumber string              `bson:"contact_number" json:"contact_number"`
	Email         string              `bson:"email" json:"email"`
	IsActive      bool                `bson:"is_active" json:"is_active"`
	DateJoined    time.Time           `bson:"date_joined" json:"date_joined"`
}
