// internal/app/features/coordinators/types.go
package coordinators

import (
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// coordinatorInput is the body of create and edit requests. IsActive is
// only read on edit; a nil value keeps the coordinator active.
type coordinatorInput struct {
	Name          string `json:"name"`
	EmployeeID    string `json:"employee_id"`
	DistrictID    string `json:"district_id"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
	IsActive      *bool  `json:"is_active"`
}

func (in coordinatorInput) districtID() (*primitive.ObjectID, error) {
	if in.DistrictID == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(in.DistrictID)
	if err != nil {
		return nil, apperr.Invalid("district_id", "is not a valid id")
	}
	return &id, nil
}

// coordinatorView adds the login name to the stored coordinator.
type coordinatorView struct {
	models.Coordinator
	LoginName string `json:"login_name,omitempty"`
}

// credentialResponse carries a clear credential. It is shown once.
type credentialResponse struct {
	Coordinator coordinatorView `json:"coordinator"`
	Credential  string          `json:"credential"`
}

type listResponse struct {
	Items []models.Coordinator `json:"items"`
}
