// Package repo declares the persistence interface the workflow services
// consume. The Mongo implementation lives in store/mongostore and an
// in-memory implementation in store/memory.
//
// Every store method takes the context it was handed; inside
// Repository.WithTransaction that context carries the transaction, so stores
// need no separate transactional variants.
package repo

import (
	"context"
	"time"

	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository groups the entity stores with a transaction boundary.
type Repository interface {
	Districts() DistrictStore
	Coordinators() CoordinatorStore
	Users() UserStore
	Groups() GroupStore
	Audits() AuditStore
	Patients() PatientStore
	ActionLogs() ActionLogStore

	// WithTransaction runs fn all-or-nothing. fn must use the context it is
	// given for every store call that belongs to the transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// DistrictStore persists districts.
type DistrictStore interface {
	Create(ctx context.Context, d models.District) (models.District, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.District, error)
	GetByName(ctx context.Context, name string) (models.District, error)
	List(ctx context.Context, f DistrictFilter) ([]models.District, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) error
	// Delete fails with apperr.ErrProtected while audits reference the
	// district and clears the district of coordinators assigned to it.
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// CoordinatorStore persists coordinators.
type CoordinatorStore interface {
	Create(ctx context.Context, c models.Coordinator) (models.Coordinator, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Coordinator, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Coordinator, error)
	List(ctx context.Context, f CoordinatorFilter) ([]models.Coordinator, error)
	Update(ctx context.Context, c models.Coordinator) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserStore is the identity provider: unique login names and emails.
type UserStore interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByLoginName(ctx context.Context, loginName string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	LoginNameExists(ctx context.Context, loginName string) (bool, error)
	EmailExists(ctx context.Context, email string, excludeID *primitive.ObjectID) (bool, error)
	List(ctx context.Context, f UserFilter) ([]models.User, error)
	Update(ctx context.Context, u models.User) error
	AddToGroup(ctx context.Context, id primitive.ObjectID, group string) error
	SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// GroupStore persists permission groups.
type GroupStore interface {
	// Ensure returns the named group, creating it with perms if absent.
	Ensure(ctx context.Context, name string, perms []string) (models.Group, error)
	GetByName(ctx context.Context, name string) (models.Group, error)
}

// AuditStore persists field audits.
type AuditStore interface {
	Create(ctx context.Context, a models.FieldAudit) (models.FieldAudit, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.FieldAudit, error)
	List(ctx context.Context, f AuditFilter) ([]models.FieldAudit, error)
	Count(ctx context.Context, f AuditFilter) (int64, error)
	CountByStatus(ctx context.Context, s Scope) (map[string]int64, error)
	Update(ctx context.Context, a models.FieldAudit) error
	// Delete removes the audit and every patient under it.
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByDistrict(ctx context.Context, districtID primitive.ObjectID) (int64, error)
	Hospitals(ctx context.Context, s Scope) ([]Hospital, error)
	DistrictTotals(ctx context.Context, s Scope) ([]DistrictTotals, error)
	MonthlyCounts(ctx context.Context, s Scope, since time.Time) ([]MonthCount, error)
}

// PatientStore persists patients.
type PatientStore interface {
	Create(ctx context.Context, p models.Patient) (models.Patient, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Patient, error)
	List(ctx context.Context, f PatientFilter) ([]models.Patient, error)
	Count(ctx context.Context, f PatientFilter) (int64, error)
	// CountByAudit returns patient counts keyed by audit id.
	CountByAudit(ctx context.Context, f PatientFilter) (map[primitive.ObjectID]int64, error)
	Update(ctx context.Context, p models.Patient) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ActionLogStore is append-only.
type ActionLogStore interface {
	Append(ctx context.Context, l models.ActionLog) (models.ActionLog, error)
	List(ctx context.Context, f ActionLogFilter) ([]models.ActionLog, error)
	Count(ctx context.Context, f ActionLogFilter) (int64, error)
}
