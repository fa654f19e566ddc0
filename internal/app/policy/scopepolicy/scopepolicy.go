// Package scopepolicy decides which districts a caller may see.
//
// Rules:
//   - Superusers see every row.
//   - Anyone else is resolved to their Coordinator record. No record, an
//     inactive record, or a record without a district sees nothing.
//   - Otherwise the caller sees the coordinator's district only.
package scopepolicy

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/authz"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller is the identity a scope is computed for.
type Caller struct {
	UserID      primitive.ObjectID
	IsSuperuser bool
}

// FromRequest builds the Caller for the signed-in user. ok is false when
// nobody is signed in.
func FromRequest(r *http.Request) (Caller, bool) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return Caller{}, false
	}
	return Caller{UserID: uid, IsSuperuser: role == models.RoleSuperuser}, true
}

// Resolution is a computed scope plus the coordinator it came from, if any.
type Resolution struct {
	Scope       repo.Scope
	Coordinator *models.Coordinator
}

// Resolve computes the caller's scope. Lookup failures other than a missing
// coordinator are returned; the scope is never widened on error.
func Resolve(ctx context.Context, c Caller, coordinators repo.CoordinatorStore) (Resolution, error) {
	if c.IsSuperuser {
		return Resolution{Scope: repo.AllRows()}, nil
	}
	if c.UserID.IsZero() {
		return Resolution{Scope: repo.NoRows()}, nil
	}

	coord, err := coordinators.GetByUserID(ctx, c.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Resolution{Scope: repo.NoRows()}, nil
	}
	if err != nil {
		return Resolution{Scope: repo.NoRows()}, err
	}

	res := Resolution{Scope: repo.NoRows(), Coordinator: &coord}
	if coord.IsActive && coord.DistrictID != nil {
		res.Scope = repo.InDistrict(*coord.DistrictID)
	}
	return res, nil
}

// RequireDistrict returns ErrForbidden unless s may write rows of districtID.
func RequireDistrict(s repo.Scope, districtID primitive.ObjectID) error {
	if !s.Allows(districtID) {
		return apperr.ErrForbidden
	}
	return nil
}

type ctxKey struct{}

// WithResolution returns ctx carrying res.
func WithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, ctxKey{}, res)
}

// FromContext returns the Resolution stored by WithResolution. Without one
// the caller sees nothing.
func FromContext(ctx context.Context) Resolution {
	if res, ok := ctx.Value(ctxKey{}).(Resolution); ok {
		return res
	}
	return Resolution{Scope: repo.NoRows()}
}
