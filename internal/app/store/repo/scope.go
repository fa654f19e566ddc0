// internal/app/store/repo/scope.go
package repo

import "go.mongodb.org/mongo-driver/bson/primitive"

// Scope is the district predicate every scoped query carries.
//
//   - All: no restriction (superusers).
//   - DistrictID set: rows of that district only.
//   - Neither: matches nothing.
//
// The zero value matches nothing.
type Scope struct {
	All        bool
	DistrictID *primitive.ObjectID
}

// AllRows is the unrestricted scope.
func AllRows() Scope { return Scope{All: true} }

// NoRows is the empty scope.
func NoRows() Scope { return Scope{} }

// InDistrict restricts to a single district.
func InDistrict(id primitive.ObjectID) Scope { return Scope{DistrictID: &id} }

// Empty reports whether the scope can match no rows at all.
func (s Scope) Empty() bool { return !s.All && s.DistrictID == nil }

// Allows reports whether a row in districtID is visible.
func (s Scope) Allows(districtID primitive.ObjectID) bool {
	if s.All {
		return true
	}
	return s.DistrictID != nil && *s.DistrictID == districtID
}
