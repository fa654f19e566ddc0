// Package scopequery translates repository filters into Mongo filter
// fragments shared by the entity stores.
package scopequery

import (
	"regexp"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
)

// Apply adds the district restriction for s to filter under field.
// It reports false when the scope matches nothing, in which case the caller
// should skip the query.
func Apply(filter bson.M, s repo.Scope, field string) bool {
	switch {
	case s.All:
		return true
	case s.DistrictID != nil:
		filter[field] = *s.DistrictID
		return true
	default:
		return false
	}
}

// Prefix adds a case- and diacritic-insensitive prefix match on a folded
// *_ci field. An empty search leaves filter unchanged.
func Prefix(filter bson.M, field, search string) {
	if q := text.Fold(search); q != "" {
		filter[field] = bson.M{"$regex": "^" + regexp.QuoteMeta(q)}
	}
}

// AnyPrefix is Prefix across several fields joined with $or.
func AnyPrefix(filter bson.M, search string, fields ...string) {
	q := text.Fold(search)
	if q == "" {
		return
	}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: bson.M{"$regex": "^" + regexp.QuoteMeta(q)}})
	}
	filter["$or"] = or
}
