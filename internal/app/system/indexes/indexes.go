// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"districts", ensureDistricts},
		{"coordinators", ensureCoordinators},
		{"users", ensureUsers},
		{"groups", ensureGroups},
		{"field_audits", ensureFieldAudits},
		{"patients", ensurePatients},
		{"action_logs", ensureActionLogs},
	}
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                       */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet creates each desired index. An index with the same keys but
// a different name or uniqueness is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listIndexes(ctx, coll)

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolVal(unique)))

		if ex, ok := existing[sig]; ok {
			if boolVal(unique) == boolVal(ex.Unique) && (name == "" || ex.Name == name) {
				log.Debug("reusing existing index")
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && boolVal(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			log.Warn("index ensure failed", zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureDistricts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("districts"), []mongo.IndexModel{
		// Names are unique after case/diacritic folding.
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_districts_nameci"),
		},
	})
}

func ensureCoordinators(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("coordinators"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "employee_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_coordinators_employee_id"),
		},
		// One coordinator per login identity.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_coordinators_user_id"),
		},
		{
			Keys:    bson.D{{Key: "district_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_coordinators_district_nameci"),
		},
	})
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "login_name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_login_name_ci"),
		},
		// Email is optional; uniqueness applies only where it is present.
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email").
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_fullnameci"),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_groups_name"),
		},
	})
}

func ensureFieldAudits(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("field_audits"), []mongo.IndexModel{
		// Default list order within a district.
		{
			Keys: bson.D{
				{Key: "district_id", Value: 1},
				{Key: "visit_date", Value: -1},
				{Key: "ehcp_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_audits_district_visit"),
		},
		{
			Keys:    bson.D{{Key: "hospital_id", Value: 1}, {Key: "visit_date", Value: -1}},
			Options: options.Index().SetName("idx_audits_hospital_visit"),
		},
		// Monthly trend reads a created_at range.
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_audits_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_audits_status"),
		},
	})
}

func ensurePatients(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("patients"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "case_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_patients_case_id"),
		},
		{
			Keys:    bson.D{{Key: "audit_id", Value: 1}, {Key: "admission_date", Value: -1}},
			Options: options.Index().SetName("idx_patients_audit_admission"),
		},
		{
			Keys:    bson.D{{Key: "money_collection", Value: 1}, {Key: "missing_records", Value: 1}},
			Options: options.Index().SetName("idx_patients_compliance"),
		},
	})
}

func ensureActionLogs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("action_logs"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "district_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_actionlogs_district_ts"),
		},
		{
			Keys:    bson.D{{Key: "coordinator_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_actionlogs_coordinator_ts"),
		},
		{
			Keys:    bson.D{{Key: "patient_id", Value: 1}},
			Options: options.Index().SetName("idx_actionlogs_patient"),
		},
	})
}
