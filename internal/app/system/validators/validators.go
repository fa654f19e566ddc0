// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the fieldaudit collections and attaches JSON-Schema
// validators. Servers without collMod support (some DocumentDB versions)
// keep the collections and skip the validators.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("groups", groupsSchema())
	ensure("districts", districtsSchema())
	ensure("coordinators", coordinatorsSchema())
	ensure("field_audits", fieldAuditsSchema())
	ensure("patients", patientsSchema())
	ensure("action_logs", actionLogsSchema())

	ensure("security_events", nil)
	ensure("oauth_states", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enum(values ...string) bson.M {
	a := bson.A{}
	for _, v := range values {
		a = append(a, v)
	}
	return bson.M{"enum": a}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"login_name", "login_name_ci", "full_name", "is_superuser", "is_staff", "is_active"},
			"properties": bson.M{
				"login_name":    nonBlank,
				"login_name_ci": nonBlank,
				"full_name":     bson.M{"bsonType": "string"},
				"email":         bson.M{"bsonType": bson.A{"string", "null"}},
				"password_hash": bson.M{"bsonType": "string"},
				"is_superuser":  bson.M{"bsonType": "bool"},
				"is_staff":      bson.M{"bsonType": "bool"},
				"is_active":     bson.M{"bsonType": "bool"},
				"groups":        bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "permissions"},
			"properties": bson.M{
				"name":        nonBlank,
				"permissions": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			},
		},
	}
}

func districtsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci"},
			"properties": bson.M{
				"name":    nonBlank,
				"name_ci": nonBlank,
			},
		},
	}
}

func coordinatorsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "name", "employee_id", "email", "is_active"},
			"properties": bson.M{
				"user_id":        bson.M{"bsonType": "objectId"},
				"name":           nonBlank,
				"employee_id":    nonBlank,
				"district_id":    bson.M{"bsonType": bson.A{"objectId", "null"}},
				"contact_number": bson.M{"bsonType": "string"},
				"email":          nonBlank,
				"is_active":      bson.M{"bsonType": "bool"},
				"date_joined":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func fieldAuditsSchema() bson.M {
	score := bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}
	count := bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"district_id", "hospital_id", "ehcp_name", "ehcp_type", "visit_date", "status"},
			"properties": bson.M{
				"district_id":    bson.M{"bsonType": "objectId"},
				"hospital_id":    nonBlank,
				"ehcp_name":      nonBlank,
				"ehcp_type":      enum(models.EHCPPublic, models.EHCPPrivate),
				"visit_date":     bson.M{"bsonType": "date"},
				"status":         enum(models.AuditPending, models.AuditInProgress, models.AuditCompleted),
				"ekgp_patients":  count,
				"pmjay_patients": count,
				"beneficiaries":  count,
				"photos":         bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"scores": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"infrastructure": score,
						"service":        score,
						"documentation":  score,
						"feedback":       score,
					},
				},
			},
		},
	}
}

func patientsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"audit_id", "case_id", "patient_name", "admission_date", "deviations"},
			"properties": bson.M{
				"audit_id":         bson.M{"bsonType": "objectId"},
				"case_id":          nonBlank,
				"patient_name":     nonBlank,
				"admission_date":   bson.M{"bsonType": "date"},
				"discharge_date":   bson.M{"bsonType": bson.A{"date", "null"}},
				"money_collection": bson.M{"bsonType": "bool"},
				"missing_records":  bson.M{"bsonType": "bool"},
				"total_oope_cents": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"deviations": bson.M{
					"bsonType": "array",
					"items": enum(models.DeviationMoneyCollection, models.DeviationPackageUpcoding,
						models.DeviationIncompleteRecords),
				},
			},
		},
	}
}

func actionLogsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"coordinator_id", "action_type", "district_id", "timestamp", "status"},
			"properties": bson.M{
				"coordinator_id": bson.M{"bsonType": "objectId"},
				"action_type": enum(models.ActionAudit, models.ActionPatientUpdate, models.ActionRecordCheck,
					models.ActionMoneyVerify, models.ActionOther),
				"patient_id":  bson.M{"bsonType": bson.A{"objectId", "null"}},
				"district_id": bson.M{"bsonType": "objectId"},
				"timestamp":   bson.M{"bsonType": "date"},
				"status":      nonBlank,
			},
		},
	}
}
