package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/system/validators"
	"github.com/dalemusser/fieldaudit/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("list collections: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "groups", "districts", "coordinators", "field_audits", "patients", "action_logs", "security_events", "oauth_states"} {
		if !have[want] {
			t.Errorf("collection %q not created", want)
		}
	}
}

func TestValidators(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	now := time.Now().UTC()

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"user ok", "users", bson.M{"login_name": "asha", "login_name_ci": "asha", "full_name": "Asha",
			"is_superuser": false, "is_staff": true, "is_active": true}, false},
		{"user missing flags", "users", bson.M{"login_name": "ravi", "login_name_ci": "ravi", "full_name": "Ravi"}, true},
		{"district blank name", "districts", bson.M{"name": "   ", "name_ci": "   "}, true},
		{"audit bad status", "field_audits", bson.M{"district_id": primitive.NewObjectID(), "hospital_id": "H-1",
			"ehcp_name": "City", "ehcp_type": "Public", "visit_date": now, "status": "Archived"}, true},
		{"audit negative score", "field_audits", bson.M{"district_id": primitive.NewObjectID(), "hospital_id": "H-1",
			"ehcp_name": "City", "ehcp_type": "Public", "visit_date": now, "status": "Pending",
			"scores": bson.M{"infrastructure": -1}}, true},
		{"audit ok", "field_audits", bson.M{"district_id": primitive.NewObjectID(), "hospital_id": "H-1",
			"ehcp_name": "City", "ehcp_type": "Private", "visit_date": now, "status": "Completed",
			"beneficiaries": 3}, false},
		{"patient unknown deviation", "patients", bson.M{"audit_id": primitive.NewObjectID(), "case_id": "C1",
			"patient_name": "P", "admission_date": now, "deviations": bson.A{"bribery"}}, true},
		{"patient ok", "patients", bson.M{"audit_id": primitive.NewObjectID(), "case_id": "C1",
			"patient_name": "P", "admission_date": now, "deviations": bson.A{"money_collection"}, "total_oope_cents": int64(1500)}, false},
		{"action log bad type", "action_logs", bson.M{"coordinator_id": primitive.NewObjectID(), "action_type": "PARTY",
			"district_id": primitive.NewObjectID(), "timestamp": now, "status": "completed"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.Collection(tc.coll).InsertOne(ctx, tc.doc)
			if tc.wantErr && err == nil {
				t.Error("insert accepted, want validation failure")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("insert rejected: %v", err)
			}
		})
	}
}
