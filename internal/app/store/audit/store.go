// internal/app/store/audit/store.go
//
// Package audit stores security events: sign-ins, credential resets and
// administrative changes. These are distinct from coordinator ActionLogs,
// which record field work.
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedUserDisabled  = "login_failed_user_disabled"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventLogout                   = "logout"
	EventCredentialReset          = "credential_reset"
	EventPasswordChanged          = "password_changed"
)

// Admin event types
const (
	EventCoordinatorProvisioned = "coordinator_provisioned"
	EventCoordinatorUpdated     = "coordinator_updated"
	EventCoordinatorDeleted     = "coordinator_deleted"
	EventDistrictCreated        = "district_created"
	EventDistrictRenamed        = "district_renamed"
	EventDistrictDeleted        = "district_deleted"
	EventDistrictsImported      = "districts_imported"
	EventUserCreated            = "user_created"
	EventUserUpdated            = "user_updated"
	EventUserDeleted            = "user_deleted"
	EventAuditDeleted           = "audit_deleted"
	EventPatientDeleted         = "patient_deleted"
	EventBulkAction             = "bulk_action"
	EventReportExported         = "report_exported"
)

// Event is one security event.
type Event struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Timestamp  time.Time           `bson:"timestamp" json:"timestamp"`
	DistrictID *primitive.ObjectID `bson:"district_id,omitempty" json:"district_id,omitempty"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`   // affected identity
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"` // who acted

	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Client    string `bson:"client,omitempty" json:"client,omitempty"` // parsed from UserAgent, e.g. "Chrome 120 on Windows 10"

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows Query and CountByFilter.
type QueryFilter struct {
	DistrictID *primitive.ObjectID
	UserID     *primitive.ObjectID
	Category   string
	EventType  string
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int64
	Offset     int64
}

// Store manages security event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("security_events")}
}

// EnsureIndexes creates the indexes Query relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "district_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{
			{Key: "category", Value: 1},
			{Key: "event_type", Value: 1},
			{Key: "timestamp", Value: -1},
		}},
	})
	return err
}

// Log records an event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func buildQuery(f QueryFilter) bson.M {
	query := bson.M{}
	if f.DistrictID != nil {
		query["district_id"] = *f.DistrictID
	}
	if f.UserID != nil {
		query["user_id"] = *f.UserID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		ts := bson.M{}
		if f.StartTime != nil {
			ts["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			ts["$lte"] = *f.EndTime
		}
		query["timestamp"] = ts
	}
	return query
}

// Query returns matching events newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter counts events matching filter, ignoring Limit and Offset.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(filter))
}

// FailedLogins returns failed sign-ins since the given time.
func (s *Store) FailedLogins(ctx context.Context, since time.Time, limit int64) ([]Event, error) {
	query := bson.M{
		"category":  CategoryAuth,
		"success":   false,
		"timestamp": bson.M{"$gte": since},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
