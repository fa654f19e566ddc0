// internal/app/store/actionlogs/actionlogstore.go
package actionlogstore

import (
	"context"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/queries/scopequery"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is append-only: there is no update or delete.
type Store struct {
	c            *mongo.Collection
	coordinators *mongo.Collection
	districts    *mongo.Collection
}

var _ repo.ActionLogStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		c:            db.Collection("action_logs"),
		coordinators: db.Collection("coordinators"),
		districts:    db.Collection("districts"),
	}
}

func exists(ctx context.Context, c *mongo.Collection, id primitive.ObjectID) error {
	err := c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return apperr.ErrNotFound
	}
	return err
}

func (s *Store) Append(ctx context.Context, l models.ActionLog) (models.ActionLog, error) {
	if err := exists(ctx, s.coordinators, l.CoordinatorID); err != nil {
		return models.ActionLog{}, err
	}
	if err := exists(ctx, s.districts, l.DistrictID); err != nil {
		return models.ActionLog{}, err
	}
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	if l.Status == "" {
		l.Status = models.ActionStatusCompleted
	}
	if _, err := s.c.InsertOne(ctx, l); err != nil {
		return models.ActionLog{}, err
	}
	return l, nil
}

func filter(f repo.ActionLogFilter) (bson.M, bool) {
	m := bson.M{}
	if !scopequery.Apply(m, f.Scope, "district_id") {
		return nil, false
	}
	if f.CoordinatorID != nil {
		m["coordinator_id"] = *f.CoordinatorID
	}
	if f.PatientID != nil {
		m["patient_id"] = *f.PatientID
	}
	if f.ActionType != "" {
		m["action_type"] = f.ActionType
	}
	if f.Since != nil || f.Until != nil {
		ts := bson.M{}
		if f.Since != nil {
			ts["$gte"] = *f.Since
		}
		if f.Until != nil {
			ts["$lte"] = *f.Until
		}
		m["timestamp"] = ts
	}
	return m, true
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, f repo.ActionLogFilter) ([]models.ActionLog, error) {
	m, ok := filter(f)
	if !ok {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if f.Offset > 0 {
		opts.SetSkip(f.Offset)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.ActionLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, f repo.ActionLogFilter) (int64, error) {
	m, ok := filter(f)
	if !ok {
		return 0, nil
	}
	return s.c.CountDocuments(ctx, m)
}
