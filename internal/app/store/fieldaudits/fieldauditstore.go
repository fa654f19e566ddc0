// internal/app/store/fieldaudits/fieldauditstore.go
package fieldauditstore

import (
	"context"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/queries/scopequery"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c         *mongo.Collection
	districts *mongo.Collection
	patients  *mongo.Collection
}

var _ repo.AuditStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		c:         db.Collection("field_audits"),
		districts: db.Collection("districts"),
		patients:  db.Collection("patients"),
	}
}

// touchDistrict bumps the district's updated_at and fails with ErrNotFound
// when it is gone. Inside a transaction the write conflicts with a
// concurrent district Delete, so only one of the two commits.
func (s *Store) touchDistrict(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.districts.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) Create(ctx context.Context, a models.FieldAudit) (models.FieldAudit, error) {
	if err := s.touchDistrict(ctx, a.DistrictID); err != nil {
		return models.FieldAudit{}, err
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	a.EHCPNameCI = text.Fold(a.EHCPName)
	a.Recompute()
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.FieldAudit{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.FieldAudit, error) {
	var a models.FieldAudit
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.FieldAudit{}, apperr.ErrNotFound
		}
		return models.FieldAudit{}, err
	}
	return a, nil
}

// filter builds the Mongo filter for f. ok is false when the scope is empty.
func filter(f repo.AuditFilter) (bson.M, bool) {
	m := bson.M{}
	if !scopequery.Apply(m, f.Scope, "district_id") {
		return nil, false
	}
	if f.HospitalID != "" {
		m["hospital_id"] = f.HospitalID
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	if f.CreatedSince != nil {
		m["created_at"] = bson.M{"$gte": *f.CreatedSince}
	}
	scopequery.Prefix(m, "ehcp_name_ci", f.Search)
	return m, true
}

// List returns audits newest visit first.
func (s *Store) List(ctx context.Context, f repo.AuditFilter) ([]models.FieldAudit, error) {
	m, ok := filter(f)
	if !ok {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "visit_date", Value: -1},
		{Key: "ehcp_name_ci", Value: 1},
		{Key: "_id", Value: 1},
	})
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
	var out []models.FieldAudit
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, f repo.AuditFilter) (int64, error) {
	m, ok := filter(f)
	if !ok {
		return 0, nil
	}
	return s.c.CountDocuments(ctx, m)
}

func (s *Store) CountByStatus(ctx context.Context, sc repo.Scope) (map[string]int64, error) {
	out := map[string]int64{}
	match := bson.M{}
	if !scopequery.Apply(match, sc, "district_id") {
		return out, nil
	}
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.Count
	}
	return out, cur.Err()
}

// Update replaces the audit document, keeping its creation time.
func (s *Store) Update(ctx context.Context, a models.FieldAudit) error {
	prev, err := s.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if err := s.touchDistrict(ctx, a.DistrictID); err != nil {
		return err
	}
	a.CreatedAt = prev.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	a.EHCPNameCI = text.Fold(a.EHCPName)
	a.Recompute()
	_, err = s.c.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	return err
}

// Delete removes the audit and its patients. Run it inside a transaction.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.patients.DeleteMany(ctx, bson.M{"audit_id": id}); err != nil {
		return err
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) CountByDistrict(ctx context.Context, districtID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"district_id": districtID})
}
