// internal/app/store/patients/patientstore.go
package patientstore

import (
	"context"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/queries/scopequery"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c      *mongo.Collection
	audits *mongo.Collection
}

var _ repo.PatientStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection("patients"),
		audits: db.Collection("field_audits"),
	}
}

// touchAudit bumps the audit's updated_at and fails with ErrNotFound when
// it is gone. Inside a transaction the write conflicts with a concurrent
// audit Delete.
func (s *Store) touchAudit(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.audits.UpdateOne(ctx,
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

func (s *Store) Create(ctx context.Context, p models.Patient) (models.Patient, error) {
	if err := s.touchAudit(ctx, p.AuditID); err != nil {
		return models.Patient{}, err
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.PatientNameCI = text.Fold(p.PatientName)
	p.Recompute()
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Patient{}, apperr.ErrDuplicateCaseID
		}
		return models.Patient{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Patient, error) {
	var p models.Patient
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Patient{}, apperr.ErrNotFound
		}
		return models.Patient{}, err
	}
	return p, nil
}

// scopedAuditIDs resolves the audits a patient query may touch. Patients
// carry no district of their own, so scope and hospital go through the
// parent audit. nil means unrestricted.
func (s *Store) scopedAuditIDs(ctx context.Context, f repo.PatientFilter) ([]primitive.ObjectID, bool, error) {
	if f.Scope.All && f.HospitalID == "" {
		return nil, true, nil
	}
	match := bson.M{}
	if !scopequery.Apply(match, f.Scope, "district_id") {
		return nil, false, nil
	}
	if f.HospitalID != "" {
		match["hospital_id"] = f.HospitalID
	}
	cur, err := s.audits.Find(ctx, match, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)
	ids := []primitive.ObjectID{}
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, false, err
		}
		ids = append(ids, row.ID)
	}
	return ids, true, cur.Err()
}

func (s *Store) filter(ctx context.Context, f repo.PatientFilter) (bson.M, bool, error) {
	scoped, ok, err := s.scopedAuditIDs(ctx, f)
	if err != nil || !ok {
		return nil, false, err
	}
	m := bson.M{}
	var and bson.A
	if scoped != nil {
		and = append(and, bson.M{"audit_id": bson.M{"$in": scoped}})
	}
	if f.AuditID != nil {
		and = append(and, bson.M{"audit_id": *f.AuditID})
	}
	if len(f.AuditIDs) > 0 {
		and = append(and, bson.M{"audit_id": bson.M{"$in": f.AuditIDs}})
	}
	if len(and) > 0 {
		m["$and"] = and
	}
	if len(f.IDs) > 0 {
		m["_id"] = bson.M{"$in": f.IDs}
	}
	if f.MoneyCollection != nil {
		m["money_collection"] = *f.MoneyCollection
	}
	if f.MissingRecords != nil {
		m["missing_records"] = *f.MissingRecords
	}
	if f.NonCompliant {
		m["$or"] = bson.A{
			bson.M{"money_collection": true},
			bson.M{"missing_records": true},
		}
	}
	scopequery.Prefix(m, "patient_name_ci", f.Search)
	return m, true, nil
}

// List returns patients most recently admitted first.
func (s *Store) List(ctx context.Context, f repo.PatientFilter) ([]models.Patient, error) {
	m, ok, err := s.filter(ctx, f)
	if err != nil || !ok {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "admission_date", Value: -1}, {Key: "_id", Value: 1}})
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
	var out []models.Patient
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, f repo.PatientFilter) (int64, error) {
	m, ok, err := s.filter(ctx, f)
	if err != nil || !ok {
		return 0, err
	}
	return s.c.CountDocuments(ctx, m)
}

// CountByAudit groups the patients matching f by their audit.
func (s *Store) CountByAudit(ctx context.Context, f repo.PatientFilter) (map[primitive.ObjectID]int64, error) {
	out := map[primitive.ObjectID]int64{}
	m, ok, err := s.filter(ctx, f)
	if err != nil || !ok {
		return out, err
	}
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": m},
		{"$group": bson.M{"_id": "$audit_id", "count": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			AuditID primitive.ObjectID `bson:"_id"`
			Count   int64              `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.AuditID] = row.Count
	}
	return out, cur.Err()
}

// Update replaces the patient document, keeping its creation time.
func (s *Store) Update(ctx context.Context, p models.Patient) error {
	prev, err := s.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := s.touchAudit(ctx, p.AuditID); err != nil {
		return err
	}
	p.CreatedAt = prev.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	p.PatientNameCI = text.Fold(p.PatientName)
	p.Recompute()
	if _, err := s.c.ReplaceOne(ctx, bson.M{"_id": p.ID}, p); err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.ErrDuplicateCaseID
		}
		return err
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
