// internal/app/store/districts/districtstore.go
package districtstore

import (
	"context"
	"strings"
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
	c            *mongo.Collection
	audits       *mongo.Collection
	coordinators *mongo.Collection
}

var _ repo.DistrictStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		c:            db.Collection("districts"),
		audits:       db.Collection("field_audits"),
		coordinators: db.Collection("coordinators"),
	}
}

func (s *Store) Create(ctx context.Context, d models.District) (models.District, error) {
	now := time.Now().UTC()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.Name = strings.TrimSpace(d.Name)
	d.NameCI = text.Fold(d.Name)
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.District{}, apperr.ErrDuplicateDistrict
		}
		return models.District{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.District, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByName looks a district up by its folded name.
func (s *Store) GetByName(ctx context.Context, name string) (models.District, error) {
	return s.findOne(ctx, bson.M{"name_ci": text.Fold(strings.TrimSpace(name))})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.District, error) {
	var d models.District
	if err := s.c.FindOne(ctx, filter).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.District{}, apperr.ErrNotFound
		}
		return models.District{}, err
	}
	return d, nil
}

// List returns districts visible in f.Scope ordered by name.
func (s *Store) List(ctx context.Context, f repo.DistrictFilter) ([]models.District, error) {
	filter := bson.M{}
	if !scopequery.Apply(filter, f.Scope, "_id") {
		return nil, nil
	}
	scopequery.Prefix(filter, "name_ci", f.Search)

	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.District
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	name = strings.TrimSpace(name)
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.ErrDuplicateDistrict
		}
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Delete removes a district nobody audits any more. Coordinators assigned
// to it are left without a district. Run it inside a transaction: the
// first write claims the district document, so an audit write racing the
// delete conflicts instead of landing on a removed district.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	n, err := s.audits.CountDocuments(ctx, bson.M{"district_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.ErrProtected
	}
	if _, err := s.coordinators.UpdateMany(ctx,
		bson.M{"district_id": id},
		bson.M{"$unset": bson.M{"district_id": ""}},
	); err != nil {
		return err
	}
	_, err = s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
