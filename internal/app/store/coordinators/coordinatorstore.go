// internal/app/store/coordinators/coordinatorstore.go
package coordinatorstore

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
	c *mongo.Collection
}

var _ repo.CoordinatorStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("coordinators")}
}

// dupErr tells the two unique indexes apart by name.
func dupErr(err error) error {
	if strings.Contains(err.Error(), "employee_id") {
		return apperr.ErrDuplicateEmployeeID
	}
	return apperr.ErrDuplicateIdentity
}

func (s *Store) Create(ctx context.Context, c models.Coordinator) (models.Coordinator, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.NameCI = text.Fold(c.Name)
	if c.DateJoined.IsZero() {
		c.DateJoined = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Coordinator{}, dupErr(err)
		}
		return models.Coordinator{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Coordinator, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Coordinator, error) {
	return s.findOne(ctx, bson.M{"user_id": userID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Coordinator, error) {
	var c models.Coordinator
	if err := s.c.FindOne(ctx, filter).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Coordinator{}, apperr.ErrNotFound
		}
		return models.Coordinator{}, err
	}
	return c, nil
}

func (s *Store) List(ctx context.Context, f repo.CoordinatorFilter) ([]models.Coordinator, error) {
	filter := bson.M{}
	if f.DistrictID != nil {
		filter["district_id"] = *f.DistrictID
	}
	if f.ActiveOnly {
		filter["is_active"] = true
	}
	scopequery.Prefix(filter, "name_ci", f.Search)

	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Coordinator
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the profile fields. The linked user and join date never change.
func (s *Store) Update(ctx context.Context, c models.Coordinator) error {
	set := bson.M{
		"name":           c.Name,
		"name_ci":        text.Fold(c.Name),
		"employee_id":    c.EmployeeID,
		"contact_number": c.ContactNumber,
		"email":          c.Email,
		"is_active":      c.IsActive,
	}
	update := bson.M{"$set": set}
	if c.DistrictID != nil {
		set["district_id"] = *c.DistrictID
	} else {
		update["$unset"] = bson.M{"district_id": ""}
	}
	res, err := s.c.UpdateByID(ctx, c.ID, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return dupErr(err)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
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
