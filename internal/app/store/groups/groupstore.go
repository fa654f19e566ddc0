// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var _ repo.GroupStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// Ensure returns the named group, inserting it with perms when missing.
// Concurrent callers converge on the same document through the upsert.
func (s *Store) Ensure(ctx context.Context, name string, perms []string) (models.Group, error) {
	var g models.Group
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"name": name},
		bson.M{"$setOnInsert": bson.M{
			"_id":         primitive.NewObjectID(),
			"permissions": perms,
			"created_at":  time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&g)
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) GetByName(ctx context.Context, name string) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"name": name}).Decode(&g); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Group{}, apperr.ErrNotFound
		}
		return models.Group{}, err
	}
	return g, nil
}
