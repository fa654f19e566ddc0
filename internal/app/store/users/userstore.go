package userstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/queries/scopequery"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/normalize"
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

var _ repo.UserStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// dupErr maps a duplicate-key error to the sentinel for the index that fired.
func dupErr(err error) error {
	if strings.Contains(err.Error(), "login_name") {
		return apperr.ErrDuplicateIdentity
	}
	return apperr.ErrDuplicateEmail
}

// Create inserts a login identity. Email, when present, is stored in its
// normalized form so the unique index compares case-insensitively.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.LoginNameCI = text.Fold(u.LoginName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normEmail(u.Email)
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, dupErr(err)
		}
		return models.User{}, err
	}
	return u, nil
}

func normEmail(e *string) *string {
	if e == nil {
		return nil
	}
	v := normalize.Email(*e)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByLoginName(ctx context.Context, loginName string) (models.User, error) {
	return s.findOne(ctx, bson.M{"login_name_ci": text.Fold(strings.TrimSpace(loginName))})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	e := normalize.Email(email)
	if e == "" {
		return models.User{}, apperr.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"email": e})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, apperr.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) exists(ctx context.Context, filter bson.M) (bool, error) {
	err := s.c.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) LoginNameExists(ctx context.Context, loginName string) (bool, error) {
	return s.exists(ctx, bson.M{"login_name_ci": text.Fold(loginName)})
}

// EmailExists checks whether email is taken, optionally ignoring one user.
func (s *Store) EmailExists(ctx context.Context, email string, excludeID *primitive.ObjectID) (bool, error) {
	e := normalize.Email(email)
	if e == "" {
		return false, nil
	}
	filter := bson.M{"email": e}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	return s.exists(ctx, filter)
}

func (s *Store) List(ctx context.Context, f repo.UserFilter) ([]models.User, error) {
	filter := bson.M{}
	scopequery.AnyPrefix(filter, f.Search, "login_name_ci", "full_name_ci")
	opts := options.Find().SetSort(bson.D{{Key: "login_name_ci", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes profile and flag fields. Password hash and login time are
// changed only through their dedicated methods.
func (s *Store) Update(ctx context.Context, u models.User) error {
	set := bson.M{
		"login_name":    u.LoginName,
		"login_name_ci": text.Fold(u.LoginName),
		"full_name":     u.FullName,
		"full_name_ci":  text.Fold(u.FullName),
		"is_superuser":  u.IsSuperuser,
		"is_staff":      u.IsStaff,
		"is_active":     u.IsActive,
		"groups":        u.Groups,
		"updated_at":    time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if e := normEmail(u.Email); e != nil {
		set["email"] = *e
	} else {
		update["$unset"] = bson.M{"email": ""}
	}
	res, err := s.c.UpdateByID(ctx, u.ID, update)
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

func (s *Store) AddToGroup(ctx context.Context, id primitive.ObjectID, group string) error {
	return s.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"groups": group}})
}

func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()}})
}

func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"last_login_at": at.UTC()}})
}

func (s *Store) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
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

func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
