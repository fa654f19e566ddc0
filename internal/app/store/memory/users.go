package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userStore struct{ r *Repo }

func emailKey(e *string) string {
	if e == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*e))
}

func (s userStore) conflict(u models.User) error {
	key := emailKey(u.Email)
	for id, other := range s.r.t.users {
		if id == u.ID {
			continue
		}
		if other.LoginNameCI == u.LoginNameCI {
			return apperr.ErrDuplicateIdentity
		}
		if key != "" && emailKey(other.Email) == key {
			return apperr.ErrDuplicateEmail
		}
	}
	return nil
}

func (s userStore) Create(_ context.Context, u models.User) (models.User, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.LoginNameCI = text.Fold(u.LoginName)
	u.FullNameCI = text.Fold(u.FullName)
	if err := s.conflict(u); err != nil {
		return models.User{}, err
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Groups = slices.Clone(u.Groups)
	s.r.t.users[u.ID] = u
	return u, nil
}

func (s userStore) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	u, ok := s.r.t.users[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (s userStore) GetByLoginName(_ context.Context, loginName string) (models.User, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	ci := text.Fold(strings.TrimSpace(loginName))
	for _, u := range s.r.t.users {
		if u.LoginNameCI == ci {
			return u, nil
		}
	}
	return models.User{}, apperr.ErrNotFound
}

func (s userStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	key := emailKey(&email)
	for _, u := range s.r.t.users {
		if key != "" && emailKey(u.Email) == key {
			return u, nil
		}
	}
	return models.User{}, apperr.ErrNotFound
}

func (s userStore) LoginNameExists(_ context.Context, loginName string) (bool, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	ci := text.Fold(loginName)
	for _, u := range s.r.t.users {
		if u.LoginNameCI == ci {
			return true, nil
		}
	}
	return false, nil
}

func (s userStore) EmailExists(_ context.Context, email string, excludeID *primitive.ObjectID) (bool, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	key := emailKey(&email)
	if key == "" {
		return false, nil
	}
	for id, u := range s.r.t.users {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if emailKey(u.Email) == key {
			return true, nil
		}
	}
	return false, nil
}

func (s userStore) List(_ context.Context, f repo.UserFilter) ([]models.User, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	all := sortedValues(s.r.t.users, func(a, b models.User) bool { return a.LoginNameCI < b.LoginNameCI })
	out := make([]models.User, 0, len(all))
	for _, u := range all {
		if hasPrefixFold(u.LoginName, f.Search) || hasPrefixFold(u.FullName, f.Search) {
			out = append(out, u)
		}
	}
	return page(out, 0, f.Limit), nil
}

func (s userStore) Update(_ context.Context, u models.User) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	prev, ok := s.r.t.users[u.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	u.LoginNameCI = text.Fold(u.LoginName)
	u.FullNameCI = text.Fold(u.FullName)
	if err := s.conflict(u); err != nil {
		return err
	}
	u.PasswordHash = prev.PasswordHash
	u.CreatedAt = prev.CreatedAt
	u.LastLoginAt = prev.LastLoginAt
	u.UpdatedAt = time.Now().UTC()
	s.r.t.users[u.ID] = u
	return nil
}

func (s userStore) AddToGroup(_ context.Context, id primitive.ObjectID, group string) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	u, ok := s.r.t.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if !slices.Contains(u.Groups, group) {
		u.Groups = append(slices.Clone(u.Groups), group)
	}
	s.r.t.users[id] = u
	return nil
}

func (s userStore) SetPasswordHash(_ context.Context, id primitive.ObjectID, hash string) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	u, ok := s.r.t.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	s.r.t.users[id] = u
	return nil
}

func (s userStore) TouchLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	u, ok := s.r.t.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	at = at.UTC()
	u.LastLoginAt = &at
	s.r.t.users[id] = u
	return nil
}

func (s userStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if _, ok := s.r.t.users[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.r.t.users, id)
	return nil
}

func (s userStore) Count(_ context.Context) (int64, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return int64(len(s.r.t.users)), nil
}

type groupStore struct{ r *Repo }

func (s groupStore) Ensure(_ context.Context, name string, perms []string) (models.Group, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if g, ok := s.r.t.groups[name]; ok {
		return g, nil
	}
	g := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Permissions: slices.Clone(perms),
		CreatedAt:   time.Now().UTC(),
	}
	s.r.t.groups[name] = g
	return g, nil
}

func (s groupStore) GetByName(_ context.Context, name string) (models.Group, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	g, ok := s.r.t.groups[name]
	if !ok {
		return models.Group{}, apperr.ErrNotFound
	}
	return g, nil
}
