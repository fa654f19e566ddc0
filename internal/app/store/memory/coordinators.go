package memory

import (
	"context"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type coordinatorStore struct{ r *Repo }

func (s coordinatorStore) conflict(c models.Coordinator) error {
	for id, other := range s.r.t.coordinators {
		if id == c.ID {
			continue
		}
		if other.EmployeeID == c.EmployeeID {
			return apperr.ErrDuplicateEmployeeID
		}
		if other.UserID == c.UserID {
			return apperr.ErrDuplicateIdentity
		}
	}
	return nil
}

func (s coordinatorStore) Create(_ context.Context, c models.Coordinator) (models.Coordinator, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if err := s.conflict(c); err != nil {
		return models.Coordinator{}, err
	}
	c.NameCI = text.Fold(c.Name)
	if c.DateJoined.IsZero() {
		c.DateJoined = time.Now().UTC()
	}
	s.r.t.coordinators[c.ID] = c
	return c, nil
}

func (s coordinatorStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Coordinator, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	c, ok := s.r.t.coordinators[id]
	if !ok {
		return models.Coordinator{}, apperr.ErrNotFound
	}
	return c, nil
}

func (s coordinatorStore) GetByUserID(_ context.Context, userID primitive.ObjectID) (models.Coordinator, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for _, c := range s.r.t.coordinators {
		if c.UserID == userID {
			return c, nil
		}
	}
	return models.Coordinator{}, apperr.ErrNotFound
}

func (s coordinatorStore) List(_ context.Context, f repo.CoordinatorFilter) ([]models.Coordinator, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	all := sortedValues(s.r.t.coordinators, func(a, b models.Coordinator) bool {
		if a.NameCI != b.NameCI {
			return a.NameCI < b.NameCI
		}
		return a.ID.Hex() < b.ID.Hex()
	})
	out := make([]models.Coordinator, 0, len(all))
	for _, c := range all {
		if f.DistrictID != nil && (c.DistrictID == nil || *c.DistrictID != *f.DistrictID) {
			continue
		}
		if f.ActiveOnly && !c.IsActive {
			continue
		}
		if !hasPrefixFold(c.Name, f.Search) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s coordinatorStore) Update(_ context.Context, c models.Coordinator) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	prev, ok := s.r.t.coordinators[c.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	c.UserID = prev.UserID
	c.DateJoined = prev.DateJoined
	if err := s.conflict(c); err != nil {
		return err
	}
	c.NameCI = text.Fold(c.Name)
	s.r.t.coordinators[c.ID] = c
	return nil
}

func (s coordinatorStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if _, ok := s.r.t.coordinators[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.r.t.coordinators, id)
	return nil
}
