package memory

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type districtStore struct{ r *Repo }

func (s districtStore) nameTaken(nameCI string, except primitive.ObjectID) bool {
	for id, d := range s.r.t.districts {
		if d.NameCI == nameCI && id != except {
			return true
		}
	}
	return false
}

func (s districtStore) Create(_ context.Context, d models.District) (models.District, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	d.Name = strings.TrimSpace(d.Name)
	d.NameCI = text.Fold(d.Name)
	if s.nameTaken(d.NameCI, primitive.NilObjectID) {
		return models.District{}, apperr.ErrDuplicateDistrict
	}
	now := time.Now().UTC()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.CreatedAt, d.UpdatedAt = now, now
	s.r.t.districts[d.ID] = d
	return d, nil
}

func (s districtStore) GetByID(_ context.Context, id primitive.ObjectID) (models.District, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	d, ok := s.r.t.districts[id]
	if !ok {
		return models.District{}, apperr.ErrNotFound
	}
	return d, nil
}

func (s districtStore) GetByName(_ context.Context, name string) (models.District, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	ci := text.Fold(strings.TrimSpace(name))
	for _, d := range s.r.t.districts {
		if d.NameCI == ci {
			return d, nil
		}
	}
	return models.District{}, apperr.ErrNotFound
}

func (s districtStore) List(_ context.Context, f repo.DistrictFilter) ([]models.District, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	all := sortedValues(s.r.t.districts, func(a, b models.District) bool { return a.NameCI < b.NameCI })
	out := make([]models.District, 0, len(all))
	for _, d := range all {
		if f.Scope.Allows(d.ID) && hasPrefixFold(d.Name, f.Search) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s districtStore) Rename(_ context.Context, id primitive.ObjectID, name string) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	d, ok := s.r.t.districts[id]
	if !ok {
		return apperr.ErrNotFound
	}
	name = strings.TrimSpace(name)
	ci := text.Fold(name)
	if s.nameTaken(ci, id) {
		return apperr.ErrDuplicateDistrict
	}
	d.Name, d.NameCI, d.UpdatedAt = name, ci, time.Now().UTC()
	s.r.t.districts[id] = d
	return nil
}

func (s districtStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if _, ok := s.r.t.districts[id]; !ok {
		return apperr.ErrNotFound
	}
	for _, a := range s.r.t.audits {
		if a.DistrictID == id {
			return apperr.ErrProtected
		}
	}
	for cid, c := range s.r.t.coordinators {
		if c.DistrictID != nil && *c.DistrictID == id {
			c.DistrictID = nil
			s.r.t.coordinators[cid] = c
		}
	}
	delete(s.r.t.districts, id)
	return nil
}

func (s districtStore) Count(_ context.Context) (int64, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return int64(len(s.r.t.districts)), nil
}
