package memory

import (
	"context"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type actionLogStore struct{ r *Repo }

func (s actionLogStore) Append(_ context.Context, l models.ActionLog) (models.ActionLog, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if _, ok := s.r.t.coordinators[l.CoordinatorID]; !ok {
		return models.ActionLog{}, apperr.ErrNotFound
	}
	if _, ok := s.r.t.districts[l.DistrictID]; !ok {
		return models.ActionLog{}, apperr.ErrNotFound
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
	s.r.t.logs[l.ID] = l
	return l, nil
}

func (s actionLogStore) filtered(f repo.ActionLogFilter) []models.ActionLog {
	all := sortedValues(s.r.t.logs, func(a, b models.ActionLog) bool {
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID.Hex() > b.ID.Hex()
	})
	var out []models.ActionLog
	for _, l := range all {
		if !f.Scope.Allows(l.DistrictID) {
			continue
		}
		if f.CoordinatorID != nil && l.CoordinatorID != *f.CoordinatorID {
			continue
		}
		if f.PatientID != nil && (l.PatientID == nil || *l.PatientID != *f.PatientID) {
			continue
		}
		if f.ActionType != "" && l.ActionType != f.ActionType {
			continue
		}
		if f.Since != nil && l.Timestamp.Before(*f.Since) {
			continue
		}
		if f.Until != nil && l.Timestamp.After(*f.Until) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (s actionLogStore) List(_ context.Context, f repo.ActionLogFilter) ([]models.ActionLog, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return page(s.filtered(f), f.Offset, f.Limit), nil
}

func (s actionLogStore) Count(_ context.Context, f repo.ActionLogFilter) (int64, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return int64(len(s.filtered(f))), nil
}
