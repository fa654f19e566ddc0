package memory

import (
	"context"
	"slices"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type patientStore struct{ r *Repo }

func patientLess(a, b models.Patient) bool {
	if !a.AdmissionDate.Equal(b.AdmissionDate) {
		return a.AdmissionDate.After(b.AdmissionDate)
	}
	return a.ID.Hex() < b.ID.Hex()
}

func (s patientStore) match(p models.Patient, f repo.PatientFilter) bool {
	a, ok := s.r.t.audits[p.AuditID]
	if !ok || !f.Scope.Allows(a.DistrictID) {
		return false
	}
	if f.AuditID != nil && p.AuditID != *f.AuditID {
		return false
	}
	if len(f.AuditIDs) > 0 && !slices.Contains(f.AuditIDs, p.AuditID) {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, p.ID) {
		return false
	}
	if f.HospitalID != "" && a.HospitalID != f.HospitalID {
		return false
	}
	if f.MoneyCollection != nil && p.MoneyCollection != *f.MoneyCollection {
		return false
	}
	if f.MissingRecords != nil && p.MissingRecords != *f.MissingRecords {
		return false
	}
	if f.NonCompliant && p.Compliant() {
		return false
	}
	return hasPrefixFold(p.PatientName, f.Search)
}

func (s patientStore) filtered(f repo.PatientFilter) []models.Patient {
	var out []models.Patient
	for _, p := range sortedValues(s.r.t.patients, patientLess) {
		if s.match(p, f) {
			out = append(out, p)
		}
	}
	return out
}

func (s patientStore) caseTaken(caseID string, except primitive.ObjectID) bool {
	for id, p := range s.r.t.patients {
		if p.CaseID == caseID && id != except {
			return true
		}
	}
	return false
}

// touchAudit bumps the audit's UpdatedAt. Callers hold r.mu.
func (s patientStore) touchAudit(id primitive.ObjectID) bool {
	a, ok := s.r.t.audits[id]
	if !ok {
		return false
	}
	a.UpdatedAt = time.Now().UTC()
	s.r.t.audits[id] = a
	return true
}

func (s patientStore) Create(_ context.Context, p models.Patient) (models.Patient, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if !s.touchAudit(p.AuditID) {
		return models.Patient{}, apperr.ErrNotFound
	}
	if s.caseTaken(p.CaseID, primitive.NilObjectID) {
		return models.Patient{}, apperr.ErrDuplicateCaseID
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.PatientNameCI = text.Fold(p.PatientName)
	p.Recompute()
	s.r.t.patients[p.ID] = p
	return p, nil
}

func (s patientStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Patient, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	p, ok := s.r.t.patients[id]
	if !ok {
		return models.Patient{}, apperr.ErrNotFound
	}
	return p, nil
}

func (s patientStore) List(_ context.Context, f repo.PatientFilter) ([]models.Patient, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return page(s.filtered(f), f.Offset, f.Limit), nil
}

func (s patientStore) Count(_ context.Context, f repo.PatientFilter) (int64, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	f.Limit, f.Offset = 0, 0
	return int64(len(s.filtered(f))), nil
}

func (s patientStore) CountByAudit(_ context.Context, f repo.PatientFilter) (map[primitive.ObjectID]int64, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	f.Limit, f.Offset = 0, 0
	out := map[primitive.ObjectID]int64{}
	for _, p := range s.filtered(f) {
		out[p.AuditID]++
	}
	return out, nil
}

func (s patientStore) Update(_ context.Context, p models.Patient) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	prev, ok := s.r.t.patients[p.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	if !s.touchAudit(p.AuditID) {
		return apperr.ErrNotFound
	}
	if s.caseTaken(p.CaseID, p.ID) {
		return apperr.ErrDuplicateCaseID
	}
	p.CreatedAt = prev.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	p.PatientNameCI = text.Fold(p.PatientName)
	p.Recompute()
	s.r.t.patients[p.ID] = p
	return nil
}

func (s patientStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if _, ok := s.r.t.patients[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.r.t.patients, id)
	return nil
}
