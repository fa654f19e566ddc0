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

type auditStore struct{ r *Repo }

func auditLess(a, b models.FieldAudit) bool {
	if !a.VisitDate.Equal(b.VisitDate) {
		return a.VisitDate.After(b.VisitDate)
	}
	if a.EHCPNameCI != b.EHCPNameCI {
		return a.EHCPNameCI < b.EHCPNameCI
	}
	return a.ID.Hex() < b.ID.Hex()
}

func matchAudit(a models.FieldAudit, f repo.AuditFilter) bool {
	if !f.Scope.Allows(a.DistrictID) {
		return false
	}
	if f.HospitalID != "" && a.HospitalID != f.HospitalID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.CreatedSince != nil && a.CreatedAt.Before(*f.CreatedSince) {
		return false
	}
	return hasPrefixFold(a.EHCPName, f.Search)
}

// touchDistrict bumps the district's UpdatedAt. Callers hold r.mu.
func (s auditStore) touchDistrict(id primitive.ObjectID) bool {
	d, ok := s.r.t.districts[id]
	if !ok {
		return false
	}
	d.UpdatedAt = time.Now().UTC()
	s.r.t.districts[id] = d
	return true
}

func (s auditStore) Create(_ context.Context, a models.FieldAudit) (models.FieldAudit, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if !s.touchDistrict(a.DistrictID) {
		return models.FieldAudit{}, apperr.ErrNotFound
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	a.EHCPNameCI = text.Fold(a.EHCPName)
	a.Photos = slices.Clone(a.Photos)
	a.Recompute()
	s.r.t.audits[a.ID] = a
	return a, nil
}

func (s auditStore) GetByID(_ context.Context, id primitive.ObjectID) (models.FieldAudit, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	a, ok := s.r.t.audits[id]
	if !ok {
		return models.FieldAudit{}, apperr.ErrNotFound
	}
	return a, nil
}

func (s auditStore) filtered(f repo.AuditFilter) []models.FieldAudit {
	var out []models.FieldAudit
	for _, a := range sortedValues(s.r.t.audits, auditLess) {
		if matchAudit(a, f) {
			out = append(out, a)
		}
	}
	return out
}

func (s auditStore) List(_ context.Context, f repo.AuditFilter) ([]models.FieldAudit, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return page(s.filtered(f), f.Offset, f.Limit), nil
}

func (s auditStore) Count(_ context.Context, f repo.AuditFilter) (int64, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return int64(len(s.filtered(repo.AuditFilter{
		Scope: f.Scope, HospitalID: f.HospitalID, Status: f.Status, Search: f.Search, CreatedSince: f.CreatedSince,
	}))), nil
}

func (s auditStore) CountByStatus(_ context.Context, sc repo.Scope) (map[string]int64, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	out := map[string]int64{}
	for _, a := range s.r.t.audits {
		if sc.Allows(a.DistrictID) {
			out[a.Status]++
		}
	}
	return out, nil
}

func (s auditStore) Update(_ context.Context, a models.FieldAudit) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	prev, ok := s.r.t.audits[a.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	if !s.touchDistrict(a.DistrictID) {
		return apperr.ErrNotFound
	}
	a.CreatedAt = prev.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	a.EHCPNameCI = text.Fold(a.EHCPName)
	a.Photos = slices.Clone(a.Photos)
	a.Recompute()
	s.r.t.audits[a.ID] = a
	return nil
}

func (s auditStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if _, ok := s.r.t.audits[id]; !ok {
		return apperr.ErrNotFound
	}
	for pid, p := range s.r.t.patients {
		if p.AuditID == id {
			delete(s.r.t.patients, pid)
		}
	}
	delete(s.r.t.audits, id)
	return nil
}

func (s auditStore) CountByDistrict(_ context.Context, districtID primitive.ObjectID) (int64, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	var n int64
	for _, a := range s.r.t.audits {
		if a.DistrictID == districtID {
			n++
		}
	}
	return n, nil
}

func (s auditStore) Hospitals(_ context.Context, sc repo.Scope) ([]repo.Hospital, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	seen := map[repo.Hospital]bool{}
	var out []repo.Hospital
	for _, a := range s.filtered(repo.AuditFilter{Scope: sc}) {
		h := repo.Hospital{HospitalID: a.HospitalID, EHCPName: a.EHCPName, DistrictID: a.DistrictID}
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	slices.SortStableFunc(out, func(a, b repo.Hospital) int {
		if c := strings.Compare(a.HospitalID, b.HospitalID); c != 0 {
			return c
		}
		return strings.Compare(a.EHCPName, b.EHCPName)
	})
	return out, nil
}

func (s auditStore) DistrictTotals(_ context.Context, sc repo.Scope) ([]repo.DistrictTotals, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	byID := map[primitive.ObjectID]*repo.DistrictTotals{}
	var order []primitive.ObjectID
	for _, a := range s.filtered(repo.AuditFilter{Scope: sc}) {
		t, ok := byID[a.DistrictID]
		if !ok {
			t = &repo.DistrictTotals{DistrictID: a.DistrictID}
			byID[a.DistrictID] = t
			order = append(order, a.DistrictID)
		}
		t.AuditCount++
		t.TotalBeneficiaries += int64(a.Beneficiaries)
	}
	out := make([]repo.DistrictTotals, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	slices.SortFunc(out, func(a, b repo.DistrictTotals) int {
		return strings.Compare(a.DistrictID.Hex(), b.DistrictID.Hex())
	})
	return out, nil
}

func (s auditStore) MonthlyCounts(_ context.Context, sc repo.Scope, since time.Time) ([]repo.MonthCount, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	type ym struct {
		y int
		m time.Month
	}
	counts := map[ym]int64{}
	for _, a := range s.filtered(repo.AuditFilter{Scope: sc, CreatedSince: &since}) {
		c := a.CreatedAt.UTC()
		counts[ym{c.Year(), c.Month()}]++
	}
	out := make([]repo.MonthCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, repo.MonthCount{Year: k.y, Month: k.m, Count: n})
	}
	slices.SortFunc(out, func(a, b repo.MonthCount) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return int(a.Month) - int(b.Month)
	})
	return out, nil
}
