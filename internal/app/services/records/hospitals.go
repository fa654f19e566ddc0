package records

import (
	"context"
	"slices"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
)

// HospitalRow is a facility with its district name resolved.
type HospitalRow struct {
	HospitalID   string `json:"hospital_id"`
	EHCPName     string `json:"ehcp_name"`
	DistrictName string `json:"district"`
}

// ListHospitals returns the distinct facilities audited in scope, ordered by
// district then facility name.
func (s *Service) ListHospitals(ctx context.Context, scope repo.Scope) ([]HospitalRow, error) {
	hs, err := s.repo.Audits().Hospitals(ctx, scope)
	if err != nil {
		return nil, err
	}
	districts, err := s.repo.Districts().List(ctx, repo.DistrictFilter{Scope: scope})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(districts))
	for _, d := range districts {
		names[d.ID.Hex()] = d.Name
	}
	out := make([]HospitalRow, 0, len(hs))
	for _, h := range hs {
		out = append(out, HospitalRow{
			HospitalID:   h.HospitalID,
			EHCPName:     h.EHCPName,
			DistrictName: names[h.DistrictID.Hex()],
		})
	}
	slices.SortStableFunc(out, func(a, b HospitalRow) int {
		if c := strings.Compare(a.DistrictName, b.DistrictName); c != 0 {
			return c
		}
		return strings.Compare(a.EHCPName, b.EHCPName)
	})
	return out, nil
}

// HospitalDetail is the latest audit of a facility and every patient
// recorded there across audits.
type HospitalDetail struct {
	Audit    models.FieldAudit
	Patients []models.Patient
}

// LatestAuditForHospital returns the detail for hospitalID, or ErrNotFound when no audit
// in scope carries it.
func (s *Service) LatestAuditForHospital(ctx context.Context, scope repo.Scope, hospitalID string) (HospitalDetail, error) {
	hospitalID = strings.TrimSpace(hospitalID)
	if hospitalID == "" {
		return HospitalDetail{}, apperr.ErrNotFound
	}
	audits, err := s.repo.Audits().List(ctx, repo.AuditFilter{Scope: scope, HospitalID: hospitalID, Limit: 1})
	if err != nil {
		return HospitalDetail{}, err
	}
	if len(audits) == 0 {
		return HospitalDetail{}, apperr.ErrNotFound
	}
	patients, err := s.repo.Patients().List(ctx, repo.PatientFilter{Scope: scope, HospitalID: hospitalID})
	if err != nil {
		return HospitalDetail{}, err
	}
	return HospitalDetail{Audit: audits[0], Patients: patients}, nil
}
