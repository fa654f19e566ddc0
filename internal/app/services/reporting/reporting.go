// Package reporting aggregates audits and patients for dashboards and
// builds the spreadsheet exports. Every query is restricted to the caller's
// scope before aggregating; empty data yields zeroed results.
package reporting

import (
	"context"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMonths is the trailing window MonthlyAudits uses when none is given.
const DefaultMonths = 6

// Service answers reporting queries.
type Service struct {
	repo   repo.Repository
	logger *zap.Logger

	// MaxExportRows caps the rows of an export; 0 means no cap.
	MaxExportRows int
	// MonthlyWindow replaces DefaultMonths when positive.
	MonthlyWindow int
}

// New returns a Service.
func New(r repo.Repository, logger *zap.Logger) *Service {
	return &Service{repo: r, logger: logger}
}

// DistrictStat is one district's audit and patient totals.
type DistrictStat struct {
	DistrictID         primitive.ObjectID `json:"district_id"`
	Name               string             `json:"name"`
	AuditCount         int64              `json:"audit_count"`
	TotalBeneficiaries int64              `json:"total_beneficiaries"`
	PatientCount       int64              `json:"patient_count"`
	FraudCount         int64              `json:"fraud_count"`
}

// DistrictStats returns one row per district in scope, by name, including
// districts with no audits.
func (s *Service) DistrictStats(ctx context.Context, scope repo.Scope) ([]DistrictStat, error) {
	districts, err := s.repo.Districts().List(ctx, repo.DistrictFilter{Scope: scope})
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Audits().DistrictTotals(ctx, scope)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]repo.DistrictTotals, len(totals))
	for _, t := range totals {
		byID[t.DistrictID] = t
	}

	out := make([]DistrictStat, 0, len(districts))
	for _, d := range districts {
		row := DistrictStat{DistrictID: d.ID, Name: d.Name}
		if t, ok := byID[d.ID]; ok {
			row.AuditCount = t.AuditCount
			row.TotalBeneficiaries = t.TotalBeneficiaries
			in := repo.InDistrict(d.ID)
			if row.PatientCount, err = s.repo.Patients().Count(ctx, repo.PatientFilter{Scope: in}); err != nil {
				return nil, err
			}
			if row.FraudCount, err = s.repo.Patients().Count(ctx, repo.PatientFilter{Scope: in, NonCompliant: true}); err != nil {
				return nil, err
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// ComplianceResult is the share of patients with neither money collected
// nor records missing.
type ComplianceResult struct {
	Total     int64   `json:"total"`
	Compliant int64   `json:"compliant"`
	Rate      float64 `json:"rate"`
}

// Compliance computes the compliance rate in percent; 0 when there are no
// patients.
func (s *Service) Compliance(ctx context.Context, scope repo.Scope) (ComplianceResult, error) {
	total, err := s.repo.Patients().Count(ctx, repo.PatientFilter{Scope: scope})
	if err != nil {
		return ComplianceResult{}, err
	}
	bad, err := s.repo.Patients().Count(ctx, repo.PatientFilter{Scope: scope, NonCompliant: true})
	if err != nil {
		return ComplianceResult{}, err
	}
	res := ComplianceResult{Total: total, Compliant: total - bad}
	if total > 0 {
		res.Rate = float64(res.Compliant) / float64(total) * 100
	}
	return res, nil
}

// MonthBucket is the number of audits created in one calendar month.
type MonthBucket struct {
	Month string `json:"month"` // yyyy-mm
	Count int64  `json:"count"`
}

// MonthlyAudits buckets audit creation by calendar month over the trailing
// months ending with now's month. Months with no audits are present with 0.
func (s *Service) MonthlyAudits(ctx context.Context, scope repo.Scope, months int, now time.Time) ([]MonthBucket, error) {
	if months <= 0 {
		months = s.MonthlyWindow
	}
	if months <= 0 {
		months = DefaultMonths
	}
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	counts, err := s.repo.Audits().MonthlyCounts(ctx, scope, start)
	if err != nil {
		return nil, err
	}
	byMonth := make(map[string]int64, len(counts))
	for _, c := range counts {
		byMonth[time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")] = c.Count
	}

	out := make([]MonthBucket, months)
	for i := range out {
		key := start.AddDate(0, i, 0).Format("2006-01")
		out[i] = MonthBucket{Month: key, Count: byMonth[key]}
	}
	return out, nil
}

// Summary is the dashboard headline.
type Summary struct {
	TotalAudits           int64            `json:"total_audits"`
	TotalDistricts        int64            `json:"total_districts"`
	TotalPatients         int64            `json:"total_patients"`
	TotalUsers            int64            `json:"total_users,omitempty"`
	StatusCounts          map[string]int64 `json:"status_counts"`
	FraudCases            int64            `json:"fraud_cases"`
	DocumentationComplete int64            `json:"documentation_complete"`
	MissingRecords        int64            `json:"missing_records"`
	BestPractices         int64            `json:"best_practices"`
	ComplianceRate        float64          `json:"compliance_rate"`
}

// Summary collects the headline counts. The independent queries run
// concurrently and the first failure cancels the rest. User totals are
// reported to the unrestricted scope only.
func (s *Service) Summary(ctx context.Context, scope repo.Scope) (Summary, error) {
	var (
		out  Summary
		comp ComplianceResult
	)
	patients := s.repo.Patients()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.TotalAudits, err = s.repo.Audits().Count(ctx, repo.AuditFilter{Scope: scope})
		return err
	})
	g.Go(func() (err error) {
		out.StatusCounts, err = s.repo.Audits().CountByStatus(ctx, scope)
		return err
	})
	g.Go(func() error {
		districts, err := s.repo.Districts().List(ctx, repo.DistrictFilter{Scope: scope})
		out.TotalDistricts = int64(len(districts))
		return err
	})
	g.Go(func() (err error) {
		out.MissingRecords, err = patients.Count(ctx, repo.PatientFilter{Scope: scope, MissingRecords: repo.Ptr(true)})
		return err
	})
	g.Go(func() (err error) {
		out.FraudCases, err = patients.Count(ctx, repo.PatientFilter{Scope: scope, NonCompliant: true})
		return err
	})
	g.Go(func() (err error) {
		comp, err = s.Compliance(ctx, scope)
		return err
	})
	if scope.All {
		g.Go(func() (err error) {
			out.TotalUsers, err = s.repo.Users().Count(ctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	if out.StatusCounts == nil {
		out.StatusCounts = make(map[string]int64, 3)
	}
	for _, st := range []string{models.AuditPending, models.AuditInProgress, models.AuditCompleted} {
		if _, ok := out.StatusCounts[st]; !ok {
			out.StatusCounts[st] = 0
		}
	}
	out.TotalPatients = comp.Total
	out.BestPractices = comp.Compliant
	out.ComplianceRate = comp.Rate
	out.DocumentationComplete = comp.Total - out.MissingRecords
	return out, nil
}
