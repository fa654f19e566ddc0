package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/fieldaudit/internal/app/policy/scopepolicy"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Bulk action names.
const (
	BulkVerifyRecords     = "verify-records"
	BulkCheckMoneyStatus  = "check-money-status"
	BulkMarkAuditComplete = "mark-audit-complete"
)

// BulkResult reports how many requested patients were acted on.
type BulkResult struct {
	Affected int `json:"affected_count"`
	Skipped  int `json:"skipped_count"`
}

// step mutates one in-scope patient inside the transaction and returns the
// action type and description to log.
type step func(ctx context.Context, p models.Patient, a models.FieldAudit) (string, string, error)

// VerifyRecords marks each patient's mandatory records as present.
func (s *Service) VerifyRecords(ctx context.Context, caller scopepolicy.Caller, patientIDs []primitive.ObjectID, notes string) (BulkResult, error) {
	return s.bulk(ctx, caller, BulkVerifyRecords, patientIDs, notes,
		func(ctx context.Context, p models.Patient, _ models.FieldAudit) (string, string, error) {
			p.MissingRecords = false
			p.Recompute()
			if err := s.repo.Patients().Update(ctx, p); err != nil {
				return "", "", err
			}
			return models.ActionRecordCheck, fmt.Sprintf("Verified records for patient %s", p.CaseID), nil
		})
}

// CheckMoneyStatus logs a money-collection review of each patient.
func (s *Service) CheckMoneyStatus(ctx context.Context, caller scopepolicy.Caller, patientIDs []primitive.ObjectID, notes string) (BulkResult, error) {
	return s.bulk(ctx, caller, BulkCheckMoneyStatus, patientIDs, notes,
		func(_ context.Context, p models.Patient, _ models.FieldAudit) (string, string, error) {
			state := "no money collected"
			if p.MoneyCollection {
				state = "money collected"
			}
			return models.ActionMoneyVerify, fmt.Sprintf("Checked money status for patient %s: %s", p.CaseID, state), nil
		})
}

// MarkAuditComplete logs completion for each patient and moves the
// patient's audit to Completed.
func (s *Service) MarkAuditComplete(ctx context.Context, caller scopepolicy.Caller, patientIDs []primitive.ObjectID, notes string) (BulkResult, error) {
	return s.bulk(ctx, caller, BulkMarkAuditComplete, patientIDs, notes,
		func(ctx context.Context, p models.Patient, a models.FieldAudit) (string, string, error) {
			if a.Status != models.AuditCompleted {
				a.Status = models.AuditCompleted
				if err := s.repo.Audits().Update(ctx, a); err != nil {
					return "", "", err
				}
			}
			return models.ActionAudit, fmt.Sprintf("Marked audit complete for patient %s at %s", p.CaseID, a.EHCPName), nil
		})
}

// bulk applies fn to each distinct in-scope patient. Unknown and out-of-scope
// ids are skipped. Each patient's change and its log commit together.
func (s *Service) bulk(ctx context.Context, caller scopepolicy.Caller, action string, ids []primitive.ObjectID, notes string, fn step) (BulkResult, error) {
	coord, err := s.ActingCoordinator(ctx, caller)
	if err != nil {
		return BulkResult{}, err
	}
	scope := repo.InDistrict(*coord.DistrictID)

	var res BulkResult
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			res.Skipped++
			continue
		}
		seen[id] = true

		var logged models.ActionLog
		err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
			p, err := s.repo.Patients().GetByID(ctx, id)
			if errors.Is(err, apperr.ErrNotFound) {
				return errSkip
			}
			if err != nil {
				return err
			}
			a, err := s.repo.Audits().GetByID(ctx, p.AuditID)
			if errors.Is(err, apperr.ErrNotFound) {
				return errSkip
			}
			if err != nil {
				return err
			}
			if !scope.Allows(a.DistrictID) {
				return errSkip
			}
			actionType, desc, err := fn(ctx, p, a)
			if err != nil {
				return err
			}
			logged, err = s.appendEntry(ctx, Entry{
				CoordinatorID: coord.ID,
				DistrictID:    a.DistrictID,
				ActionType:    actionType,
				Description:   desc,
				PatientID:     &p.ID,
				Notes:         notes,
			})
			return err
		})
		switch {
		case err == nil:
			s.mirror(logged)
			res.Affected++
		case errors.Is(err, errSkip):
			res.Skipped++
		default:
			s.metrics.Bulk(action, res.Affected, res.Skipped)
			return res, fmt.Errorf("%s patient %s: %w", action, id.Hex(), err)
		}
	}

	s.metrics.Bulk(action, res.Affected, res.Skipped)
	s.logger.Info("bulk action",
		zap.String("action", action),
		zap.String("coordinator_id", coord.ID.Hex()),
		zap.Int("affected", res.Affected),
		zap.Int("skipped", res.Skipped))
	return res, nil
}
