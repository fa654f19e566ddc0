// internal/app/features/actionlogs/record.go
package actionlogs

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/policy/scopepolicy"
	"github.com/dalemusser/fieldaudit/internal/app/services/actions"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordInput struct {
	ActionType  string `json:"action_type"`
	Description string `json:"description"`
	PatientID   string `json:"patient_id"`
	Notes       string `json:"notes"`
}

// HandleRecord handles POST /action-logs: a coordinator records one action
// in their own district, optionally about one of its patients.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	var in recordInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode action", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	coord, err := h.Actions.ActingCoordinator(ctx, shared.Caller(r))
	if err != nil {
		h.ErrLog.Fail(w, r, "acting coordinator", err)
		return
	}

	var patientID *primitive.ObjectID
	if in.PatientID != "" {
		ids, err := formutil.ObjectIDs("patient_id", []string{in.PatientID})
		if err != nil {
			h.ErrLog.Fail(w, r, "decode action", err)
			return
		}
		p, _, err := h.Records.GetPatient(ctx, repo.InDistrict(*coord.DistrictID), ids[0])
		if err != nil {
			h.ErrLog.Fail(w, r, "action patient", err)
			return
		}
		patientID = &p.ID
	}

	l, err := h.Actions.Record(ctx, actions.Entry{
		CoordinatorID: coord.ID,
		DistrictID:    *coord.DistrictID,
		ActionType:    strings.ToUpper(strings.TrimSpace(in.ActionType)),
		Description:   in.Description,
		PatientID:     patientID,
		Notes:         in.Notes,
	})
	if err != nil {
		h.ErrLog.Fail(w, r, "record action", err)
		return
	}
	viewdata.Created(w, l)
}

type bulkInput struct {
	PatientIDs []string `json:"patient_ids"`
	Notes      string   `json:"notes"`
}

// HandleBulk handles POST /action-logs/bulk/{action}. Patients outside the
// coordinator's district are skipped, not reported as errors.
func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	var run func(context.Context, scopepolicy.Caller, []primitive.ObjectID, string) (actions.BulkResult, error)
	switch action {
	case actions.BulkVerifyRecords:
		run = h.Actions.VerifyRecords
	case actions.BulkCheckMoneyStatus:
		run = h.Actions.CheckMoneyStatus
	case actions.BulkMarkAuditComplete:
		run = h.Actions.MarkAuditComplete
	default:
		h.ErrLog.Fail(w, r, "bulk action", apperr.ErrNotFound)
		return
	}

	var in bulkInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode bulk", err)
		return
	}
	if len(in.PatientIDs) == 0 {
		h.ErrLog.Fail(w, r, "decode bulk", apperr.Required("patient_ids"))
		return
	}
	ids, err := formutil.ObjectIDs("patient_ids", in.PatientIDs)
	if err != nil {
		h.ErrLog.Fail(w, r, "decode bulk", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	caller := shared.Caller(r)
	res, err := run(ctx, caller, ids, in.Notes)
	if err != nil {
		h.ErrLog.Fail(w, r, "bulk "+action, err)
		return
	}
	var district *primitive.ObjectID
	if c := shared.Resolution(r).Coordinator; c != nil {
		district = c.DistrictID
	}
	h.AuditLog.BulkAction(ctx, r, caller.UserID, district, action, res.Affected)
	viewdata.OK(w, res)
}
