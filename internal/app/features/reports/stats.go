// internal/app/features/reports/stats.go
package reports

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/fieldaudit/internal/app/features/shared"
	"github.com/dalemusser/fieldaudit/internal/app/services/reporting"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
)

// maxMonths bounds the monthly window a caller may request.
const maxMonths = 36

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

// ServeSummary handles GET /reports/summary.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	s, err := h.Reporting.Summary(ctx, shared.Scope(r))
	if err != nil {
		h.ErrLog.Fail(w, r, "report summary", err)
		return
	}
	viewdata.OK(w, s)
}

// ServeDistricts handles GET /reports/districts.
func (h *Handler) ServeDistricts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Reporting.DistrictStats(ctx, shared.Scope(r))
	if err != nil {
		h.ErrLog.Fail(w, r, "district stats", err)
		return
	}
	viewdata.OK(w, itemsResponse[reporting.DistrictStat]{Items: rows})
}

// ServeCompliance handles GET /reports/compliance.
func (h *Handler) ServeCompliance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Reporting.Compliance(ctx, shared.Scope(r))
	if err != nil {
		h.ErrLog.Fail(w, r, "compliance", err)
		return
	}
	viewdata.OK(w, c)
}

// ServeMonthly handles GET /reports/monthly?months=N.
func (h *Handler) ServeMonthly(w http.ResponseWriter, r *http.Request) {
	months := 0
	if v := query.Get(r, "months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxMonths {
			h.ErrLog.Fail(w, r, "monthly window", apperr.Invalid("months", "must be between 1 and "+strconv.Itoa(maxMonths)))
			return
		}
		months = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Reporting.MonthlyAudits(ctx, shared.Scope(r), months, h.Now())
	if err != nil {
		h.ErrLog.Fail(w, r, "monthly audits", err)
		return
	}
	viewdata.OK(w, itemsResponse[reporting.MonthBucket]{Items: rows})
}
