// internal/app/features/securityevents/list.go
package securityevents

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/paging"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /security-events. Filters: category, event_type,
// user_id, district_id, start_date, end_date (yyyy-mm-dd, inclusive),
// limit, offset or start.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		h.ErrLog.Fail(w, r, "security event filter", err)
		return
	}
	page := paging.Parse(r)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.Fail(w, r, "query security events", err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.Fail(w, r, "count security events", err)
		return
	}
	viewdata.OK(w, paging.NewList(h.resolve(ctx, events), total, page))
}

func listFilter(r *http.Request) (audit.QueryFilter, error) {
	f := audit.QueryFilter{
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "event_type")),
	}
	if f.Category != "" && f.Category != audit.CategoryAuth && f.Category != audit.CategoryAdmin {
		return f, apperr.Invalid("category", "unknown category")
	}
	if f.EventType != "" && !knownEvent(f.Category, f.EventType) {
		return f, apperr.Invalid("event_type", "unknown event type for category")
	}

	var err error
	if f.UserID, err = formutil.QueryObjectID(r, "user_id"); err != nil {
		return f, err
	}
	if f.DistrictID, err = formutil.QueryObjectID(r, "district_id"); err != nil {
		return f, err
	}
	if f.StartTime, err = formutil.QueryDate(r, "start_date"); err != nil {
		return f, err
	}
	if f.EndTime, err = formutil.QueryDate(r, "end_date"); err != nil {
		return f, err
	}
	if f.EndTime != nil {
		endOfDay := f.EndTime.Add(24*time.Hour - time.Second)
		f.EndTime = &endOfDay
	}
	return f, nil
}

// resolve turns ids into display names. Lookups that fail fall back to
// the hex id.
func (h *Handler) resolve(ctx context.Context, events []audit.Event) []listItem {
	userNames := map[primitive.ObjectID]string{}
	userName := func(id primitive.ObjectID) string {
		if n, ok := userNames[id]; ok {
			return n
		}
		n := id.Hex()
		if u, err := h.Repo.Users().GetByID(ctx, id); err == nil {
			n = u.FullName
			if n == "" {
				n = u.LoginName
			}
		}
		userNames[id] = n
		return n
	}

	districtNames := map[primitive.ObjectID]string{}
	if ds, err := h.Repo.Districts().List(ctx, repo.DistrictFilter{Scope: repo.AllRows()}); err != nil {
		h.Log.Warn("failed to fetch district names for security events", zap.Error(err))
	} else {
		for _, d := range ds {
			districtNames[d.ID] = d.Name
		}
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.ActorID != nil {
			item.ActorName = userName(*e.ActorID)
		}
		if e.UserID != nil {
			item.TargetName = userName(*e.UserID)
		}
		if e.DistrictID != nil {
			if n, ok := districtNames[*e.DistrictID]; ok {
				item.DistrictName = n
			} else {
				item.DistrictName = e.DistrictID.Hex()
			}
		}
		items = append(items, item)
	}
	return items
}

// ServeTypes handles GET /security-events/types: the filter vocabulary.
func (h *Handler) ServeTypes(w http.ResponseWriter, r *http.Request) {
	viewdata.OK(w, map[string]any{"categories": allCategories()})
}

const maxFailedLoginHours = 24 * 30

// ServeFailedLogins handles GET /security-events/failed-logins?hours=24.
func (h *Handler) ServeFailedLogins(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if v := query.Get(r, "hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxFailedLoginHours {
			h.ErrLog.Fail(w, r, "failed logins window", apperr.Invalid("hours", "must be between 1 and "+strconv.Itoa(maxFailedLoginHours)))
			return
		}
		hours = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	since := h.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	events, err := h.Events.FailedLogins(ctx, since, paging.PageSize)
	if err != nil {
		h.ErrLog.Fail(w, r, "failed logins", err)
		return
	}
	viewdata.OK(w, map[string]any{
		"since": since,
		"items": h.resolve(ctx, events),
	})
}
