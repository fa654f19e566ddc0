package securityevents_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/features/securityevents"
	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/fieldaudit/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeEvents filters by category and event type only.
type fakeEvents struct{ events []audit.Event }

func (f *fakeEvents) match(q audit.QueryFilter) []audit.Event {
	var out []audit.Event
	for _, e := range f.events {
		if q.Category != "" && e.Category != q.Category {
			continue
		}
		if q.EventType != "" && e.EventType != q.EventType {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (f *fakeEvents) Query(_ context.Context, q audit.QueryFilter) ([]audit.Event, error) {
	return f.match(q), nil
}

func (f *fakeEvents) CountByFilter(_ context.Context, q audit.QueryFilter) (int64, error) {
	return int64(len(f.match(q))), nil
}

func (f *fakeEvents) FailedLogins(_ context.Context, since time.Time, _ int64) ([]audit.Event, error) {
	var out []audit.Event
	for _, e := range f.events {
		if e.Category == audit.CategoryAuth && !e.Success && !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func newRouter(t *testing.T, q securityevents.Querier) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	logger := zap.NewNop()
	fx, r := testutil.NewMemoryFixtures(t)
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "s", "", time.Hour, false, logger)
	require.NoError(t, err)
	h := securityevents.NewHandler(q, r, errorsfeature.NewErrorLogger(logger), logger)
	root := chi.NewRouter()
	root.Mount("/security-events", securityevents.Routes(h, sm))
	return root, fx
}

func get(router http.Handler, target string, u testutil.TestUser) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", target, u))
	return rec
}

func TestServeList_ResolvesNames(t *testing.T) {
	ctx := context.Background()
	q := &fakeEvents{}
	router, fx := newRouter(t, q)
	admin := fx.CreateUser(ctx, "root", "Root Admin", models.RoleSuperuser)
	d := fx.CreateDistrict(ctx, "Alpha")
	ghost := primitive.NewObjectID()

	q.events = []audit.Event{
		{ID: primitive.NewObjectID(), Category: audit.CategoryAdmin, EventType: audit.EventDistrictCreated,
			ActorID: &admin.ID, DistrictID: &d.ID, Success: true, Timestamp: time.Now()},
		{ID: primitive.NewObjectID(), Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword,
			UserID: &ghost, Timestamp: time.Now()},
	}

	var page struct {
		Items []struct {
			EventType string `json:"event_type"`
			Actor     string `json:"actor"`
			Target    string `json:"target"`
			District  string `json:"district"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	rec := get(router, "/security-events?category=admin", testutil.UserFor(admin))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Root Admin", page.Items[0].Actor)
	assert.Equal(t, "Alpha", page.Items[0].District)

	rec = get(router, "/security-events?event_type="+audit.EventLoginFailedWrongPassword, testutil.UserFor(admin))
	rec.DecodeJSON(t, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ghost.Hex(), page.Items[0].Target)
}

func TestServeList_BadFilters(t *testing.T) {
	router, _ := newRouter(t, &fakeEvents{})
	super := testutil.SuperUser()

	for _, qs := range []string{
		"category=billing",
		"category=auth&event_type=" + audit.EventDistrictCreated,
		"start_date=yesterday",
		"user_id=zzz",
	} {
		t.Run(qs, func(t *testing.T) {
			get(router, "/security-events?"+qs, super).AssertStatus(t, http.StatusUnprocessableEntity)
		})
	}
}

func TestRoutes_SuperuserOnly(t *testing.T) {
	router, _ := newRouter(t, &fakeEvents{})
	get(router, "/security-events", testutil.StaffUser()).AssertStatus(t, http.StatusForbidden)
	get(router, "/security-events/types", testutil.SuperUser()).AssertStatus(t, http.StatusOK)
}

func TestFailedLogins(t *testing.T) {
	q := &fakeEvents{events: []audit.Event{
		{ID: primitive.NewObjectID(), Category: audit.CategoryAuth, EventType: audit.EventLoginFailedUserNotFound, Timestamp: time.Now()},
		{ID: primitive.NewObjectID(), Category: audit.CategoryAuth, EventType: audit.EventLoginFailedUserNotFound, Timestamp: time.Now().Add(-72 * time.Hour)},
		{ID: primitive.NewObjectID(), Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true, Timestamp: time.Now()},
	}}
	router, _ := newRouter(t, q)

	var body struct {
		Items []any `json:"items"`
	}
	rec := get(router, "/security-events/failed-logins", testutil.SuperUser())
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &body)
	assert.Len(t, body.Items, 1)

	get(router, "/security-events/failed-logins?hours=0", testutil.SuperUser()).AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestServeList_MongoStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	store := audit.New(db)
	require.NoError(t, store.EnsureIndexes(ctx))
	require.NoError(t, store.Log(ctx, audit.Event{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true}))

	router, _ := newRouter(t, store)
	rec := get(router, "/security-events?category=auth", testutil.SuperUser())
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"total":1`)
}
